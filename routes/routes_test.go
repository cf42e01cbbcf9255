package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"servicedome-backend/config"
	"servicedome-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type testServer struct {
	router        *gin.Engine
	notifications *services.NotificationService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	log := zap.NewNop()
	cfg := &config.Config{
		CORSOrigins: []string{"http://localhost:3000"},
		Auth:        config.Auth{JWTSecret: "route-secret", WebhookSecret: "hook-secret"},
	}

	notifications := services.NewNotificationService(db, log, nil, nil, time.Second)
	t.Cleanup(notifications.Wait)
	svc := Services{
		Accounts:      services.NewAccountService(db, log, services.AuthSettings{JWTSecret: cfg.Auth.JWTSecret, TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost}),
		Pages:         services.NewPageService(db, log, nil, 0),
		Slots:         services.NewSlotService(db, log),
		Bookings:      services.NewBookingService(db, log, notifications, nil, true),
		Reviews:       services.NewReviewService(db),
		Notifications: notifications,
	}
	return &testServer{router: SetupRouter(cfg, svc, log), notifications: notifications}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, headers ...string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

type account struct {
	ID    string
	Token string
}

func (s *testServer) register(t *testing.T, name string, roles ...string) account {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "password123",
		"roles":    roles,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	var data struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return account{ID: data.User.ID, Token: data.Token}
}

func dataID(t *testing.T, env envelope) string {
	t.Helper()
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	require.NotEmpty(t, v.ID)
	return v.ID
}

var pageBody = gin.H{
	"businessName": "Fade Lab",
	"category":     `{"name":"Beauty","slug":"beauty"}`,
	"openingHours": []gin.H{{"day": "Monday", "openingTime": "09:00", "closingTime": "17:00"}},
}

func bookingBody(pageID string) gin.H {
	return gin.H{
		"pageId":          pageID,
		"items":           `[{"name":"Haircut","quantity":1,"price":20}]`,
		"totalPrice":      20,
		"deliveryAddress": "12 Main St",
		"slot":            gin.H{"day": "Monday", "from": "09:00", "to": "09:30"},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestMarketplaceFlow(t *testing.T) {
	s := newTestServer(t)
	vendor := s.register(t, "vera", "Vendor")
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	status, env := s.do(t, http.MethodPost, "/pages", vendor.Token, pageBody)
	require.Equal(t, http.StatusCreated, status, env.Error)
	pageID := dataID(t, env)

	status, env = s.do(t, http.MethodPost, "/pages", vendor.Token, pageBody)
	assert.Equal(t, http.StatusForbidden, status)
	assert.False(t, env.Success)
	assert.Equal(t, "quota_exceeded", env.Code)

	status, env = s.do(t, http.MethodPost, "/pages", alice.Token, pageBody)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", env.Code)

	status, env = s.do(t, http.MethodPost, "/pages/"+pageID+"/timeslots", vendor.Token, gin.H{"day": "Monday", "time": "09:00"})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = s.do(t, http.MethodPost, "/pages/"+pageID+"/timeslots", vendor.Token, gin.H{"day": "Monday", "time": "09:00"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", env.Code)

	status, env = s.do(t, http.MethodPost, "/bookings", alice.Token, bookingBody(pageID))
	require.Equal(t, http.StatusCreated, status, env.Error)
	bookingID := dataID(t, env)

	status, env = s.do(t, http.MethodPost, "/bookings", bob.Token, bookingBody(pageID))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "slot_unavailable", env.Code)

	status, env = s.do(t, http.MethodPut, "/bookings/"+bookingID+"/status", alice.Token, gin.H{"status": "Confirmed"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodPut, "/bookings/"+bookingID+"/status", vendor.Token, gin.H{"status": "Confirmed"})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = s.do(t, http.MethodPut, "/bookings/"+bookingID+"/status", vendor.Token, gin.H{"status": "Pending"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_transition", env.Code)

	status, env = s.do(t, http.MethodGet, "/bookings/"+bookingID, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodGet, "/bookings/"+bookingID, alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var view struct {
		Status string `json:"status"`
		Page   struct {
			BusinessName string `json:"businessName"`
		} `json:"page"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Confirmed", view.Status)
	assert.Equal(t, "Fade Lab", view.Page.BusinessName)

	status, env = s.do(t, http.MethodGet, "/bookings", vendor.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	s.notifications.Wait()
	status, env = s.do(t, http.MethodGet, "/notifications", vendor.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var notes []struct {
		Type string `json:"type"`
		Read bool   `json:"read"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "job", notes[0].Type)

	status, _ = s.do(t, http.MethodPatch, "/notifications/0/read", vendor.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, env = s.do(t, http.MethodPatch, "/notifications/7/read", vendor.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", env.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	vendor := s.register(t, "vic", "Vendor")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
		code   string
	}{
		{"malformed id", http.MethodGet, "/pages/not-a-uuid", "", nil, http.StatusBadRequest, "validation_error"},
		{"unknown page", http.MethodGet, "/pages/" + uuid.NewString(), "", nil, http.StatusNotFound, "not_found"},
		{"unknown page slots", http.MethodGet, "/pages/" + uuid.NewString() + "/timeslots", "", nil, http.StatusNotFound, "not_found"},
		{"no token", http.MethodGet, "/bookings", "", nil, http.StatusUnauthorized, "unauthorized"},
		{"bad login", http.MethodPost, "/auth/login", "", gin.H{"identifier": "nobody@example.com", "password": "x"}, http.StatusUnauthorized, "unauthorized"},
		{"bad opening hours", http.MethodPost, "/pages", vendor.Token, gin.H{
			"businessName": "Bad Hours",
			"category":     gin.H{"name": "Beauty", "slug": "beauty"},
			"openingHours": `[{"day":"Funday","openingTime":"09:00","closingTime":"17:00"}]`,
		}, http.StatusBadRequest, "validation_error"},
		{"duplicate email", http.MethodPost, "/auth/register", "", gin.H{
			"name": "vic", "email": "vic@example.com", "password": "password123",
		}, http.StatusConflict, "conflict"},
		{"webhook without secret", http.MethodPost, "/webhooks/subscription", "", gin.H{
			"userId": vendor.ID, "membershipTier": "Premium", "subscriptionStatus": "Active",
		}, http.StatusUnauthorized, "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Code)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestSubscriptionWebhookLiftsQuota(t *testing.T) {
	s := newTestServer(t)
	vendor := s.register(t, "wes", "Vendor")

	status, env := s.do(t, http.MethodPost, "/pages", vendor.Token, pageBody)
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = s.do(t, http.MethodPost, "/webhooks/subscription", "", gin.H{
		"userId":             vendor.ID,
		"membershipTier":     "Premium",
		"subscriptionStatus": "Active",
	}, "X-Webhook-Secret", "hook-secret")
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = s.do(t, http.MethodPost, "/pages", vendor.Token, pageBody)
	assert.Equal(t, http.StatusCreated, status, env.Error)
}

func TestCreateBooking_ItemsWithClientKeys(t *testing.T) {
	s := newTestServer(t)
	vendor := s.register(t, "val", "Vendor")
	carl := s.register(t, "carl")

	status, env := s.do(t, http.MethodPost, "/pages", vendor.Token, pageBody)
	require.Equal(t, http.StatusCreated, status, env.Error)
	pageID := dataID(t, env)
	status, env = s.do(t, http.MethodPost, "/pages/"+pageID+"/timeslots", vendor.Token, gin.H{"day": "Monday", "time": "09:00"})
	require.Equal(t, http.StatusCreated, status, env.Error)

	body := bookingBody(pageID)
	body["items"] = []gin.H{{"serviceId": uuid.NewString(), "name": "Haircut", "quantity": 1, "price": 20}}
	status, env = s.do(t, http.MethodPost, "/bookings", carl.Token, body)
	require.Equal(t, http.StatusCreated, status, env.Error)

	var booking struct {
		Items []struct {
			Name     string `json:"name"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &booking))
	require.Len(t, booking.Items, 1)
	assert.Equal(t, "Haircut", booking.Items[0].Name)
	assert.Equal(t, 1, booking.Items[0].Quantity)
}

func TestListCategories_UnknownPage(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, http.MethodGet, "/pages/"+uuid.NewString()+"/categories", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", env.Code)
}

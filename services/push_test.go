package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"servicedome-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

func TestExpoPusher(t *testing.T) {
	var got map[string]interface{}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"status":"ok","id":"ticket-1"}}`))
	}))
	defer srv.Close()

	p := NewExpoPusher(srv.URL, "expo-token")
	err := p.Push(context.Background(), PushMessage{
		To:    "ExponentPushToken[abc]",
		Title: "New booking",
		Body:  "Monday 09:00",
		Data:  map[string]string{"type": "job"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer expo-token", auth)
	assert.Equal(t, "ExponentPushToken[abc]", got["to"])
	assert.Equal(t, "New booking", got["title"])
	assert.Equal(t, map[string]interface{}{"type": "job"}, got["data"])
}

func TestExpoPusher_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewExpoPusher(srv.URL, "").Push(context.Background(), PushMessage{To: "x"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestExpoPusher_TicketErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"single ok", `{"data":{"status":"ok","id":"a"}}`, true},
		{"batch ok", `{"data":[{"status":"ok","id":"a"}]}`, true},
		{"device gone", `{"data":{"status":"error","message":"not a registered push token","details":{"error":"DeviceNotRegistered"}}}`, false},
		{"batch with failure", `{"data":[{"status":"ok","id":"a"},{"status":"error","details":{"error":"MessageTooBig"}}]}`, false},
		{"request errors", `{"errors":[{"code":"PUSH_TOO_MANY_EXPERIENCE_IDS","message":"mixed projects"}]}`, false},
		{"not json", `<html>`, false},
		{"no ticket", `{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewExpoPusher(srv.URL, "").Push(context.Background(), PushMessage{To: "ExponentPushToken[abc]"})
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}

func TestDispatchPush_ExpoTicketErrorIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"status":"error","details":{"error":"DeviceNotRegistered"}}}`))
	}))
	defer srv.Close()

	f := newFixture(t)
	ctx := context.Background()
	u := f.customer(t, "tess")
	require.NoError(t, f.accounts.UpdatePushToken(ctx, u.ID, "ExponentPushToken[gone]"))

	notifications := NewNotificationService(f.db, zap.NewNop(), NewExpoPusher(srv.URL, ""), nil, time.Second)
	notifications.NotifyAsync(u.ID, models.Notification{Type: models.NotificationBooking, Title: "Booking confirmed"})
	notifications.Wait()

	list, err := notifications.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type fakeSMS struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeSMS) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	return &twilioApi.ApiV2010Message{}, f.err
}

func TestSMSPusher(t *testing.T) {
	api := &fakeSMS{}
	p := &SMSPusher{api: api, from: "+15550000000"}

	require.NoError(t, p.Push(context.Background(), PushMessage{To: "+15551112222", Title: "Booking confirmed", Body: "See you Monday"}))
	require.NotNil(t, api.params.To)
	assert.Equal(t, "+15551112222", *api.params.To)
	assert.Equal(t, "+15550000000", *api.params.From)
	assert.Equal(t, "Booking confirmed: See you Monday", *api.params.Body)

	api.err = errors.New("20003 authenticate")
	assert.ErrorIs(t, p.Push(context.Background(), PushMessage{To: "+1"}), ErrUpstream)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Push(ctx, PushMessage{To: "+1"}), context.Canceled)
}

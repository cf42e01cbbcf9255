package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"servicedome-backend/config"
	"servicedome-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	return db
}

type publishedEvent struct {
	Key     string
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Key: key, Payload: v})
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.Key)
	}
	return keys
}

type recordingPusher struct {
	mu   sync.Mutex
	sent []PushMessage
	err  error
}

func (p *recordingPusher) Push(ctx context.Context, msg PushMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return p.err
}

func (p *recordingPusher) messages() []PushMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PushMessage(nil), p.sent...)
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]string
	gets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string]string{}}
}

func (c *memoryCache) Get(ctx context.Context, namespace, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.items[namespace+":"+key]
	if !ok {
		return "", fmt.Errorf("miss")
	}
	return v, nil
}

func (c *memoryCache) Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[namespace+":"+key] = value.(string)
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, namespace, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, namespace+":"+key)
	return nil
}

func (c *memoryCache) has(namespace, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[namespace+":"+key]
	return ok
}

type fixture struct {
	db            *gorm.DB
	cache         *memoryCache
	publisher     *recordingPublisher
	expo          *recordingPusher
	sms           *recordingPusher
	notifications *NotificationService
	accounts      *AccountService
	pages         *PageService
	slots         *SlotService
	bookings      *BookingService
	reviews       *ReviewService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()

	f := &fixture{
		db:        db,
		cache:     newMemoryCache(),
		publisher: &recordingPublisher{},
		expo:      &recordingPusher{},
		sms:       &recordingPusher{},
	}
	f.notifications = NewNotificationService(db, log, f.expo, f.sms, time.Second)
	f.accounts = NewAccountService(db, log, AuthSettings{JWTSecret: "test-secret", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	f.pages = NewPageService(db, log, f.cache, time.Minute)
	f.slots = NewSlotService(db, log)
	f.bookings = NewBookingService(db, log, f.notifications, f.publisher, true)
	f.reviews = NewReviewService(db)

	t.Cleanup(f.notifications.Wait)
	return f
}

func (f *fixture) user(t *testing.T, name string, roles ...models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Email:    name + "@example.com",
		Password: "not-a-real-hash",
		Name:     name,
		Phone:    "+15550001111",
		Roles:    roles,
		IsActive: true,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) vendor(t *testing.T, name string) *models.User {
	return f.user(t, name, models.RoleVendor)
}

func (f *fixture) customer(t *testing.T, name string) *models.User {
	return f.user(t, name, models.RoleCustomer)
}

func draft(name string) PageDraft {
	return PageDraft{
		Category:     models.PageCategory{Name: "Beauty", Slug: "beauty"},
		BusinessName: name,
		OpeningHours: []models.OpeningHours{
			{Day: "Monday", OpeningTime: "09:00", ClosingTime: "17:00"},
			{Day: "Sunday", OpeningTime: "00:00", ClosingTime: "00:00", IsClosed: true},
		},
	}
}

func (f *fixture) page(t *testing.T, owner *models.User) *models.Page {
	t.Helper()
	p, err := f.pages.CreatePage(context.Background(), owner.ID, draft(owner.Name+" Studio"))
	require.NoError(t, err)
	return p
}

func (f *fixture) slot(t *testing.T, page *models.Page, day, label string) *models.TimeSlot {
	t.Helper()
	s, err := f.slots.CreateSlot(context.Background(), page.ID, page.VendorID, day, label, models.SlotAvailable, "")
	require.NoError(t, err)
	return s
}

func (f *fixture) slotStatus(t *testing.T, pageID uuid.UUID, day, label string) models.SlotStatus {
	t.Helper()
	var s models.TimeSlot
	require.NoError(t, f.db.Where("page_id = ? AND day = ? AND time = ?", pageID, day, label).First(&s).Error)
	return s.Status
}

// beforeUpdate runs fn once, ahead of the first UPDATE issued against table
// and before gorm opens its default transaction for it. It lets a test slip
// a competing write in between a service's read and its write. When the
// service already holds a transaction, fn must write through
// tx.Session(&gorm.Session{NewDB: true}) so it shares the open connection.
func (f *fixture) beforeUpdate(t *testing.T, table string, fn func(tx *gorm.DB)) {
	t.Helper()
	name := "test:before_update:" + uuid.NewString()
	var fired atomic.Bool
	require.NoError(t, f.db.Callback().Update().Before("gorm:begin_transaction").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != table || !fired.CompareAndSwap(false, true) {
			return
		}
		fn(tx)
	}))
	t.Cleanup(func() { _ = f.db.Callback().Update().Remove(name) })
}

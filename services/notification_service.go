package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"servicedome-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier is the fire-and-forget side of NotificationService used by the
// booking flow.
type Notifier interface {
	NotifyAsync(userID uuid.UUID, n models.Notification)
}

type NotificationService struct {
	db          *gorm.DB
	logger      *zap.Logger
	expo        Pusher
	sms         Pusher
	pushTimeout time.Duration

	wg sync.WaitGroup
}

// NewNotificationService builds the relay. Either pusher may be nil.
func NewNotificationService(db *gorm.DB, logger *zap.Logger, expo, sms Pusher, pushTimeout time.Duration) *NotificationService {
	if pushTimeout <= 0 {
		pushTimeout = 5 * time.Second
	}
	return &NotificationService{db: db, logger: logger, expo: expo, sms: sms, pushTimeout: pushTimeout}
}

// Notify records n at the head of the user's log and trims the log to
// MaxNotifications entries.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, n models.Notification) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: user not found", ErrNotFound)
		}

		entry := models.Notification{
			UserID:  userID,
			Type:    n.Type,
			Title:   n.Title,
			Message: n.Message,
			Time:    time.Now(),
			Read:    false,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		keep := tx.Model(&models.Notification{}).
			Select("id").
			Where("user_id = ?", userID).
			Order("id DESC").
			Limit(models.MaxNotifications)
		return tx.Where("user_id = ? AND id NOT IN (?)", userID, keep).
			Delete(&models.Notification{}).Error
	})
}

// DispatchPush forwards a message to the user's device, or to their phone
// when no device is registered. Failures are logged only.
func (s *NotificationService) DispatchPush(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "phone", "push_token").First(&user, "id = ?", userID).Error; err != nil {
		s.logger.Warn("push skipped: user lookup failed", zap.String("userId", userID.String()), zap.Error(err))
		return
	}

	var (
		pusher  Pusher
		to      string
		channel string
	)
	switch {
	case user.PushToken != "" && s.expo != nil:
		pusher, to, channel = s.expo, user.PushToken, "expo"
	case user.Phone != "" && s.sms != nil:
		pusher, to, channel = s.sms, user.Phone, "sms"
	default:
		s.logger.Debug("push skipped: no channel", zap.String("userId", userID.String()))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.pushTimeout)
	defer cancel()

	if err := pusher.Push(ctx, PushMessage{To: to, Title: title, Body: body, Data: data}); err != nil {
		s.logger.Warn("push delivery failed",
			zap.String("userId", userID.String()),
			zap.String("channel", channel),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("push delivered", zap.String("userId", userID.String()), zap.String("channel", channel))
}

// NotifyAsync runs Notify and DispatchPush off the caller's goroutine.
func (s *NotificationService) NotifyAsync(userID uuid.UUID, n models.Notification) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("notification panic", zap.Any("panic", r), zap.String("userId", userID.String()))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 2*s.pushTimeout)
		defer cancel()

		if err := s.Notify(ctx, userID, n); err != nil {
			s.logger.Warn("notification not recorded", zap.String("userId", userID.String()), zap.String("type", n.Type), zap.Error(err))
			return
		}
		s.DispatchPush(ctx, userID, n.Title, n.Message, map[string]string{"type": n.Type})
	}()
}

// Wait blocks until every NotifyAsync call has finished.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

// List returns the log newest first.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(models.MaxNotifications).
		Find(&notifications).Error
	return notifications, err
}

// MarkRead flags the entry at index (0 = newest). Marking an entry that is
// already read is not an error.
func (s *NotificationService) MarkRead(ctx context.Context, userID uuid.UUID, index int) (*models.Notification, error) {
	if index < 0 || index >= models.MaxNotifications {
		return nil, fmt.Errorf("%w: notification index out of range", ErrNotFound)
	}

	db := s.db.WithContext(ctx)
	var n models.Notification
	err := db.Where("user_id = ?", userID).Order("id DESC").Offset(index).Limit(1).Take(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: notification index out of range", ErrNotFound)
		}
		return nil, err
	}

	if !n.Read {
		if err := db.Model(&n).Update("read", true).Error; err != nil {
			return nil, err
		}
		n.Read = true
	}
	return &n, nil
}

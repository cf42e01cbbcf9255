// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"servicedome-backend/models"
	"servicedome-backend/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReminderService notifies customers the day before a confirmed booking.
type ReminderService struct {
	db       *gorm.DB
	notifier Notifier
	logger   *zap.Logger
	cron     *cron.Cron
	now      func() time.Time
}

func NewReminderService(db *gorm.DB, notifier Notifier, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		db:       db,
		notifier: notifier,
		logger:   logger,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// StartScheduler runs SendDailyReminders on schedule, e.g. "0 9 * * *".
func (s *ReminderService) StartScheduler(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.SendDailyReminders(ctx); err != nil {
			s.logger.Error("daily reminders failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.logger.Info("reminder scheduler started", zap.String("schedule", schedule))
	return nil
}

// Stop waits for a running job to finish.
func (s *ReminderService) Stop() {
	<-s.cron.Stop().Done()
}

// SendDailyReminders notifies the customer of every confirmed booking
// scheduled for tomorrow that has not been reminded yet.
func (s *ReminderService) SendDailyReminders(ctx context.Context) (int, error) {
	tomorrow := utils.BeginningOfDay(s.now()).AddDate(0, 0, 1)
	dayAfter := tomorrow.AddDate(0, 0, 1)

	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("status = ? AND reminder_sent = ? AND scheduled_date >= ? AND scheduled_date < ?",
			models.BookingConfirmed, false, tomorrow, dayAfter).
		Find(&bookings).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, b := range bookings {
		res := s.db.WithContext(ctx).Model(&models.Booking{}).
			Where("id = ? AND reminder_sent = ?", b.ID, false).
			UpdateColumn("reminder_sent", true)
		if res.Error != nil {
			s.logger.Warn("reminder not marked", zap.String("bookingId", b.ID.String()), zap.Error(res.Error))
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}

		s.notifier.NotifyAsync(b.CustomerID, models.Notification{
			Type:    models.NotificationReminder,
			Title:   "Upcoming booking",
			Message: fmt.Sprintf("Reminder: your booking is tomorrow, %s at %s.", b.SlotDay, b.SlotTime),
		})
		sent++
	}

	s.logger.Info("daily reminders processed", zap.Int("candidates", len(bookings)), zap.Int("sent", sent))
	return sent, nil
}

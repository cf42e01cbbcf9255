package services

import (
	"context"
	"testing"
	"time"

	"servicedome-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendDailyReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendor := f.vendor(t, "tom")
	customer := f.customer(t, "uma")
	p := f.page(t, vendor)

	now := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	insert := func(status models.BookingStatus, date time.Time) uuid.UUID {
		b := &models.Booking{
			CustomerID:      customer.ID,
			PageID:          p.ID,
			Items:           []models.BookingItem{{Name: "Trim", Quantity: 1}},
			TotalPrice:      decimal.NewFromInt(10),
			DeliveryAddress: "here",
			ScheduledDate:   date,
			StartTime:       date.Add(10 * time.Hour),
			EndTime:         date.Add(11 * time.Hour),
			SlotDay:         date.Weekday().String(),
			SlotTime:        "10:00",
			Status:          status,
			PaymentStatus:   models.PaymentPaid,
		}
		require.NoError(t, f.db.Create(b).Error)
		return b.ID
	}

	due := insert(models.BookingConfirmed, tomorrow)
	insert(models.BookingPending, tomorrow)
	insert(models.BookingConfirmed, tomorrow.AddDate(0, 0, 1))
	insert(models.BookingConfirmed, tomorrow.AddDate(0, 0, -1))

	reminders := NewReminderService(f.db, f.notifications, zap.NewNop())
	reminders.now = func() time.Time { return now }

	sent, err := reminders.SendDailyReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	var b models.Booking
	require.NoError(t, f.db.First(&b, "id = ?", due).Error)
	assert.True(t, b.ReminderSent)

	sent, err = reminders.SendDailyReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	f.notifications.Wait()
	list, err := f.notifications.List(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationReminder, list[0].Type)
}

func TestStartScheduler_RejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	reminders := NewReminderService(f.db, f.notifications, zap.NewNop())

	assert.Error(t, reminders.StartScheduler("not a schedule"))

	require.NoError(t, reminders.StartScheduler("0 9 * * *"))
	reminders.Stop()
}

package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"servicedome-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify_TrimsToNewestFifty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.customer(t, "ana")

	for i := 0; i < models.MaxNotifications+5; i++ {
		require.NoError(t, f.notifications.Notify(ctx, u.ID, models.Notification{
			Type:  models.NotificationBooking,
			Title: fmt.Sprintf("n%d", i),
		}))
	}

	list, err := f.notifications.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, models.MaxNotifications)
	assert.Equal(t, "n54", list[0].Title)
	assert.Equal(t, "n5", list[len(list)-1].Title)

	var stored int64
	require.NoError(t, f.db.Model(&models.Notification{}).Where("user_id = ?", u.ID).Count(&stored).Error)
	assert.EqualValues(t, models.MaxNotifications, stored)
}

func TestNotify_TrimIsPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	busy := f.customer(t, "bo")
	quiet := f.customer(t, "cy")

	require.NoError(t, f.notifications.Notify(ctx, quiet.ID, models.Notification{Type: models.NotificationJob, Title: "only"}))
	for i := 0; i < models.MaxNotifications+1; i++ {
		require.NoError(t, f.notifications.Notify(ctx, busy.ID, models.Notification{Type: models.NotificationJob}))
	}

	list, err := f.notifications.List(ctx, quiet.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "only", list[0].Title)
}

func TestNotify_UnknownUser(t *testing.T) {
	f := newFixture(t)

	err := f.notifications.Notify(context.Background(), uuid.New(), models.Notification{Type: models.NotificationJob})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.customer(t, "dee")

	require.NoError(t, f.notifications.Notify(ctx, u.ID, models.Notification{Type: models.NotificationJob, Title: "older"}))
	require.NoError(t, f.notifications.Notify(ctx, u.ID, models.Notification{Type: models.NotificationJob, Title: "newer"}))

	n, err := f.notifications.MarkRead(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "older", n.Title)
	assert.True(t, n.Read)

	again, err := f.notifications.MarkRead(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.True(t, again.Read)

	list, err := f.notifications.List(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, list[0].Read)
	assert.True(t, list[1].Read)

	_, err = f.notifications.MarkRead(ctx, u.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.notifications.MarkRead(ctx, u.ID, -1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.notifications.MarkRead(ctx, uuid.New(), 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDispatchPush_ChannelSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	withDevice := f.customer(t, "eli")
	require.NoError(t, f.accounts.UpdatePushToken(ctx, withDevice.ID, "ExponentPushToken[abc]"))
	phoneOnly := f.customer(t, "flo")
	nothing := f.customer(t, "gil")
	require.NoError(t, f.db.Model(nothing).UpdateColumn("phone", "").Error)

	f.notifications.DispatchPush(ctx, withDevice.ID, "Hi", "device", map[string]string{"type": "job"})
	f.notifications.DispatchPush(ctx, phoneOnly.ID, "Hi", "phone", nil)
	f.notifications.DispatchPush(ctx, nothing.ID, "Hi", "none", nil)
	f.notifications.DispatchPush(ctx, uuid.New(), "Hi", "ghost", nil)

	expo := f.expo.messages()
	require.Len(t, expo, 1)
	assert.Equal(t, "ExponentPushToken[abc]", expo[0].To)
	assert.Equal(t, "job", expo[0].Data["type"])

	sms := f.sms.messages()
	require.Len(t, sms, 1)
	assert.Equal(t, phoneOnly.Phone, sms[0].To)
	assert.Equal(t, "phone", sms[0].Body)
}

func TestNotifyAsync_PushFailureKeepsEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.customer(t, "hugo")
	f.sms.err = errors.New("carrier down")

	f.notifications.NotifyAsync(u.ID, models.Notification{Type: models.NotificationBooking, Title: "Booking confirmed"})
	f.notifications.NotifyAsync(uuid.New(), models.Notification{Type: models.NotificationBooking})
	f.notifications.Wait()

	list, err := f.notifications.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Booking confirmed", list[0].Title)
	assert.Len(t, f.sms.messages(), 1)
}

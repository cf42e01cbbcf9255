package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxNotifications bounds each user's notification log.
const MaxNotifications = 50

const (
	NotificationJob      = "job"
	NotificationBooking  = "booking"
	NotificationReminder = "reminder"
)

// Notification is one entry in a user's log. Higher IDs are newer.
type Notification struct {
	ID      int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID  uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	Type    string    `gorm:"type:varchar(20);not null" json:"type"`
	Title   string    `json:"title"`
	Message string    `gorm:"type:text" json:"message"`
	Time    time.Time `json:"time"`
	Read    bool      `gorm:"not null;default:false" json:"read"`
}

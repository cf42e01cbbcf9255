package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "Available"
	SlotBlocked   SlotStatus = "Blocked"
	SlotBooked    SlotStatus = "Booked"
)

func ValidSlotStatus(s SlotStatus) bool {
	return s == SlotAvailable || s == SlotBlocked || s == SlotBooked
}

// TimeSlot is one bookable (day, time) entry in a page's weekly grid.
// Time is an opaque label compared by exact match.
type TimeSlot struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	PageID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_slot_page_day_time,priority:1" json:"pageId"`
	Day         string     `gorm:"type:varchar(12);not null;uniqueIndex:idx_slot_page_day_time,priority:2" json:"day"`
	Time        string     `gorm:"type:varchar(32);not null;uniqueIndex:idx_slot_page_day_time,priority:3" json:"time"`
	Status      SlotStatus `gorm:"type:varchar(20);not null;default:'Available'" json:"status"`
	BlockReason string     `json:"blockReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *TimeSlot) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

// DaySlots is one weekday bucket of the grid as returned to clients.
type DaySlots struct {
	Day   string     `json:"day"`
	Slots []TimeSlot `json:"slots"`
}

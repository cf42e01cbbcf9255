package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCompleted BookingStatus = "Completed"
	BookingCancelled BookingStatus = "Cancelled"
)

func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

// BookingItem is free-form; it is not checked against the page catalog.
type BookingItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type BookingItems []BookingItem

func (b BookingItems) Value() (driver.Value, error) {
	if b == nil {
		return jsonValue([]BookingItem{})
	}
	return jsonValue([]BookingItem(b))
}

func (b *BookingItems) Scan(value interface{}) error {
	return jsonScan(value, b)
}

// Booking holds the page by id only. Deleting the page leaves the booking.
type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null" json:"customerId"`
	PageID     uuid.UUID `gorm:"type:uuid;index;not null" json:"pageId"`

	Items           BookingItems    `gorm:"type:jsonb;not null" json:"items"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
	DeliveryAddress string          `gorm:"not null" json:"deliveryAddress"`

	ScheduledDate time.Time `gorm:"index" json:"scheduledDate"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	SlotDay       string    `gorm:"type:varchar(12)" json:"slotDay"`
	SlotTime      string    `gorm:"type:varchar(32)" json:"slotTime"`

	Status        BookingStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null" json:"paymentStatus"`
	ReminderSent  bool          `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

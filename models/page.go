package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Weekdays in display order. Day names are stored verbatim.
var Weekdays = []string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

func ValidWeekday(day string) bool {
	return WeekdayIndex(day) >= 0
}

// WeekdayIndex returns the position of day in Weekdays, or -1.
func WeekdayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return -1
}

type PageCategory struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image,omitempty"`
}

func (c PageCategory) Value() (driver.Value, error) {
	return jsonValue(c)
}

func (c *PageCategory) Scan(value interface{}) error {
	return jsonScan(value, c)
}

func (l Location) Value() (driver.Value, error) {
	return jsonValue(l)
}

func (l *Location) Scan(value interface{}) error {
	return jsonScan(value, l)
}

type OpeningHours struct {
	Day         string `json:"day"`
	OpeningTime string `json:"openingTime"`
	ClosingTime string `json:"closingTime"`
	IsClosed    bool   `json:"isClosed"`
}

type OpeningHoursList []OpeningHours

func (o OpeningHoursList) Value() (driver.Value, error) {
	if o == nil {
		return jsonValue([]OpeningHours{})
	}
	return jsonValue([]OpeningHours(o))
}

func (o *OpeningHoursList) Scan(value interface{}) error {
	return jsonScan(value, o)
}

type DeliveryRate struct {
	Distance decimal.Decimal `json:"distance"`
	Fee      decimal.Decimal `json:"fee"`
}

type SelfPickup struct {
	Enabled      bool   `json:"enabled"`
	Location     string `json:"location,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type DeliverySettings struct {
	Enabled        bool            `json:"enabled"`
	FixedFee       decimal.Decimal `json:"fixedFee"`
	DistanceBased  bool            `json:"distanceBased"`
	Rates          []DeliveryRate  `json:"rates"`
	AvailableZones []string        `json:"availableZones"`
	EstimatedTime  string          `json:"estimatedTime,omitempty"`
	SelfPickup     SelfPickup      `json:"selfPickup"`
}

func (d DeliverySettings) Value() (driver.Value, error) {
	return jsonValue(d)
}

func (d *DeliverySettings) Scan(value interface{}) error {
	return jsonScan(value, d)
}

// Page is a vendor's storefront. Catalog entries, categories, reviews and
// time slots are separate rows keyed by PageID.
type Page struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	VendorID uuid.UUID `gorm:"type:uuid;index;not null" json:"vendorId"`

	Category      PageCategory `gorm:"type:jsonb;not null" json:"category"`
	CategoryName  string       `gorm:"index" json:"-"`
	BusinessName  string       `gorm:"not null" json:"businessName"`
	About         string       `json:"about"`
	StorePolicies string       `json:"storePolicies"`
	Logo          string       `json:"logo"`
	Banner        string       `json:"banner"`

	Location         Location         `gorm:"type:jsonb" json:"location"`
	OpeningHours     OpeningHoursList `gorm:"type:jsonb" json:"openingHours"`
	DeliverySettings DeliverySettings `gorm:"type:jsonb" json:"deliverySettings"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Page) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

func (p *Page) BeforeSave(tx *gorm.DB) (err error) {
	p.CategoryName = p.Category.Name
	return
}

// Category is a page-scoped grouping for catalog entries.
type Category struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PageID uuid.UUID `gorm:"type:uuid;index;not null" json:"pageId"`
	Name   string    `gorm:"not null" json:"name"`

	CreatedAt time.Time `json:"createdAt"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

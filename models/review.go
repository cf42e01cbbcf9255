package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PageID     uuid.UUID `gorm:"type:uuid;index;not null" json:"pageId"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null" json:"customer"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `json:"comment"`

	CreatedAt time.Time `json:"createdAt"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

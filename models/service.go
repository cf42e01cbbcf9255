package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a catalog entry owned by exactly one page.
type Service struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	PageID        uuid.UUID       `gorm:"type:uuid;index;not null" json:"pageId"`
	Name          string          `gorm:"not null" json:"name"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index" json:"categoryId,omitempty"`
	CategoryLabel string          `json:"categoryLabel,omitempty"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Duration      int             `gorm:"not null;default:0" json:"duration"` // in minutes
	Images        StringList      `gorm:"type:jsonb" json:"images"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

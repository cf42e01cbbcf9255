package services

import (
	"context"
	"fmt"

	"servicedome-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// AddReview appends a review. Reviews are never edited or removed.
func (s *ReviewService) AddReview(ctx context.Context, pageID, customerID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, MinRating, MaxRating)
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Page{}).Where("id = ?", pageID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: page not found", ErrNotFound)
	}

	review := &models.Review{PageID: pageID, CustomerID: customerID, Rating: rating, Comment: comment}
	if err := db.Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ListReviews(ctx context.Context, pageID uuid.UUID) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.db.WithContext(ctx).Where("page_id = ?", pageID).Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

// ListVendorReviews gathers reviews across every page the vendor owns.
func (s *ReviewService) ListVendorReviews(ctx context.Context, vendorID uuid.UUID) ([]models.Review, error) {
	db := s.db.WithContext(ctx)
	pages := db.Model(&models.Page{}).Select("id").Where("vendor_id = ?", vendorID)
	reviews := []models.Review{}
	err := db.Where("page_id IN (?)", pages).Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

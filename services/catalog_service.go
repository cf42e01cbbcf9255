package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"servicedome-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	Duration      int
	CategoryID    *uuid.UUID
	CategoryLabel string
	Images        []string
}

type ServicePatch struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	Duration      *int
	CategoryID    *uuid.UUID
	CategoryLabel *string
	Images        *[]string
}

func validatePriceDuration(price decimal.Decimal, duration int) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if duration < 0 {
		return fmt.Errorf("%w: duration must be >= 0", ErrValidation)
	}
	return nil
}

// checkCategory verifies that categoryID names a category of pageID.
func checkCategory(tx *gorm.DB, pageID uuid.UUID, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ? AND page_id = ?", *categoryID, pageID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: category does not belong to this page", ErrValidation)
	}
	return nil
}

func (s *PageService) AddService(ctx context.Context, pageID, actorID uuid.UUID, in ServiceInput) (*models.Service, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := validatePriceDuration(in.Price, in.Duration); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if _, err := ownedPage(db, pageID, actorID); err != nil {
		return nil, err
	}
	if err := checkCategory(db, pageID, in.CategoryID); err != nil {
		return nil, err
	}

	images := in.Images
	if images == nil {
		images = []string{}
	}
	service := &models.Service{
		PageID:        pageID,
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Duration:      in.Duration,
		CategoryID:    in.CategoryID,
		CategoryLabel: in.CategoryLabel,
		Images:        images,
	}
	if in.CategoryID != nil {
		service.CategoryLabel = ""
	}

	if err := db.Create(service).Error; err != nil {
		return nil, err
	}
	s.invalidate(ctx, pageID)
	return service, nil
}

// UpdateService writes only the patched columns.
func (s *PageService) UpdateService(ctx context.Context, pageID, serviceID, actorID uuid.UUID, patch ServicePatch) (*models.Service, error) {
	db := s.db.WithContext(ctx)
	if _, err := ownedPage(db, pageID, actorID); err != nil {
		return nil, err
	}

	service, err := findService(db, pageID, serviceID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	price, duration := service.Price, service.Duration
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		price = *patch.Price
		updates["price"] = price
	}
	if patch.Duration != nil {
		duration = *patch.Duration
		updates["duration"] = duration
	}
	if err := validatePriceDuration(price, duration); err != nil {
		return nil, err
	}
	if patch.CategoryID != nil {
		if err := checkCategory(db, pageID, patch.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *patch.CategoryID
		updates["category_label"] = ""
	} else if patch.CategoryLabel != nil {
		updates["category_id"] = nil
		updates["category_label"] = *patch.CategoryLabel
	}
	if patch.Images != nil {
		images := models.StringList(*patch.Images)
		if images == nil {
			images = models.StringList{}
		}
		updates["images"] = images
	}
	if len(updates) == 0 {
		return service, nil
	}
	updates["updated_at"] = time.Now()

	res := db.Model(&models.Service{}).
		Where("page_id = ? AND id = ?", pageID, serviceID).
		UpdateColumns(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: service not found", ErrNotFound)
	}
	s.invalidate(ctx, pageID)
	return findService(db, pageID, serviceID)
}

func findService(db *gorm.DB, pageID, serviceID uuid.UUID) (*models.Service, error) {
	var service models.Service
	if err := db.Where("page_id = ? AND id = ?", pageID, serviceID).First(&service).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: service not found", ErrNotFound)
		}
		return nil, err
	}
	return &service, nil
}

func (s *PageService) DeleteService(ctx context.Context, pageID, serviceID, actorID uuid.UUID) error {
	db := s.db.WithContext(ctx)
	if _, err := ownedPage(db, pageID, actorID); err != nil {
		return err
	}

	result := db.Where("page_id = ? AND id = ?", pageID, serviceID).Delete(&models.Service{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: service not found", ErrNotFound)
	}
	s.invalidate(ctx, pageID)
	return nil
}

// ListServices returns the page catalog, optionally narrowed to one category.
func (s *PageService) ListServices(ctx context.Context, pageID uuid.UUID, categoryID *uuid.UUID) ([]ServiceView, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Page{}).Where("id = ?", pageID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: page not found", ErrNotFound)
	}
	return s.serviceViews(ctx, pageID, categoryID)
}

func (s *PageService) serviceViews(ctx context.Context, pageID uuid.UUID, categoryID *uuid.UUID) ([]ServiceView, error) {
	db := s.db.WithContext(ctx)

	q := db.Where("page_id = ?", pageID)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	var services []models.Service
	if err := q.Order("created_at ASC, name ASC").Find(&services).Error; err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := db.Where("page_id = ?", pageID).Find(&categories).Error; err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	views := make([]ServiceView, 0, len(services))
	for _, svc := range services {
		view := ServiceView{Service: svc}
		switch {
		case svc.CategoryID != nil:
			id := *svc.CategoryID
			view.Category = &CategoryRef{ID: &id, Name: names[id]}
		case svc.CategoryLabel != "":
			view.Category = &CategoryRef{Name: svc.CategoryLabel}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *PageService) CreateCategory(ctx context.Context, pageID, actorID uuid.UUID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	db := s.db.WithContext(ctx)
	if _, err := ownedPage(db, pageID, actorID); err != nil {
		return nil, err
	}

	category := &models.Category{PageID: pageID, Name: name}
	if err := db.Create(category).Error; err != nil {
		return nil, err
	}
	s.logger.Debug("category created", zap.String("pageId", pageID.String()), zap.String("name", name))
	return category, nil
}

func (s *PageService) ListCategories(ctx context.Context, pageID uuid.UUID) ([]models.Category, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Page{}).Where("id = ?", pageID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: page not found", ErrNotFound)
	}

	categories := []models.Category{}
	if err := db.Where("page_id = ?", pageID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

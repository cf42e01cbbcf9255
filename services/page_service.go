package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"servicedome-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FreeTierPageLimit is the number of pages a Free vendor may own.
const FreeTierPageLimit = 1

const pageCacheNamespace = "page"

// Cache is the read-through store for public page reads.
type Cache interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, namespace, key string) error
}

type PageDraft struct {
	Category      models.PageCategory
	BusinessName  string
	About         string
	StorePolicies string
	Logo          string
	Banner        string
	Location      models.Location
	OpeningHours  []models.OpeningHours
}

type LocationPatch struct {
	Latitude  *float64
	Longitude *float64
	Address   *string
}

// PagePatch applies only the non-nil fields.
type PagePatch struct {
	Category      *models.PageCategory
	BusinessName  *string
	About         *string
	StorePolicies *string
	Logo          *string
	Banner        *string
	Location      *LocationPatch
	OpeningHours  *[]models.OpeningHours
}

type PageFilter struct {
	CategoryName string
	VendorID     *uuid.UUID
}

type CategoryRef struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name"`
}

type ServiceView struct {
	models.Service
	Category *CategoryRef `json:"category"`
}

type PageView struct {
	models.Page
	Services []ServiceView `json:"services"`
}

type PageService struct {
	db       *gorm.DB
	logger   *zap.Logger
	cache    Cache
	cacheTTL time.Duration
}

func NewPageService(db *gorm.DB, logger *zap.Logger, cache Cache, cacheTTL time.Duration) *PageService {
	return &PageService{db: db, logger: logger, cache: cache, cacheTTL: cacheTTL}
}

// ValidateOpeningHours requires a recognized weekday, both times, and at
// most one entry per weekday.
func ValidateOpeningHours(hours []models.OpeningHours) error {
	seen := make(map[string]bool, len(hours))
	for _, h := range hours {
		if !models.ValidWeekday(h.Day) {
			return fmt.Errorf("%w: invalid day: %q", ErrInvalidSchedule, h.Day)
		}
		if strings.TrimSpace(h.OpeningTime) == "" || strings.TrimSpace(h.ClosingTime) == "" {
			return fmt.Errorf("%w: missing openingTime or closingTime for %s", ErrInvalidSchedule, h.Day)
		}
		if seen[h.Day] {
			return fmt.Errorf("%w: duplicate entry for %s", ErrInvalidSchedule, h.Day)
		}
		seen[h.Day] = true
	}
	return nil
}

func validateCategory(c models.PageCategory) error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Slug) == "" {
		return fmt.Errorf("%w: category name and slug are required", ErrValidation)
	}
	return nil
}

func validateLocation(l models.Location) error {
	if l.Latitude != nil && (*l.Latitude < -90 || *l.Latitude > 90) {
		return fmt.Errorf("%w: latitude out of range", ErrValidation)
	}
	if l.Longitude != nil && (*l.Longitude < -180 || *l.Longitude > 180) {
		return fmt.Errorf("%w: longitude out of range", ErrValidation)
	}
	return nil
}

// CreatePage claims one unit of the owner's page quota and inserts the page
// in the same transaction. The quota check is a conditional update on the
// owner row, so concurrent creations for a Free vendor cannot both pass.
func (s *PageService) CreatePage(ctx context.Context, ownerID uuid.UUID, draft PageDraft) (*models.Page, error) {
	if strings.TrimSpace(draft.BusinessName) == "" {
		return nil, fmt.Errorf("%w: businessName is required", ErrValidation)
	}
	if err := validateCategory(draft.Category); err != nil {
		return nil, err
	}
	if err := validateLocation(draft.Location); err != nil {
		return nil, err
	}
	if err := ValidateOpeningHours(draft.OpeningHours); err != nil {
		return nil, err
	}

	hours := draft.OpeningHours
	if hours == nil {
		hours = []models.OpeningHours{}
	}

	page := &models.Page{
		VendorID:      ownerID,
		Category:      draft.Category,
		BusinessName:  draft.BusinessName,
		About:         draft.About,
		StorePolicies: draft.StorePolicies,
		Logo:          draft.Logo,
		Banner:        draft.Banner,
		Location:      draft.Location,
		OpeningHours:  hours,
		DeliverySettings: models.DeliverySettings{
			Rates:          []models.DeliveryRate{},
			AvailableZones: []string{},
		},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.First(&owner, "id = ?", ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: vendor not found", ErrNotFound)
			}
			return err
		}
		if !owner.IsVendor() {
			return fmt.Errorf("%w: only vendors can create pages", ErrForbidden)
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND (vendor_membership_tier = ? OR vendor_page_count < ?)", ownerID, models.TierPremium, FreeTierPageLimit).
			UpdateColumn("vendor_page_count", gorm.Expr("vendor_page_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: free-tier vendors can only have one business page", ErrQuotaExceeded)
		}

		return tx.Create(page).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("page created", zap.String("pageId", page.ID.String()), zap.String("vendorId", ownerID.String()))
	return page, nil
}

// ownedPage loads a page and checks that actorID owns it.
func ownedPage(tx *gorm.DB, pageID, actorID uuid.UUID) (*models.Page, error) {
	var page models.Page
	if err := tx.First(&page, "id = ?", pageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: page not found", ErrNotFound)
		}
		return nil, err
	}
	if page.VendorID != actorID {
		return nil, fmt.Errorf("%w: you do not own this page", ErrForbidden)
	}
	return &page, nil
}

// UpdatePage writes only the columns named by the patch, so concurrent
// edits to other fields (delivery settings, hours) survive.
func (s *PageService) UpdatePage(ctx context.Context, pageID, actorID uuid.UUID, patch PagePatch) (*models.Page, error) {
	db := s.db.WithContext(ctx)
	page, err := ownedPage(db, pageID, actorID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.BusinessName != nil {
		if strings.TrimSpace(*patch.BusinessName) == "" {
			return nil, fmt.Errorf("%w: businessName cannot be empty", ErrValidation)
		}
		updates["business_name"] = *patch.BusinessName
	}
	if patch.About != nil {
		updates["about"] = *patch.About
	}
	if patch.StorePolicies != nil {
		updates["store_policies"] = *patch.StorePolicies
	}
	if patch.Logo != nil {
		updates["logo"] = *patch.Logo
	}
	if patch.Banner != nil {
		updates["banner"] = *patch.Banner
	}
	if patch.Category != nil {
		if err := validateCategory(*patch.Category); err != nil {
			return nil, err
		}
		updates["category"] = *patch.Category
		updates["category_name"] = patch.Category.Name
	}
	if patch.Location != nil {
		loc := page.Location
		if patch.Location.Latitude != nil {
			loc.Latitude = patch.Location.Latitude
		}
		if patch.Location.Longitude != nil {
			loc.Longitude = patch.Location.Longitude
		}
		if patch.Location.Address != nil {
			loc.Address = *patch.Location.Address
		}
		if err := validateLocation(loc); err != nil {
			return nil, err
		}
		updates["location"] = loc
	}
	if patch.OpeningHours != nil {
		if err := ValidateOpeningHours(*patch.OpeningHours); err != nil {
			return nil, err
		}
		hours := models.OpeningHoursList(*patch.OpeningHours)
		if hours == nil {
			hours = models.OpeningHoursList{}
		}
		updates["opening_hours"] = hours
	}
	if len(updates) == 0 {
		return page, nil
	}
	updates["updated_at"] = time.Now()

	res := db.Model(&models.Page{}).
		Where("id = ? AND vendor_id = ?", pageID, actorID).
		UpdateColumns(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: page not found", ErrNotFound)
	}
	s.invalidate(ctx, pageID)

	var fresh models.Page
	if err := db.First(&fresh, "id = ?", pageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: page not found", ErrNotFound)
		}
		return nil, err
	}
	return &fresh, nil
}

// DeletePage removes the page and everything it composes. Bookings keep
// their page id and are left untouched.
func (s *PageService) DeletePage(ctx context.Context, pageID, actorID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		page, err := ownedPage(tx, pageID, actorID)
		if err != nil {
			return err
		}
		for _, m := range []interface{}{&models.Service{}, &models.Category{}, &models.TimeSlot{}, &models.Review{}} {
			if err := tx.Where("page_id = ?", page.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(page).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND vendor_page_count > 0", page.VendorID).
			UpdateColumn("vendor_page_count", gorm.Expr("vendor_page_count - ?", 1)).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, pageID)
	return nil
}

func (s *PageService) GetPage(ctx context.Context, pageID uuid.UUID) (*PageView, error) {
	if view, ok := s.cached(ctx, pageID); ok {
		return view, nil
	}

	db := s.db.WithContext(ctx)
	var page models.Page
	if err := db.First(&page, "id = ?", pageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: page not found", ErrNotFound)
		}
		return nil, err
	}

	services, err := s.serviceViews(ctx, page.ID, nil)
	if err != nil {
		return nil, err
	}

	view := &PageView{Page: page, Services: services}
	s.store(ctx, view)
	return view, nil
}

func (s *PageService) ListPages(ctx context.Context, filter PageFilter) ([]models.Page, error) {
	q := s.db.WithContext(ctx).Model(&models.Page{})
	if filter.CategoryName != "" {
		q = q.Where("category_name = ?", filter.CategoryName)
	}
	if filter.VendorID != nil {
		q = q.Where("vendor_id = ?", *filter.VendorID)
	}
	pages := []models.Page{}
	if err := q.Order("created_at DESC").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

func (s *PageService) SetDeliverySettings(ctx context.Context, pageID, actorID uuid.UUID, settings models.DeliverySettings) (*models.DeliverySettings, error) {
	if settings.FixedFee.IsNegative() {
		return nil, fmt.Errorf("%w: fixedFee must be >= 0", ErrValidation)
	}
	for _, r := range settings.Rates {
		if r.Distance.IsNegative() || r.Fee.IsNegative() {
			return nil, fmt.Errorf("%w: delivery rates must be >= 0", ErrValidation)
		}
	}
	if settings.Rates == nil {
		settings.Rates = []models.DeliveryRate{}
	}
	if settings.AvailableZones == nil {
		settings.AvailableZones = []string{}
	}

	db := s.db.WithContext(ctx)
	page, err := ownedPage(db, pageID, actorID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(page).Update("delivery_settings", settings).Error; err != nil {
		return nil, err
	}
	s.invalidate(ctx, page.ID)
	return &settings, nil
}

func (s *PageService) GetDeliverySettings(ctx context.Context, pageID uuid.UUID) (*models.DeliverySettings, error) {
	var page models.Page
	if err := s.db.WithContext(ctx).Select("id", "delivery_settings").First(&page, "id = ?", pageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: page not found", ErrNotFound)
		}
		return nil, err
	}
	return &page.DeliverySettings, nil
}

func (s *PageService) cached(ctx context.Context, pageID uuid.UUID) (*PageView, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, pageCacheNamespace, pageID.String())
	if err != nil || raw == "" {
		return nil, false
	}
	var view PageView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		s.logger.Warn("discarding unreadable cached page", zap.String("pageId", pageID.String()), zap.Error(err))
		return nil, false
	}
	return &view, true
}

func (s *PageService) store(ctx context.Context, view *PageView) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, pageCacheNamespace, view.ID.String(), string(b), s.cacheTTL); err != nil {
		s.logger.Warn("page cache write failed", zap.String("pageId", view.ID.String()), zap.Error(err))
	}
}

func (s *PageService) invalidate(ctx context.Context, pageID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, pageCacheNamespace, pageID.String()); err != nil {
		s.logger.Warn("page cache invalidation failed", zap.String("pageId", pageID.String()), zap.Error(err))
	}
}

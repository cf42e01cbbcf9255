package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"servicedome-backend/events"
	"servicedome-backend/models"
	"servicedome-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventPublisher receives booking lifecycle events after commit.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// SlotRequest is either an explicit Start/End pair or a weekday with a
// from/to clock range resolved against the next occurrence of that weekday.
type SlotRequest struct {
	Start *time.Time
	End   *time.Time
	Day   string
	From  string
	To    string
}

type BookingRequest struct {
	PageID          uuid.UUID
	Items           []models.BookingItem
	TotalPrice      *decimal.Decimal
	DeliveryAddress string
	Slot            *SlotRequest
}

type BookingFilter struct {
	As     models.Role
	Status models.BookingStatus
	PageID *uuid.UUID
}

type PageSnapshot struct {
	ID           *uuid.UUID       `json:"id,omitempty"`
	BusinessName string           `json:"businessName,omitempty"`
	Logo         string           `json:"logo,omitempty"`
	Location     *models.Location `json:"location,omitempty"`
	Unavailable  bool             `json:"unavailable,omitempty"`
}

type BookingView struct {
	models.Booking
	Page PageSnapshot `json:"page"`
}

// resolvedSlot is a SlotRequest pinned to the calendar.
type resolvedSlot struct {
	Day   string
	Label string
	Date  time.Time
	Start time.Time
	End   time.Time
}

type BookingService struct {
	db                  *gorm.DB
	logger              *zap.Logger
	notifier            Notifier
	publisher           EventPublisher
	allowDirectComplete bool
	now                 func() time.Time
}

func NewBookingService(db *gorm.DB, logger *zap.Logger, notifier Notifier, publisher EventPublisher, allowDirectComplete bool) *BookingService {
	return &BookingService{
		db:                  db,
		logger:              logger,
		notifier:            notifier,
		publisher:           publisher,
		allowDirectComplete: allowDirectComplete,
		now:                 time.Now,
	}
}

// Predecessors lists the statuses from which target may be entered.
func (s *BookingService) Predecessors(target models.BookingStatus) []models.BookingStatus {
	switch target {
	case models.BookingConfirmed:
		return []models.BookingStatus{models.BookingPending}
	case models.BookingCompleted:
		if s.allowDirectComplete {
			return []models.BookingStatus{models.BookingPending, models.BookingConfirmed}
		}
		return []models.BookingStatus{models.BookingConfirmed}
	case models.BookingCancelled:
		return []models.BookingStatus{models.BookingPending, models.BookingConfirmed}
	}
	return nil
}

// CanTransition reports whether from -> to is in the transition table.
func (s *BookingService) CanTransition(from, to models.BookingStatus) bool {
	for _, p := range s.Predecessors(to) {
		if p == from {
			return true
		}
	}
	return false
}

func resolveSlot(now time.Time, req *SlotRequest) (*resolvedSlot, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: slot is required", ErrValidation)
	}

	if req.Start != nil || req.End != nil {
		if req.Start == nil || req.End == nil {
			return nil, fmt.Errorf("%w: slot start and end are both required", ErrValidation)
		}
		if !req.End.After(*req.Start) {
			return nil, fmt.Errorf("%w: slot end must be after start", ErrValidation)
		}
		return &resolvedSlot{
			Day:   req.Start.Weekday().String(),
			Label: req.Start.Format(utils.ClockLayout),
			Date:  utils.BeginningOfDay(*req.Start),
			Start: *req.Start,
			End:   *req.End,
		}, nil
	}

	weekday, ok := utils.ParseWeekday(req.Day)
	if !ok {
		return nil, fmt.Errorf("%w: invalid day: %q", ErrValidation, req.Day)
	}
	if req.From == "" || req.To == "" {
		return nil, fmt.Errorf("%w: slot from and to are required", ErrValidation)
	}

	date := utils.NextWeekday(now, weekday)
	start, err := utils.AtClock(date, req.From)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	end, err := utils.AtClock(date, req.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: slot end must be after start", ErrValidation)
	}
	return &resolvedSlot{Day: req.Day, Label: req.From, Date: date, Start: start, End: end}, nil
}

func validateBookingRequest(req BookingRequest) ([]models.BookingItem, error) {
	if req.PageID == uuid.Nil {
		return nil, fmt.Errorf("%w: pageId is required", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	if req.TotalPrice == nil {
		return nil, fmt.Errorf("%w: totalPrice is required", ErrValidation)
	}
	if req.TotalPrice.IsNegative() {
		return nil, fmt.Errorf("%w: totalPrice must be >= 0", ErrValidation)
	}
	if strings.TrimSpace(req.DeliveryAddress) == "" {
		return nil, fmt.Errorf("%w: deliveryAddress is required", ErrValidation)
	}

	items := make([]models.BookingItem, 0, len(req.Items))
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("%w: item name is required", ErrValidation)
		}
		if item.Quantity < 0 {
			return nil, fmt.Errorf("%w: item quantity must be >= 0", ErrValidation)
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: item price must be >= 0", ErrValidation)
		}
		items = append(items, item)
	}
	return items, nil
}

// CreateBooking claims the requested slot and inserts the booking in one
// transaction. The page owner is notified after commit.
func (s *BookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req BookingRequest) (*models.Booking, error) {
	items, err := validateBookingRequest(req)
	if err != nil {
		return nil, err
	}
	slot, err := resolveSlot(s.now(), req.Slot)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		CustomerID:      customerID,
		PageID:          req.PageID,
		Items:           items,
		TotalPrice:      *req.TotalPrice,
		DeliveryAddress: req.DeliveryAddress,
		ScheduledDate:   slot.Date,
		StartTime:       slot.Start,
		EndTime:         slot.End,
		SlotDay:         slot.Day,
		SlotTime:        slot.Label,
		Status:          models.BookingPending,
		PaymentStatus:   models.PaymentPaid,
	}

	var page models.Page
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.User
		if err := tx.Select("id", "roles").First(&customer, "id = ?", customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: customer not found", ErrNotFound)
			}
			return err
		}
		if !customer.IsCustomer() {
			return fmt.Errorf("%w: only customers can book", ErrForbidden)
		}

		if err := tx.First(&page, "id = ?", req.PageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: page not found", ErrNotFound)
			}
			return err
		}

		if err := claimSlot(tx, page.ID, slot.Day, slot.Label); err != nil {
			return err
		}
		return tx.Create(booking).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("bookingId", booking.ID.String()),
		zap.String("pageId", page.ID.String()),
		zap.String("slot", slot.Day+" "+slot.Label),
	)

	s.notifier.NotifyAsync(page.VendorID, models.Notification{
		Type:    models.NotificationJob,
		Title:   "New booking",
		Message: fmt.Sprintf("New booking at %s for %s %s (%s).", page.BusinessName, slot.Day, slot.Label, slot.Start.Format("Jan 2")),
	})
	s.publish(ctx, events.RKBookingCreated, events.BookingCreated{
		BookingID:  booking.ID.String(),
		CustomerID: customerID.String(),
		PageID:     page.ID.String(),
		Day:        slot.Day,
		Time:       slot.Label,
		Start:      slot.Start.Unix(),
		End:        slot.End.Unix(),
		TotalPrice: booking.TotalPrice.StringFixed(2),
	})

	return booking, nil
}

// UpdateBookingStatus moves a booking along the transition table. The
// current status is checked in the same UPDATE that writes the new one.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID, actorID uuid.UUID, next models.BookingStatus) (*models.Booking, error) {
	if !models.ValidBookingStatus(next) {
		return nil, fmt.Errorf("%w: invalid status: %q", ErrValidation, next)
	}

	db := s.db.WithContext(ctx)
	booking, err := findBooking(db, bookingID)
	if err != nil {
		return nil, err
	}
	if err := checkBookingOwner(db, booking, actorID); err != nil {
		return nil, err
	}

	preds := s.Predecessors(next)
	if len(preds) == 0 {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, next)
	}

	previous := booking.Status
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status IN ?", bookingID, preds).
			Updates(map[string]interface{}{"status": next, "updated_at": s.now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			current, err := findBooking(tx, bookingID)
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
		}
		if next == models.BookingCancelled {
			return releaseSlot(tx, booking.PageID, booking.SlotDay, booking.SlotTime)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking.Status = next
	if fresh, err := findBooking(db, bookingID); err == nil {
		booking = fresh
	}

	s.notifier.NotifyAsync(booking.CustomerID, models.Notification{
		Type:    models.NotificationBooking,
		Title:   "Booking " + strings.ToLower(string(next)),
		Message: fmt.Sprintf("Your booking for %s %s is now %s.", booking.SlotDay, booking.SlotTime, next),
	})
	s.publish(ctx, events.StatusKey(string(next)), events.BookingStatusChanged{
		BookingID:  booking.ID.String(),
		CustomerID: booking.CustomerID.String(),
		PageID:     booking.PageID.String(),
		From:       string(previous),
		To:         string(next),
	})

	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, actorID uuid.UUID, filter BookingFilter) ([]models.Booking, error) {
	if filter.Status != "" && !models.ValidBookingStatus(filter.Status) {
		return nil, fmt.Errorf("%w: invalid status: %q", ErrValidation, filter.Status)
	}

	db := s.db.WithContext(ctx)
	q := db.Model(&models.Booking{})

	switch filter.As {
	case models.RoleCustomer, "":
		q = q.Where("customer_id = ?", actorID)
		if filter.PageID != nil {
			q = q.Where("page_id = ?", *filter.PageID)
		}
	case models.RoleVendor:
		var owned []uuid.UUID
		if err := db.Model(&models.Page{}).Where("vendor_id = ?", actorID).Pluck("id", &owned).Error; err != nil {
			return nil, err
		}
		if filter.PageID != nil {
			if !containsID(owned, *filter.PageID) {
				return nil, fmt.Errorf("%w: you do not own this page", ErrForbidden)
			}
			owned = []uuid.UUID{*filter.PageID}
		}
		if len(owned) == 0 {
			return []models.Booking{}, nil
		}
		q = q.Where("page_id IN ?", owned)
	default:
		return nil, fmt.Errorf("%w: invalid scope: %q", ErrValidation, filter.As)
	}

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	bookings := []models.Booking{}
	if err := q.Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetBooking is visible to the booking's customer and to the page owner.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingView, error) {
	db := s.db.WithContext(ctx)
	booking, err := findBooking(db, bookingID)
	if err != nil {
		return nil, err
	}

	var page models.Page
	pageErr := db.First(&page, "id = ?", booking.PageID).Error
	if pageErr != nil && !errors.Is(pageErr, gorm.ErrRecordNotFound) {
		return nil, pageErr
	}
	pageExists := pageErr == nil

	isCustomer := booking.CustomerID == actorID
	isOwner := pageExists && page.VendorID == actorID
	if !isCustomer && !isOwner {
		return nil, fmt.Errorf("%w: not your booking", ErrForbidden)
	}

	view := &BookingView{Booking: *booking}
	if pageExists {
		id := page.ID
		loc := page.Location
		view.Page = PageSnapshot{ID: &id, BusinessName: page.BusinessName, Logo: page.Logo, Location: &loc}
	} else {
		view.Page = PageSnapshot{Unavailable: true}
	}
	return view, nil
}

// checkBookingOwner requires actorID to own the booking's page. The booking's
// page id alone is not an owner.
func checkBookingOwner(db *gorm.DB, booking *models.Booking, actorID uuid.UUID) error {
	var page models.Page
	if err := db.Select("id", "vendor_id").First(&page, "id = ?", booking.PageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: page for this booking no longer exists", ErrForbidden)
		}
		return err
	}
	if page.VendorID != actorID {
		return fmt.Errorf("%w: only the page owner can change this booking", ErrForbidden)
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, key string, v any) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.publisher.PublishJSON(ctx, key, v); err != nil {
		s.logger.Warn("booking event not published", zap.String("key", key), zap.Error(err))
	}
}

func findBooking(db *gorm.DB, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := db.First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking not found", ErrNotFound)
		}
		return nil, err
	}
	return &booking, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}

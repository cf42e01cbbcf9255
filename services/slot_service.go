package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"servicedome-backend/models"
	"servicedome-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SlotPatch struct {
	Status      *models.SlotStatus
	BlockReason *string
}

type SlotService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSlotService(db *gorm.DB, logger *zap.Logger) *SlotService {
	return &SlotService{db: db, logger: logger}
}

// vendorStatus checks a status a vendor may set by hand. Booked is only
// reachable through a booking.
func vendorStatus(status models.SlotStatus) error {
	if !models.ValidSlotStatus(status) {
		return fmt.Errorf("%w: invalid slot status: %q", ErrValidation, status)
	}
	if status == models.SlotBooked {
		return fmt.Errorf("%w: slots are booked through bookings only", ErrValidation)
	}
	return nil
}

func validateSlotKey(day, label string) error {
	if !models.ValidWeekday(day) {
		return fmt.Errorf("%w: invalid day: %q", ErrValidation, day)
	}
	if !utils.ValidClock(label) {
		return fmt.Errorf("%w: invalid time: %q, expected HH:MM", ErrValidation, label)
	}
	return nil
}

func (s *SlotService) CreateSlot(ctx context.Context, pageID, actorID uuid.UUID, day, label string, status models.SlotStatus, blockReason string) (*models.TimeSlot, error) {
	if err := validateSlotKey(day, label); err != nil {
		return nil, err
	}
	if status == "" {
		status = models.SlotAvailable
	}
	if err := vendorStatus(status); err != nil {
		return nil, err
	}
	if status == models.SlotAvailable {
		blockReason = ""
	}

	slot := &models.TimeSlot{
		PageID:      pageID,
		Day:         day,
		Time:        label,
		Status:      status,
		BlockReason: blockReason,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedPage(tx, pageID, actorID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.TimeSlot{}).
			Where("page_id = ? AND day = ? AND time = ?", pageID, day, label).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: slot %s %s already exists", ErrConflict, day, label)
		}
		return tx.Create(slot).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: slot %s %s already exists", ErrConflict, day, label)
		}
		return nil, err
	}
	return slot, nil
}

func (s *SlotService) UpdateSlot(ctx context.Context, pageID, actorID uuid.UUID, day, label string, patch SlotPatch) (*models.TimeSlot, error) {
	if patch.Status != nil {
		if err := vendorStatus(*patch.Status); err != nil {
			return nil, err
		}
	}

	db := s.db.WithContext(ctx)
	if _, err := ownedPage(db, pageID, actorID); err != nil {
		return nil, err
	}

	slot, err := findSlot(db, pageID, day, label)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	next := slot.Status
	if patch.Status != nil {
		next = *patch.Status
		updates["status"] = next
	}
	if patch.BlockReason != nil {
		updates["block_reason"] = *patch.BlockReason
	}
	if next == models.SlotAvailable && (patch.BlockReason != nil || slot.BlockReason != "") {
		updates["block_reason"] = ""
	}
	if len(updates) == 0 {
		return slot, nil
	}

	// The status read above must still hold: a booking may have claimed the
	// slot since.
	res := db.Model(&models.TimeSlot{}).
		Where("id = ? AND status = ?", slot.ID, slot.Status).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: slot %s %s changed while updating, reload and retry", ErrConflict, day, label)
	}
	return findSlot(db, pageID, day, label)
}

func (s *SlotService) DeleteSlot(ctx context.Context, pageID, actorID uuid.UUID, day, label string) error {
	db := s.db.WithContext(ctx)
	if _, err := ownedPage(db, pageID, actorID); err != nil {
		return err
	}

	result := db.Where("page_id = ? AND day = ? AND time = ?", pageID, day, label).Delete(&models.TimeSlot{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: no slot at %s %s", ErrNotFound, day, label)
	}
	return nil
}

// ListSlots returns the weekly grid: days Monday to Sunday, slots by time
// label. Days with no slots are omitted.
func (s *SlotService) ListSlots(ctx context.Context, pageID uuid.UUID) ([]models.DaySlots, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Page{}).Where("id = ?", pageID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: page not found", ErrNotFound)
	}

	var slots []models.TimeSlot
	if err := db.Where("page_id = ?", pageID).Find(&slots).Error; err != nil {
		return nil, err
	}

	byDay := make(map[string][]models.TimeSlot)
	for _, slot := range slots {
		byDay[slot.Day] = append(byDay[slot.Day], slot)
	}

	grid := []models.DaySlots{}
	for _, day := range models.Weekdays {
		daySlots, ok := byDay[day]
		if !ok {
			continue
		}
		sort.Slice(daySlots, func(i, j int) bool { return daySlots[i].Time < daySlots[j].Time })
		grid = append(grid, models.DaySlots{Day: day, Slots: daySlots})
	}
	return grid, nil
}

func findSlot(tx *gorm.DB, pageID uuid.UUID, day, label string) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	err := tx.Where("page_id = ? AND day = ? AND time = ?", pageID, day, label).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no slot at %s %s", ErrNotFound, day, label)
		}
		return nil, err
	}
	return &slot, nil
}

// claimSlot marks an Available slot Booked. It must run inside the
// transaction that inserts the booking.
func claimSlot(tx *gorm.DB, pageID uuid.UUID, day, label string) error {
	res := tx.Model(&models.TimeSlot{}).
		Where("page_id = ? AND day = ? AND time = ? AND status = ?", pageID, day, label, models.SlotAvailable).
		Update("status", models.SlotBooked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %s is not available", ErrSlotUnavailable, day, label)
	}
	return nil
}

// releaseSlot returns a Booked slot to Available. A slot that was deleted or
// re-set by the vendor in the meantime is left alone.
func releaseSlot(tx *gorm.DB, pageID uuid.UUID, day, label string) error {
	return tx.Model(&models.TimeSlot{}).
		Where("page_id = ? AND day = ? AND time = ? AND status = ?", pageID, day, label, models.SlotBooked).
		Updates(map[string]interface{}{"status": models.SlotAvailable, "block_reason": ""}).Error
}

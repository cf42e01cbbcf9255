package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"servicedome-backend/models"
	"servicedome-backend/services"
	"servicedome-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SlotInput is either {start, end} or {day, from, to}.
type SlotInput struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
	Day   string     `json:"day"`
	From  string     `json:"from"`
	To    string     `json:"to"`
}

// Items may be sent as an array or as a JSON-encoded string. Extra item keys
// such as a client-side serviceId are ignored.
type CreateBookingInput struct {
	PageID          string           `json:"pageId" binding:"required"`
	Items           json.RawMessage  `json:"items"`
	TotalPrice      *decimal.Decimal `json:"totalPrice"`
	DeliveryAddress string           `json:"deliveryAddress"`
	Slot            *SlotInput       `json:"slot"`
}

type UpdateBookingStatusInput struct {
	Status models.BookingStatus `json:"status" binding:"required"`
}

type BookingController struct {
	bookings *services.BookingService
	logger   *zap.Logger
}

func NewBookingController(bookings *services.BookingService, logger *zap.Logger) *BookingController {
	return &BookingController{bookings: bookings, logger: logger}
}

func (ctl *BookingController) CreateBooking(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	pageID, err := uuid.Parse(input.PageID)
	if err != nil {
		utils.RespondWithCode(c, http.StatusBadRequest, "validation_error", "Invalid pageId format")
		return
	}

	var items []models.BookingItem
	if _, err := utils.DecodeFlexibleLoose(input.Items, &items); err != nil {
		badInput(c, err)
		return
	}

	req := services.BookingRequest{
		PageID:          pageID,
		Items:           items,
		TotalPrice:      input.TotalPrice,
		DeliveryAddress: input.DeliveryAddress,
	}
	if input.Slot != nil {
		req.Slot = &services.SlotRequest{
			Start: input.Slot.Start,
			End:   input.Slot.End,
			Day:   input.Slot.Day,
			From:  input.Slot.From,
			To:    input.Slot.To,
		}
	}

	booking, err := ctl.bookings.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusCreated, booking)
}

// GetBookings supports ?as=Customer|Vendor, ?status= and ?pageId=. Without
// ?as, vendors see their pages' bookings and everyone else their own.
func (ctl *BookingController) GetBookings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	filter := services.BookingFilter{
		As:     models.Role(c.Query("as")),
		Status: models.BookingStatus(c.Query("status")),
	}
	if filter.As == "" {
		filter.As = models.RoleCustomer
		if utils.HasRole(c, string(models.RoleVendor)) && !utils.HasRole(c, string(models.RoleCustomer)) {
			filter.As = models.RoleVendor
		}
	}
	if filter.As == models.RoleVendor && !utils.HasRole(c, string(models.RoleVendor)) {
		utils.RespondWithError(c, http.StatusForbidden, "Requires Vendor role")
		return
	}
	if v := c.Query("pageId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			utils.RespondWithCode(c, http.StatusBadRequest, "validation_error", "Invalid pageId format")
			return
		}
		filter.PageID = &id
	}

	list, err := ctl.bookings.ListBookings(c.Request.Context(), userID, filter)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, list)
}

func (ctl *BookingController) GetBooking(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bookingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := ctl.bookings.GetBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, view)
}

func (ctl *BookingController) UpdateBookingStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bookingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input UpdateBookingStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	booking, err := ctl.bookings.UpdateBookingStatus(c.Request.Context(), bookingID, userID, input.Status)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, booking)
}

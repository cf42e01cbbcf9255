package controllers

import (
	"net/http"

	"servicedome-backend/models"
	"servicedome-backend/services"
	"servicedome-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CreateSlotInput struct {
	Day         string            `json:"day" binding:"required"`
	Time        string            `json:"time" binding:"required"`
	Status      models.SlotStatus `json:"status"`
	BlockReason string            `json:"blockReason"`
}

type UpdateSlotInput struct {
	Status      *models.SlotStatus `json:"status"`
	BlockReason *string            `json:"blockReason"`
}

type SlotController struct {
	slots  *services.SlotService
	logger *zap.Logger
}

func NewSlotController(slots *services.SlotService, logger *zap.Logger) *SlotController {
	return &SlotController{slots: slots, logger: logger}
}

func (ctl *SlotController) CreateSlot(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	var input CreateSlotInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	slot, err := ctl.slots.CreateSlot(c.Request.Context(), pageID, userID, input.Day, input.Time, input.Status, input.BlockReason)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusCreated, slot)
}

func (ctl *SlotController) ListSlots(c *gin.Context) {
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	grid, err := ctl.slots.ListSlots(c.Request.Context(), pageID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, grid)
}

func (ctl *SlotController) UpdateSlot(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	var input UpdateSlotInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	slot, err := ctl.slots.UpdateSlot(c.Request.Context(), pageID, userID, c.Param("day"), c.Param("time"), services.SlotPatch{
		Status:      input.Status,
		BlockReason: input.BlockReason,
	})
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, slot)
}

func (ctl *SlotController) DeleteSlot(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	if err := ctl.slots.DeleteSlot(c.Request.Context(), pageID, userID, c.Param("day"), c.Param("time")); err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, gin.H{"message": "Time slot deleted successfully"})
}

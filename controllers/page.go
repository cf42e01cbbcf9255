package controllers

import (
	"encoding/json"
	"net/http"

	"servicedome-backend/models"
	"servicedome-backend/services"
	"servicedome-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Category and openingHours may arrive as JSON or as a JSON-encoded string.
type CreatePageInput struct {
	Category      json.RawMessage `json:"category"`
	BusinessName  string          `json:"businessName" binding:"required"`
	About         string          `json:"about"`
	StorePolicies string          `json:"storePolicies"`
	Logo          string          `json:"logo"`
	Banner        string          `json:"banner"`
	Location      json.RawMessage `json:"location"`
	OpeningHours  json.RawMessage `json:"openingHours"`
}

type UpdatePageInput struct {
	Category      json.RawMessage `json:"category"`
	BusinessName  *string         `json:"businessName"`
	About         *string         `json:"about"`
	StorePolicies *string         `json:"storePolicies"`
	Logo          *string         `json:"logo"`
	Banner        *string         `json:"banner"`
	Location      *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Address   *string  `json:"address"`
	} `json:"location"`
	OpeningHours json.RawMessage `json:"openingHours"`
}

type CategoryInput struct {
	Name string `json:"name" binding:"required"`
}

type PageController struct {
	pages  *services.PageService
	logger *zap.Logger
}

func NewPageController(pages *services.PageService, logger *zap.Logger) *PageController {
	return &PageController{pages: pages, logger: logger}
}

func (ctl *PageController) CreatePage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input CreatePageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	draft := services.PageDraft{
		BusinessName:  input.BusinessName,
		About:         input.About,
		StorePolicies: input.StorePolicies,
		Logo:          input.Logo,
		Banner:        input.Banner,
	}
	if _, err := utils.DecodeFlexible(input.Category, &draft.Category); err != nil {
		badInput(c, err)
		return
	}
	if _, err := utils.DecodeFlexible(input.Location, &draft.Location); err != nil {
		badInput(c, err)
		return
	}
	if _, err := utils.DecodeFlexible(input.OpeningHours, &draft.OpeningHours); err != nil {
		badInput(c, err)
		return
	}

	page, err := ctl.pages.CreatePage(c.Request.Context(), userID, draft)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusCreated, page)
}

func (ctl *PageController) UpdatePage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	var input UpdatePageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	patch := services.PagePatch{
		BusinessName:  input.BusinessName,
		About:         input.About,
		StorePolicies: input.StorePolicies,
		Logo:          input.Logo,
		Banner:        input.Banner,
	}
	var category models.PageCategory
	if present, err := utils.DecodeFlexible(input.Category, &category); err != nil {
		badInput(c, err)
		return
	} else if present {
		patch.Category = &category
	}
	var hours []models.OpeningHours
	if present, err := utils.DecodeFlexible(input.OpeningHours, &hours); err != nil {
		badInput(c, err)
		return
	} else if present {
		patch.OpeningHours = &hours
	}
	if input.Location != nil {
		patch.Location = &services.LocationPatch{
			Latitude:  input.Location.Latitude,
			Longitude: input.Location.Longitude,
			Address:   input.Location.Address,
		}
	}

	page, err := ctl.pages.UpdatePage(c.Request.Context(), pageID, userID, patch)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, page)
}

func (ctl *PageController) DeletePage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	if err := ctl.pages.DeletePage(c.Request.Context(), pageID, userID); err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, gin.H{"message": "Page deleted successfully"})
}

func (ctl *PageController) GetPage(c *gin.Context) {
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	page, err := ctl.pages.GetPage(c.Request.Context(), pageID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, page)
}

// ListPages supports ?category=<name> and ?vendorId=<id>.
func (ctl *PageController) ListPages(c *gin.Context) {
	filter := services.PageFilter{CategoryName: c.Query("category")}
	if v := c.Query("vendorId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			utils.RespondWithCode(c, http.StatusBadRequest, "validation_error", "Invalid vendorId format")
			return
		}
		filter.VendorID = &id
	}

	pages, err := ctl.pages.ListPages(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, pages)
}

func (ctl *PageController) GetDeliverySettings(c *gin.Context) {
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	settings, err := ctl.pages.GetDeliverySettings(c.Request.Context(), pageID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, settings)
}

func (ctl *PageController) UpdateDeliverySettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	var input models.DeliverySettings
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	settings, err := ctl.pages.SetDeliverySettings(c.Request.Context(), pageID, userID, input)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, settings)
}

func (ctl *PageController) CreateCategory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	category, err := ctl.pages.CreateCategory(c.Request.Context(), pageID, userID, input.Name)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusCreated, category)
}

func (ctl *PageController) ListCategories(c *gin.Context) {
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	categories, err := ctl.pages.ListCategories(c.Request.Context(), pageID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, categories)
}

// controllers/service.go
package controllers

import (
	"net/http"

	"servicedome-backend/services"
	"servicedome-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateServiceInput defines the expected JSON structure for creating a service.
// Category is either the id of a page category or a free-text label.
type CreateServiceInput struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Duration    int              `json:"duration"` // in minutes
	Category    string           `json:"category"`
	Images      []string         `json:"images"`
}

// UpdateServiceInput defines the expected JSON structure for updating a service
type UpdateServiceInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Duration    *int             `json:"duration"`
	Category    *string          `json:"category"`
	Images      *[]string        `json:"images"`
}

// splitCategory reads a category field as a page category id when it parses
// as one, and as an inline label otherwise.
func splitCategory(v string) (*uuid.UUID, string) {
	if id, err := uuid.Parse(v); err == nil {
		return &id, ""
	}
	return nil, v
}

func (ctl *PageController) CreateService(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	var input CreateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	categoryID, label := splitCategory(input.Category)
	service, err := ctl.pages.AddService(c.Request.Context(), pageID, userID, services.ServiceInput{
		Name:          input.Name,
		Description:   input.Description,
		Price:         *input.Price,
		Duration:      input.Duration,
		CategoryID:    categoryID,
		CategoryLabel: label,
		Images:        input.Images,
	})
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusCreated, service)
}

// GetServices lists a page's catalog; ?category=<id> narrows it.
func (ctl *PageController) GetServices(c *gin.Context) {
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	var categoryID *uuid.UUID
	if v := c.Query("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			utils.RespondWithCode(c, http.StatusBadRequest, "validation_error", "Invalid category ID format")
			return
		}
		categoryID = &id
	}

	list, err := ctl.pages.ListServices(c.Request.Context(), pageID, categoryID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, list)
}

func (ctl *PageController) UpdateService(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}
	serviceID, ok := uuidParam(c, "serviceId")
	if !ok {
		return
	}

	var input UpdateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	patch := services.ServicePatch{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Duration:    input.Duration,
		Images:      input.Images,
	}
	if input.Category != nil {
		categoryID, label := splitCategory(*input.Category)
		patch.CategoryID = categoryID
		if categoryID == nil {
			patch.CategoryLabel = &label
		}
	}

	service, err := ctl.pages.UpdateService(c.Request.Context(), pageID, serviceID, userID, patch)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, service)
}

func (ctl *PageController) DeleteService(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}
	serviceID, ok := uuidParam(c, "serviceId")
	if !ok {
		return
	}

	if err := ctl.pages.DeleteService(c.Request.Context(), pageID, serviceID, userID); err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, gin.H{"message": "Service deleted successfully"})
}

package controllers

import (
	"net/http"

	"servicedome-backend/services"
	"servicedome-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CreateReviewInput struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type ReviewController struct {
	reviews *services.ReviewService
	logger  *zap.Logger
}

func NewReviewController(reviews *services.ReviewService, logger *zap.Logger) *ReviewController {
	return &ReviewController{reviews: reviews, logger: logger}
}

func (ctl *ReviewController) AddReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	var input CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	review, err := ctl.reviews.AddReview(c.Request.Context(), pageID, userID, input.Rating, input.Comment)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusCreated, review)
}

func (ctl *ReviewController) ListReviews(c *gin.Context) {
	pageID, ok := uuidParam(c, "pageId")
	if !ok {
		return
	}

	reviews, err := ctl.reviews.ListReviews(c.Request.Context(), pageID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, reviews)
}

func (ctl *ReviewController) ListVendorReviews(c *gin.Context) {
	vendorID, ok := uuidParam(c, "vendorId")
	if !ok {
		return
	}

	reviews, err := ctl.reviews.ListVendorReviews(c.Request.Context(), vendorID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, reviews)
}

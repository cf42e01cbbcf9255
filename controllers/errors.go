package controllers

import (
	"errors"
	"net/http"

	"servicedome-backend/services"
	"servicedome-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the more specific sentinels come first.
var errorMappings = []errorMapping{
	{services.ErrValidation, http.StatusBadRequest, "validation_error"},
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrForbidden, http.StatusForbidden, "forbidden"},
	{services.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{services.ErrQuotaExceeded, http.StatusForbidden, "quota_exceeded"},
	{services.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
	{services.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{services.ErrConflict, http.StatusConflict, "conflict"},
	{services.ErrUpstream, http.StatusBadGateway, "upstream_failure"},
}

// respondServiceError maps a service error onto the response envelope.
// Unknown errors are logged and reported without detail.
func respondServiceError(c *gin.Context, logger *zap.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			utils.RespondWithCode(c, m.status, m.code, err.Error())
			return
		}
	}
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	utils.RespondWithCode(c, http.StatusInternalServerError, "internal", "Internal server error")
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
	}
	return id, ok
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithCode(c, http.StatusBadRequest, "validation_error", "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

func badInput(c *gin.Context, err error) {
	utils.RespondWithCode(c, http.StatusBadRequest, "validation_error", "Invalid input: "+err.Error())
}

// controllers/notification.go
package controllers

import (
	"net/http"
	"strconv"

	"servicedome-backend/services"
	"servicedome-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationController struct {
	notifications *services.NotificationService
	logger        *zap.Logger
}

func NewNotificationController(notifications *services.NotificationService, logger *zap.Logger) *NotificationController {
	return &NotificationController{notifications: notifications, logger: logger}
}

// GetNotifications returns the caller's log, newest first.
func (ctl *NotificationController) GetNotifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := ctl.notifications.List(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, list)
}

func (ctl *NotificationController) MarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.RespondWithCode(c, http.StatusBadRequest, "validation_error", "Invalid notification index")
		return
	}

	n, err := ctl.notifications.MarkRead(c.Request.Context(), userID, index)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, n)
}

package controllers

import (
	"crypto/subtle"
	"net/http"

	"servicedome-backend/models"
	"servicedome-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PushTokenInput struct {
	Token string `json:"token"`
}

// SubscriptionWebhookInput is posted by the payment provider integration.
type SubscriptionWebhookInput struct {
	UserID     string                    `json:"userId" binding:"required"`
	Tier       models.MembershipTier     `json:"membershipTier" binding:"required"`
	Status     models.SubscriptionStatus `json:"subscriptionStatus" binding:"required"`
	PaymentRef string                    `json:"externalPaymentAccountRef"`
}

func (ctl *AccountController) UpdatePushToken(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input PushTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	if err := ctl.accounts.UpdatePushToken(c.Request.Context(), userID, input.Token); err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, gin.H{"message": "Push token updated"})
}

func (ctl *AccountController) SubscriptionWebhook(c *gin.Context) {
	given := c.GetHeader("X-Webhook-Secret")
	if ctl.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(ctl.webhookSecret)) != 1 {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid webhook secret")
		return
	}

	var input SubscriptionWebhookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		utils.RespondWithCode(c, http.StatusBadRequest, "validation_error", "Invalid userId format")
		return
	}

	vendor, err := ctl.accounts.ApplySubscription(c.Request.Context(), userID, input.Tier, input.Status, input.PaymentRef)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, vendor)
}

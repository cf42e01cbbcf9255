package controllers

import (
	"net/http"

	"servicedome-backend/models"
	"servicedome-backend/services"
	"servicedome-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RegisterInput struct {
	Email    string          `json:"email" binding:"required,email"`
	Phone    string          `json:"phone"`
	Name     string          `json:"name" binding:"required"`
	Password string          `json:"password" binding:"required,min=8"`
	Roles    []models.Role   `json:"roles"`
	Address  string          `json:"address"`
	Location models.Location `json:"location"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // email or phone
	Password   string `json:"password" binding:"required"`
}

type AccountController struct {
	accounts      *services.AccountService
	webhookSecret string
	logger        *zap.Logger
}

func NewAccountController(accounts *services.AccountService, webhookSecret string, logger *zap.Logger) *AccountController {
	return &AccountController{accounts: accounts, webhookSecret: webhookSecret, logger: logger}
}

func (ctl *AccountController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	user, token, err := ctl.accounts.Register(c.Request.Context(), services.RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Phone:    input.Phone,
		Roles:    input.Roles,
		Address:  input.Address,
		Location: input.Location,
	})
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}

	utils.RespondWithData(c, http.StatusCreated, gin.H{
		"token": token,
		"user":  services.NewProfile(user),
	})
}

func (ctl *AccountController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	user, token, err := ctl.accounts.Login(c.Request.Context(), input.Identifier, input.Password)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}

	utils.RespondWithData(c, http.StatusOK, gin.H{
		"token": token,
		"user":  services.NewProfile(user),
	})
}

func (ctl *AccountController) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := ctl.accounts.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, profile)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"servicedome-backend/models"
	"servicedome-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Roles    []models.Role
	Address  string
	Location models.Location
}

// Profile is the account as shown to its owner.
type Profile struct {
	models.User
	VendorProfile *models.VendorProfile `json:"vendorProfile,omitempty"`
}

func NewProfile(u *models.User) *Profile {
	return &Profile{User: *u, VendorProfile: u.Vendor()}
}

type AuthSettings struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type AccountService struct {
	db     *gorm.DB
	logger *zap.Logger
	auth   AuthSettings
}

func NewAccountService(db *gorm.DB, logger *zap.Logger, auth AuthSettings) *AccountService {
	if auth.TokenTTL <= 0 {
		auth.TokenTTL = 24 * time.Hour
	}
	return &AccountService{db: db, logger: logger, auth: auth}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || strings.TrimSpace(in.Name) == "" {
		return nil, "", fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, "", fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if in.Phone != "" && !utils.ValidatePhone(in.Phone) {
		return nil, "", fmt.Errorf("%w: invalid phone number", ErrValidation)
	}
	if len(in.Roles) == 0 {
		in.Roles = []models.Role{models.RoleCustomer}
	}
	roles := models.Roles{}
	for _, r := range in.Roles {
		if !models.ValidRole(r) {
			return nil, "", fmt.Errorf("%w: invalid role: %q", ErrValidation, r)
		}
		if !roles.Has(r) {
			roles = append(roles, r)
		}
	}
	if err := validateLocation(in.Location); err != nil {
		return nil, "", err
	}

	hash, err := utils.HashPassword(in.Password, s.auth.BcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:    in.Email,
		Password: hash,
		Name:     in.Name,
		Phone:    in.Phone,
		Roles:    roles,
		IsActive: true,
	}
	if roles.Has(models.RoleCustomer) {
		user.CustomerProfile = &models.CustomerProfile{Address: in.Address, Location: in.Location}
	}

	db := s.db.WithContext(ctx)
	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&existing).Error; err != nil {
		return nil, "", err
	}
	if existing > 0 {
		return nil, "", fmt.Errorf("%w: email already registered", ErrConflict)
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, "", err
	}

	token, err := s.token(user)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("account registered", zap.String("userId", user.ID.String()), zap.Strings("roles", roleNames(user.Roles)))
	return user, token, nil
}

// Login accepts an email or phone number as identifier.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (*models.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, "", fmt.Errorf("%w: identifier and password are required", ErrValidation)
	}

	db := s.db.WithContext(ctx)
	var user models.User
	err := db.Where("email = ? OR phone = ?", strings.ToLower(identifier), identifier).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
		return nil, "", err
	}
	if !user.IsActive || !utils.CheckPasswordHash(password, user.Password) {
		return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, err := s.token(&user)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	if err := db.Model(&user).UpdateColumn("last_login", &now).Error; err != nil {
		s.logger.Warn("last login not recorded", zap.String("userId", user.ID.String()), zap.Error(err))
	}
	user.LastLogin = &now
	return &user, token, nil
}

func (s *AccountService) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewProfile(user), nil
}

// UpdatePushToken registers the device that receives push notifications.
// An empty token unregisters it.
func (s *AccountService) UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).UpdateColumn("push_token", strings.TrimSpace(token))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user not found", ErrNotFound)
	}
	return nil
}

// ApplySubscription records the outcome reported by the payment provider.
func (s *AccountService) ApplySubscription(ctx context.Context, userID uuid.UUID, tier models.MembershipTier, status models.SubscriptionStatus, paymentRef string) (*models.VendorProfile, error) {
	if !models.ValidTier(tier) {
		return nil, fmt.Errorf("%w: invalid membership tier: %q", ErrValidation, tier)
	}
	if !models.ValidSubscriptionStatus(status) {
		return nil, fmt.Errorf("%w: invalid subscription status: %q", ErrValidation, status)
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsVendor() {
		return nil, fmt.Errorf("%w: account is not a vendor", ErrValidation)
	}

	updates := map[string]interface{}{
		"vendor_membership_tier":     tier,
		"vendor_subscription_status": status,
	}
	if paymentRef != "" {
		updates["vendor_payment_account_ref"] = paymentRef
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).UpdateColumns(updates).Error; err != nil {
		return nil, err
	}

	user.VendorProfile.MembershipTier = tier
	user.VendorProfile.SubscriptionStatus = status
	if paymentRef != "" {
		user.VendorProfile.PaymentAccountRef = paymentRef
	}
	s.logger.Info("subscription updated",
		zap.String("userId", userID.String()),
		zap.String("tier", string(tier)),
		zap.String("status", string(status)),
	)
	return user.Vendor(), nil
}

func (s *AccountService) find(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (s *AccountService) token(user *models.User) (string, error) {
	return utils.GenerateToken(user.ID.String(), roleNames(user.Roles), s.auth.JWTSecret, s.auth.TokenTTL)
}

func roleNames(roles models.Roles) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return names
}

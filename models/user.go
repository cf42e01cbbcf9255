package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleCustomer Role = "Customer"
	RoleVendor   Role = "Vendor"
)

type MembershipTier string

const (
	TierFree    MembershipTier = "Free"
	TierPremium MembershipTier = "Premium"
)

type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "Active"
	SubscriptionExpired SubscriptionStatus = "Expired"
)

func ValidRole(r Role) bool {
	return r == RoleCustomer || r == RoleVendor
}

func ValidTier(t MembershipTier) bool {
	return t == TierFree || t == TierPremium
}

func ValidSubscriptionStatus(s SubscriptionStatus) bool {
	return s == SubscriptionActive || s == SubscriptionExpired
}

// Roles is stored as a JSON array.
type Roles []Role

func (r Roles) Has(role Role) bool {
	for _, have := range r {
		if have == role {
			return true
		}
	}
	return false
}

func (r Roles) Value() (driver.Value, error) {
	if r == nil {
		return jsonValue([]Role{})
	}
	return jsonValue([]Role(r))
}

func (r *Roles) Scan(value interface{}) error {
	return jsonScan(value, r)
}

type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

type CustomerProfile struct {
	Address  string   `json:"address"`
	Location Location `json:"location"`
}

func (p CustomerProfile) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (p *CustomerProfile) Scan(value interface{}) error {
	return jsonScan(value, p)
}

// VendorProfile columns are flattened onto users so the page quota can be
// enforced with a single conditional update.
type VendorProfile struct {
	MembershipTier     MembershipTier     `gorm:"type:varchar(20)" json:"membershipTier"`
	SubscriptionStatus SubscriptionStatus `gorm:"type:varchar(20)" json:"subscriptionStatus"`
	PaymentAccountRef  string             `json:"externalPaymentAccountRef,omitempty"`
	PageCount          int                `gorm:"not null;default:0" json:"pageCount"`
}

// User is a single account holding Customer and/or Vendor capabilities.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Name     string    `gorm:"not null" json:"name"`
	Phone    string    `json:"phone"`

	Roles           Roles            `gorm:"type:jsonb;not null" json:"roles"`
	CustomerProfile *CustomerProfile `gorm:"type:jsonb" json:"customerProfile,omitempty"`
	VendorProfile   VendorProfile    `gorm:"embedded;embeddedPrefix:vendor_" json:"-"`

	PushToken string     `json:"-"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	IsActive  bool       `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Normalize()
	return
}

func (u *User) BeforeSave(tx *gorm.DB) (err error) {
	u.Normalize()
	return
}

// Normalize keeps the profiles in step with the roles: a profile exists
// exactly when the matching role is held.
func (u *User) Normalize() {
	if u.Roles.Has(RoleCustomer) {
		if u.CustomerProfile == nil {
			u.CustomerProfile = &CustomerProfile{}
		}
	} else {
		u.CustomerProfile = nil
	}

	if u.Roles.Has(RoleVendor) {
		if u.VendorProfile.MembershipTier == "" {
			u.VendorProfile.MembershipTier = TierFree
		}
		if u.VendorProfile.SubscriptionStatus == "" {
			u.VendorProfile.SubscriptionStatus = SubscriptionExpired
		}
	} else {
		u.VendorProfile = VendorProfile{}
	}
}

func (u *User) IsVendor() bool {
	return u.Roles.Has(RoleVendor)
}

func (u *User) IsCustomer() bool {
	return u.Roles.Has(RoleCustomer)
}

// Vendor returns the vendor profile, or nil when the account is not a vendor.
func (u *User) Vendor() *VendorProfile {
	if !u.IsVendor() {
		return nil
	}
	p := u.VendorProfile
	return &p
}

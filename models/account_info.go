package models

import (
	"fmt"
	"time"
)

// AccountInfoPath returns the nested document path a profile lives under
func AccountInfoPath(uid string) string {
	return fmt.Sprintf("users/%s/profile/account_info", uid)
}

// AccountInfo is a partner (member) profile
type AccountInfo struct {
	UID          string    `json:"uid" bson:"_id"`
	Path         string    `json:"path" bson:"path"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty"`
	BusinessName string    `json:"businessName,omitempty" bson:"businessName,omitempty"`
	Plan         string    `json:"plan" bson:"plan"`
	JoinedAt     time.Time `json:"joinedAt" bson:"joinedAt"`
	ReferralCode string    `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	FCMToken     string    `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CompleteSignupRequest finishes partner onboarding after auth-provider sign-up
type CompleteSignupRequest struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone"`
	BusinessName string `json:"businessName"`
	Plan         string `json:"plan" validate:"required"`
	ReferralCode string `json:"referralCode"`
	CouponCode   string `json:"couponCode"`
}

// UpdateAccountInfoRequest updates mutable profile fields
type UpdateAccountInfoRequest struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	BusinessName *string `json:"businessName"`
	FCMToken     *string `json:"fcmToken"`
}

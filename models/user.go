package models

import "time"

// User types recognised by the role middleware
const (
	UserTypePartner = "partner"
	UserTypeAdmin   = "admin"
	UserTypeStaff   = "staff"
)

// User is the role record for an authenticated identity. Partners are keyed by their
// auth-provider uid, admin and staff accounts additionally carry a password hash.
type User struct {
	UID         string    `json:"uid" bson:"_id"`
	Email       string    `json:"email" bson:"email"`
	FullName    string    `json:"fullName,omitempty" bson:"fullName,omitempty"`
	UserType    string    `json:"userType" bson:"userType"`
	Password    string    `json:"-" bson:"password,omitempty"`
	StaffCode   string    `json:"staffCode,omitempty" bson:"staffCode,omitempty"`
	IsActive    bool      `json:"isActive" bson:"isActive"`
	LastLoginAt time.Time `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// LoginRequest is used by admin and staff accounts
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionRequest exchanges an auth-provider ID token for an API token
type SessionRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// AuthResponse is returned by both login flows
type AuthResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	UserType string `json:"userType"`
	Email    string `json:"email"`
}

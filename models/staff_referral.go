package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StaffReferral is an internal salesperson code used to attribute partner sign-ups
type StaffReferral struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code         string             `json:"code" bson:"code"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	Phone        string             `json:"phone,omitempty" bson:"phone,omitempty"`
	PartnerCount int                `json:"partnerCount" bson:"partnerCount"`
	TotalSales   Amount             `json:"totalSales" bson:"totalSales"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateStaffReferralRequest is the body for generating a staff code
type CreateStaffReferralRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone"`
}

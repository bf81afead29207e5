package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coupon grants a percentage discount on a plan
type Coupon struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code            string             `json:"code" bson:"code"`
	DiscountPercent float64            `json:"discountPercent" bson:"discountPercent"`
	Plan            string             `json:"plan,omitempty" bson:"plan,omitempty"` // empty applies to every plan
	UsageLimit      int                `json:"usageLimit" bson:"usageLimit"`         // 0 means unlimited
	UsedCount       int                `json:"usedCount" bson:"usedCount"`
	IsActive        bool               `json:"isActive" bson:"isActive"`
	ExpiresAt       *time.Time         `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	CreatedBy       string             `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateCouponRequest is the body for generating a coupon
type CreateCouponRequest struct {
	Code            string     `json:"code" validate:"omitempty,alphanum,min=4,max=20"`
	DiscountPercent float64    `json:"discountPercent" validate:"required,gt=0,lte=100"`
	Plan            string     `json:"plan"`
	UsageLimit      int        `json:"usageLimit" validate:"gte=0"`
	ExpiresAt       *time.Time `json:"expiresAt"`
}

// ValidateCouponRequest checks a code against a plan
type ValidateCouponRequest struct {
	Code string `json:"code" validate:"required"`
	Plan string `json:"plan" validate:"required"`
}

// CouponQuote is the priced result of applying a coupon to a plan
type CouponQuote struct {
	Code            string  `json:"code"`
	Plan            string  `json:"plan"`
	DiscountPercent float64 `json:"discountPercent"`
	OriginalPrice   float64 `json:"originalPrice"`
	Discount        float64 `json:"discount"`
	FinalPrice      float64 `json:"finalPrice"`
}

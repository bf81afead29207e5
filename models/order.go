package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceDescriptor describes what the partner resells to the client
type ServiceDescriptor struct {
	Name        string `json:"name" bson:"name" validate:"required"`
	Category    string `json:"category,omitempty" bson:"category,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// Order is a service order placed by a partner on behalf of a client.
// Status is free text; dashboards classify it by substring.
type Order struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ClientName      string             `json:"clientName" bson:"clientName"`
	ClientEmail     string             `json:"clientEmail,omitempty" bson:"clientEmail,omitempty"`
	ClientPhone     string             `json:"clientPhone,omitempty" bson:"clientPhone,omitempty"`
	PartnerID       string             `json:"partnerId" bson:"partnerId"`
	PartnerName     string             `json:"partnerName,omitempty" bson:"partnerName,omitempty"`
	Service         ServiceDescriptor  `json:"service" bson:"service"`
	ClientPrice     Amount             `json:"clientPrice" bson:"clientPrice"`
	AdminPrice      Amount             `json:"adminPrice" bson:"adminPrice"`
	PaidAmount      Amount             `json:"paidAmount" bson:"paidAmount"`
	Status          string             `json:"status" bson:"status"`
	PaymentVerified bool               `json:"paymentVerified" bson:"paymentVerified"`
	PaymentProof    string             `json:"paymentProof,omitempty" bson:"paymentProof,omitempty"`
	Notes           string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// OrderStatusPending is assigned to freshly created orders
const OrderStatusPending = "Pending"

// CreateOrderRequest is the body for placing an order
type CreateOrderRequest struct {
	ClientName  string            `json:"clientName" validate:"required"`
	ClientEmail string            `json:"clientEmail" validate:"omitempty,email"`
	ClientPhone string            `json:"clientPhone"`
	PartnerID   string            `json:"partnerId"`
	Service     ServiceDescriptor `json:"service" validate:"required"`
	ClientPrice float64           `json:"clientPrice" validate:"gte=0"`
	Notes       string            `json:"notes"`
}

// UpdateOrderStatusRequest changes the free-text status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateOrderPricingRequest lets an admin set both sides of the price
type UpdateOrderPricingRequest struct {
	ClientPrice *float64 `json:"clientPrice" validate:"omitempty,gte=0"`
	AdminPrice  *float64 `json:"adminPrice" validate:"omitempty,gte=0"`
}

// VerifyPaymentRequest records a payment an admin confirmed out of band
type VerifyPaymentRequest struct {
	PaidAmount float64 `json:"paidAmount" validate:"gte=0"`
}

// OrderFilter narrows order listings
type OrderFilter struct {
	PartnerID string
	Status    string
	From      time.Time
	To        time.Time
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment transaction states as reported by the gateway
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// PaymentStatesBefore lists the states a transaction may leave to enter status.
// COMPLETED is final; a FAILED transaction can still complete if the gateway settles late.
func PaymentStatesBefore(status string) []string {
	if status == PaymentStatusCompleted {
		return []string{PaymentStatusPending, PaymentStatusFailed}
	}
	return []string{PaymentStatusPending}
}

// PaymentTransaction tracks one checkout attempt against the gateway
type PaymentTransaction struct {
	ID                    primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	MerchantTransactionID string             `json:"merchantTransactionId" bson:"merchantTransactionId"`
	OrderID               string             `json:"orderId,omitempty" bson:"orderId,omitempty"`
	UserID                string             `json:"userId" bson:"userId"`
	Amount                int64              `json:"amount" bson:"amount"` // paise
	Status                string             `json:"status" bson:"status"`
	GatewayCode           string             `json:"gatewayCode,omitempty" bson:"gatewayCode,omitempty"`
	GatewayTransactionID  string             `json:"gatewayTransactionId,omitempty" bson:"gatewayTransactionId,omitempty"`
	RedirectURL           string             `json:"redirectUrl,omitempty" bson:"redirectUrl,omitempty"`
	Applied               bool               `json:"applied" bson:"applied"`
	CreatedAt             time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CheckoutRequest starts a payment for an order or a plan purchase
type CheckoutRequest struct {
	OrderID      string  `json:"orderId"`
	Amount       float64 `json:"amount" validate:"required,gt=0"` // rupees
	MobileNumber string  `json:"mobileNumber" validate:"omitempty,numeric,len=10"`
}

// PhonePePaymentInstrument selects the hosted pay page
type PhonePePaymentInstrument struct {
	Type string `json:"type"`
}

// PhonePePayRequest is the payload that gets base64 encoded and signed
type PhonePePayRequest struct {
	MerchantID            string                   `json:"merchantId"`
	MerchantTransactionID string                   `json:"merchantTransactionId"`
	MerchantUserID        string                   `json:"merchantUserId"`
	Amount                int64                    `json:"amount"`
	RedirectURL           string                   `json:"redirectUrl"`
	RedirectMode          string                   `json:"redirectMode"`
	CallbackURL           string                   `json:"callbackUrl"`
	MobileNumber          string                   `json:"mobileNumber,omitempty"`
	PaymentInstrument     PhonePePaymentInstrument `json:"paymentInstrument"`
}

// PhonePeResponse is the envelope returned by every gateway endpoint
type PhonePeResponse struct {
	Success bool                   `json:"success"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// PaymentStatusData is the normalised status result
type PaymentStatusData struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId,omitempty"`
	Amount                int64  `json:"amount"`
	State                 string `json:"state"`
	Code                  string `json:"code"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Expense is an operating cost recorded by an admin
type Expense struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Amount      Amount             `json:"amount" bson:"amount"`
	Category    string             `json:"category" bson:"category"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	CreatedBy   string             `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// CreateExpenseRequest is the body for adding an expense
type CreateExpenseRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Category    string  `json:"category" validate:"required"`
	Description string  `json:"description"`
}

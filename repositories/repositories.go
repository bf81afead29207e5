package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/resellhub_backend/models"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrInvalidID = errors.New("invalid document id")
	ErrDuplicate = errors.New("document already exists")
	// ErrCouponUnavailable is returned when a coupon is inactive, expired or used up
	ErrCouponUnavailable = errors.New("coupon is not available")
)

const queryTimeout = 10 * time.Second

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Order, error)
	UpdatePricing(ctx context.Context, id string, clientPrice, adminPrice *float64) (*models.Order, error)
	VerifyPayment(ctx context.Context, id string, paidAmount float64) (*models.Order, error)
	AddPayment(ctx context.Context, id string, amount float64) (*models.Order, error)
	SetPaymentProof(ctx context.Context, id, path string) (*models.Order, error)
}

type AccountInfoRepository interface {
	Upsert(ctx context.Context, info *models.AccountInfo) error
	FindByUID(ctx context.Context, uid string) (*models.AccountInfo, error)
	Update(ctx context.Context, uid string, req models.UpdateAccountInfoRequest) (*models.AccountInfo, error)
	List(ctx context.Context, r models.DateRange) ([]models.AccountInfo, error)
	ListByReferralCode(ctx context.Context, code string) ([]models.AccountInfo, error)
}

type StaffReferralRepository interface {
	Create(ctx context.Context, ref *models.StaffReferral) error
	FindByCode(ctx context.Context, code string) (*models.StaffReferral, error)
	FindByEmail(ctx context.Context, email string) (*models.StaffReferral, error)
	List(ctx context.Context) ([]models.StaffReferral, error)
	IncrementPartners(ctx context.Context, code string) error
	AddSales(ctx context.Context, code string, amount float64) error
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *models.Expense) error
	List(ctx context.Context, r models.DateRange) ([]models.Expense, error)
}

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	SetActive(ctx context.Context, code string, active bool) (*models.Coupon, error)
	// Redeem consumes one use of the coupon if it is still available at now
	Redeem(ctx context.Context, code string, now time.Time) (*models.Coupon, error)
}

type PlanRepository interface {
	Create(ctx context.Context, plan *models.Plan) error
	Update(ctx context.Context, id string, req models.PlanRequest) (*models.Plan, error)
	FindByName(ctx context.Context, name string) (*models.Plan, error)
	List(ctx context.Context, activeOnly bool) ([]models.Plan, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, txn *models.PaymentTransaction) error
	FindByMerchantTransactionID(ctx context.Context, txnID string) (*models.PaymentTransaction, error)
	// UpdateStatus ignores transitions PaymentStatesBefore does not allow and returns the stored transaction
	UpdateStatus(ctx context.Context, txnID, status, code, gatewayTxnID string) (*models.PaymentTransaction, error)
	// MarkApplied flips the applied flag once; it reports false if the payment was already applied
	MarkApplied(ctx context.Context, txnID string) (bool, error)
	// UnmarkApplied releases a claim taken by MarkApplied when crediting failed
	UnmarkApplied(ctx context.Context, txnID string) error
}

type UserRepository interface {
	FindByID(ctx context.Context, uid string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	TouchLogin(ctx context.Context, uid string) error
}

func objectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return objID, nil
}

// rangeFilter builds a bson condition for a timestamp field; nil when the range is open
func rangeFilter(r models.DateRange) bson.M {
	cond := bson.M{}
	if !r.From.IsZero() {
		cond["$gte"] = r.From
	}
	if !r.To.IsZero() {
		cond["$lte"] = r.To
	}
	if len(cond) == 0 {
		return nil
	}
	return cond
}

package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/utils"
)

// CouponError carries a user-facing reason a coupon was rejected
type CouponError struct {
	Reason string
}

func (e *CouponError) Error() string { return e.Reason }

// CouponService generates, prices and redeems coupons
type CouponService struct {
	coupons repositories.CouponRepository
	plans   repositories.PlanRepository
	now     func() time.Time
}

func NewCouponService(coupons repositories.CouponRepository, plans repositories.PlanRepository) *CouponService {
	return &CouponService{coupons: coupons, plans: plans, now: time.Now}
}

// Create stores a coupon, generating a code when none is given
func (s *CouponService) Create(ctx context.Context, adminID string, req models.CreateCouponRequest) (*models.Coupon, error) {
	now := s.now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, &CouponError{Reason: "Expiry must be in the future"}
	}

	coupon := &models.Coupon{
		DiscountPercent: req.DiscountPercent,
		Plan:            strings.TrimSpace(req.Plan),
		UsageLimit:      req.UsageLimit,
		IsActive:        true,
		ExpiresAt:       req.ExpiresAt,
		CreatedBy:       adminID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if req.Code != "" {
		coupon.Code = utils.NormalizeCode(req.Code)
		return coupon, s.coupons.Create(ctx, coupon)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := utils.GenerateCouponCode()
		if err != nil {
			return nil, fmt.Errorf("generate coupon code: %w", err)
		}
		coupon.Code = code
		coupon.ID = primitive.NilObjectID
		err = s.coupons.Create(ctx, coupon)
		if err == nil {
			return coupon, nil
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("could not allocate a unique coupon code")
}

// Quote prices a plan with the coupon applied without consuming it
func (s *CouponService) Quote(ctx context.Context, code, planName string) (*models.CouponQuote, error) {
	coupon, err := s.coupons.FindByCode(ctx, utils.NormalizeCode(code))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &CouponError{Reason: "Invalid coupon code"}
		}
		return nil, err
	}
	if err := checkCoupon(coupon, planName, s.now()); err != nil {
		return nil, err
	}

	plan, err := s.plans.FindByName(ctx, planName)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &CouponError{Reason: "Unknown plan"}
		}
		return nil, err
	}
	return PriceWithCoupon(coupon, plan), nil
}

// Redeem consumes one use of the coupon for planName
func (s *CouponService) Redeem(ctx context.Context, code, planName string) (*models.Coupon, error) {
	code = utils.NormalizeCode(code)
	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &CouponError{Reason: "Invalid coupon code"}
		}
		return nil, err
	}
	if err := checkCoupon(coupon, planName, s.now()); err != nil {
		return nil, err
	}
	redeemed, err := s.coupons.Redeem(ctx, code, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrCouponUnavailable) {
			return nil, &CouponError{Reason: "Coupon has reached its usage limit"}
		}
		return nil, err
	}
	return redeemed, nil
}

func checkCoupon(c *models.Coupon, planName string, now time.Time) error {
	switch {
	case !c.IsActive:
		return &CouponError{Reason: "Coupon is not active"}
	case c.ExpiresAt != nil && !c.ExpiresAt.After(now):
		return &CouponError{Reason: "Coupon has expired"}
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return &CouponError{Reason: "Coupon has reached its usage limit"}
	case c.Plan != "" && !strings.EqualFold(c.Plan, strings.TrimSpace(planName)):
		return &CouponError{Reason: fmt.Sprintf("Coupon only applies to the %s plan", c.Plan)}
	}
	return nil
}

// PriceWithCoupon applies the discount to the plan fee, rounded to two decimals
func PriceWithCoupon(c *models.Coupon, plan *models.Plan) *models.CouponQuote {
	price := plan.Price.Float()
	discount := round2(price * c.DiscountPercent / 100)
	return &models.CouponQuote{
		Code:            c.Code,
		Plan:            plan.Name,
		DiscountPercent: c.DiscountPercent,
		OriginalPrice:   price,
		Discount:        discount,
		FinalPrice:      round2(math.Max(price-discount, 0)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

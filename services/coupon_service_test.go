package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/repositories/inmem"
)

var couponNow = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

func newCouponService(t *testing.T) (*CouponService, repositories.CouponRepository) {
	ctx := context.Background()
	db := inmem.Open()
	coupons := inmem.NewCouponRepository(db)
	plans := inmem.NewPlanRepository(db)
	require.NoError(t, plans.Create(ctx, &models.Plan{Name: "Gold", Price: 499, IsActive: true}))
	require.NoError(t, plans.Create(ctx, &models.Plan{Name: "Silver", Price: 199, IsActive: true}))

	svc := NewCouponService(coupons, plans)
	svc.now = func() time.Time { return couponNow }
	return svc, coupons
}

func couponReason(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	cerr, ok := err.(*CouponError)
	require.True(t, ok, "expected *CouponError, got %T", err)
	return cerr.Reason
}

func TestCreateCoupon(t *testing.T) {
	ctx := context.Background()

	t.Run("generated code", func(t *testing.T) {
		svc, _ := newCouponService(t)
		c, err := svc.Create(ctx, "admin-1", models.CreateCouponRequest{DiscountPercent: 10})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(c.Code, "CPN"))
		assert.Len(t, c.Code, 11)
		assert.True(t, c.IsActive)
		assert.Equal(t, "admin-1", c.CreatedBy)
	})

	t.Run("given code is normalised", func(t *testing.T) {
		svc, coupons := newCouponService(t)
		c, err := svc.Create(ctx, "admin-1", models.CreateCouponRequest{Code: " diwali24 ", DiscountPercent: 20})
		require.NoError(t, err)
		assert.Equal(t, "DIWALI24", c.Code)

		stored, err := coupons.FindByCode(ctx, "DIWALI24")
		require.NoError(t, err)
		assert.Equal(t, 20.0, stored.DiscountPercent)
	})

	t.Run("duplicate code", func(t *testing.T) {
		svc, _ := newCouponService(t)
		_, err := svc.Create(ctx, "admin-1", models.CreateCouponRequest{Code: "SAVE10", DiscountPercent: 10})
		require.NoError(t, err)
		_, err = svc.Create(ctx, "admin-1", models.CreateCouponRequest{Code: "save10", DiscountPercent: 15})
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})

	t.Run("expiry in the past", func(t *testing.T) {
		svc, _ := newCouponService(t)
		past := couponNow.Add(-time.Hour)
		_, err := svc.Create(ctx, "admin-1", models.CreateCouponRequest{DiscountPercent: 10, ExpiresAt: &past})
		assert.Equal(t, "Expiry must be in the future", couponReason(t, err))
	})
}

func TestQuoteCoupon(t *testing.T) {
	ctx := context.Background()
	svc, coupons := newCouponService(t)
	expired := couponNow.Add(-time.Minute)
	later := couponNow.Add(24 * time.Hour)

	for _, c := range []*models.Coupon{
		{Code: "SAVE15", DiscountPercent: 15, IsActive: true, ExpiresAt: &later},
		{Code: "GOLDONLY", DiscountPercent: 50, Plan: "gold", IsActive: true},
		{Code: "OFF", DiscountPercent: 10},
		{Code: "OLD", DiscountPercent: 10, IsActive: true, ExpiresAt: &expired},
		{Code: "USEDUP", DiscountPercent: 10, IsActive: true, UsageLimit: 2, UsedCount: 2},
		{Code: "FREE", DiscountPercent: 100, IsActive: true},
	} {
		require.NoError(t, coupons.Create(ctx, c))
	}

	quote, err := svc.Quote(ctx, "save15", "gold")
	require.NoError(t, err)
	assert.Equal(t, models.CouponQuote{
		Code:            "SAVE15",
		Plan:            "Gold",
		DiscountPercent: 15,
		OriginalPrice:   499,
		Discount:        74.85,
		FinalPrice:      424.15,
	}, *quote)

	quote, err = svc.Quote(ctx, "GOLDONLY", "Gold")
	require.NoError(t, err)
	assert.Equal(t, 249.5, quote.FinalPrice)

	quote, err = svc.Quote(ctx, "FREE", "Silver")
	require.NoError(t, err)
	assert.Zero(t, quote.FinalPrice)

	tests := []struct {
		code   string
		plan   string
		reason string
	}{
		{"NOPE", "Gold", "Invalid coupon code"},
		{"OFF", "Gold", "Coupon is not active"},
		{"OLD", "Gold", "Coupon has expired"},
		{"USEDUP", "Gold", "Coupon has reached its usage limit"},
		{"GOLDONLY", "Silver", "Coupon only applies to the gold plan"},
		{"SAVE15", "Platinum", "Unknown plan"},
	}
	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.plan, func(t *testing.T) {
			_, err := svc.Quote(ctx, tt.code, tt.plan)
			assert.Equal(t, tt.reason, couponReason(t, err))
		})
	}
}

func TestRedeemCoupon(t *testing.T) {
	ctx := context.Background()
	svc, coupons := newCouponService(t)
	require.NoError(t, coupons.Create(ctx, &models.Coupon{Code: "TWICE", DiscountPercent: 5, IsActive: true, UsageLimit: 2}))

	for i := 1; i <= 2; i++ {
		c, err := svc.Redeem(ctx, "twice", "Gold")
		require.NoError(t, err)
		assert.Equal(t, i, c.UsedCount)
	}

	_, err := svc.Redeem(ctx, "TWICE", "Gold")
	assert.Equal(t, "Coupon has reached its usage limit", couponReason(t, err))

	stored, err := coupons.FindByCode(ctx, "TWICE")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.UsedCount)
}

package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/services"
	"github.com/HSouheill/resellhub_backend/utils"
)

type PartnerController struct {
	accounts  repositories.AccountInfoRepository
	plans     repositories.PlanRepository
	referrals *services.ReferralService
	coupons   *services.CouponService
	dashboard *services.DashboardService
	cache     *services.MetricsCache
}

func NewPartnerController(
	accounts repositories.AccountInfoRepository,
	plans repositories.PlanRepository,
	referrals *services.ReferralService,
	coupons *services.CouponService,
	dashboard *services.DashboardService,
	cache *services.MetricsCache,
) *PartnerController {
	return &PartnerController{
		accounts:  accounts,
		plans:     plans,
		referrals: referrals,
		coupons:   coupons,
		dashboard: dashboard,
		cache:     cache,
	}
}

// CompleteSignup creates the partner's account_info after auth-provider sign-up.
// The staff referral code, if valid, is attributed once.
func (pc *PartnerController) CompleteSignup(c echo.Context) error {
	var req models.CompleteSignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Authentication failed", nil)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := pc.accounts.FindByUID(ctx, userID); err == nil {
		return respond(c, http.StatusConflict, "Profile already exists", nil)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return storeError(c, "load profile", err)
	}

	plan, err := pc.plans.FindByName(ctx, req.Plan)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return respond(c, http.StatusBadRequest, "Unknown plan", nil)
		}
		return storeError(c, "load plan", err)
	}
	if !plan.IsActive {
		return respond(c, http.StatusBadRequest, "Plan is not available", nil)
	}

	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return respond(c, http.StatusBadRequest, err.Error(), nil)
	}

	var quote *models.CouponQuote
	if req.CouponCode != "" {
		coupon, err := pc.coupons.Redeem(ctx, req.CouponCode, plan.Name)
		if err != nil {
			return storeError(c, "apply coupon", err)
		}
		quote = services.PriceWithCoupon(coupon, plan)
	}

	info := &models.AccountInfo{
		UID:          userID,
		Name:         utils.SanitizeInput(req.Name),
		Email:        middleware.ExtractEmail(c),
		Phone:        phone,
		BusinessName: utils.SanitizeInput(req.BusinessName),
		Plan:         plan.Name,
		JoinedAt:     time.Now(),
	}
	if code, ok := pc.referrals.AttributeSignup(ctx, req.ReferralCode); ok {
		info.ReferralCode = code
	}
	if err := pc.accounts.Upsert(ctx, info); err != nil {
		return storeError(c, "save profile", err)
	}
	pc.cache.Invalidate(ctx)

	amountDue := plan.Price.Float()
	if quote != nil {
		amountDue = quote.FinalPrice
	}
	return respond(c, http.StatusCreated, "Sign-up completed successfully", map[string]interface{}{
		"profile":   info,
		"coupon":    quote,
		"amountDue": amountDue,
	})
}

// GetProfile returns the caller's account_info
func (pc *PartnerController) GetProfile(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Authentication failed", nil)
	}
	info, err := pc.accounts.FindByUID(c.Request().Context(), userID)
	if err != nil {
		return storeError(c, "load profile", err)
	}
	return respond(c, http.StatusOK, "Profile retrieved successfully", info)
}

// UpdateProfile changes mutable profile fields, including the push token
func (pc *PartnerController) UpdateProfile(c echo.Context) error {
	var req models.UpdateAccountInfoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Authentication failed", nil)
	}

	if req.Name != nil {
		name := utils.SanitizeInput(*req.Name)
		if name == "" {
			return respond(c, http.StatusBadRequest, "Name cannot be empty", nil)
		}
		req.Name = &name
	}
	if req.BusinessName != nil {
		business := utils.SanitizeInput(*req.BusinessName)
		req.BusinessName = &business
	}
	if req.Phone != nil {
		phone, err := utils.SanitizePhone(*req.Phone)
		if err != nil {
			return respond(c, http.StatusBadRequest, err.Error(), nil)
		}
		req.Phone = &phone
	}
	if req.FCMToken != nil {
		token := strings.TrimSpace(*req.FCMToken)
		req.FCMToken = &token
	}

	info, err := pc.accounts.Update(c.Request().Context(), userID, req)
	if err != nil {
		return storeError(c, "update profile", err)
	}
	return respond(c, http.StatusOK, "Profile updated successfully", info)
}

// ListPartners returns every partner profile, optionally by join date or referral code
func (pc *PartnerController) ListPartners(c echo.Context) error {
	ctx := c.Request().Context()

	if code := c.QueryParam("referralCode"); code != "" {
		infos, err := pc.accounts.ListByReferralCode(ctx, utils.NormalizeCode(code))
		if err != nil {
			return storeError(c, "list partners", err)
		}
		return respond(c, http.StatusOK, "Partners retrieved successfully", infos)
	}

	var r models.DateRange
	if c.QueryParam("range") != "" || c.QueryParam("from") != "" || c.QueryParam("to") != "" {
		var err error
		if r, err = dateRange(c); err != nil {
			return respond(c, http.StatusBadRequest, err.Error(), nil)
		}
	}
	infos, err := pc.accounts.List(ctx, r)
	if err != nil {
		return storeError(c, "list partners", err)
	}
	return respond(c, http.StatusOK, "Partners retrieved successfully", infos)
}

// GetPartner returns one profile for admins
func (pc *PartnerController) GetPartner(c echo.Context) error {
	info, err := pc.accounts.FindByUID(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return storeError(c, "load partner", err)
	}
	return respond(c, http.StatusOK, "Partner retrieved successfully", info)
}

// GetSummary returns the partner's own order summary
func (pc *PartnerController) GetSummary(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Authentication failed", nil)
	}
	r, err := dateRange(c)
	if err != nil {
		return respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	summary, err := pc.dashboard.PartnerSummary(c.Request().Context(), userID, r)
	if err != nil {
		return storeError(c, "load summary", err)
	}
	return respond(c, http.StatusOK, "Summary retrieved successfully", summary)
}

package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/services"
	"github.com/HSouheill/resellhub_backend/utils"
)

type CouponController struct {
	coupons repositories.CouponRepository
	service *services.CouponService
	siteURL string
}

func NewCouponController(coupons repositories.CouponRepository, service *services.CouponService, siteURL string) *CouponController {
	return &CouponController{coupons: coupons, service: service, siteURL: siteURL}
}

// CreateCoupon generates a discount code
func (cc *CouponController) CreateCoupon(c echo.Context) error {
	var req models.CreateCouponRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	adminID, _ := middleware.ExtractUserID(c)

	coupon, err := cc.service.Create(c.Request().Context(), adminID, req)
	if err != nil {
		return storeError(c, "create coupon", err)
	}
	return respond(c, http.StatusCreated, "Coupon created successfully", coupon)
}

// ListCoupons returns every coupon
func (cc *CouponController) ListCoupons(c echo.Context) error {
	coupons, err := cc.coupons.List(c.Request().Context())
	if err != nil {
		return storeError(c, "list coupons", err)
	}
	return respond(c, http.StatusOK, "Coupons retrieved successfully", coupons)
}

// SetCouponActive enables or disables a coupon
func (cc *CouponController) SetCouponActive(c echo.Context) error {
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	coupon, err := cc.coupons.SetActive(c.Request().Context(), utils.NormalizeCode(c.Param("code")), req.IsActive)
	if err != nil {
		return storeError(c, "update coupon", err)
	}
	return respond(c, http.StatusOK, "Coupon updated successfully", coupon)
}

// ValidateCoupon prices a plan with the coupon without consuming a use
func (cc *CouponController) ValidateCoupon(c echo.Context) error {
	var req models.ValidateCouponRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	quote, err := cc.service.Quote(c.Request().Context(), req.Code, req.Plan)
	if err != nil {
		return storeError(c, "validate coupon", err)
	}
	return respond(c, http.StatusOK, "Coupon is valid", quote)
}

// GetCouponQR returns a sign-up link with the coupon pre-filled
func (cc *CouponController) GetCouponQR(c echo.Context) error {
	coupon, err := cc.coupons.FindByCode(c.Request().Context(), utils.NormalizeCode(c.Param("code")))
	if err != nil {
		return storeError(c, "load coupon", err)
	}
	link := utils.ReferralLink(cc.siteURL, "coupon", coupon.Code)
	qrCode, err := utils.GenerateQRCode(link)
	if err != nil {
		c.Logger().Errorf("Failed to generate QR code for %s: %v", coupon.Code, err)
		return respond(c, http.StatusInternalServerError, "Failed to generate QR code", nil)
	}
	return respond(c, http.StatusOK, "QR code generated successfully", map[string]string{
		"code":   coupon.Code,
		"link":   link,
		"qrCode": qrCode,
	})
}

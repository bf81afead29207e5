package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/services"
	"github.com/HSouheill/resellhub_backend/utils"
)

type ReferralController struct {
	referrals repositories.StaffReferralRepository
	accounts  repositories.AccountInfoRepository
	service   *services.ReferralService
	users     repositories.UserRepository
	siteURL   string
}

func NewReferralController(
	referrals repositories.StaffReferralRepository,
	accounts repositories.AccountInfoRepository,
	service *services.ReferralService,
	users repositories.UserRepository,
	siteURL string,
) *ReferralController {
	return &ReferralController{
		referrals: referrals,
		accounts:  accounts,
		service:   service,
		users:     users,
		siteURL:   siteURL,
	}
}

// CreateReferral generates a staff referral code
func (rc *ReferralController) CreateReferral(c echo.Context) error {
	var req models.CreateStaffReferralRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	req.Name = utils.SanitizeInput(req.Name)
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	req.Email = email
	if req.Phone, err = utils.SanitizePhone(req.Phone); err != nil {
		return respond(c, http.StatusBadRequest, err.Error(), nil)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	ref, err := rc.service.Create(ctx, req)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return respond(c, http.StatusConflict, "A referral code already exists for this email", nil)
		}
		return storeError(c, "create referral code", err)
	}
	return respond(c, http.StatusCreated, "Referral code created successfully", ref)
}

// ListReferrals returns every staff code with its counters
func (rc *ReferralController) ListReferrals(c echo.Context) error {
	refs, err := rc.referrals.List(c.Request().Context())
	if err != nil {
		return storeError(c, "list referral codes", err)
	}
	return respond(c, http.StatusOK, "Referral codes retrieved successfully", refs)
}

// GetReferral returns one staff code and the partners it brought in
func (rc *ReferralController) GetReferral(c echo.Context) error {
	ctx := c.Request().Context()
	ref, err := rc.referrals.FindByCode(ctx, utils.NormalizeCode(c.Param("code")))
	if err != nil {
		return storeError(c, "load referral code", err)
	}
	partners, err := rc.accounts.ListByReferralCode(ctx, ref.Code)
	if err != nil {
		return storeError(c, "list referred partners", err)
	}
	return respond(c, http.StatusOK, "Referral code retrieved successfully", map[string]interface{}{
		"referral": ref,
		"partners": partners,
	})
}

// GetReferralQR returns a scannable sign-up link for a staff code
func (rc *ReferralController) GetReferralQR(c echo.Context) error {
	ref, err := rc.referrals.FindByCode(c.Request().Context(), utils.NormalizeCode(c.Param("code")))
	if err != nil {
		return storeError(c, "load referral code", err)
	}
	return rc.qrResponse(c, ref)
}

// GetMyReferral returns the calling staff member's own code
func (rc *ReferralController) GetMyReferral(c echo.Context) error {
	ref, err := rc.ownReferral(c)
	if err != nil {
		return err
	}
	partners, err := rc.accounts.ListByReferralCode(c.Request().Context(), ref.Code)
	if err != nil {
		return storeError(c, "list referred partners", err)
	}
	return respond(c, http.StatusOK, "Referral code retrieved successfully", map[string]interface{}{
		"referral": ref,
		"partners": partners,
	})
}

// GetMyReferralQR returns the QR code for the caller's own staff code
func (rc *ReferralController) GetMyReferralQR(c echo.Context) error {
	ref, err := rc.ownReferral(c)
	if err != nil {
		return err
	}
	return rc.qrResponse(c, ref)
}

// ownReferral finds the staff code linked to the user record, falling back to the email
func (rc *ReferralController) ownReferral(c echo.Context) (*models.StaffReferral, error) {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return nil, failure(http.StatusUnauthorized, "Authentication failed")
	}
	ctx := c.Request().Context()

	user, err := rc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(c, "load user", err)
	}
	var ref *models.StaffReferral
	if user.StaffCode != "" {
		ref, err = rc.referrals.FindByCode(ctx, user.StaffCode)
	} else {
		ref, err = rc.referrals.FindByEmail(ctx, user.Email)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, failure(http.StatusNotFound, "No referral code is assigned to this account")
		}
		return nil, storeError(c, "load referral code", err)
	}
	return ref, nil
}

func (rc *ReferralController) qrResponse(c echo.Context, ref *models.StaffReferral) error {
	link := utils.ReferralLink(rc.siteURL, "ref", ref.Code)
	qrCode, err := utils.GenerateQRCode(link)
	if err != nil {
		c.Logger().Errorf("Failed to generate QR code for %s: %v", ref.Code, err)
		return respond(c, http.StatusInternalServerError, "Failed to generate QR code", nil)
	}
	return respond(c, http.StatusOK, "QR code generated successfully", map[string]string{
		"code":   ref.Code,
		"link":   link,
		"qrCode": qrCode,
	})
}

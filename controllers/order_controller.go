package controllers

import (
	"context"
	"errors"
	"io"
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

type OrderController struct {
	orders    repositories.OrderRepository
	accounts  repositories.AccountInfoRepository
	referrals *services.ReferralService
	notifier  services.Notifier
	cache     *services.MetricsCache
	uploadDir string
}

func NewOrderController(
	orders repositories.OrderRepository,
	accounts repositories.AccountInfoRepository,
	referrals *services.ReferralService,
	notifier services.Notifier,
	cache *services.MetricsCache,
	uploadDir string,
) *OrderController {
	return &OrderController{
		orders:    orders,
		accounts:  accounts,
		referrals: referrals,
		notifier:  notifier,
		cache:     cache,
		uploadDir: uploadDir,
	}
}

// CreateOrder places an order. Partners order for themselves, admins name the partner.
func (oc *OrderController) CreateOrder(c echo.Context) error {
	var req models.CreateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Authentication failed", nil)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	partnerID := userID
	if middleware.IsAdmin(c) {
		if req.PartnerID == "" {
			return respond(c, http.StatusBadRequest, "partnerId is required", nil)
		}
		partnerID = req.PartnerID
	}

	partner, err := oc.accounts.FindByUID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return respond(c, http.StatusBadRequest, "Partner profile not found. Complete sign-up first", nil)
		}
		return storeError(c, "load partner", err)
	}

	now := time.Now()
	order := &models.Order{
		ClientName:  utils.SanitizeInput(req.ClientName),
		ClientEmail: strings.ToLower(strings.TrimSpace(req.ClientEmail)),
		ClientPhone: strings.TrimSpace(req.ClientPhone),
		PartnerID:   partnerID,
		PartnerName: partner.Name,
		Service: models.ServiceDescriptor{
			Name:        utils.SanitizeInput(req.Service.Name),
			Category:    utils.SanitizeInput(req.Service.Category),
			Description: utils.SanitizeInput(req.Service.Description),
		},
		ClientPrice: models.Amount(req.ClientPrice),
		Status:      models.OrderStatusPending,
		Notes:       utils.SanitizeInput(req.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := oc.orders.Create(ctx, order); err != nil {
		return storeError(c, "create order", err)
	}
	oc.cache.Invalidate(ctx)

	return respond(c, http.StatusCreated, "Order created successfully", order)
}

// ListOrders returns the caller's orders, or every order for admin and staff
func (oc *OrderController) ListOrders(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Authentication failed", nil)
	}

	filter := models.OrderFilter{Status: c.QueryParam("status")}
	if c.QueryParam("range") != "" || c.QueryParam("from") != "" || c.QueryParam("to") != "" {
		r, err := dateRange(c)
		if err != nil {
			return respond(c, http.StatusBadRequest, err.Error(), nil)
		}
		filter.From, filter.To = r.From, r.To
	}
	if middleware.ExtractUserType(c) == models.UserTypePartner {
		filter.PartnerID = userID
	} else {
		filter.PartnerID = c.QueryParam("partnerId")
	}

	orders, err := oc.orders.List(c.Request().Context(), filter)
	if err != nil {
		return storeError(c, "list orders", err)
	}
	return respond(c, http.StatusOK, "Orders retrieved successfully", orders)
}

// GetOrder returns one order; partners only see their own
func (oc *OrderController) GetOrder(c echo.Context) error {
	order, err := oc.visibleOrder(c)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order retrieved successfully", order)
}

func (oc *OrderController) visibleOrder(c echo.Context) (*models.Order, error) {
	order, err := oc.orders.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, storeError(c, "load order", err)
	}
	if middleware.ExtractUserType(c) == models.UserTypePartner {
		userID, _ := middleware.ExtractUserID(c)
		if order.PartnerID != userID {
			return nil, failure(http.StatusNotFound, "Not found")
		}
	}
	return order, nil
}

// UpdateStatus sets the free-text status and notifies the partner and client
func (oc *OrderController) UpdateStatus(c echo.Context) error {
	var req models.UpdateOrderStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		return respond(c, http.StatusBadRequest, "Status is required", nil)
	}

	ctx := c.Request().Context()
	order, err := oc.orders.UpdateStatus(ctx, c.Param("id"), status)
	if err != nil {
		return storeError(c, "update order status", err)
	}
	oc.cache.Invalidate(ctx)

	if oc.notifier != nil {
		go oc.notifier.OrderStatusChanged(context.Background(), order)
	}
	return respond(c, http.StatusOK, "Order status updated successfully", order)
}

// UpdatePricing sets client and/or admin price
func (oc *OrderController) UpdatePricing(c echo.Context) error {
	var req models.UpdateOrderPricingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.ClientPrice == nil && req.AdminPrice == nil {
		return respond(c, http.StatusBadRequest, "Nothing to update", nil)
	}

	ctx := c.Request().Context()
	order, err := oc.orders.UpdatePricing(ctx, c.Param("id"), req.ClientPrice, req.AdminPrice)
	if err != nil {
		return storeError(c, "update order pricing", err)
	}
	oc.cache.Invalidate(ctx)
	return respond(c, http.StatusOK, "Order pricing updated successfully", order)
}

// VerifyPayment records a manually confirmed payment
func (oc *OrderController) VerifyPayment(c echo.Context) error {
	var req models.VerifyPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	before, err := oc.orders.FindByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, "load order", err)
	}
	order, err := oc.orders.VerifyPayment(ctx, c.Param("id"), req.PaidAmount)
	if err != nil {
		return storeError(c, "verify payment", err)
	}
	if delta := req.PaidAmount - before.PaidAmount.Float(); delta > 0 && oc.referrals != nil {
		oc.referrals.AttributeSale(ctx, order.PartnerID, delta)
	}
	oc.cache.Invalidate(ctx)
	return respond(c, http.StatusOK, "Payment verified successfully", order)
}

// UploadPaymentProof stores a screenshot of an out-of-band payment
func (oc *OrderController) UploadPaymentProof(c echo.Context) error {
	order, err := oc.visibleOrder(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("proof")
	if err != nil {
		return respond(c, http.StatusBadRequest, "Payment proof image is required", nil)
	}
	if err := utils.ValidateFile(file.Filename, file.Size); err != nil {
		return respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	src, err := file.Open()
	if err != nil {
		return respond(c, http.StatusBadRequest, "Failed to read uploaded file", nil)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return respond(c, http.StatusBadRequest, "Failed to read uploaded file", nil)
	}

	stored, err := utils.SaveImage(oc.uploadDir, "payment-proofs", data, file.Filename)
	if err != nil {
		return respond(c, http.StatusBadRequest, err.Error(), nil)
	}

	updated, err := oc.orders.SetPaymentProof(c.Request().Context(), order.ID.Hex(), stored.URL)
	if err != nil {
		return storeError(c, "save payment proof", err)
	}
	return respond(c, http.StatusOK, "Payment proof uploaded successfully", map[string]interface{}{
		"order":     updated,
		"thumbnail": stored.ThumbnailURL,
	})
}

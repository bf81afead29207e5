package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/services"
)

type PaymentController struct {
	payments *services.PaymentService
	cache    *services.MetricsCache
}

func NewPaymentController(payments *services.PaymentService, cache *services.MetricsCache) *PaymentController {
	return &PaymentController{payments: payments, cache: cache}
}

// Checkout starts a gateway payment and returns the pay-page URL
func (pc *PaymentController) Checkout(c echo.Context) error {
	var req models.CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Authentication failed", nil)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout*2)
	defer cancel()

	txn, err := pc.payments.Checkout(ctx, userID, req, middleware.IsAdmin(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentProcessing):
			return respond(c, http.StatusAccepted, "Payment is processing", txn)
		case errors.Is(err, services.ErrGatewayNotConfigured):
			return respond(c, http.StatusServiceUnavailable, "Payments are not configured", nil)
		}
		return storeError(c, "start payment", err)
	}
	return respond(c, http.StatusOK, "Payment initiated successfully", txn)
}

// GetStatus polls the gateway for a pending transaction
func (pc *PaymentController) GetStatus(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Authentication failed", nil)
	}
	ctx := c.Request().Context()

	txn, err := pc.payments.Refresh(ctx, userID, c.Param("txnId"), middleware.IsAdmin(c))
	if err != nil {
		if errors.Is(err, services.ErrPaymentProcessing) {
			return respond(c, http.StatusAccepted, "Payment is processing", txn)
		}
		return storeError(c, "check payment status", err)
	}
	if txn.Applied {
		pc.cache.Invalidate(ctx)
	}
	return respond(c, http.StatusOK, "Payment status retrieved successfully", txn)
}

// Callback receives the gateway's server-to-server notification
func (pc *PaymentController) Callback(c echo.Context) error {
	var body struct {
		Response string `json:"response"`
	}
	if err := c.Bind(&body); err != nil || body.Response == "" {
		return respond(c, http.StatusBadRequest, "Invalid callback payload", nil)
	}
	xVerify := c.Request().Header.Get("X-VERIFY")
	if xVerify == "" {
		return respond(c, http.StatusUnauthorized, "Missing signature", nil)
	}

	ctx := c.Request().Context()
	txn, err := pc.payments.HandleCallback(ctx, xVerify, body.Response)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			log.Printf("Rejected payment callback: %v", err)
			return respond(c, http.StatusUnauthorized, "Invalid signature", nil)
		}
		return storeError(c, "process payment callback", err)
	}
	pc.cache.Invalidate(ctx)
	return respond(c, http.StatusOK, "Callback processed", map[string]string{
		"merchantTransactionId": txn.MerchantTransactionID,
		"status":                txn.Status,
	})
}

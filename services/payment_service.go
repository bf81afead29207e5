package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
)

// ErrPaymentProcessing is what callers see when the gateway cannot be reached
var ErrPaymentProcessing = errors.New("Payment is processing")

// PaymentService runs checkout and applies settled payments to orders
type PaymentService struct {
	gateway     PaymentGateway
	payments    repositories.PaymentRepository
	orders      repositories.OrderRepository
	referrals   *ReferralService
	redirectURL string
	callbackURL string
}

func NewPaymentService(gateway PaymentGateway, payments repositories.PaymentRepository, orders repositories.OrderRepository, referrals *ReferralService, redirectURL, callbackURL string) *PaymentService {
	return &PaymentService{
		gateway:     gateway,
		payments:    payments,
		orders:      orders,
		referrals:   referrals,
		redirectURL: redirectURL,
		callbackURL: callbackURL,
	}
}

// NewMerchantTransactionID returns a gateway-safe unique id (max 35 chars, alphanumeric)
func NewMerchantTransactionID() string {
	return "MT" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:30]
}

// Checkout records a pending transaction and returns it with the gateway redirect URL.
// An admin may pay any order; the transaction is then recorded against the order's partner.
func (s *PaymentService) Checkout(ctx context.Context, userID string, req models.CheckoutRequest, isAdmin bool) (*models.PaymentTransaction, error) {
	if req.OrderID != "" {
		order, err := s.orders.FindByID(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
		if !isAdmin && order.PartnerID != userID {
			return nil, repositories.ErrNotFound
		}
		userID = order.PartnerID
	}

	now := time.Now()
	txn := &models.PaymentTransaction{
		MerchantTransactionID: NewMerchantTransactionID(),
		OrderID:               req.OrderID,
		UserID:                userID,
		Amount:                ToPaise(req.Amount),
		Status:                models.PaymentStatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.payments.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	redirect := s.redirectURL
	if redirect != "" {
		redirect = appendQuery(redirect, "txn", txn.MerchantTransactionID)
	}
	url, err := s.gateway.Pay(ctx, models.PhonePePayRequest{
		MerchantID:            s.gateway.MerchantID(),
		MerchantTransactionID: txn.MerchantTransactionID,
		MerchantUserID:        merchantUserID(userID),
		Amount:                txn.Amount,
		RedirectURL:           redirect,
		RedirectMode:          "POST",
		CallbackURL:           s.callbackURL,
		MobileNumber:          req.MobileNumber,
		PaymentInstrument:     models.PhonePePaymentInstrument{Type: "PAY_PAGE"},
	})
	if err != nil {
		if errors.Is(err, ErrGatewayUnavailable) {
			log.Printf("Checkout %s: %v", txn.MerchantTransactionID, err)
			return txn, ErrPaymentProcessing
		}
		if _, uerr := s.payments.UpdateStatus(ctx, txn.MerchantTransactionID, models.PaymentStatusFailed, "PAY_REJECTED", ""); uerr != nil {
			log.Printf("Failed to mark payment %s failed: %v", txn.MerchantTransactionID, uerr)
		}
		return nil, err
	}
	txn.RedirectURL = url
	return txn, nil
}

// Refresh polls the gateway and applies the result
func (s *PaymentService) Refresh(ctx context.Context, userID, merchantTransactionID string, isAdmin bool) (*models.PaymentTransaction, error) {
	txn, err := s.payments.FindByMerchantTransactionID(ctx, merchantTransactionID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && txn.UserID != userID {
		return nil, repositories.ErrNotFound
	}
	if txn.Status == models.PaymentStatusCompleted && !txn.Applied {
		return txn, s.apply(ctx, txn)
	}
	if txn.Status != models.PaymentStatusPending {
		return txn, nil
	}

	status, err := s.gateway.Status(ctx, merchantTransactionID)
	if err != nil {
		if errors.Is(err, ErrGatewayUnavailable) {
			return txn, ErrPaymentProcessing
		}
		return nil, err
	}
	return s.record(ctx, status)
}

// HandleCallback verifies a gateway callback and applies it
func (s *PaymentService) HandleCallback(ctx context.Context, xVerify, response string) (*models.PaymentTransaction, error) {
	status, err := s.gateway.VerifyCallback(xVerify, response)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, status)
}

func (s *PaymentService) record(ctx context.Context, status *models.PaymentStatusData) (*models.PaymentTransaction, error) {
	txn, err := s.payments.UpdateStatus(ctx, status.MerchantTransactionID, status.State, status.Code, status.TransactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status == models.PaymentStatusCompleted {
		if err := s.apply(ctx, txn); err != nil {
			return txn, err
		}
	}
	return txn, nil
}

// apply credits a completed payment exactly once
func (s *PaymentService) apply(ctx context.Context, txn *models.PaymentTransaction) error {
	first, err := s.payments.MarkApplied(ctx, txn.MerchantTransactionID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	rupees := float64(txn.Amount) / 100
	if txn.OrderID != "" {
		if _, err := s.orders.AddPayment(ctx, txn.OrderID, rupees); err != nil {
			if uerr := s.payments.UnmarkApplied(ctx, txn.MerchantTransactionID); uerr != nil {
				log.Printf("Failed to release payment %s: %v", txn.MerchantTransactionID, uerr)
			}
			return fmt.Errorf("credit order %s: %w", txn.OrderID, err)
		}
	}
	txn.Applied = true
	if s.referrals != nil {
		s.referrals.AttributeSale(ctx, txn.UserID, rupees)
	}
	return nil
}

// merchantUserID strips characters the gateway rejects
func merchantUserID(uid string) string {
	var b strings.Builder
	for _, r := range uid {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "MUID"
	}
	return b.String()
}

func appendQuery(u, key, value string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + key + "=" + value
}

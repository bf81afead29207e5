package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/repositories/inmem"
)

type fakeGateway struct {
	payErr   error
	status   *models.PaymentStatusData
	statErr  error
	payments []models.PhonePePayRequest
}

func (g *fakeGateway) Pay(_ context.Context, req models.PhonePePayRequest) (string, error) {
	g.payments = append(g.payments, req)
	if g.payErr != nil {
		return "", g.payErr
	}
	return "https://pay.example/" + req.MerchantTransactionID, nil
}

func (g *fakeGateway) Status(_ context.Context, txnID string) (*models.PaymentStatusData, error) {
	if g.statErr != nil {
		return nil, g.statErr
	}
	s := *g.status
	s.MerchantTransactionID = txnID
	return &s, nil
}

func (g *fakeGateway) VerifyCallback(xVerify, response string) (*models.PaymentStatusData, error) {
	if xVerify != "ok" {
		return nil, ErrInvalidSignature
	}
	return &models.PaymentStatusData{MerchantTransactionID: response, State: models.PaymentStatusCompleted, Code: "PAYMENT_SUCCESS"}, nil
}

func (g *fakeGateway) MerchantID() string { return "MERCHANT" }

type paymentFixture struct {
	svc       *PaymentService
	gateway   *fakeGateway
	payments  repositories.PaymentRepository
	orders    repositories.OrderRepository
	referrals repositories.StaffReferralRepository
	order     *models.Order
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	ctx := context.Background()
	db := inmem.Open()
	f := &paymentFixture{
		gateway:   &fakeGateway{},
		payments:  inmem.NewPaymentRepository(db),
		orders:    inmem.NewOrderRepository(db),
		referrals: inmem.NewStaffReferralRepository(db),
	}
	accounts := inmem.NewAccountInfoRepository(db)
	require.NoError(t, f.referrals.Create(ctx, &models.StaffReferral{Code: "STF-ABC123", Email: "staff@example.com"}))
	require.NoError(t, accounts.Upsert(ctx, &models.AccountInfo{UID: "partner-1", Plan: "gold", ReferralCode: "STF-ABC123"}))

	f.order = &models.Order{PartnerID: "partner-1", ClientName: "Asha", ClientPrice: 1500, CreatedAt: time.Now()}
	require.NoError(t, f.orders.Create(ctx, f.order))

	referralSvc := NewReferralService(f.referrals, accounts)
	f.svc = NewPaymentService(f.gateway, f.payments, f.orders, referralSvc, "https://app.example/payment/result", "https://api.example/api/payments/callback")
	return f
}

func TestNewMerchantTransactionID(t *testing.T) {
	id := NewMerchantTransactionID()
	assert.Len(t, id, 32)
	assert.True(t, strings.HasPrefix(id, "MT"))
	assert.NotEqual(t, id, NewMerchantTransactionID())
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending transaction", func(t *testing.T) {
		f := newPaymentFixture(t)
		txn, err := f.svc.Checkout(ctx, "partner-1", models.CheckoutRequest{OrderID: f.order.ID.Hex(), Amount: 1500, MobileNumber: "9876543210"}, false)
		require.NoError(t, err)

		assert.Equal(t, models.PaymentStatusPending, txn.Status)
		assert.Equal(t, int64(150000), txn.Amount)
		assert.Equal(t, "https://pay.example/"+txn.MerchantTransactionID, txn.RedirectURL)

		require.Len(t, f.gateway.payments, 1)
		sent := f.gateway.payments[0]
		assert.Equal(t, "MERCHANT", sent.MerchantID)
		assert.Equal(t, "partner1", sent.MerchantUserID)
		assert.Equal(t, "https://app.example/payment/result?txn="+txn.MerchantTransactionID, sent.RedirectURL)
		assert.Equal(t, "PAY_PAGE", sent.PaymentInstrument.Type)

		stored, err := f.payments.FindByMerchantTransactionID(ctx, txn.MerchantTransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, stored.Status)
	})

	t.Run("other partner's order is hidden", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, err := f.svc.Checkout(ctx, "partner-2", models.CheckoutRequest{OrderID: f.order.ID.Hex(), Amount: 10}, false)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.Empty(t, f.gateway.payments)
	})

	t.Run("unreachable gateway reports processing", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.gateway.payErr = fmt.Errorf("%w: dial tcp: timeout", ErrGatewayUnavailable)

		txn, err := f.svc.Checkout(ctx, "partner-1", models.CheckoutRequest{Amount: 10}, false)
		assert.ErrorIs(t, err, ErrPaymentProcessing)
		require.NotNil(t, txn)

		stored, err := f.payments.FindByMerchantTransactionID(ctx, txn.MerchantTransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, stored.Status)
	})

	t.Run("rejected payment is marked failed", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.gateway.payErr = errors.New("phonepe error: BAD_REQUEST")

		txn, err := f.svc.Checkout(ctx, "partner-1", models.CheckoutRequest{Amount: 10}, false)
		require.Error(t, err)
		assert.Nil(t, txn)

		require.Len(t, f.gateway.payments, 1)
		stored, err := f.payments.FindByMerchantTransactionID(ctx, f.gateway.payments[0].MerchantTransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, stored.Status)
	})
}

func TestHandleCallbackAppliesOnce(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)

	txn, err := f.svc.Checkout(ctx, "partner-1", models.CheckoutRequest{OrderID: f.order.ID.Hex(), Amount: 1000}, false)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := f.svc.HandleCallback(ctx, "ok", txn.MerchantTransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, got.Status)
	}

	order, err := f.orders.FindByID(ctx, f.order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.Amount(1000), order.PaidAmount)
	assert.True(t, order.PaymentVerified)

	ref, err := f.referrals.FindByCode(ctx, "STF-ABC123")
	require.NoError(t, err)
	assert.Equal(t, models.Amount(1000), ref.TotalSales)

	stored, err := f.payments.FindByMerchantTransactionID(ctx, txn.MerchantTransactionID)
	require.NoError(t, err)
	assert.True(t, stored.Applied)
}

func TestHandleCallbackBadSignature(t *testing.T) {
	f := newPaymentFixture(t)
	_, err := f.svc.HandleCallback(context.Background(), "forged", "MT1")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("completed status credits the order", func(t *testing.T) {
		f := newPaymentFixture(t)
		txn, err := f.svc.Checkout(ctx, "partner-1", models.CheckoutRequest{OrderID: f.order.ID.Hex(), Amount: 250}, false)
		require.NoError(t, err)
		f.gateway.status = &models.PaymentStatusData{State: models.PaymentStatusCompleted, Code: "PAYMENT_SUCCESS"}

		got, err := f.svc.Refresh(ctx, "partner-1", txn.MerchantTransactionID, false)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, got.Status)
		assert.True(t, got.Applied)

		order, err := f.orders.FindByID(ctx, f.order.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.Amount(250), order.PaidAmount)
	})

	t.Run("other users cannot poll", func(t *testing.T) {
		f := newPaymentFixture(t)
		txn, err := f.svc.Checkout(ctx, "partner-1", models.CheckoutRequest{Amount: 10}, false)
		require.NoError(t, err)

		_, err = f.svc.Refresh(ctx, "partner-2", txn.MerchantTransactionID, false)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("admins can poll any transaction", func(t *testing.T) {
		f := newPaymentFixture(t)
		txn, err := f.svc.Checkout(ctx, "partner-1", models.CheckoutRequest{Amount: 10}, false)
		require.NoError(t, err)
		f.gateway.status = &models.PaymentStatusData{State: models.PaymentStatusPending}

		got, err := f.svc.Refresh(ctx, "admin-1", txn.MerchantTransactionID, true)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, got.Status)
	})

	t.Run("unreachable gateway keeps the transaction pending", func(t *testing.T) {
		f := newPaymentFixture(t)
		txn, err := f.svc.Checkout(ctx, "partner-1", models.CheckoutRequest{Amount: 10}, false)
		require.NoError(t, err)
		f.gateway.statErr = fmt.Errorf("%w: reset by peer", ErrGatewayUnavailable)

		got, err := f.svc.Refresh(ctx, "partner-1", txn.MerchantTransactionID, false)
		assert.ErrorIs(t, err, ErrPaymentProcessing)
		assert.Equal(t, models.PaymentStatusPending, got.Status)
	})
}

// flakyOrders fails AddPayment a fixed number of times before delegating
type flakyOrders struct {
	repositories.OrderRepository
	failures int
}

func (o *flakyOrders) AddPayment(ctx context.Context, id string, amount float64) (*models.Order, error) {
	if o.failures > 0 {
		o.failures--
		return nil, errors.New("transient write failure")
	}
	return o.OrderRepository.AddPayment(ctx, id, amount)
}

func TestFailedCreditIsRetried(t *testing.T) {
	ctx := context.Background()

	t.Run("by the next callback", func(t *testing.T) {
		f := newPaymentFixture(t)
		svc := NewPaymentService(f.gateway, f.payments, &flakyOrders{OrderRepository: f.orders, failures: 1}, nil, "", "")
		txn, err := svc.Checkout(ctx, "partner-1", models.CheckoutRequest{OrderID: f.order.ID.Hex(), Amount: 1500}, false)
		require.NoError(t, err)

		_, err = svc.HandleCallback(ctx, "ok", txn.MerchantTransactionID)
		require.Error(t, err)

		stored, err := f.payments.FindByMerchantTransactionID(ctx, txn.MerchantTransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, stored.Status)
		assert.False(t, stored.Applied)

		got, err := svc.HandleCallback(ctx, "ok", txn.MerchantTransactionID)
		require.NoError(t, err)
		assert.True(t, got.Applied)

		order, err := f.orders.FindByID(ctx, f.order.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.Amount(1500), order.PaidAmount)
	})

	t.Run("by a status poll", func(t *testing.T) {
		f := newPaymentFixture(t)
		svc := NewPaymentService(f.gateway, f.payments, &flakyOrders{OrderRepository: f.orders, failures: 1}, nil, "", "")
		txn, err := svc.Checkout(ctx, "partner-1", models.CheckoutRequest{OrderID: f.order.ID.Hex(), Amount: 400}, false)
		require.NoError(t, err)

		_, err = svc.HandleCallback(ctx, "ok", txn.MerchantTransactionID)
		require.Error(t, err)

		got, err := svc.Refresh(ctx, "partner-1", txn.MerchantTransactionID, false)
		require.NoError(t, err)
		assert.True(t, got.Applied)

		// settled transactions never go back to the gateway
		got, err = svc.Refresh(ctx, "partner-1", txn.MerchantTransactionID, false)
		require.NoError(t, err)
		assert.True(t, got.Applied)

		order, err := f.orders.FindByID(ctx, f.order.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.Amount(400), order.PaidAmount)
	})
}

func TestCompletedPaymentIsFinal(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	txn, err := f.svc.Checkout(ctx, "partner-1", models.CheckoutRequest{OrderID: f.order.ID.Hex(), Amount: 1500}, false)
	require.NoError(t, err)

	_, err = f.svc.HandleCallback(ctx, "ok", txn.MerchantTransactionID)
	require.NoError(t, err)

	for _, late := range []string{models.PaymentStatusFailed, models.PaymentStatusPending} {
		got, err := f.svc.record(ctx, &models.PaymentStatusData{MerchantTransactionID: txn.MerchantTransactionID, State: late, Code: "LATE"})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, got.Status, late)
		assert.Equal(t, "PAYMENT_SUCCESS", got.GatewayCode, late)
	}

	order, err := f.orders.FindByID(ctx, f.order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.Amount(1500), order.PaidAmount)
}

func TestFailedPaymentCanSettleLate(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	txn, err := f.svc.Checkout(ctx, "partner-1", models.CheckoutRequest{OrderID: f.order.ID.Hex(), Amount: 700}, false)
	require.NoError(t, err)

	got, err := f.svc.record(ctx, &models.PaymentStatusData{MerchantTransactionID: txn.MerchantTransactionID, State: models.PaymentStatusFailed, Code: "TIMED_OUT"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, got.Status)

	got, err = f.svc.record(ctx, &models.PaymentStatusData{MerchantTransactionID: txn.MerchantTransactionID, State: models.PaymentStatusPending})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, got.Status)

	got, err = f.svc.HandleCallback(ctx, "ok", txn.MerchantTransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, got.Status)
	assert.True(t, got.Applied)
}

func TestAdminCheckout(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)

	txn, err := f.svc.Checkout(ctx, "admin-1", models.CheckoutRequest{OrderID: f.order.ID.Hex(), Amount: 1500}, true)
	require.NoError(t, err)
	assert.Equal(t, "partner-1", txn.UserID)

	_, err = f.svc.Checkout(ctx, "admin-1", models.CheckoutRequest{OrderID: f.order.ID.Hex(), Amount: 1500}, false)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

package inmem

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
)

type paymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) repositories.PaymentRepository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) Create(_ context.Context, txn *models.PaymentTransaction) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, exists := repo.db.payments[txn.MerchantTransactionID]; exists {
		return repositories.ErrDuplicate
	}
	if txn.ID.IsZero() {
		txn.ID = primitive.NewObjectID()
	}
	t := *txn
	repo.db.payments[t.MerchantTransactionID] = &t
	return nil
}

func (repo *paymentRepository) FindByMerchantTransactionID(_ context.Context, txnID string) (*models.PaymentTransaction, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	t, ok := repo.db.payments[txnID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	txn := *t
	return &txn, nil
}

func (repo *paymentRepository) UpdateStatus(_ context.Context, txnID, status, code, gatewayTxnID string) (*models.PaymentTransaction, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t, ok := repo.db.payments[txnID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if !allowed(t.Status, models.PaymentStatesBefore(status)) {
		txn := *t
		return &txn, nil
	}
	t.Status = status
	t.GatewayCode = code
	if gatewayTxnID != "" {
		t.GatewayTransactionID = gatewayTxnID
	}
	t.UpdatedAt = time.Now()
	txn := *t
	return &txn, nil
}

func (repo *paymentRepository) MarkApplied(_ context.Context, txnID string) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t, ok := repo.db.payments[txnID]
	if !ok || t.Applied {
		return false, nil
	}
	t.Applied = true
	return true, nil
}

func (repo *paymentRepository) UnmarkApplied(_ context.Context, txnID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if t, ok := repo.db.payments[txnID]; ok {
		t.Applied = false
	}
	return nil
}

func allowed(state string, from []string) bool {
	for _, s := range from {
		if s == state {
			return true
		}
	}
	return false
}

package inmem

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
)

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) repositories.OrderRepository {
	return &orderRepository{db: db}
}

func (repo *orderRepository) Create(_ context.Context, order *models.Order) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	o := *order
	repo.db.orders[o.ID.Hex()] = &o
	return nil
}

func (repo *orderRepository) FindByID(_ context.Context, id string) (*models.Order, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repositories.ErrInvalidID
	}

	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	o, ok := repo.db.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	order := *o
	return &order, nil
}

func (repo *orderRepository) List(_ context.Context, filter models.OrderFilter) ([]models.Order, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	dr := models.DateRange{From: filter.From, To: filter.To}
	orders := []models.Order{}
	for _, o := range repo.db.orders {
		if filter.PartnerID != "" && o.PartnerID != filter.PartnerID {
			continue
		}
		if filter.Status != "" && !strings.Contains(strings.ToLower(o.Status), strings.ToLower(filter.Status)) {
			continue
		}
		if !dr.Contains(o.CreatedAt) {
			continue
		}
		orders = append(orders, *o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (repo *orderRepository) UpdateStatus(_ context.Context, id, status string) (*models.Order, error) {
	return repo.update(id, func(o *models.Order) { o.Status = status })
}

func (repo *orderRepository) UpdatePricing(_ context.Context, id string, clientPrice, adminPrice *float64) (*models.Order, error) {
	return repo.update(id, func(o *models.Order) {
		if clientPrice != nil {
			o.ClientPrice = models.Amount(*clientPrice)
		}
		if adminPrice != nil {
			o.AdminPrice = models.Amount(*adminPrice)
		}
	})
}

func (repo *orderRepository) VerifyPayment(_ context.Context, id string, paidAmount float64) (*models.Order, error) {
	return repo.update(id, func(o *models.Order) {
		o.PaidAmount = models.Amount(paidAmount)
		o.PaymentVerified = true
	})
}

func (repo *orderRepository) AddPayment(_ context.Context, id string, amount float64) (*models.Order, error) {
	return repo.update(id, func(o *models.Order) {
		o.PaidAmount += models.Amount(amount)
		o.PaymentVerified = true
	})
}

func (repo *orderRepository) SetPaymentProof(_ context.Context, id, path string) (*models.Order, error) {
	return repo.update(id, func(o *models.Order) { o.PaymentProof = path })
}

func (repo *orderRepository) update(id string, fn func(o *models.Order)) (*models.Order, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repositories.ErrInvalidID
	}

	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	o, ok := repo.db.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	fn(o)
	o.UpdatedAt = time.Now()
	order := *o
	return &order, nil
}

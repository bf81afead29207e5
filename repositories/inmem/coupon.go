package inmem

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
)

type couponRepository struct {
	db *DB
}

func NewCouponRepository(db *DB) repositories.CouponRepository {
	return &couponRepository{db: db}
}

func (repo *couponRepository) Create(_ context.Context, coupon *models.Coupon) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, exists := repo.db.coupons[coupon.Code]; exists {
		return repositories.ErrDuplicate
	}
	if coupon.ID.IsZero() {
		coupon.ID = primitive.NewObjectID()
	}
	c := *coupon
	repo.db.coupons[c.Code] = &c
	return nil
}

func (repo *couponRepository) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	c, ok := repo.db.coupons[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	coupon := *c
	return &coupon, nil
}

func (repo *couponRepository) List(_ context.Context) ([]models.Coupon, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	coupons := make([]models.Coupon, 0, len(repo.db.coupons))
	for _, c := range repo.db.coupons {
		coupons = append(coupons, *c)
	}
	sort.Slice(coupons, func(i, j int) bool { return coupons[i].CreatedAt.After(coupons[j].CreatedAt) })
	return coupons, nil
}

func (repo *couponRepository) SetActive(_ context.Context, code string, active bool) (*models.Coupon, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c, ok := repo.db.coupons[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c.IsActive = active
	c.UpdatedAt = time.Now()
	coupon := *c
	return &coupon, nil
}

func (repo *couponRepository) Redeem(_ context.Context, code string, now time.Time) (*models.Coupon, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c, ok := repo.db.coupons[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if !c.IsActive || (c.ExpiresAt != nil && !c.ExpiresAt.After(now)) || (c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit) {
		return nil, repositories.ErrCouponUnavailable
	}
	c.UsedCount++
	c.UpdatedAt = now
	coupon := *c
	return &coupon, nil
}

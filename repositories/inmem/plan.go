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

type planRepository struct {
	db *DB
}

func NewPlanRepository(db *DB) repositories.PlanRepository {
	return &planRepository{db: db}
}

func (repo *planRepository) Create(_ context.Context, plan *models.Plan) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, p := range repo.db.plans {
		if strings.EqualFold(p.Name, plan.Name) {
			return repositories.ErrDuplicate
		}
	}
	if plan.ID.IsZero() {
		plan.ID = primitive.NewObjectID()
	}
	p := *plan
	repo.db.plans[p.ID.Hex()] = &p
	return nil
}

func (repo *planRepository) Update(_ context.Context, id string, req models.PlanRequest) (*models.Plan, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repositories.ErrInvalidID
	}

	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	p, ok := repo.db.plans[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p.Name = req.Name
	p.Price = models.Amount(req.Price)
	p.Description = req.Description
	p.Features = req.Features
	p.IsActive = req.IsActive
	p.UpdatedAt = time.Now()
	plan := *p
	return &plan, nil
}

func (repo *planRepository) FindByName(_ context.Context, name string) (*models.Plan, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, p := range repo.db.plans {
		if strings.EqualFold(p.Name, name) {
			plan := *p
			return &plan, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (repo *planRepository) List(_ context.Context, activeOnly bool) ([]models.Plan, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	plans := []models.Plan{}
	for _, p := range repo.db.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		plans = append(plans, *p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Price < plans[j].Price })
	return plans, nil
}

package inmem

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
)

type staffReferralRepository struct {
	db *DB
}

func NewStaffReferralRepository(db *DB) repositories.StaffReferralRepository {
	return &staffReferralRepository{db: db}
}

func (repo *staffReferralRepository) Create(_ context.Context, ref *models.StaffReferral) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, exists := repo.db.staffReferrals[ref.Code]; exists {
		return repositories.ErrDuplicate
	}
	if ref.ID.IsZero() {
		ref.ID = primitive.NewObjectID()
	}
	r := *ref
	repo.db.staffReferrals[r.Code] = &r
	return nil
}

func (repo *staffReferralRepository) FindByCode(_ context.Context, code string) (*models.StaffReferral, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	r, ok := repo.db.staffReferrals[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	ref := *r
	return &ref, nil
}

func (repo *staffReferralRepository) FindByEmail(_ context.Context, email string) (*models.StaffReferral, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, r := range repo.db.staffReferrals {
		if r.Email == email {
			ref := *r
			return &ref, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (repo *staffReferralRepository) List(_ context.Context) ([]models.StaffReferral, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	refs := make([]models.StaffReferral, 0, len(repo.db.staffReferrals))
	for _, r := range repo.db.staffReferrals {
		refs = append(refs, *r)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].TotalSales > refs[j].TotalSales })
	return refs, nil
}

func (repo *staffReferralRepository) IncrementPartners(_ context.Context, code string) error {
	return repo.update(code, func(r *models.StaffReferral) { r.PartnerCount++ })
}

func (repo *staffReferralRepository) AddSales(_ context.Context, code string, amount float64) error {
	return repo.update(code, func(r *models.StaffReferral) { r.TotalSales += models.Amount(amount) })
}

func (repo *staffReferralRepository) update(code string, fn func(r *models.StaffReferral)) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	r, ok := repo.db.staffReferrals[code]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(r)
	r.UpdatedAt = time.Now()
	return nil
}

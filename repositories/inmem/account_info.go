package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
)

type accountInfoRepository struct {
	db *DB
}

func NewAccountInfoRepository(db *DB) repositories.AccountInfoRepository {
	return &accountInfoRepository{db: db}
}

func (repo *accountInfoRepository) Upsert(_ context.Context, info *models.AccountInfo) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	info.Path = models.AccountInfoPath(info.UID)
	info.UpdatedAt = time.Now()
	i := *info
	repo.db.accountInfo[i.UID] = &i
	return nil
}

func (repo *accountInfoRepository) FindByUID(_ context.Context, uid string) (*models.AccountInfo, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	i, ok := repo.db.accountInfo[uid]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	info := *i
	return &info, nil
}

func (repo *accountInfoRepository) Update(_ context.Context, uid string, req models.UpdateAccountInfoRequest) (*models.AccountInfo, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i, ok := repo.db.accountInfo[uid]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if req.Name != nil {
		i.Name = *req.Name
	}
	if req.Phone != nil {
		i.Phone = *req.Phone
	}
	if req.BusinessName != nil {
		i.BusinessName = *req.BusinessName
	}
	if req.FCMToken != nil {
		i.FCMToken = *req.FCMToken
	}
	i.UpdatedAt = time.Now()
	info := *i
	return &info, nil
}

func (repo *accountInfoRepository) List(_ context.Context, dr models.DateRange) ([]models.AccountInfo, error) {
	return repo.filter(func(i *models.AccountInfo) bool { return dr.Contains(i.JoinedAt) }), nil
}

func (repo *accountInfoRepository) ListByReferralCode(_ context.Context, code string) ([]models.AccountInfo, error) {
	return repo.filter(func(i *models.AccountInfo) bool { return i.ReferralCode == code }), nil
}

func (repo *accountInfoRepository) filter(keep func(i *models.AccountInfo) bool) []models.AccountInfo {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	infos := []models.AccountInfo{}
	for _, i := range repo.db.accountInfo {
		if keep(i) {
			infos = append(infos, *i)
		}
	}
	sort.Slice(infos, func(a, b int) bool { return infos[a].JoinedAt.After(infos[b].JoinedAt) })
	return infos
}

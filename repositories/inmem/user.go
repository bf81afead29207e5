package inmem

import (
	"context"
	"strings"
	"time"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) repositories.UserRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) FindByID(_ context.Context, uid string) (*models.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	u, ok := repo.db.users[uid]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	user := *u
	return &user, nil
}

func (repo *userRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range repo.db.users {
		if u.Email == email {
			user := *u
			return &user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (repo *userRepository) Upsert(_ context.Context, user *models.User) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for uid, u := range repo.db.users {
		if uid != user.UID && u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	user.UpdatedAt = time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = user.UpdatedAt
	}
	u := *user
	repo.db.users[u.UID] = &u
	return nil
}

func (repo *userRepository) TouchLogin(_ context.Context, uid string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if u, ok := repo.db.users[uid]; ok {
		u.LastLoginAt = time.Now()
	}
	return nil
}

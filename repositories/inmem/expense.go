package inmem

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
)

type expenseRepository struct {
	db *DB
}

func NewExpenseRepository(db *DB) repositories.ExpenseRepository {
	return &expenseRepository{db: db}
}

func (repo *expenseRepository) Create(_ context.Context, expense *models.Expense) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if expense.ID.IsZero() {
		expense.ID = primitive.NewObjectID()
	}
	e := *expense
	repo.db.expenses = append(repo.db.expenses, &e)
	return nil
}

func (repo *expenseRepository) List(_ context.Context, dr models.DateRange) ([]models.Expense, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	expenses := []models.Expense{}
	for _, e := range repo.db.expenses {
		if dr.Contains(e.CreatedAt) {
			expenses = append(expenses, *e)
		}
	}
	sort.Slice(expenses, func(i, j int) bool { return expenses[i].CreatedAt.After(expenses[j].CreatedAt) })
	return expenses, nil
}

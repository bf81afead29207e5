package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
)

type mongoExpenseRepository struct {
	collection *mongo.Collection
}

func NewExpenseRepository(db *mongo.Database) ExpenseRepository {
	return &mongoExpenseRepository{collection: db.Collection(config.CollectionExpenses)}
}

func (r *mongoExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if expense.ID.IsZero() {
		expense.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, expense); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *mongoExpenseRepository) List(ctx context.Context, dr models.DateRange) ([]models.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := bson.M{}
	if cond := rangeFilter(dr); cond != nil {
		query["createdAt"] = cond
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer cursor.Close(ctx)

	expenses := []models.Expense{}
	if err := cursor.All(ctx, &expenses); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}
	return expenses, nil
}

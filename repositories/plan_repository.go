package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
)

type mongoPlanRepository struct {
	collection *mongo.Collection
}

func NewPlanRepository(db *mongo.Database) PlanRepository {
	return &mongoPlanRepository{collection: db.Collection(config.CollectionPlans)}
}

func (r *mongoPlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if plan.ID.IsZero() {
		plan.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, plan); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (r *mongoPlanRepository) Update(ctx context.Context, id string, req models.PlanRequest) (*models.Plan, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":        req.Name,
		"price":       req.Price,
		"description": req.Description,
		"features":    req.Features,
		"isActive":    req.IsActive,
		"updatedAt":   time.Now(),
	}}

	var plan models.Plan
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&plan); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return &plan, nil
}

// FindByName matches the plan name case-insensitively
func (r *mongoPlanRepository) FindByName(ctx context.Context, name string) (*models.Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := bson.M{"name": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"}}
	var plan models.Plan
	if err := r.collection.FindOne(ctx, query).Decode(&plan); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}
	return &plan, nil
}

func (r *mongoPlanRepository) List(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := bson.M{}
	if activeOnly {
		query["isActive"] = true
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "price", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer cursor.Close(ctx)

	plans := []models.Plan{}
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	return plans, nil
}

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

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{collection: db.Collection(config.CollectionOrders)}
}

func (r *mongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *mongoOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &order, nil
}

func (r *mongoOrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := bson.M{}
	if filter.PartnerID != "" {
		query["partnerId"] = filter.PartnerID
	}
	if filter.Status != "" {
		query["status"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Status), Options: "i"}
	}
	if cond := rangeFilter(models.DateRange{From: filter.From, To: filter.To}); cond != nil {
		query["createdAt"] = cond
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func (r *mongoOrderRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	return r.update(ctx, id, bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}})
}

func (r *mongoOrderRepository) UpdatePricing(ctx context.Context, id string, clientPrice, adminPrice *float64) (*models.Order, error) {
	set := bson.M{"updatedAt": time.Now()}
	if clientPrice != nil {
		set["clientPrice"] = *clientPrice
	}
	if adminPrice != nil {
		set["adminPrice"] = *adminPrice
	}
	return r.update(ctx, id, bson.M{"$set": set})
}

func (r *mongoOrderRepository) VerifyPayment(ctx context.Context, id string, paidAmount float64) (*models.Order, error) {
	return r.update(ctx, id, bson.M{"$set": bson.M{
		"paidAmount":      paidAmount,
		"paymentVerified": true,
		"updatedAt":       time.Now(),
	}})
}

func (r *mongoOrderRepository) AddPayment(ctx context.Context, id string, amount float64) (*models.Order, error) {
	return r.update(ctx, id, bson.M{
		"$inc": bson.M{"paidAmount": amount},
		"$set": bson.M{"paymentVerified": true, "updatedAt": time.Now()},
	})
}

func (r *mongoOrderRepository) SetPaymentProof(ctx context.Context, id, path string) (*models.Order, error) {
	return r.update(ctx, id, bson.M{"$set": bson.M{"paymentProof": path, "updatedAt": time.Now()}})
}

func (r *mongoOrderRepository) update(ctx context.Context, id string, update bson.M) (*models.Order, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var order models.Order
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return &order, nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
)

type mongoCouponRepository struct {
	collection *mongo.Collection
}

func NewCouponRepository(db *mongo.Database) CouponRepository {
	return &mongoCouponRepository{collection: db.Collection(config.CollectionCoupons)}
}

func (r *mongoCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if coupon.ID.IsZero() {
		coupon.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, coupon); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (r *mongoCouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var coupon models.Coupon
	if err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&coupon); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return &coupon, nil
}

func (r *mongoCouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer cursor.Close(ctx)

	coupons := []models.Coupon{}
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, fmt.Errorf("decode coupons: %w", err)
	}
	return coupons, nil
}

func (r *mongoCouponRepository) SetActive(ctx context.Context, code string, active bool) (*models.Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var coupon models.Coupon
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now()}}
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"code": code}, update, opts).Decode(&coupon); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update coupon: %w", err)
	}
	return &coupon, nil
}

// Redeem increments usedCount only while the coupon is active, unexpired and under its limit
func (r *mongoCouponRepository) Redeem(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"code":     code,
		"isActive": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"expiresAt": bson.M{"$exists": false}},
				bson.M{"expiresAt": nil},
				bson.M{"expiresAt": bson.M{"$gt": now}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"usageLimit": 0},
				bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$usageLimit"}}},
			}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"usedCount": 1},
		"$set": bson.M{"updatedAt": now},
	}

	var coupon models.Coupon
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&coupon); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, findErr := r.FindByCode(ctx, code); errors.Is(findErr, ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, ErrCouponUnavailable
		}
		return nil, fmt.Errorf("redeem coupon: %w", err)
	}
	return &coupon, nil
}

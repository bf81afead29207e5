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

type mongoStaffReferralRepository struct {
	collection *mongo.Collection
}

func NewStaffReferralRepository(db *mongo.Database) StaffReferralRepository {
	return &mongoStaffReferralRepository{collection: db.Collection(config.CollectionStaffReferrals)}
}

func (r *mongoStaffReferralRepository) Create(ctx context.Context, ref *models.StaffReferral) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if ref.ID.IsZero() {
		ref.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, ref); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert staff referral: %w", err)
	}
	return nil
}

func (r *mongoStaffReferralRepository) FindByCode(ctx context.Context, code string) (*models.StaffReferral, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *mongoStaffReferralRepository) FindByEmail(ctx context.Context, email string) (*models.StaffReferral, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoStaffReferralRepository) findOne(ctx context.Context, query bson.M) (*models.StaffReferral, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var ref models.StaffReferral
	if err := r.collection.FindOne(ctx, query).Decode(&ref); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find staff referral: %w", err)
	}
	return &ref, nil
}

func (r *mongoStaffReferralRepository) List(ctx context.Context) ([]models.StaffReferral, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "totalSales", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list staff referrals: %w", err)
	}
	defer cursor.Close(ctx)

	refs := []models.StaffReferral{}
	if err := cursor.All(ctx, &refs); err != nil {
		return nil, fmt.Errorf("decode staff referrals: %w", err)
	}
	return refs, nil
}

func (r *mongoStaffReferralRepository) IncrementPartners(ctx context.Context, code string) error {
	return r.inc(ctx, code, bson.M{"partnerCount": 1})
}

func (r *mongoStaffReferralRepository) AddSales(ctx context.Context, code string, amount float64) error {
	return r.inc(ctx, code, bson.M{"totalSales": amount})
}

func (r *mongoStaffReferralRepository) inc(ctx context.Context, code string, inc bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, bson.M{"code": code}, bson.M{
		"$inc": inc,
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("update staff referral: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

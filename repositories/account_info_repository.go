package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
)

// mongoAccountInfoRepository stores users/{uid}/profile/account_info documents keyed by uid
type mongoAccountInfoRepository struct {
	collection *mongo.Collection
}

func NewAccountInfoRepository(db *mongo.Database) AccountInfoRepository {
	return &mongoAccountInfoRepository{collection: db.Collection(config.CollectionAccountInfo)}
}

func (r *mongoAccountInfoRepository) Upsert(ctx context.Context, info *models.AccountInfo) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	info.Path = models.AccountInfoPath(info.UID)
	info.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": info.UID}, info, opts); err != nil {
		return fmt.Errorf("upsert account info: %w", err)
	}
	return nil
}

func (r *mongoAccountInfoRepository) FindByUID(ctx context.Context, uid string) (*models.AccountInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var info models.AccountInfo
	if err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&info); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account info: %w", err)
	}
	return &info, nil
}

func (r *mongoAccountInfoRepository) Update(ctx context.Context, uid string, req models.UpdateAccountInfoRequest) (*models.AccountInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Phone != nil {
		set["phone"] = *req.Phone
	}
	if req.BusinessName != nil {
		set["businessName"] = *req.BusinessName
	}
	if req.FCMToken != nil {
		set["fcmToken"] = *req.FCMToken
	}

	var info models.AccountInfo
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": uid}, bson.M{"$set": set}, opts).Decode(&info); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update account info: %w", err)
	}
	return &info, nil
}

func (r *mongoAccountInfoRepository) List(ctx context.Context, dr models.DateRange) ([]models.AccountInfo, error) {
	query := bson.M{}
	if cond := rangeFilter(dr); cond != nil {
		query["joinedAt"] = cond
	}
	return r.find(ctx, query)
}

func (r *mongoAccountInfoRepository) ListByReferralCode(ctx context.Context, code string) ([]models.AccountInfo, error) {
	return r.find(ctx, bson.M{"referralCode": code})
}

func (r *mongoAccountInfoRepository) find(ctx context.Context, query bson.M) ([]models.AccountInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "joinedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list account info: %w", err)
	}
	defer cursor.Close(ctx)

	infos := []models.AccountInfo{}
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode account info: %w", err)
	}
	return infos, nil
}

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

type mongoPaymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) PaymentRepository {
	return &mongoPaymentRepository{collection: db.Collection(config.CollectionPayments)}
}

func (r *mongoPaymentRepository) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if txn.ID.IsZero() {
		txn.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, txn); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *mongoPaymentRepository) FindByMerchantTransactionID(ctx context.Context, txnID string) (*models.PaymentTransaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var txn models.PaymentTransaction
	if err := r.collection.FindOne(ctx, bson.M{"merchantTransactionId": txnID}).Decode(&txn); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &txn, nil
}

func (r *mongoPaymentRepository) UpdateStatus(ctx context.Context, txnID, status, code, gatewayTxnID string) (*models.PaymentTransaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	set := bson.M{"status": status, "gatewayCode": code, "updatedAt": time.Now()}
	if gatewayTxnID != "" {
		set["gatewayTransactionId"] = gatewayTxnID
	}

	var txn models.PaymentTransaction
	filter := bson.M{"merchantTransactionId": txnID, "status": bson.M{"$in": models.PaymentStatesBefore(status)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&txn); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return r.FindByMerchantTransactionID(ctx, txnID)
		}
		return nil, fmt.Errorf("update payment: %w", err)
	}
	return &txn, nil
}

func (r *mongoPaymentRepository) MarkApplied(ctx context.Context, txnID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"merchantTransactionId": txnID, "applied": false},
		bson.M{"$set": bson.M{"applied": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("mark payment applied: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *mongoPaymentRepository) UnmarkApplied(ctx context.Context, txnID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"merchantTransactionId": txnID, "applied": true},
		bson.M{"$set": bson.M{"applied": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("release payment: %w", err)
	}
	return nil
}

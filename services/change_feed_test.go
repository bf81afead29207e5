package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
)

func marshalRaw(t *testing.T, v interface{}) bson.Raw {
	t.Helper()
	b, err := bson.Marshal(v)
	require.NoError(t, err)
	return bson.Raw(b)
}

func TestBuildChangeEvent(t *testing.T) {
	orderID := primitive.NewObjectID()

	tests := []struct {
		name       string
		collection string
		doc        interface{}
		wantOwner  string
		check      func(t *testing.T, doc interface{})
	}{
		{
			name:       "order belongs to its partner",
			collection: config.CollectionOrders,
			doc:        models.Order{ID: orderID, PartnerID: "p1", ClientName: "Ravi", PaidAmount: 250},
			wantOwner:  "p1",
			check: func(t *testing.T, doc interface{}) {
				o := doc.(models.Order)
				assert.Equal(t, orderID, o.ID)
				assert.Equal(t, "Ravi", o.ClientName)
				assert.Equal(t, models.Amount(250), o.PaidAmount)
			},
		},
		{
			name:       "profile belongs to its uid",
			collection: config.CollectionAccountInfo,
			doc:        models.AccountInfo{UID: "p2", Name: "Bina"},
			wantOwner:  "p2",
			check: func(t *testing.T, doc interface{}) {
				assert.Equal(t, "Bina", doc.(models.AccountInfo).Name)
			},
		},
		{
			name:       "payment belongs to its payer",
			collection: config.CollectionPayments,
			doc:        models.PaymentTransaction{MerchantTransactionID: "MT1", UserID: "p3", Status: models.PaymentStatusPending},
			wantOwner:  "p3",
			check: func(t *testing.T, doc interface{}) {
				assert.Equal(t, "MT1", doc.(models.PaymentTransaction).MerchantTransactionID)
			},
		},
		{
			name:       "plans are shared",
			collection: config.CollectionPlans,
			doc:        models.Plan{Name: "Gold", IsActive: true},
			check: func(t *testing.T, doc interface{}) {
				assert.True(t, doc.(models.Plan).IsActive)
			},
		},
		{
			name:       "referrals are shared",
			collection: config.CollectionStaffReferrals,
			doc:        models.StaffReferral{Code: "STF-ABC123"},
			check: func(t *testing.T, doc interface{}) {
				assert.Equal(t, "STF-ABC123", doc.(models.StaffReferral).Code)
			},
		},
		{
			name:       "coupons are shared",
			collection: config.CollectionCoupons,
			doc:        models.Coupon{Code: "SAVE15"},
			check: func(t *testing.T, doc interface{}) {
				assert.Equal(t, "SAVE15", doc.(models.Coupon).Code)
			},
		},
		{
			name:       "expenses are shared",
			collection: config.CollectionExpenses,
			doc:        models.Expense{Amount: 300, Category: "ads"},
			check: func(t *testing.T, doc interface{}) {
				assert.Equal(t, models.Amount(300), doc.(models.Expense).Amount)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := BuildChangeEvent(tt.collection, "update", orderID, marshalRaw(t, tt.doc))
			require.NoError(t, err)

			assert.Equal(t, "change", ev.Type)
			assert.Equal(t, tt.collection, ev.Collection)
			assert.Equal(t, "update", ev.Operation)
			assert.Equal(t, orderID.Hex(), ev.DocumentID)
			assert.Equal(t, tt.wantOwner, ev.OwnerID)
			require.NotNil(t, ev.Document)
			tt.check(t, ev.Document)
		})
	}
}

func TestBuildChangeEventDelete(t *testing.T) {
	ev, err := BuildChangeEvent(config.CollectionOrders, "delete", "o1", nil)
	require.NoError(t, err)
	assert.Equal(t, "o1", ev.DocumentID)
	assert.Nil(t, ev.Document)
	assert.Empty(t, ev.OwnerID)

	_, err = BuildChangeEvent(config.CollectionUsers, "insert", "u1", marshalRaw(t, bson.M{"email": "a@example.com"}))
	assert.Error(t, err)
}

func TestNextResumeToken(t *testing.T) {
	current := marshalRaw(t, bson.M{"_data": "old"})
	latest := marshalRaw(t, bson.M{"_data": "new"})
	historyLost := fmt.Errorf("open change stream: %w", mongo.CommandError{Code: codeChangeStreamHistoryLost, Message: "resume point no longer in the oplog"})

	assert.Equal(t, latest, nextResumeToken(current, latest, errors.New("connection reset")))
	assert.Equal(t, current, nextResumeToken(current, nil, errors.New("server selection timeout")))
	assert.Nil(t, nextResumeToken(current, nil, historyLost))
	assert.Nil(t, nextResumeToken(current, latest, mongo.CommandError{Code: codeInvalidResumeToken}))
	assert.Equal(t, current, nextResumeToken(current, nil, mongo.CommandError{Code: 11600, Message: "interrupted at shutdown"}))
}

func TestMetricsCacheWithoutRedis(t *testing.T) {
	ctx := context.Background()
	var dest models.DashboardMetrics

	var nilCache *MetricsCache
	assert.False(t, nilCache.Get(ctx, "30d", &dest))
	nilCache.Set(ctx, "30d", models.DashboardMetrics{})
	nilCache.Invalidate(ctx)

	disabled := NewMetricsCache(nil)
	disabled.Set(ctx, "30d", models.DashboardMetrics{})
	assert.False(t, disabled.Get(ctx, "30d", &dest))
}

func TestMetricsCacheUnreachable(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	cache := NewMetricsCache(client)

	cache.Set(ctx, "30d", models.DashboardMetrics{})
	cache.Invalidate(ctx)

	var dest models.DashboardMetrics
	assert.False(t, cache.Get(ctx, "30d", &dest))
}

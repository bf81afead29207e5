package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
)

const changeFeedRetryDelay = 5 * time.Second

// Server error codes for a stream that cannot resume from its token
const (
	codeInvalidResumeToken      = 260
	codeChangeStreamFatalError  = 280
	codeChangeStreamHistoryLost = 286
)

// Broadcaster receives change events; *websocket.Hub satisfies it
type Broadcaster interface {
	Broadcast(ev models.ChangeEvent)
}

// metricsCollections are the collections whose changes invalidate cached dashboard numbers
var metricsCollections = map[string]bool{
	config.CollectionOrders:         true,
	config.CollectionExpenses:       true,
	config.CollectionAccountInfo:    true,
	config.CollectionPlans:          true,
	config.CollectionStaffReferrals: true,
}

// WatchedCollections is every collection the feed follows
var WatchedCollections = []string{
	config.CollectionOrders,
	config.CollectionStaffReferrals,
	config.CollectionCoupons,
	config.CollectionExpenses,
	config.CollectionAccountInfo,
	config.CollectionPlans,
	config.CollectionPayments,
}

type changeStreamEvent struct {
	OperationType string   `bson:"operationType"`
	FullDocument  bson.Raw `bson:"fullDocument"`
	DocumentKey   struct {
		ID interface{} `bson:"_id"`
	} `bson:"documentKey"`
}

// ChangeFeed follows MongoDB change streams and forwards them to subscribers
type ChangeFeed struct {
	db          *mongo.Database
	broadcaster Broadcaster
	cache       *MetricsCache
}

func NewChangeFeed(db *mongo.Database, broadcaster Broadcaster, cache *MetricsCache) *ChangeFeed {
	return &ChangeFeed{db: db, broadcaster: broadcaster, cache: cache}
}

// Run watches every collection in its own goroutine and blocks until ctx is done
func (f *ChangeFeed) Run(ctx context.Context, collections []string) {
	var wg sync.WaitGroup
	for _, name := range collections {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			f.watch(ctx, name)
		}(name)
	}
	wg.Wait()
}

func (f *ChangeFeed) watch(ctx context.Context, name string) {
	var resumeToken bson.Raw
	for {
		token, err := f.stream(ctx, name, resumeToken)
		resumeToken = nextResumeToken(resumeToken, token, err)
		if ctx.Err() != nil {
			return
		}
		log.Printf("Change stream on %s stopped: %v; retrying in %s", name, err, changeFeedRetryDelay)
		select {
		case <-time.After(changeFeedRetryDelay):
		case <-ctx.Done():
			return
		}
	}
}

func (f *ChangeFeed) stream(ctx context.Context, name string, resumeAfter bson.Raw) (bson.Raw, error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	if resumeAfter != nil {
		opts.SetResumeAfter(resumeAfter)
	}

	cs, err := f.db.Collection(name).Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return nil, fmt.Errorf("open change stream: %w", err)
	}
	defer cs.Close(context.Background())

	var last bson.Raw
	for cs.Next(ctx) {
		last = cs.ResumeToken()

		var raw changeStreamEvent
		if err := cs.Decode(&raw); err != nil {
			log.Printf("Failed to decode change on %s: %v", name, err)
			continue
		}
		ev, err := BuildChangeEvent(name, raw.OperationType, raw.DocumentKey.ID, raw.FullDocument)
		if err != nil {
			log.Printf("Failed to map change on %s: %v", name, err)
			continue
		}
		if metricsCollections[name] {
			f.cache.Invalidate(ctx)
		}
		f.broadcaster.Broadcast(ev)
	}
	return last, cs.Err()
}

// nextResumeToken picks the token for the next attempt. A token the server refuses is
// dropped so the stream restarts from now instead of failing forever.
func nextResumeToken(current, latest bson.Raw, err error) bson.Raw {
	if staleResumeToken(err) {
		if current != nil || latest != nil {
			log.Printf("Change stream resume token rejected, starting a fresh stream: %v", err)
		}
		return nil
	}
	if latest != nil {
		return latest
	}
	return current
}

func staleResumeToken(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(codeInvalidResumeToken) ||
		se.HasErrorCode(codeChangeStreamFatalError) ||
		se.HasErrorCode(codeChangeStreamHistoryLost)
}

// BuildChangeEvent decodes a full document into its model so clients get the API shape
func BuildChangeEvent(collection, operation string, key interface{}, doc bson.Raw) (models.ChangeEvent, error) {
	ev := models.ChangeEvent{
		Type:       "change",
		Collection: collection,
		Operation:  operation,
		DocumentID: documentID(key),
	}
	if len(doc) == 0 {
		return ev, nil
	}

	var err error
	switch collection {
	case config.CollectionOrders:
		var o models.Order
		err = bson.Unmarshal(doc, &o)
		ev.Document, ev.OwnerID = o, o.PartnerID
	case config.CollectionAccountInfo:
		var a models.AccountInfo
		err = bson.Unmarshal(doc, &a)
		ev.Document, ev.OwnerID = a, a.UID
	case config.CollectionPayments:
		var p models.PaymentTransaction
		err = bson.Unmarshal(doc, &p)
		ev.Document, ev.OwnerID = p, p.UserID
	case config.CollectionStaffReferrals:
		var r models.StaffReferral
		err = bson.Unmarshal(doc, &r)
		ev.Document = r
	case config.CollectionCoupons:
		var c models.Coupon
		err = bson.Unmarshal(doc, &c)
		ev.Document = c
	case config.CollectionExpenses:
		var e models.Expense
		err = bson.Unmarshal(doc, &e)
		ev.Document = e
	case config.CollectionPlans:
		var p models.Plan
		err = bson.Unmarshal(doc, &p)
		ev.Document = p
	default:
		return ev, fmt.Errorf("unwatched collection %s", collection)
	}
	return ev, err
}

func documentID(key interface{}) string {
	switch v := key.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

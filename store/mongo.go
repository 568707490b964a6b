package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lastmoment/tripfund-api/models"
)

const opTimeout = 5 * time.Second

// MongoStore keeps the ledger and pending queue in two collections of
// one database. Change notification uses change streams, so the
// deployment needs a replica set (Atlas free tier qualifies).
type MongoStore struct {
	client *mongo.Client
	dbName string
	log    *zap.Logger
}

func NewMongoStore(client *mongo.Client, dbName string, log *zap.Logger) *MongoStore {
	return &MongoStore{client: client, dbName: dbName, log: log}
}

func (s *MongoStore) payments() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(CollPayments)
}

func (s *MongoStore) pending() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(CollPending)
}

func (s *MongoStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := s.payments().Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var out []models.Payment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Payment{}
	}
	return out, nil
}

func (s *MongoStore) GetPayment(ctx context.Context, id string) (models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p models.Payment
	err := s.payments().FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Payment{}, ErrNotFound
	}
	return p, err
}

func (s *MongoStore) PutPayment(ctx context.Context, p models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Upsert so the deterministic-slug path collides idempotently
	// instead of erroring on a duplicate key.
	_, err := s.payments().ReplaceOne(ctx, bson.M{"_id": p.ID}, p,
		options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) DeletePayment(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.payments().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListPending(ctx context.Context) ([]models.PendingPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := s.pending().Find(ctx, bson.M{"status": models.PendingStatus})
	if err != nil {
		return nil, err
	}
	var out []models.PendingPayment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.PendingPayment{}
	}
	return out, nil
}

func (s *MongoStore) GetPending(ctx context.Context, id string) (models.PendingPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p models.PendingPayment
	err := s.pending().FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.PendingPayment{}, ErrNotFound
	}
	return p, err
}

func (s *MongoStore) PutPending(ctx context.Context, p models.PendingPayment) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.pending().ReplaceOne(ctx, bson.M{"_id": p.ID}, p,
		options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) DeletePending(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.pending().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Watch opens a change stream per collection and forwards a contentless
// event on every change. Streams end when ctx is cancelled.
func (s *MongoStore) Watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 8)

	for _, name := range []string{CollPayments, CollPending} {
		cs, err := s.client.Database(s.dbName).Collection(name).Watch(ctx, mongo.Pipeline{})
		if err != nil {
			return nil, err
		}
		go func(name string, cs *mongo.ChangeStream) {
			defer cs.Close(context.Background())
			for cs.Next(ctx) {
				select {
				case ch <- Event{Collection: name}:
				default:
					// Subscriber is behind; it will re-fetch on the
					// next event anyway.
				}
			}
			if err := cs.Err(); err != nil && ctx.Err() == nil {
				s.log.Error("change stream ended", zap.String("collection", name), zap.Error(err))
			}
		}(name, cs)
	}

	return ch, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

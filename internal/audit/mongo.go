package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const mongoWriteTimeout = 5 * time.Second

// MongoSink inserts audit entries into a MongoDB collection, for
// deployments that want the trail queryable rather than grep-able.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSink connects to MongoDB and targets the audit_events collection.
func NewMongoSink(ctx context.Context, uri, database string) (*MongoSink, error) {
	opts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}
	return &MongoSink{
		client: client,
		coll:   client.Database(database).Collection("audit_events"),
	}, nil
}

func (s *MongoSink) Write(e Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoWriteTimeout)
	defer cancel()
	if _, err := s.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoWriteTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

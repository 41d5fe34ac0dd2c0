package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "studio-cms/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BackendName is the name reported for the MongoDB store
const BackendName = "mongodb"

// record is how one collection value is stored: {_id: key, value: <json text>, updatedAt}
type record struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Backend keeps every collection value as one document in a single MongoDB collection.
type Backend struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect opens a client for uri and verifies it with a ping.
func Connect(ctx context.Context, uri, database, collection string) (*Backend, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return NewBackend(client, client.Database(database).Collection(collection)), nil
}

// NewBackend uses an existing client and collection. The backend disconnects
// the client on Close.
func NewBackend(client *mongo.Client, collection *mongo.Collection) *Backend {
	return &Backend{client: client, collection: collection}
}

// Name returns the backend name
func (b *Backend) Name() string { return BackendName }

// Get returns the stored JSON, or nil when no document exists for key
func (b *Backend) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var rec record
	err := b.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(rec.Value)) {
		return nil, fmt.Errorf("mongodb key %q: %w", key, apperrors.ErrMalformedStorage)
	}
	return json.RawMessage(rec.Value), nil
}

// Set upserts the document for key
func (b *Backend) Set(ctx context.Context, key string, value json.RawMessage) error {
	_, err := b.collection.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": string(value), "updatedAt": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Close disconnects the client
func (b *Backend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.client.Disconnect(ctx)
}

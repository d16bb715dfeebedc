package store

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/changeover/pkg/cache"
	"github.com/matzehuels/changeover/pkg/errors"
)

// Mongo defaults.
const (
	DefaultDatabase   = "changeover"
	DefaultCollection = "runs"
)

// MongoConfig configures a [Mongo] store.
type MongoConfig struct {
	URI        string
	Database   string // defaults to DefaultDatabase
	Collection string // defaults to DefaultCollection
}

// Mongo stores runs in a MongoDB collection keyed by run ID.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to MongoDB and ensures the created_at index exists.
// The initial ping is retried with backoff.
func NewMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	err = cache.DefaultBackoff.Ping(ctx, "mongo", func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	m := NewMongoFromClient(client, cfg.Database, cfg.Collection)
	_, err = m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}
	return m, nil
}

// NewMongoFromClient wraps an existing client.
func NewMongoFromClient(client *mongo.Client, database, collection string) *Mongo {
	return &Mongo{client: client, coll: client.Database(database).Collection(collection)}
}

// Save upserts run by ID.
func (m *Mongo) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "run has no ID")
	}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": run.ID}, run, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// Get retrieves a run by ID.
func (m *Mongo) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

// List returns up to limit runs, newest first.
func (m *Mongo) List(ctx context.Context, limit int) ([]*Run, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(listLimit(limit)))
	cur, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var runs []*Run
	if err := cur.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return runs, nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

var _ Store = (*Mongo)(nil)

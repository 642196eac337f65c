package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoOptions controls the MongoDB client.
type MongoOptions struct {
	Database    string
	ConnTimeout time.Duration
	MaxPoolSize uint64
	Logger      *log.Logger
}

// Mongo owns a MongoDB client and the database holding daily challenges.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	logger *log.Logger
	opts   MongoOptions
}

// NewMongo connects to uri and verifies the primary is reachable.
func NewMongo(ctx context.Context, uri string, opts MongoOptions) (*Mongo, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Database == "" {
		return nil, fmt.Errorf("mongo database name is required")
	}
	logger.Printf("store: connecting to mongo (db=%s, max_pool=%d)", opts.Database, opts.MaxPoolSize)

	clientOpts := options.Client().ApplyURI(uri)
	if opts.ConnTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnTimeout)
		clientOpts.SetServerSelectionTimeout(opts.ConnTimeout)
	}
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}

	connCtx, cancel := withOptionalTimeout(ctx, opts.ConnTimeout)
	defer cancel()

	client, err := mongo.Connect(connCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Println("store: mongo connection established")

	return &Mongo{client: client, db: client.Database(opts.Database), logger: logger, opts: opts}, nil
}

// Database returns the handle repositories write to.
func (m *Mongo) Database() *mongo.Database {
	return m.db
}

// HealthCheck pings the primary.
func (m *Mongo) HealthCheck(ctx context.Context) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("store not initialized")
	}
	checkCtx, cancel := withOptionalTimeout(ctx, m.opts.ConnTimeout)
	defer cancel()
	return m.client.Ping(checkCtx, readpref.Primary())
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	m.logger.Println("store: disconnecting mongo")
	return m.client.Disconnect(ctx)
}

package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"libraryapi/internal/config"
)

// NewMongo connects to the document store and pings the primary.
// The returned client owns its own connection pool and must be disconnected on shutdown.
func NewMongo(ctx context.Context, c config.MongoConfig) (*mongo.Client, error) {
	if c.URI == "" || c.Database == "" {
		return nil, fmt.Errorf("invalid mongo config: uri and database are required")
	}

	client, err := mongo.Connect(ctx, clientOptions(c))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, nil
}

// clientOptions builds the driver options. Every command is traced through
// the otelmongo monitor, matching otelsql on the Postgres backend.
func clientOptions(c config.MongoConfig) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(c.URI).
		SetAppName(ApplicationName).
		SetMonitor(otelmongo.NewMonitor())
	if c.ConnectTimeoutSec > 0 {
		opts.SetConnectTimeout(time.Duration(c.ConnectTimeoutSec) * time.Second)
	}
	if c.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(uint64(c.MaxPoolSize))
	}
	return opts
}

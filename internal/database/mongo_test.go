package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/config"
)

func TestNewMongo(t *testing.T) {
	ctx := context.Background()

	t.Run("missing database name", func(t *testing.T) {
		client, err := NewMongo(ctx, config.MongoConfig{URI: "mongodb://localhost:27017"})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid mongo config")
		assert.Nil(t, client)
	})

	t.Run("unparseable uri", func(t *testing.T) {
		client, err := NewMongo(ctx, config.MongoConfig{URI: "http://localhost:27017", Database: "digitalLibrary"})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "mongo connect")
		assert.Nil(t, client)
	})
}

func TestClientOptions(t *testing.T) {
	opts := clientOptions(config.MongoConfig{
		URI:               "mongodb://mongo.internal:27017",
		Database:          "digitalLibrary",
		MaxPoolSize:       25,
		ConnectTimeoutSec: 3,
	})

	require.NoError(t, opts.Validate())
	assert.Equal(t, []string{"mongo.internal:27017"}, opts.Hosts)
	assert.NotNil(t, opts.Monitor, "commands must be traced")
	require.NotNil(t, opts.AppName)
	assert.Equal(t, ApplicationName, *opts.AppName)
	require.NotNil(t, opts.MaxPoolSize)
	assert.Equal(t, uint64(25), *opts.MaxPoolSize)
	require.NotNil(t, opts.ConnectTimeout)
	assert.Equal(t, 3*time.Second, *opts.ConnectTimeout)
}

func TestClientOptions_DriverDefaults(t *testing.T) {
	opts := clientOptions(config.MongoConfig{URI: "mongodb://localhost:27017", Database: "digitalLibrary"})

	assert.Nil(t, opts.MaxPoolSize)
	assert.Nil(t, opts.ConnectTimeout)
	assert.NotNil(t, opts.Monitor)
}

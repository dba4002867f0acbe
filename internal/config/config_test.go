package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("STORAGE_DRIVER", DriverPostgres)
	t.Setenv("MONGO_DATABASE", "catalog")
	t.Setenv("SWAGGER_ENABLED", "false")
	t.Setenv("DB_SCHEMA", "library")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "catalog", cfg.Mongo.Database)
	assert.False(t, cfg.SwaggerEnabled)
	assert.Equal(t, "library", cfg.Database.Schema)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORAGE_DRIVER", "MONGO_URI", "MONGO_DATABASE", "MONGO_MAX_POOL_SIZE", "SWAGGER_ENABLED", "DB_SCHEMA", "DB_CONN_MAX_IDLE_TIME_SEC"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StorageDriver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "digitalLibrary", cfg.Mongo.Database)
	assert.Equal(t, 100, cfg.Mongo.MaxPoolSize)
	assert.True(t, cfg.SwaggerEnabled)
	assert.Equal(t, "public", cfg.Database.Schema)
	assert.Equal(t, 60, cfg.Database.ConnMaxIdleTimeSec)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

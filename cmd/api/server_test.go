package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"libraryapi/internal/config"
	"libraryapi/internal/repository"
)

func TestNewApp(t *testing.T) {
	cfg := &config.AppConfig{StorageDriver: config.DriverMemory, SwaggerEnabled: true}
	reg := prometheus.NewRegistry()

	app, err := newApp(cfg, zap.NewNop(), memoryBackend(repository.NewValidator()), reg, reg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/books",
		strings.NewReader(`{"title":"Dune","author":"Herbert","genre":"sci-fi","yearPublished":1965,"type":"fiction"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="POST",path="/books",status="201"} 1`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewApp_SwaggerToggle(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		reg := prometheus.NewRegistry()
		cfg := &config.AppConfig{StorageDriver: config.DriverMemory, SwaggerEnabled: enabled}
		app, err := newApp(cfg, zap.NewNop(), memoryBackend(repository.NewValidator()), reg, reg)
		require.NoError(t, err)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
		require.NoError(t, err)
		if enabled {
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		} else {
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		}
	}
}

func TestOpenBackend(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		b, err := openBackend(context.Background(), &config.AppConfig{StorageDriver: config.DriverMemory}, zap.NewNop())
		require.NoError(t, err)
		assert.NoError(t, b.ping(context.Background()))
		assert.NoError(t, b.migrate(context.Background()))
		assert.NoError(t, b.close(context.Background()))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := openBackend(context.Background(), &config.AppConfig{StorageDriver: "cassandra"}, zap.NewNop())
		assert.ErrorContains(t, err, "unsupported STORAGE_DRIVER")
	})
}

func TestRootCmd(t *testing.T) {
	root := newRootCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
	assert.NotNil(t, root.RunE)
}

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileshare/internal/config"
	"fileshare/internal/logger"
)

func TestGetenvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		def      string
		envValue string
		want     string
	}{
		{name: "env var set", key: "TEST_VAR_SET", def: "default", envValue: "custom", want: "custom"},
		{name: "env var empty", key: "TEST_VAR_EMPTY", def: "default", envValue: "", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)
			assert.Equal(t, tt.want, getenvDefault(tt.key, tt.def))
		})
	}
}

func TestBuild(t *testing.T) {
	var cfg config.Config
	cfg.LoadDefaults()
	cfg.DocumentRoot = filepath.Join(t.TempDir(), "nested", "root")
	cfg.SecretKey = "secret"
	cfg.APIKey = "key"
	cfg.SessionTTL = time.Hour

	srv, closeFn, err := build(context.Background(), &cfg, logger.Nop())
	require.NoError(t, err)
	defer closeFn()
	assert.DirExists(t, cfg.DocumentRoot)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.Header.Set("X-API-Key", "key")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"files": []}`, rec.Body.String())
}

func TestBuild_BadS3Endpoint(t *testing.T) {
	var cfg config.Config
	cfg.LoadDefaults()
	cfg.DocumentRoot = t.TempDir()
	cfg.S3 = config.S3Config{Endpoint: "http://minio:9000/path", AccessKey: "a", SecretKey: "b"}

	_, _, err := build(context.Background(), &cfg, logger.Nop())
	assert.Error(t, err)
}

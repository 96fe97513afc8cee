package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so the host environment cannot
// leak into a test. t.Setenv restores the previous values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "ADDR", "SECRET_KEY", "FLASK_SECRET_KEY", "DOCUMENT_ROOT",
		"FILE_SERVER_API_KEY", "ENABLE_FILE_UPLOADS", "ENABLE_FILE_DOWNLOADS",
		"ENABLE_FILE_DELETION", "ENABLE_HTTP_URL_DOWNLOADS", "HEALTH_CHECK_MODE",
		"APP_USERNAME", "APP_PASSWORD", "SESSION_TTL", "MAX_UPLOAD_BYTES",
		"TLS_CERT_FILE", "TLS_KEY_FILE", "DATABASE_URL", "S3_ENDPOINT",
		"S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_REGION", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":5000", c.Addr)
	assert.Equal(t, "/data", c.DocumentRoot)
	assert.Equal(t, FeatureConfig{Uploads: true, Downloads: true, Deletion: true, RemoteURLDownloads: true}, c.Features)
	assert.Equal(t, "simple", c.HealthCheckMode)
	assert.Equal(t, 12*time.Hour, c.SessionTTL)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("DOCUMENT_ROOT", "/srv/files")
	t.Setenv("FILE_SERVER_API_KEY", "key-123")
	t.Setenv("ENABLE_FILE_UPLOADS", "no")
	t.Setenv("ENABLE_FILE_DELETION", "Y")
	t.Setenv("HEALTH_CHECK_MODE", "DEBUG")
	t.Setenv("APP_USERNAME", "admin")
	t.Setenv("APP_PASSWORD", "hunter2")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.Equal(t, "/srv/files", cfg.DocumentRoot)
	assert.Equal(t, "key-123", cfg.APIKey)
	assert.False(t, cfg.Features.Uploads)
	assert.True(t, cfg.Features.Downloads)
	assert.True(t, cfg.Features.Deletion)
	assert.Equal(t, "debug", cfg.HealthCheckMode)
	assert.Equal(t, OperatorConfig{Username: "admin", Password: "hunter2"}, cfg.Operator)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, int64(1048576), cfg.MaxUploadBytes)
}

func TestLoad_FeatureToggles(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  bool
	}{
		{name: "unset keeps default", value: nil, want: true},
		{name: "empty disables", value: ptr(""), want: false},
		{name: "blank disables", value: ptr("  "), want: false},
		{name: "yes enables", value: ptr("yes"), want: true},
		{name: "off disables", value: ptr("off"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SECRET_KEY", "s3cret")
			if tt.value != nil {
				t.Setenv("ENABLE_FILE_DELETION", *tt.value)
			}

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Features.Deletion)
			assert.True(t, cfg.Features.Uploads)
		})
	}
}

func ptr(s string) *string { return &s }

func TestLoad_FlaskSecretAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLASK_SECRET_KEY", "legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.SecretKey)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "fileshare.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":8443"
secret_key: from-file
document_root: /from/file
features:
  uploads: true
  downloads: false
  deletion: false
  remote_url_downloads: false
session_ttl: 2h
operator:
  username: fileop
  password: filepass
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DOCUMENT_ROOT", "/from/env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8443", cfg.Addr)
	assert.Equal(t, "from-file", cfg.SecretKey)
	assert.Equal(t, "/from/env", cfg.DocumentRoot)
	assert.False(t, cfg.Features.Downloads)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "fileop", cfg.Operator.Username)
}

func TestLoad_CollectsErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", "nonsense")
	t.Setenv("HEALTH_CHECK_MODE", "verbose")
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("TLS_CERT_FILE", "cert.pem")

	_, err := Load()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "SECRET_KEY")
	assert.Contains(t, msg, "ADDR")
	assert.Contains(t, msg, "HEALTH_CHECK_MODE")
	assert.Contains(t, msg, "SESSION_TTL")
	assert.Contains(t, msg, "TLS_CERT_FILE")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", "t", "y", "Yes", " yes "} {
		assert.True(t, ParseBool(s), s)
	}
	for _, s := range []string{"false", "0", "no", "off", "", "enabled"} {
		assert.False(t, ParseBool(s), s)
	}
}

func TestValidateAddr(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{":5000", false},
		{"0.0.0.0:8080", false},
		{"localhost:65535", false},
		{":0", true},
		{":70000", true},
		{"5000", true},
		{":http", true},
		{"", true},
	}
	for _, tt := range tests {
		v := NewValidator()
		v.ValidateAddr("ADDR", tt.addr)
		assert.Equal(t, tt.wantErr, v.HasErrors(), tt.addr)
	}
}

func TestWarnings(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.SecretKey = "short"
	c.HealthCheckMode = "debug"
	c.Operator = OperatorConfig{Username: "admin", Password: "plain"}

	w := c.Warnings()
	assert.Len(t, w, 4)

	c.APIKey = "k"
	c.Operator.Password = "$2a$10$abcdefghijklmnopqrstuuWmJXxgJ1uF6k3ZQh3m4Jf8O9Y1bq2ab"
	c.SecretKey = "0123456789abcdef0123456789abcdef"
	c.HealthCheckMode = "simple"
	assert.Empty(t, c.Warnings())
}

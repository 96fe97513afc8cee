// Package config loads the process configuration once at startup.
//
// Values are layered: built-in defaults, then an optional YAML file named by
// CONFIG_FILE, then environment variables. The resulting *Config is treated
// as immutable and handed to every component by reference.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// Config holds every runtime setting of the file server.
type Config struct {
	Addr         string `yaml:"addr"`
	SecretKey    string `yaml:"secret_key"`
	DocumentRoot string `yaml:"document_root"`
	APIKey       string `yaml:"api_key"`

	Features        FeatureConfig `yaml:"features"`
	HealthCheckMode string        `yaml:"health_check_mode"`

	Operator   OperatorConfig `yaml:"operator"`
	SessionTTL time.Duration  `yaml:"session_ttl"`

	// MaxUploadBytes caps request bodies for uploads and remote fetches; 0 means no limit.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	TLS TLSConfig `yaml:"tls"`

	// DatabaseURL enables the PostgreSQL audit trail when set.
	DatabaseURL string `yaml:"database_url"`

	S3  S3Config  `yaml:"s3"`
	Log LogConfig `yaml:"log"`
}

type FeatureConfig struct {
	Uploads            bool `yaml:"uploads"`
	Downloads          bool `yaml:"downloads"`
	Deletion           bool `yaml:"deletion"`
	RemoteURLDownloads bool `yaml:"remote_url_downloads"`
}

// OperatorConfig is the single login identity. Password may be plaintext or
// a bcrypt hash.
type OperatorConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Enabled reports whether both TLS files are configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// S3Config points s3:// remote fetches at an S3-compatible endpoint.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadDefaults populates c with the defaults of a fresh deployment.
// Every feature starts enabled.
func (c *Config) LoadDefaults() {
	c.Addr = ":5000"
	c.DocumentRoot = "/data"
	c.Features = FeatureConfig{
		Uploads:            true,
		Downloads:          true,
		Deletion:           true,
		RemoteURLDownloads: true,
	}
	c.HealthCheckMode = "simple"
	c.SessionTTL = 12 * time.Hour
	c.Log = LogConfig{Level: "info", Format: "json"}
}

// Load builds a Config from defaults, the optional CONFIG_FILE and the
// environment, then validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	v := NewValidator()
	cfg.applyEnv(v)
	cfg.HealthCheckMode = strings.ToLower(cfg.HealthCheckMode)
	cfg.validate(v)

	if v.HasErrors() {
		return nil, fmt.Errorf("%s", v.ErrorString())
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(v *Validator) {
	setString(&c.Addr, "ADDR")
	setString(&c.SecretKey, "FLASK_SECRET_KEY")
	setString(&c.SecretKey, "SECRET_KEY")
	setString(&c.DocumentRoot, "DOCUMENT_ROOT")
	setString(&c.APIKey, "FILE_SERVER_API_KEY")

	setBool(&c.Features.Uploads, "ENABLE_FILE_UPLOADS")
	setBool(&c.Features.Downloads, "ENABLE_FILE_DOWNLOADS")
	setBool(&c.Features.Deletion, "ENABLE_FILE_DELETION")
	setBool(&c.Features.RemoteURLDownloads, "ENABLE_HTTP_URL_DOWNLOADS")
	setString(&c.HealthCheckMode, "HEALTH_CHECK_MODE")

	setString(&c.Operator.Username, "APP_USERNAME")
	setString(&c.Operator.Password, "APP_PASSWORD")

	if raw, ok := lookup("SESSION_TTL"); ok {
		d, err := time.ParseDuration(raw)
		if err != nil {
			v.AddError("SESSION_TTL", "must be a valid duration (e.g., 12h, 30m)")
		} else {
			c.SessionTTL = d
		}
	}
	if raw, ok := lookup("MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			v.AddError("MAX_UPLOAD_BYTES", "must be a valid integer")
		} else {
			c.MaxUploadBytes = n
		}
	}

	setString(&c.TLS.CertFile, "TLS_CERT_FILE")
	setString(&c.TLS.KeyFile, "TLS_KEY_FILE")
	setString(&c.DatabaseURL, "DATABASE_URL")

	setString(&c.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.S3.AccessKey, "S3_ACCESS_KEY")
	setString(&c.S3.SecretKey, "S3_SECRET_KEY")
	setString(&c.S3.Region, "S3_REGION")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
}

// ParseBool treats true, 1, t, y and yes (any case) as true and everything
// else as false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "t", "y", "yes":
		return true
	default:
		return false
	}
}

// lookup returns a non-empty environment value.
func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

// setBool applies any value that is present, including an empty one, which
// parses as false. A blank toggle switches its feature off.
func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = ParseBool(v)
	}
}

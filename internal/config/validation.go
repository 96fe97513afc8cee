package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"fileshare/internal/auth"
)

// ValidationError is one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Validator collects every configuration problem so startup can report
// them all at once.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{errors: make([]ValidationError, 0)}
}

func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorString returns a numbered list of all errors.
func (v *Validator) ErrorString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n", len(v.errors)))
	for i, err := range v.errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

func (v *Validator) ValidateRequired(key, value string) {
	if value == "" {
		v.AddError(key, "required setting not set")
	}
}

// ValidateAddr accepts "host:port" or ":port".
func (v *Validator) ValidateAddr(key, value string) {
	if value == "" {
		v.AddError(key, "listen address must not be empty")
		return
	}
	_, portStr, err := net.SplitHostPort(value)
	if err != nil {
		v.AddError(key, "must be in host:port or :port form")
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		v.AddError(key, "port must be a number")
		return
	}
	if port < 1 || port > 65535 {
		v.AddError(key, "port must be between 1 and 65535")
	}
}

func (v *Validator) ValidateEnum(key, value string, allowed []string) {
	if value == "" {
		return
	}
	for _, opt := range allowed {
		if value == opt {
			return
		}
	}
	v.AddError(key, fmt.Sprintf("must be one of: %s (got: %s)", strings.Join(allowed, ", "), value))
}

func (v *Validator) ValidateNonNegative(key string, value int64) {
	if value < 0 {
		v.AddError(key, "must not be negative")
	}
}

func (c *Config) validate(v *Validator) {
	v.ValidateAddr("ADDR", c.Addr)
	v.ValidateRequired("SECRET_KEY", c.SecretKey)
	v.ValidateRequired("DOCUMENT_ROOT", c.DocumentRoot)
	v.ValidateEnum("HEALTH_CHECK_MODE", c.HealthCheckMode, []string{"simple", "debug"})
	v.ValidateEnum("LOG_LEVEL", c.Log.Level, []string{"debug", "info", "warn", "error"})
	v.ValidateEnum("LOG_FORMAT", c.Log.Format, []string{"json", "console"})
	v.ValidateNonNegative("MAX_UPLOAD_BYTES", c.MaxUploadBytes)

	if c.SessionTTL <= 0 {
		v.AddError("SESSION_TTL", "must be positive")
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		v.AddError("TLS_CERT_FILE", "TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if c.DatabaseURL != "" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		v.AddError("DATABASE_URL", "must be a valid PostgreSQL connection string")
	}
	if c.S3.Endpoint != "" && (c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		v.AddError("S3_ENDPOINT", "S3_ACCESS_KEY and S3_SECRET_KEY are required with S3_ENDPOINT")
	}
}

// Warnings lists settings that are legal but leave part of the server
// failing closed or exposed.
func (c *Config) Warnings() []string {
	warnings := make([]string, 0)

	if c.APIKey == "" {
		warnings = append(warnings, "FILE_SERVER_API_KEY not set - every /api/v1 call except health will fail with 500")
	}
	if c.Operator.Username == "" || c.Operator.Password == "" {
		warnings = append(warnings, "APP_USERNAME or APP_PASSWORD not set - browser login is impossible")
	}
	if c.Operator.Password != "" && !auth.IsBcryptHash(c.Operator.Password) {
		warnings = append(warnings, "APP_PASSWORD is plaintext - consider a bcrypt hash")
	}
	if len(c.SecretKey) > 0 && len(c.SecretKey) < 32 {
		warnings = append(warnings, "SECRET_KEY is shorter than 32 characters")
	}
	if c.HealthCheckMode == "debug" {
		warnings = append(warnings, "HEALTH_CHECK_MODE=debug exposes feature flags on an unauthenticated endpoint")
	}
	return warnings
}

// Package policy holds the startup-fixed feature toggles consulted before
// every gateway operation.
package policy

import (
	"fmt"

	"fileshare/internal/errs"
)

// Feature names one class of operation that can be switched off.
type Feature string

const (
	FeatureUploads            Feature = "uploads"
	FeatureDownloads          Feature = "downloads"
	FeatureDeletion           Feature = "deletion"
	FeatureRemoteURLDownloads Feature = "remote_url_downloads"
)

// envNames are the configuration keys reported in "disabled" messages.
var envNames = map[Feature]string{
	FeatureUploads:            "ENABLE_FILE_UPLOADS",
	FeatureDownloads:          "ENABLE_FILE_DOWNLOADS",
	FeatureDeletion:           "ENABLE_FILE_DELETION",
	FeatureRemoteURLDownloads: "ENABLE_HTTP_URL_DOWNLOADS",
}

// HealthMode controls how much the health endpoint reveals.
type HealthMode string

const (
	HealthSimple HealthMode = "simple"
	// HealthDebug exposes the feature flags. Not meant for production.
	HealthDebug HealthMode = "debug"
)

// Flags is the raw set of toggles read from configuration.
type Flags struct {
	Uploads            bool
	Downloads          bool
	Deletion           bool
	RemoteURLDownloads bool
}

// Policy is immutable once built and safe for concurrent reads.
type Policy struct {
	flags      Flags
	healthMode HealthMode
}

// New builds a Policy. Any health mode other than debug is treated as simple.
func New(flags Flags, mode HealthMode) *Policy {
	if mode != HealthDebug {
		mode = HealthSimple
	}
	return &Policy{flags: flags, healthMode: mode}
}

// IsEnabled reports whether f is switched on. Unknown features are off.
func (p *Policy) IsEnabled(f Feature) bool {
	switch f {
	case FeatureUploads:
		return p.flags.Uploads
	case FeatureDownloads:
		return p.flags.Downloads
	case FeatureDeletion:
		return p.flags.Deletion
	case FeatureRemoteURLDownloads:
		return p.flags.RemoteURLDownloads
	default:
		return false
	}
}

// Require returns an authorization error when f is disabled.
func (p *Policy) Require(f Feature) error {
	if p.IsEnabled(f) {
		return nil
	}
	name, ok := envNames[f]
	if !ok {
		name = string(f)
	}
	return errs.New(errs.KindAuthorization,
		fmt.Sprintf("This feature (%s) is disabled by the server administrator.", name))
}

// HealthMode returns the configured health endpoint verbosity.
func (p *Policy) HealthMode() HealthMode {
	return p.healthMode
}

// Snapshot is the feature view published by the debug health endpoint.
type Snapshot struct {
	Uploads            bool `json:"uploads"`
	Downloads          bool `json:"downloads"`
	Deletions          bool `json:"deletions"`
	PublicURLDownloads bool `json:"public_url_downloads"`
}

func (p *Policy) Snapshot() Snapshot {
	return Snapshot{
		Uploads:            p.flags.Uploads,
		Downloads:          p.flags.Downloads,
		Deletions:          p.flags.Deletion,
		PublicURLDownloads: p.flags.RemoteURLDownloads,
	}
}

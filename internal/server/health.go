package server

import (
	"net/http"
	"os"

	"fileshare/internal/policy"
)

// healthResponse is the body of GET /api/v1/health. Only Status is set in
// simple mode.
type healthResponse struct {
	Status          string             `json:"status"`
	HealthCheckMode policy.HealthMode  `json:"health_check_mode,omitempty"`
	EnabledFeatures *policy.Snapshot   `json:"enabled_features,omitempty"`
	DocumentRoot    *documentRootState `json:"document_root,omitempty"`
}

type documentRootState struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// handleHealth always answers 200. Debug mode also reveals the feature flags
// and the document root state, which is not meant for public exposure.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.policy.HealthMode() == policy.HealthDebug {
		snap := s.policy.Snapshot()
		resp.HealthCheckMode = policy.HealthDebug
		resp.EnabledFeatures = &snap
		resp.DocumentRoot = s.documentRootState()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) rootExists() bool {
	info, err := os.Stat(s.gateway.Root())
	return err == nil && info.IsDir()
}

func (s *Server) documentRootState() *documentRootState {
	root := s.gateway.Root()
	return &documentRootState{Path: root, Exists: s.rootExists()}
}

package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"fileshare/internal/errs"
)

// errorBody is the JSON shape of every error under /api/.
type errorBody struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, errorBody{
		Code:        status,
		Name:        http.StatusText(status),
		Description: description,
	})
}

// writeAPIError reports a gateway or auth error on the key surface.
func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	s.logError(r, err)
	writeJSONError(w, status, errs.Message(err))
}

// logError logs failures the operator has to act on.
func (s *Server) logError(r *http.Request, err error) {
	log := s.requestLogger(r)
	switch errs.KindOf(err) {
	case errs.KindConfiguration:
		log.Error("server misconfiguration", err)
	case errs.KindIO, errs.KindUnknown:
		log.Error("request failed", err)
	}
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		writeJSONError(w, http.StatusNotFound,
			"The requested URL was not found on the server. If you entered the URL manually please check your spelling and try again.")
		return
	}
	s.renderNotFound(w, r)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		writeJSONError(w, http.StatusMethodNotAllowed, "The method is not allowed for the requested URL.")
		return
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"fileshare/internal/audit"
	"fileshare/internal/errs"
)

const (
	flashSuccess = "success"
	flashError   = "error"
)

func (s *Server) flash(r *http.Request, category, message string) {
	s.sessions.AddFlash(sessionCookie(r.Context()), category, message)
}

func (s *Server) flashError(r *http.Request, err error) {
	s.logError(r, err)
	s.flash(r, flashError, errs.Message(err))
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

// pathParam returns the decoded value of a route parameter. chi matches on
// RawPath when the request has one, and on the already decoded Path otherwise.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// handleIndex renders the listing. List failures become notices on an empty
// listing so the page stays usable.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cookie := sessionCookie(r.Context())
	files, err := s.gateway.List(r.Context())
	s.record(r, audit.ActionList, audit.SurfaceSession, "", err)
	if err != nil {
		s.flashError(r, err)
		files = nil
	} else if !s.rootExists() {
		s.flash(r, flashError, fmt.Sprintf("Error: The shared directory '%s' was not found.", s.gateway.Root()))
	}

	op, _ := s.sessions.Authenticate(cookie)
	s.render(w, r, http.StatusOK, "index", indexPage{
		Username: op.Username,
		Files:    files,
		Flashes:  s.sessions.PopFlashes(cookie),
		Features: s.policy.Snapshot(),
	})
}

func (s *Server) handleWebUpload(w http.ResponseWriter, r *http.Request) {
	defer s.redirectHome(w, r)

	files, err := s.parseUpload(w, r)
	if err == nil {
		var written []string
		written, err = s.gateway.Upload(r.Context(), files)
		s.metrics.RecordUpload(len(written), err)
		s.recordUpload(r, audit.SurfaceSession, written, err)
		if err == nil {
			s.flash(r, flashSuccess, fmt.Sprintf("Successfully uploaded %d file(s)!", len(written)))
			return
		}
	}
	if errs.IsValidation(err) && errs.Message(err) == msgNothingSelected {
		s.flash(r, flashError, msgNothingSelected+".")
		return
	}
	s.flashError(r, err)
}

func (s *Server) handleWebFetch(w http.ResponseWriter, r *http.Request) {
	defer s.redirectHome(w, r)

	rawURL := r.PostFormValue("url")
	name, err := s.gateway.Fetch(r.Context(), rawURL, r.PostFormValue("filename"))
	s.metrics.RecordFetch(err)
	s.record(r, audit.ActionFetch, audit.SurfaceSession, fetchResource(rawURL, name), err)
	if err != nil {
		s.flashError(r, err)
		return
	}
	s.flash(r, flashSuccess, fmt.Sprintf("Successfully downloaded %q from URL.", name))
}

func (s *Server) handleWebDownload(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	f, err := s.gateway.Download(r.Context(), name)
	s.record(r, audit.ActionDownload, audit.SurfaceSession, name, err)
	if err != nil {
		s.metrics.RecordDownload(0, err)
		s.logError(r, err)
		if errs.IsNotFound(err) {
			s.renderNotFound(w, r)
			return
		}
		s.renderError(w, r, errs.HTTPStatus(err), errs.Message(err))
		return
	}
	defer f.Close()
	s.metrics.RecordDownload(f.Size, nil)
	serveFile(w, r, f)
}

func (s *Server) handleWebDelete(w http.ResponseWriter, r *http.Request) {
	defer s.redirectHome(w, r)

	name, err := s.gateway.Delete(r.Context(), pathParam(r, "name"))
	s.metrics.RecordDelete(err)
	s.record(r, audit.ActionDelete, audit.SurfaceSession, pathParam(r, "name"), err)
	if err != nil {
		s.flashError(r, err)
		return
	}
	s.flash(r, flashSuccess, fmt.Sprintf("File %q deleted successfully.", name))
}

package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"fileshare/internal/auth"
	"fileshare/internal/policy"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages holds one template set per page, each combined with the layout.
var pages = map[string]*template.Template{
	"login": parsePage("login.html"),
	"index": parsePage("index.html"),
	"error": parsePage("error.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

type indexPage struct {
	Username string
	Files    []string
	Flashes  []auth.Flash
	Features policy.Snapshot
}

type loginPage struct {
	Error string
}

type errorPage struct {
	Code        int
	Name        string
	Description string
}

// render executes into a buffer first so a template failure never leaves a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		s.requestLogger(r).Error("render "+page, err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	s.render(w, r, status, "login", loginPage{Error: errMsg})
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, description string) {
	s.render(w, r, status, "error", errorPage{
		Code:        status,
		Name:        http.StatusText(status),
		Description: description,
	})
}

func (s *Server) renderNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound,
		"The page or file you asked for does not exist.")
}

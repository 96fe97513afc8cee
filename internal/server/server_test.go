package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fileshare/internal/audit"
	"fileshare/internal/auth"
	"fileshare/internal/fileops"
	"fileshare/internal/policy"
)

const (
	testAPIKey   = "test-api-key"
	testUser     = "operator"
	testPassword = "correct horse"
)

type testOptions struct {
	flags      policy.Flags
	healthMode policy.HealthMode
	apiKey     string
	root       string
	maxUpload  int64
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	root    string
	audit   *audit.MemoryStore
}

func allFeatures() policy.Flags {
	return policy.Flags{Uploads: true, Downloads: true, Deletion: true, RemoteURLDownloads: true}
}

func newTestEnv(t *testing.T, mutate ...func(*testOptions)) *testEnv {
	t.Helper()
	opts := testOptions{
		flags:      allFeatures(),
		healthMode: policy.HealthSimple,
		apiKey:     testAPIKey,
		root:       t.TempDir(),
	}
	for _, m := range mutate {
		m(&opts)
	}

	pol := policy.New(opts.flags, opts.healthMode)
	store := audit.NewMemoryStore(100)
	srv := New(Config{Addr: ":0", MaxUploadBytes: opts.maxUpload}, Deps{
		Credentials: auth.NewCredentials(testUser, testPassword, opts.apiKey),
		Sessions:    auth.NewSessionStore("test-secret", time.Hour),
		Policy:      pol,
		Gateway:     fileops.New(fileops.Options{Root: opts.root, Policy: pol, MaxFileBytes: opts.maxUpload}),
		Audit:       store,
	})
	return &testEnv{srv: srv, handler: srv.Handler(), root: opts.root, audit: store}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.root, name), []byte(content), 0o644))
}

type part struct {
	field    string
	filename string
	content  string
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func apiRequest(method, target string, body *bytes.Buffer, contentType string) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-API-Key", testAPIKey)
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// login performs a browser login and returns the session cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := e.do(formRequest("/login", url.Values{"username": {testUser}, "password": {testPassword}}))
	require.Equal(t, http.StatusFound, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func withCookie(req *http.Request, c *http.Cookie) *http.Request {
	req.AddCookie(c)
	return req
}

package fileops

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileshare/internal/errs"
)

func newRemote(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/report.csv":
			fmt.Fprint(w, "a,b,c\n1,2,3\n")
		case "/broken":
			http.Error(w, "boom", http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchHTTP(t *testing.T) {
	g, root := newTestGateway(t, allEnabled)
	srv := newRemote(t)
	ctx := context.Background()

	name, err := g.Fetch(ctx, srv.URL+"/files/report.csv", "")
	require.NoError(t, err)
	assert.Equal(t, "report.csv", name)
	b, err := os.ReadFile(filepath.Join(root, "report.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b,c\n1,2,3\n", string(b))

	name, err = g.Fetch(ctx, srv.URL+"/files/report.csv", "../renamed.csv")
	require.NoError(t, err)
	assert.Equal(t, "renamed.csv", name)
}

func TestFetchHTTP_Errors(t *testing.T) {
	g, root := newTestGateway(t, allEnabled)
	srv := newRemote(t)
	ctx := context.Background()

	_, err := g.Fetch(ctx, srv.URL+"/missing.txt", "")
	assert.True(t, errs.IsNotFound(err))

	_, err = g.Fetch(ctx, srv.URL+"/broken", "")
	assert.True(t, errs.IsIO(err))
	assert.NoFileExists(t, filepath.Join(root, "broken"))

	_, err = g.Fetch(ctx, srv.URL+"/", "")
	assert.True(t, errs.IsValidation(err))

	for _, bad := range []string{"", "not a url", "ftp://example.com/x", "file:///etc/passwd"} {
		_, err = g.Fetch(ctx, bad, "x.txt")
		assert.True(t, errs.IsValidation(err), bad)
	}
}

func TestFetchS3_Unconfigured(t *testing.T) {
	g, _ := newTestGateway(t, allEnabled)
	_, err := g.Fetch(context.Background(), "s3://bucket/key.txt", "")
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
}

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in           string
		wantEndpoint string
		wantSecure   bool
		wantErr      bool
	}{
		{"minio:9000", "minio:9000", false, false},
		{"http://minio:9000", "minio:9000", false, false},
		{"https://s3.example.com", "s3.example.com", true, false},
		{"http://minio:9000/", "minio:9000", false, false},
		{"http://minio:9000/foo", "", false, true},
		{"", "", false, true},
	}
	for _, tt := range tests {
		ep, secure, err := normaliseEndpoint(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.wantEndpoint, ep)
		assert.Equal(t, tt.wantSecure, secure)
	}
}

func TestMapS3Error(t *testing.T) {
	assert.True(t, errs.IsNotFound(mapS3Error(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})))
	assert.True(t, errs.IsNotFound(mapS3Error(minio.ErrorResponse{Code: "NoSuchBucket"})))
	assert.True(t, errs.IsValidation(mapS3Error(minio.ErrorResponse{Code: "InvalidBucketName", StatusCode: 400})))
	assert.True(t, errs.IsIO(mapS3Error(minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403})))
	assert.True(t, errs.IsIO(mapS3Error(context.DeadlineExceeded)))
}

func TestNewS3Source(t *testing.T) {
	src, err := NewS3Source(S3Config{Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	assert.NotNil(t, src)

	_, err = NewS3Source(S3Config{Endpoint: "http://localhost:9000/path"})
	assert.Error(t, err)
}

package fileops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"fileshare/internal/errs"
	"fileshare/internal/policy"
)

// Fetch downloads rawURL into the document root and returns the stored name.
// The name defaults to the last path segment of the URL. Supported schemes
// are http, https and s3 (s3://bucket/key).
func (g *Gateway) Fetch(ctx context.Context, rawURL, name string) (string, error) {
	if err := g.policy.Require(policy.FeatureRemoteURLDownloads); err != nil {
		return "", err
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", errs.New(errs.KindValidation, "Invalid URL.")
	}
	switch u.Scheme {
	case "http", "https", "s3":
	default:
		return "", errs.New(errs.KindValidation, "Only http, https and s3 URLs are supported.")
	}

	target := Sanitize(name)
	if target == "" {
		target = Sanitize(path.Base(u.Path))
	}
	if target == "" {
		return "", errs.New(errs.KindValidation, "Could not determine a filename for the download.")
	}

	var body io.ReadCloser
	if u.Scheme == "s3" {
		body, err = g.openS3(ctx, u)
	} else {
		body, err = g.openHTTP(ctx, u)
	}
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := g.writeFile(target, body); err != nil {
		return "", err
	}
	g.log.With().Str("url", u.Redacted()).Str("filename", target).Logger().Info("remote file fetched")
	return target, nil
}

func (g *Gateway) openHTTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindValidation, "Invalid URL.", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "Could not fetch URL", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, errs.New(errs.KindNotFound, "Remote file not found.")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, errs.Wrap(errs.KindIO, "Could not fetch URL",
			fmt.Errorf("remote server returned %s", resp.Status))
	}
	return resp.Body, nil
}

func (g *Gateway) openS3(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if g.s3 == nil {
		return nil, errs.New(errs.KindConfiguration, "S3 endpoint not configured on the server.")
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return nil, errs.New(errs.KindValidation, "s3 URLs must name an object: s3://bucket/key")
	}
	return g.s3.open(ctx, u.Host, key)
}

// S3Config points s3:// fetches at an S3-compatible endpoint.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
}

// S3Source reads objects from an S3-compatible store.
type S3Source struct {
	client *minio.Client
}

// NewS3Source builds a client without contacting the endpoint; connection
// problems surface on the first fetch.
func NewS3Source(cfg S3Config) (*S3Source, error) {
	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("s3 endpoint: %w", err)
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &S3Source{client: client}, nil
}

func (s *S3Source) open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapS3Error(err)
	}
	// GetObject is lazy; Stat forces the request so errors surface here.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, mapS3Error(err)
	}
	return obj, nil
}

// normaliseEndpoint accepts "host:port" or "http(s)://host:port".
func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, errors.New("empty endpoint")
	}
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, errors.New("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, errors.New("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}
	// bare host:port, plain HTTP as with a local MinIO
	return raw, false, nil
}

// mapS3Error translates an S3 SDK error into the gateway taxonomy.
func mapS3Error(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.KindIO, "Could not fetch object", err)
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket", "NoSuchKey":
			return errs.Wrap(errs.KindNotFound, "Remote file not found.", err)
		case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
			return errs.Wrap(errs.KindValidation, "Invalid s3 URL.", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			return errs.Wrap(errs.KindNotFound, "Remote file not found.", err)
		}
	}
	return errs.Wrap(errs.KindIO, "Could not fetch object", err)
}

// Package fileops implements the file operations gateway over a single flat
// document root.
//
// Every operation checks its feature flag before touching the filesystem and
// returns *errs.Error values only. All filesystem access goes through an
// os.Root, so no name, including one that resolves through a symlink, can
// reach outside the document root.
package fileops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"fileshare/internal/errs"
	"fileshare/internal/logger"
	"fileshare/internal/policy"
)

// Options configures a Gateway.
type Options struct {
	Root   string
	Policy *policy.Policy
	Logger *logger.Logger

	// MaxFileBytes caps a single stored file; 0 disables the cap.
	MaxFileBytes int64

	// HTTPClient is used for http(s) fetches. Defaults to a client with a
	// five minute timeout.
	HTTPClient *http.Client

	// S3 serves s3:// fetches. Nil leaves them unconfigured.
	S3 *S3Source
}

// Gateway is safe for concurrent use.
type Gateway struct {
	root     string
	policy   *policy.Policy
	log      *logger.Logger
	maxBytes int64
	client   *http.Client
	s3       *S3Source
	locks    *nameLocks
}

func New(opts Options) *Gateway {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Gateway{
		root:     opts.Root,
		policy:   opts.Policy,
		log:      log,
		maxBytes: opts.MaxFileBytes,
		client:   client,
		s3:       opts.S3,
		locks:    newNameLocks(),
	}
}

// Root returns the document root path.
func (g *Gateway) Root() string {
	return g.root
}

// UploadFile is one part of a multi-file upload.
type UploadFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// File is an open, regular file inside the document root. The caller must
// Close it.
type File struct {
	Name    string
	Size    int64
	ModTime time.Time
	Content *os.File
}

func (f *File) Close() error {
	return f.Content.Close()
}

// List returns the regular files directly under the document root in
// lexicographic order. A missing root yields an empty list.
func (g *Gateway) List(ctx context.Context) ([]string, error) {
	if err := g.policy.Require(policy.FeatureDownloads); err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(g.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errs.Wrap(errs.KindIO, "Could not read directory", err)
	}
	defer root.Close()

	dir, err := root.Open(".")
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "Could not read directory", err)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "Could not read directory", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.KindIO, "Could not read directory", err)
		}
		switch {
		case isPartial(e.Name()):
		case e.Type().IsRegular():
			names = append(names, e.Name())
		case e.Type()&fs.ModeSymlink != 0:
			// links are listed when they resolve to a regular file inside the root
			if info, err := root.Stat(e.Name()); err == nil && info.Mode().IsRegular() {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Upload stores every file with a usable name, overwriting existing files of
// the same sanitized name. It returns the stored names in input order.
// Partial success is not an error.
func (g *Gateway) Upload(ctx context.Context, files []UploadFile) ([]string, error) {
	if err := g.policy.Require(policy.FeatureUploads); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if f.Name == "" {
			continue
		}
		name := Sanitize(f.Name)
		if name == "" {
			g.log.With().Str("filename", f.Name).Logger().Warn("upload skipped: unusable filename")
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, errs.Wrap(errs.KindIO, "Upload interrupted", err)
		}
		if err := g.storeUpload(name, f); err != nil {
			return written, err
		}
		written = append(written, name)
	}

	if len(written) == 0 {
		return nil, errs.New(errs.KindValidation, "No files were selected for upload")
	}
	return written, nil
}

func (g *Gateway) storeUpload(name string, f UploadFile) error {
	src, err := f.Open()
	if err != nil {
		return errs.Wrap(errs.KindIO, "Could not read uploaded file", err)
	}
	defer src.Close()
	return g.writeFile(name, src)
}

// Download opens name for streaming. Anything that is not a flat name of an
// existing regular file is reported as not found.
func (g *Gateway) Download(ctx context.Context, name string) (*File, error) {
	if err := g.policy.Require(policy.FeatureDownloads); err != nil {
		return nil, err
	}
	notFound := errs.New(errs.KindNotFound, fmt.Sprintf("File %q not found.", name))
	if !isFlatName(name) {
		return nil, notFound
	}

	root, err := os.OpenRoot(g.root)
	if err != nil {
		return nil, g.mapOpenError(notFound, err)
	}
	defer root.Close()

	fh, err := root.Open(name)
	if err != nil {
		return nil, g.mapOpenError(notFound, err)
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, errs.Wrap(errs.KindIO, "Could not read file", err)
	}
	if !info.Mode().IsRegular() {
		fh.Close()
		return nil, notFound
	}
	return &File{Name: name, Size: info.Size(), ModTime: info.ModTime(), Content: fh}, nil
}

// Delete removes the regular file named by the sanitized name and returns
// that name.
func (g *Gateway) Delete(ctx context.Context, name string) (string, error) {
	if err := g.policy.Require(policy.FeatureDeletion); err != nil {
		return "", err
	}
	safe := Sanitize(name)
	if safe == "" {
		return "", errs.New(errs.KindValidation, "Invalid filename.")
	}
	notFound := errs.New(errs.KindNotFound, fmt.Sprintf("File %q not found.", safe))

	unlock := g.locks.lock(safe)
	defer unlock()

	root, err := os.OpenRoot(g.root)
	if err != nil {
		return "", g.mapOpenError(notFound, err)
	}
	defer root.Close()

	info, err := root.Stat(safe)
	if err != nil {
		return "", g.mapOpenError(notFound, err)
	}
	if !info.Mode().IsRegular() {
		return "", notFound
	}
	if err := root.Remove(safe); err != nil {
		g.log.ErrorWith("delete failed", err, map[string]interface{}{"filename": safe})
		return "", errs.Wrap(errs.KindIO, "Error deleting file", err)
	}
	g.log.With().Str("filename", safe).Logger().Info("file deleted")
	return safe, nil
}

// writeFile stores src under name, creating the document root if it has
// disappeared. Writers of the same name are serialized. Content is staged in
// a hidden temporary file and renamed over name only once it is complete, so
// a rejected or interrupted write leaves any existing file untouched.
func (g *Gateway) writeFile(name string, src io.Reader) error {
	unlock := g.locks.lock(name)
	defer unlock()

	root, err := os.OpenRoot(g.root)
	if errors.Is(err, fs.ErrNotExist) {
		if mkErr := os.MkdirAll(g.root, 0o755); mkErr != nil {
			return errs.Wrap(errs.KindIO, "Could not create document root", mkErr)
		}
		root, err = os.OpenRoot(g.root)
	}
	if err != nil {
		return errs.Wrap(errs.KindIO, "Could not open document root", err)
	}
	defer root.Close()

	tmp := partialName()
	dst, err := root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errs.Wrap(errs.KindIO, "Could not save file", err)
	}

	if g.maxBytes > 0 {
		src = io.LimitReader(src, g.maxBytes+1)
	}
	n, err := io.Copy(dst, src)
	closeErr := dst.Close()
	if err == nil && g.maxBytes > 0 && n > g.maxBytes {
		_ = root.Remove(tmp)
		return errs.New(errs.KindValidation,
			fmt.Sprintf("File %q exceeds the maximum size of %d bytes.", name, g.maxBytes))
	}
	if err == nil {
		err = closeErr
	}
	if err == nil {
		// both names are flat, so joining them onto the root cannot escape it
		err = os.Rename(filepath.Join(g.root, tmp), filepath.Join(g.root, name))
	}
	if err != nil {
		_ = root.Remove(tmp)
		g.log.ErrorWith("write failed", err, map[string]interface{}{"filename": name})
		return errs.Wrap(errs.KindIO, "Could not save file", err)
	}

	g.log.With().Str("filename", name).Int("bytes", int(n)).Logger().Info("file stored")
	return nil
}

const partialSuffix = ".part"

// partialName never collides with a sanitized name, which cannot start
// with a dot. The target name is left out so a 255-byte name still fits.
func partialName() string {
	return "." + uuid.NewString() + partialSuffix
}

func isPartial(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, partialSuffix)
}

// mapOpenError turns a lookup failure into NotFound unless it is a
// permission problem, which is an I/O failure the operator must fix.
func (g *Gateway) mapOpenError(notFound error, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		g.log.Error("document root access denied", err)
		return errs.Wrap(errs.KindIO, "Permission denied", err)
	}
	return notFound
}

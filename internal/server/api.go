package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"fileshare/internal/audit"
	"fileshare/internal/errs"
	"fileshare/internal/fileops"
	"fileshare/internal/policy"
)

const (
	msgNoFilePart      = "No file part in the request"
	msgNothingSelected = "No files were selected for upload"

	// multipart parts above this size spill to temporary files
	multipartMemory = 32 << 20

	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// parseUpload reads the multipart "files" field. The uploads flag is checked
// before the body is read.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) ([]fileops.UploadFile, error) {
	if err := s.policy.Require(policy.FeatureUploads); err != nil {
		return nil, err
	}
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errs.New(errs.KindValidation,
				fmt.Sprintf("Request body exceeds the maximum upload size of %d bytes.", tooLarge.Limit))
		}
		return nil, errs.Wrap(errs.KindValidation, msgNoFilePart, err)
	}

	var (
		files   []fileops.UploadFile
		present bool
	)
	for _, field := range []string{"files", "files[]"} {
		for _, fh := range r.MultipartForm.File[field] {
			files = append(files, fileops.UploadFile{Name: fh.Filename, Open: openPart(fh)})
			present = true
		}
		// a file input left empty arrives as a part without a filename,
		// which the multipart reader files under Value
		for range r.MultipartForm.Value[field] {
			files = append(files, fileops.UploadFile{})
			present = true
		}
	}
	if !present {
		return nil, errs.New(errs.KindValidation, msgNoFilePart)
	}
	return files, nil
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}

func (s *Server) recordUpload(r *http.Request, surface audit.Surface, written []string, err error) {
	if err != nil || len(written) == 0 {
		s.record(r, audit.ActionUpload, surface, strings.Join(written, ","), err)
		return
	}
	for _, name := range written {
		s.record(r, audit.ActionUpload, surface, name, nil)
	}
}

// fetchResource is the audit resource of a fetch: the stored name when there
// is one, else the URL.
func fetchResource(rawURL, name string) string {
	if name != "" {
		return name + " <- " + rawURL
	}
	return rawURL
}

// serveFile streams f with range support as an attachment.
func serveFile(w http.ResponseWriter, r *http.Request, f *fileops.File) {
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	http.ServeContent(w, r, f.Name, f.ModTime, f.Content)
}

func (s *Server) handleAPIUpload(w http.ResponseWriter, r *http.Request) {
	files, err := s.parseUpload(w, r)
	if err != nil {
		s.metrics.RecordUpload(0, err)
		s.writeAPIError(w, r, err)
		return
	}
	written, err := s.gateway.Upload(r.Context(), files)
	s.metrics.RecordUpload(len(written), err)
	s.recordUpload(r, audit.SurfaceAPI, written, err)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        fmt.Sprintf("Successfully uploaded %d file(s)", len(written)),
		"uploaded_files": written,
	})
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	files, err := s.gateway.List(r.Context())
	s.record(r, audit.ActionList, audit.SurfaceAPI, "", err)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleAPIDownload(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	f, err := s.gateway.Download(r.Context(), name)
	s.record(r, audit.ActionDownload, audit.SurfaceAPI, name, err)
	if err != nil {
		s.metrics.RecordDownload(0, err)
		s.writeAPIError(w, r, err)
		return
	}
	defer f.Close()
	s.metrics.RecordDownload(f.Size, nil)
	serveFile(w, r, f)
}

func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	raw := pathParam(r, "name")
	name, err := s.gateway.Delete(r.Context(), raw)
	s.metrics.RecordDelete(err)
	s.record(r, audit.ActionDelete, audit.SurfaceAPI, raw, err)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("File %q deleted successfully.", name),
	})
}

type fetchRequest struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func (s *Server) handleAPIFetch(w http.ResponseWriter, r *http.Request) {
	if err := s.policy.Require(policy.FeatureRemoteURLDownloads); err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	var req fetchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil || req.URL == "" {
		s.writeAPIError(w, r, errs.New(errs.KindValidation, `Request body must be JSON with a "url" field.`))
		return
	}

	name, err := s.gateway.Fetch(r.Context(), req.URL, req.Filename)
	s.metrics.RecordFetch(err)
	s.record(r, audit.ActionFetch, audit.SurfaceAPI, fetchResource(req.URL, name), err)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("Successfully downloaded %q from URL", name),
		"file":    name,
	})
}

func (s *Server) handleAPIAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAuditLimit)
	}

	entries, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		s.writeAPIError(w, r, errs.Wrap(errs.KindIO, "Could not read audit log", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// prometheus.go - Prometheus text exposition of Metrics
package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

type promMetric struct {
	name  string
	help  string
	kind  string
	value string
}

// WritePrometheus renders snap in the Prometheus text format (version 0.0.4).
func WritePrometheus(w io.Writer, snap MetricsSnapshot, activeSessions int) error {
	metrics := []promMetric{
		{"fileshare_requests_total", "Total number of HTTP requests", "counter", fmt.Sprint(snap.RequestsTotal)},
		{"fileshare_request_errors_4xx_total", "HTTP responses with a 4xx status", "counter", fmt.Sprint(snap.RequestErrors4xx)},
		{"fileshare_request_errors_5xx_total", "HTTP responses with a 5xx status", "counter", fmt.Sprint(snap.RequestErrors5xx)},
		{"fileshare_uploads_total", "Successful upload requests", "counter", fmt.Sprint(snap.UploadsTotal)},
		{"fileshare_uploaded_files_total", "Files stored by uploads", "counter", fmt.Sprint(snap.UploadFilesTotal)},
		{"fileshare_upload_errors_total", "Failed upload requests", "counter", fmt.Sprint(snap.UploadErrorsTotal)},
		{"fileshare_downloads_total", "Successful downloads", "counter", fmt.Sprint(snap.DownloadsTotal)},
		{"fileshare_download_bytes_total", "Size of downloaded files in bytes", "counter", fmt.Sprint(snap.DownloadBytesTotal)},
		{"fileshare_download_errors_total", "Failed downloads", "counter", fmt.Sprint(snap.DownloadErrorsTotal)},
		{"fileshare_deletes_total", "Deleted files", "counter", fmt.Sprint(snap.DeletesTotal)},
		{"fileshare_delete_errors_total", "Failed deletions", "counter", fmt.Sprint(snap.DeleteErrorsTotal)},
		{"fileshare_fetches_total", "Remote files fetched", "counter", fmt.Sprint(snap.FetchesTotal)},
		{"fileshare_fetch_errors_total", "Failed remote fetches", "counter", fmt.Sprint(snap.FetchErrorsTotal)},
		{"fileshare_login_success_total", "Successful logins", "counter", fmt.Sprint(snap.LoginSuccessTotal)},
		{"fileshare_login_failures_total", "Failed logins", "counter", fmt.Sprint(snap.LoginFailuresTotal)},
		{"fileshare_active_sessions", "Live browser sessions", "gauge", fmt.Sprint(activeSessions)},
		{"fileshare_uptime_seconds", "Seconds since the server started", "gauge", fmt.Sprintf("%.0f", snap.UptimeSeconds)},
	}

	var b strings.Builder
	for _, m := range metrics {
		fmt.Fprintf(&b, "# HELP %s %s\n", m.name, m.help)
		fmt.Fprintf(&b, "# TYPE %s %s\n", m.name, m.kind)
		fmt.Fprintf(&b, "%s %s\n", m.name, m.value)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// handleMetrics serves GET /api/v1/metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := WritePrometheus(w, s.metrics.Snapshot(), s.sessions.Len()); err != nil {
		s.requestLogger(r).Error("write metrics", err)
	}
}

package server

import (
	"sync"
	"time"
)

// Metrics holds in-process counters for one Server.
type Metrics struct {
	mu sync.RWMutex

	startedAt time.Time

	uploadsTotal      int64
	uploadFilesTotal  int64
	uploadErrorsTotal int64

	downloadsTotal      int64
	downloadBytesTotal  int64
	downloadErrorsTotal int64

	deletesTotal      int64
	deleteErrorsTotal int64

	fetchesTotal     int64
	fetchErrorsTotal int64

	loginAttemptsTotal int64
	loginSuccessTotal  int64
	loginFailuresTotal int64

	requestsTotal    int64
	requestErrors5xx int64
	requestErrors4xx int64
}

func NewMetrics() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

// RecordUpload records one upload request and how many files it stored.
func (m *Metrics) RecordUpload(files int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.uploadErrorsTotal++
		return
	}
	m.uploadsTotal++
	m.uploadFilesTotal += int64(files)
}

func (m *Metrics) RecordDownload(bytes int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.downloadErrorsTotal++
		return
	}
	m.downloadsTotal++
	m.downloadBytesTotal += bytes
}

func (m *Metrics) RecordDelete(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.deleteErrorsTotal++
		return
	}
	m.deletesTotal++
}

func (m *Metrics) RecordFetch(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.fetchErrorsTotal++
		return
	}
	m.fetchesTotal++
}

func (m *Metrics) RecordLoginAttempt(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginAttemptsTotal++
	if success {
		m.loginSuccessTotal++
	} else {
		m.loginFailuresTotal++
	}
}

func (m *Metrics) RecordRequest(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++

	if statusCode >= 500 {
		m.requestErrors5xx++
	} else if statusCode >= 400 {
		m.requestErrors4xx++
	}
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		UploadsTotal:        m.uploadsTotal,
		UploadFilesTotal:    m.uploadFilesTotal,
		UploadErrorsTotal:   m.uploadErrorsTotal,
		DownloadsTotal:      m.downloadsTotal,
		DownloadBytesTotal:  m.downloadBytesTotal,
		DownloadErrorsTotal: m.downloadErrorsTotal,
		DeletesTotal:        m.deletesTotal,
		DeleteErrorsTotal:   m.deleteErrorsTotal,
		FetchesTotal:        m.fetchesTotal,
		FetchErrorsTotal:    m.fetchErrorsTotal,
		LoginAttemptsTotal:  m.loginAttemptsTotal,
		LoginSuccessTotal:   m.loginSuccessTotal,
		LoginFailuresTotal:  m.loginFailuresTotal,
		RequestsTotal:       m.requestsTotal,
		RequestErrors5xx:    m.requestErrors5xx,
		RequestErrors4xx:    m.requestErrors4xx,
		UptimeSeconds:       time.Since(m.startedAt).Seconds(),
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	UploadsTotal      int64
	UploadFilesTotal  int64
	UploadErrorsTotal int64

	DownloadsTotal      int64
	DownloadBytesTotal  int64
	DownloadErrorsTotal int64

	DeletesTotal      int64
	DeleteErrorsTotal int64

	FetchesTotal     int64
	FetchErrorsTotal int64

	LoginAttemptsTotal int64
	LoginSuccessTotal  int64
	LoginFailuresTotal int64

	RequestsTotal    int64
	RequestErrors5xx int64
	RequestErrors4xx int64

	UptimeSeconds float64
}

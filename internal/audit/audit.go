// Package audit records who did what to the document root.
//
// Recording is best effort: callers log a failed Record and carry on, the
// file operation itself never fails because of the audit trail.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is the audited operation.
type Action string

const (
	ActionLogin    Action = "login"
	ActionLogout   Action = "logout"
	ActionList     Action = "list"
	ActionUpload   Action = "upload"
	ActionDownload Action = "download"
	ActionDelete   Action = "delete"
	ActionFetch    Action = "fetch"
)

// Surface tells which front-end served the request.
type Surface string

const (
	SurfaceSession Surface = "session"
	SurfaceAPI     Surface = "api"
)

// Entry is one audit record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Surface   Surface   `json:"surface"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent,omitempty"`
	Resource  string    `json:"resource,omitempty"`
	Success   bool      `json:"success"`
	ErrorMsg  string    `json:"error_message,omitempty"`
}

// Store persists entries. Recent returns newest first.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// stamp fills in the ID and timestamp when the caller left them empty.
func stamp(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}

// DefaultCapacity is the MemoryStore size used by the server.
const DefaultCapacity = 1000

// MemoryStore keeps the most recent entries in a ring buffer.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{entries: make([]Entry, capacity)}
}

func (s *MemoryStore) Record(_ context.Context, e Entry) error {
	e = stamp(e)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.next] = e
	s.next = (s.next + 1) % len(s.entries)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.next
	if s.full {
		n = len(s.entries)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.entries)) % len(s.entries)
		out = append(out, s.entries[idx])
	}
	return out, nil
}

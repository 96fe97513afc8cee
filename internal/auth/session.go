package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the browser session cookie.
const CookieName = "fileshare_session"

var ErrInvalidSession = errors.New("invalid session")

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

type session struct {
	operator Operator
	expires  time.Time
	flashes  []Flash
}

type claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// SessionStore keeps browser sessions in memory. The cookie only carries a
// signed session id; logout removes the server-side record so a replayed
// cookie stops working.
type SessionStore struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessionStore(secret string, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Create starts a session for op and returns the signed cookie value.
func (s *SessionStore) Create(op Operator) (string, time.Time, error) {
	id := uuid.NewString()
	now := s.now()
	exp := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   op.Username,
		},
		SessionID: id,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	s.sessions[id] = &session{operator: op, expires: exp}
	return signed, exp, nil
}

// Authenticate resolves a cookie value to the logged-in operator.
func (s *SessionStore) Authenticate(cookie string) (Operator, bool) {
	id, err := s.sessionID(cookie)
	if err != nil {
		return Operator{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.lookupLocked(id)
	if !ok {
		return Operator{}, false
	}
	return sess.operator, true
}

// Destroy ends the session. Unknown or invalid cookies are ignored.
func (s *SessionStore) Destroy(cookie string) {
	id, err := s.sessionID(cookie)
	if err != nil {
		return
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// AddFlash queues a notice for the session's next page view.
func (s *SessionStore) AddFlash(cookie, category, message string) {
	id, err := s.sessionID(cookie)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.lookupLocked(id); ok {
		sess.flashes = append(sess.flashes, Flash{Category: category, Message: message})
	}
}

// PopFlashes returns and clears the queued notices.
func (s *SessionStore) PopFlashes(cookie string) []Flash {
	id, err := s.sessionID(cookie)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.lookupLocked(id)
	if !ok {
		return nil
	}
	flashes := sess.flashes
	sess.flashes = nil
	return flashes
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
	return len(s.sessions)
}

func (s *SessionStore) sessionID(cookie string) (string, error) {
	if cookie == "" {
		return "", ErrInvalidSession
	}
	c := &claims{}
	token, err := jwt.ParseWithClaims(cookie, c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}
	if !token.Valid || c.SessionID == "" {
		return "", ErrInvalidSession
	}
	return c.SessionID, nil
}

func (s *SessionStore) lookupLocked(id string) (*session, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if !s.now().Before(sess.expires) {
		delete(s.sessions, id)
		return nil, false
	}
	return sess, true
}

func (s *SessionStore) pruneLocked(now time.Time) {
	for id, sess := range s.sessions {
		if !now.Before(sess.expires) {
			delete(s.sessions, id)
		}
	}
}

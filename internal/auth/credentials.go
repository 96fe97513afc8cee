// Package auth holds the operator identity, the static API key and the
// browser session store.
//
// The two authentication contracts never merge: a session cookie proves a
// browser login, an API key proves a machine caller. Neither implies the
// other.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fileshare/internal/errs"
)

// Operator is the single identity allowed to log in.
type Operator struct {
	ID       int
	Username string
	Password string
}

// Credentials is built once at startup and never mutated.
type Credentials struct {
	operator Operator
	apiKey   string
}

func NewCredentials(username, password, apiKey string) *Credentials {
	return &Credentials{
		operator: Operator{ID: 1, Username: username, Password: password},
		apiKey:   apiKey,
	}
}

// Operator returns the configured identity without its password.
func (c *Credentials) Operator() Operator {
	return Operator{ID: c.operator.ID, Username: c.operator.Username}
}

// Login checks username and password against the configured operator.
// Plaintext passwords are compared through SHA-256 digests so the comparison
// runs in constant time regardless of length.
func (c *Credentials) Login(username, password string) (Operator, error) {
	invalid := errs.New(errs.KindAuthentication, "Invalid username or password")

	if c.operator.Username == "" || c.operator.Password == "" {
		return Operator{}, invalid
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.operator.Username)) == 1
	passOK := c.checkPassword(password)
	if !userOK || !passOK {
		return Operator{}, invalid
	}
	return c.Operator(), nil
}

func (c *Credentials) checkPassword(password string) bool {
	if IsBcryptHash(c.operator.Password) {
		return bcrypt.CompareHashAndPassword([]byte(c.operator.Password), []byte(password)) == nil
	}
	got := sha256.Sum256([]byte(password))
	want := sha256.Sum256([]byte(c.operator.Password))
	return subtle.ConstantTimeCompare(got[:], want[:]) == 1
}

// IsBcryptHash reports whether s looks like a bcrypt hash rather than a
// plaintext password.
func IsBcryptHash(s string) bool {
	return len(s) == 60 &&
		(strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

// APIKeyConfigured reports whether a server API key is set.
func (c *Credentials) APIKeyConfigured() bool {
	return c.apiKey != ""
}

// AuthenticateAPIKey is true only when both keys are non-empty and equal.
func (c *Credentials) AuthenticateAPIKey(provided string) bool {
	if c.apiKey == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(c.apiKey)) == 1
}

// RequireAPIKey fails closed: an unset server key is a configuration error,
// reported before the provided key is even looked at.
func (c *Credentials) RequireAPIKey(provided string) error {
	if !c.APIKeyConfigured() {
		return errs.New(errs.KindConfiguration, "API key not configured on the server.")
	}
	if !c.AuthenticateAPIKey(provided) {
		return errs.New(errs.KindAuthentication, "Invalid or missing API Key.")
	}
	return nil
}

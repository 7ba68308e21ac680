package session

import (
	"encoding/hex"
	"errors"
	"hash/fnv"
	"strings"
)

// MaxUsernameLength bounds the username accepted by the login form.
const MaxUsernameLength = 64

// Domain errors
var (
	ErrEmptyUsername   = errors.New("username is required")
	ErrUsernameTooLong = errors.New("username cannot exceed 64 characters")
	ErrEmptyPassword   = errors.New("password is required")
	ErrNotLoggedIn     = errors.New("please log in first")
	ErrEmptySessionKey = errors.New("server returned an empty session key")
)

// UserState is the client-side record of who is logged in.
// An empty SessionKey means logged out.
type UserState struct {
	SessionKey string `json:"session_key"`
	Username   string `json:"username"`
}

// LoggedIn reports whether a session key is held.
func (u UserState) LoggedIn() bool {
	return u.SessionKey != ""
}

// Credentials are the username/password pair entered on the login form.
type Credentials struct {
	Username string
	Password string
}

// Validate checks that both fields are present.
// PRE: none
// POST: returns nil if the credentials can be sent to the server
func (c Credentials) Validate() error {
	name := strings.TrimSpace(c.Username)
	if name == "" {
		return ErrEmptyUsername
	}
	if len(name) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if c.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// DigestPassword returns the value sent as "pass" instead of the clear password.
// This is an obfuscation digest (64-bit FNV-1a, hex), not a password hash.
// PRE: none
// POST: returns 16 lowercase hex characters, identical for identical input
func DigestPassword(password string) string {
	h := fnv.New64a()
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}

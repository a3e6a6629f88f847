// Package auth implements the authenticator: a static credential table
// checked at login and a signed, time-limited access token carrying the
// identity. Verification is stateless; an expired token simply requires
// logging in again.
package auth

import (
	"errors"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate when the username
// is unknown or the password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned by Verify for any unusable token: bad
// signature, malformed, expired, or a subject that is no longer in the
// credential table.
var ErrInvalidToken = errors.New("invalid token")

// Config carries the process-wide authentication settings. It is built
// at startup and passed in explicitly rather than read from ambient
// globals.
type Config struct {
	Secret     string        // HS256 signing secret
	AccessTTL  time.Duration // access token lifetime
	BcryptCost int           // cost used when hashing the credential table
}

// Authenticator validates credentials against a fixed table and issues
// HS256 access tokens. The table arrives as plaintext pairs from
// configuration; it is bcrypt-hashed immediately so plaintext passwords
// are not held for the life of the process, while login still behaves
// as an exact password match.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	creds  map[string]string // username -> bcrypt hash
}

// New hashes the given username->password table and returns a ready
// Authenticator.
func New(cfg Config, users map[string]string) (*Authenticator, error) {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	creds := make(map[string]string, len(users))
	for name, pass := range users {
		h, err := bcrypt.GenerateFromPassword([]byte(pass), cost)
		if err != nil {
			return nil, err
		}
		creds[name] = string(h)
	}
	return &Authenticator{
		secret: []byte(cfg.Secret),
		ttl:    cfg.AccessTTL,
		creds:  creds,
	}, nil
}

// Known reports whether username is in the credential table. The user
// endpoints use this as their user-exists check: a user exists iff they
// could log in, independent of whether they ever have.
func (a *Authenticator) Known(username string) bool {
	_, ok := a.creds[username]
	return ok
}

// Usernames returns the known identities in sorted order. Used by the
// root banner endpoint.
func (a *Authenticator) Usernames() []string {
	names := make([]string, 0, len(a.creds))
	for name := range a.creds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Authenticate checks the credential pair and issues a signed access
// token embedding the username as subject and the computed expiry.
func (a *Authenticator) Authenticate(username, password string) (string, error) {
	hash, ok := a.creds[username]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": username,
		"exp": now.Add(a.ttl).Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(a.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify parses and validates an access token and returns the embedded
// identity. Every failure collapses to ErrInvalidToken; callers have no
// reason to distinguish a forged token from an expired one.
func (a *Authenticator) Verify(token string) (string, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	// A token whose subject has been removed from the credential table
	// is rejected even when the signature and expiry are fine.
	if !a.Known(sub) {
		return "", ErrInvalidToken
	}
	return sub, nil
}

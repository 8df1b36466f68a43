// Package session keeps server-side login sessions. The browser only ever holds an
// opaque random token; stores key sessions by the token's SHA-256.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"
)

const (
	CookieName = "sid"
	DefaultTTL = 7 * 24 * time.Hour
)

var ErrNotFound = errors.New("session not found")

// Data is the payload stored with a session.
type Data struct {
	UserID    string `json:"user_id"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
}

type Store interface {
	// Create opens a session and returns the token to hand to the client.
	Create(ctx context.Context, data Data) (token string, expire time.Time, err error)
	// Get returns ErrNotFound for unknown and expired tokens.
	Get(ctx context.Context, token string) (*Data, error)
	Destroy(ctx context.Context, token string) error
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func CreateCookie(value string, expire time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expire,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

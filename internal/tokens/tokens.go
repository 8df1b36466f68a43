// Package tokens signs and parses the two JWT kinds the server handles:
// identity-provider handoff tokens and extension bearer tokens.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ExtensionAudience = "medflow-extension"
	ExtensionKeyID    = "ext-v1"
)

var ErrInvalidToken = errors.New("invalid token")

// IdentityClaims are issued by the identity provider and exchanged for a session.
// Subject is the stable user id.
type IdentityClaims struct {
	Email           *string `json:"email,omitempty"`
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
	jwt.RegisteredClaims
}

type ExtensionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func hs256Key(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected sign method %v", t.Header["alg"])
		}
		return secret, nil
	}
}

func SignIdentity(claims IdentityClaims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func IdentityFromToken(tokenStr string, secret []byte) (*IdentityClaims, error) {
	var claims IdentityClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, hs256Key(secret), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// SignExtension issues a bearer token for the browser extension. The kid header
// lets the bearer middleware pick the key.
func SignExtension(userID, role string, ttl time.Duration, secret []byte) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := ExtensionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{ExtensionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = ExtensionKeyID
	s, err := t.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

func ExtensionFromToken(tokenStr string, secret []byte) (*ExtensionClaims, error) {
	var claims ExtensionClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, hs256Key(secret),
		jwt.WithAudience(ExtensionAudience), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

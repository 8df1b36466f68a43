package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestIdentityRoundTrip(t *testing.T) {
	email := "doc@clinic.org"
	tok, err := SignIdentity(IdentityClaims{
		Email: &email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}, secret)
	require.NoError(t, err)

	claims, err := IdentityFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "idp-1", claims.Subject)
	assert.Equal(t, email, *claims.Email)

	_, err = IdentityFromToken(tok, []byte("other"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentity_ExpiredOrMissingSubject(t *testing.T) {
	expired, err := SignIdentity(IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "idp-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}, secret)
	require.NoError(t, err)
	_, err = IdentityFromToken(expired, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub, err := SignIdentity(IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}, secret)
	require.NoError(t, err)
	_, err = IdentityFromToken(noSub, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtensionRoundTrip(t *testing.T) {
	tok, exp, err := SignExtension("u1", "user", time.Hour, secret)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	parsed, _, err := jwt.NewParser().ParseUnverified(tok, &ExtensionClaims{})
	require.NoError(t, err)
	assert.Equal(t, ExtensionKeyID, parsed.Header["kid"])

	claims, err := ExtensionFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "user", claims.Role)
}

func TestExtension_RejectsIdentityToken(t *testing.T) {
	tok, err := SignIdentity(IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}, secret)
	require.NoError(t, err)

	_, err = ExtensionFromToken(tok, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyToken(t *testing.T) {
	m := NewJWTManager("secret")

	tok, err := m.GenerateToken("ops@example.com", time.Minute)
	require.NoError(t, err)

	claims, err := m.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Email)
}

func TestVerifyTokenRejects(t *testing.T) {
	m := NewJWTManager("secret")

	expired, err := m.GenerateToken("ops@example.com", -time.Minute)
	require.NoError(t, err)
	_, err = m.VerifyToken(expired)
	assert.Error(t, err)

	otherKey, err := NewJWTManager("other").GenerateToken("ops@example.com", time.Minute)
	require.NoError(t, err)
	_, err = m.VerifyToken(otherKey)
	assert.Error(t, err)

	noEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, CustomClaims{}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.VerifyToken(noEmail)
	assert.Error(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, CustomClaims{
		Email:            "ops@example.com",
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.VerifyToken(noExpiry)
	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, CustomClaims{
		Email:            "ops@example.com",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.VerifyToken(hs512)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = NewJWTManager("").VerifyToken(otherKey)
	assert.Error(t, err)

	_, err = m.VerifyToken("not-a-token")
	assert.Error(t, err)
}

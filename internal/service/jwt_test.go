package service

import (
	"testing"
	"time"

	"earntube/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	tok, err := GenerateJWT(42, domain.RoleAdmin)
	require.NoError(t, err)

	actor, err := ParseJWT(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), actor.UserID)
	assert.True(t, actor.IsAdmin())

	tok, err = GenerateJWT(7, domain.RoleUser)
	require.NoError(t, err)
	actor, err = ParseJWT(tok)
	require.NoError(t, err)
	assert.False(t, actor.IsAdmin())
}

func TestJWTRejectsForeignAndExpiredTokens(t *testing.T) {
	InitJWT("test-secret")

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(time.Hour).Unix()})
	s, err := foreign.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = ParseJWT(s)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(-time.Hour).Unix()})
	s, err = expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ParseJWT(s)
	assert.Error(t, err)

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	s, err = noUser.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ParseJWT(s)
	assert.Error(t, err)

	_, err = ParseJWT("garbage")
	assert.Error(t, err)
}

package session

import (
	"testing"
	"time"

	"community-feed/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestFromTokenReadsCustomClaims(t *testing.T) {
	token := signToken(t, Claims{
		AccountID: "64f0000000000000000000aa",
		Username:  "janeq",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	user, err := FromToken(token)

	require.NoError(t, err)
	assert.Equal(t, "64f0000000000000000000aa", user.AccountID)
	assert.Equal(t, "janeq", user.Username)
}

func TestFromTokenFallsBackToSubject(t *testing.T) {
	token := signToken(t, jwt.RegisteredClaims{
		Subject:   "64f0000000000000000000bb",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	user, err := FromToken(token)

	require.NoError(t, err)
	assert.Equal(t, "64f0000000000000000000bb", user.AccountID)
	assert.Empty(t, user.Username)
}

func TestFromTokenRejectsEmptyToken(t *testing.T) {
	_, err := FromToken("")

	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidToken))
}

func TestFromTokenRejectsGarbage(t *testing.T) {
	_, err := FromToken("definitely.not.a-jwt")

	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidToken))
}

func TestFromTokenRejectsTokenWithoutIdentity(t *testing.T) {
	token := signToken(t, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := FromToken(token)

	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidToken))
}

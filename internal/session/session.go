// Package session derives the current user identity from the configured
// bearer token. The token is parsed without verification: the backend is the
// one enforcing signatures, this side only needs to know who it is acting as.
package session

import (
	"github.com/golang-jwt/jwt/v5"

	"community-feed/internal/utils"
)

// CurrentUser identifies the authenticated account the client acts as.
type CurrentUser struct {
	AccountID string
	Username  string
}

// Claims mirrors the token claims the backend issues on login.
type Claims struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// FromToken extracts the current user from a bearer token string.
func FromToken(token string) (*CurrentUser, error) {
	if token == "" {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "no auth token configured", nil)
	}

	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "failed to parse auth token", err)
	}

	accountID := claims.AccountID
	if accountID == "" {
		// Fall back to the registered subject claim
		accountID = claims.Subject
	}
	if accountID == "" {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "auth token carries no account identity", nil)
	}

	return &CurrentUser{
		AccountID: accountID,
		Username:  claims.Username,
	}, nil
}

// Package session keeps the authenticated user and its bearer token.
//
// The session is either anonymous or authenticated; it is never partially
// authenticated. User and token are persisted together under a single key,
// so a crash between two writes cannot leave a user without a token.
//
// Usage:
//
//	api := apiclient.New(cfg.API.BaseURL)
//	sessions := session.New(api, store)
//
//	if err := sessions.Login(ctx, "reader@example.com", "secret"); err != nil {
//	    return err
//	}
//
//	s, ok := sessions.Current()
//	if ok && s.User.Role == apiclient.RoleAdmin {
//	    // admin views
//	}
package session

import (
	"time"

	"github.com/bluescreen10/storefront/apiclient"
	"github.com/golang-jwt/jwt/v5"
)

// Session is an authenticated user together with its bearer token.
type Session struct {
	User  apiclient.User `json:"user"`
	Token string         `json:"token"`
}

// valid reports whether the session carries everything an authenticated
// state needs.
func (s Session) valid() bool {
	return s.User.ID != "" && s.User.Email != "" && s.User.Role.Valid() && s.Token != ""
}

// IsAdmin reports whether the session user has the ADMIN role.
func (s Session) IsAdmin() bool {
	return s.User.Role == apiclient.RoleAdmin
}

// ExpiresAt returns the expiry of the session token. See TokenExpiry.
func (s Session) ExpiresAt() (time.Time, bool) {
	return TokenExpiry(s.Token)
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The result is informational only; the backend remains the authority on
// whether a token is accepted. It returns false for tokens that are not
// JWTs or carry no exp claim.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

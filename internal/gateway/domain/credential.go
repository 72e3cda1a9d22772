package domain

import "time"

// SessionCredential is the caller's authentication state as read from the
// session cookies on a single inbound request. Fields are empty strings when
// the corresponding cookie is absent. Values are never mutated in place; a
// refresh produces a new credential via RefreshResult.
type SessionCredential struct {
	AccessToken  string
	RefreshToken string
	TenantID     string // derived from the tenant context cookie, not the JWT
}

// CanRefresh reports whether a refresh attempt is even possible. The backend
// refresh endpoint requires both the refresh token and the tenant scope.
func (c SessionCredential) CanRefresh() bool {
	return c.RefreshToken != "" && c.TenantID != ""
}

// RefreshResult is the outcome of a successful token refresh. Immutable once
// constructed.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string // empty unless the backend rotated the refresh token
	ExpiresIn    time.Duration
}

// Rotated reports whether the backend issued a replacement refresh token.
func (r RefreshResult) Rotated() bool { return r.RefreshToken != "" }

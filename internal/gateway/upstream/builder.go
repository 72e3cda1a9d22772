// Package upstream constructs the outbound requests the gateway sends to the
// backend API. Construction only; no retries, no error recovery.
package upstream

import (
	"bytes"
	"context"
	"net/http"

	"github.com/aussiebroadwan/tabgate/internal/gateway/session"
)

// APIPrefix is the fixed version segment prepended to every forwarded path.
const APIPrefix = "/api/v1/"

// Headers the gateway understands beyond the standard allow-listed ones.
const (
	HeaderTenantID  = "X-Tenant-ID"
	HeaderCSRFToken = "X-CSRF-Token"
)

// forwardedRequestHeaders is the allow-list of inbound headers copied through
// to the backend. This list is the security boundary: nothing else the
// browser sends may reach the backend, so extending it is a deliberate,
// reviewable change rather than configuration.
var forwardedRequestHeaders = []string{
	"Accept",
	"Accept-Language",
	HeaderTenantID,
	HeaderCSRFToken,
}

// Builder constructs backend requests from inbound ones.
type Builder struct {
	BaseURL string // backend base URL, no trailing slash
}

// Build returns the outbound request for the inbound request r, targeting the
// forwarded path beneath the API version prefix. The body is supplied as
// bytes so the orchestrator can resend it on a retry; it is ignored for
// GET/HEAD, which never carry a body upstream.
//
// The bearer token is attached when present. The refresh token, when present,
// rides along as a cookie because some backend endpoints (logout, session
// introspection) need it next to the bearer token.
func (b *Builder) Build(
	ctx context.Context,
	r *http.Request,
	path string,
	body []byte,
	accessToken, refreshToken string,
) (*http.Request, error) {
	target := b.BaseURL + APIPrefix + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	var reader *bytes.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead && len(body) > 0 {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	out, err := http.NewRequestWithContext(ctx, r.Method, target, reader)
	if err != nil {
		return nil, err
	}

	out.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		out.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if refreshToken != "" {
		out.AddCookie(&http.Cookie{Name: session.CookieRefreshToken, Value: refreshToken})
	}

	for _, name := range forwardedRequestHeaders {
		if v := r.Header.Get(name); v != "" {
			out.Header.Set(name, v)
		}
	}

	return out, nil
}

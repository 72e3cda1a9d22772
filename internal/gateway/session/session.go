// Package session reads and writes the gateway's credential cookies. It is
// the only place that knows how the browser session stores tokens; everything
// else works with domain.SessionCredential values.
package session

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/gateway/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Cookie names for the browser session. The access and refresh cookies are
// HttpOnly so page scripts can never read them; the tenant cookie carries the
// tenant context the session is scoped to.
const (
	CookieAccessToken  = "tab_access_token"
	CookieRefreshToken = "tab_refresh_token"
	CookieTenant       = "tab_tenant"
)

// RefreshCookieTTL is the fixed lifetime for a rotated refresh token cookie.
const RefreshCookieTTL = 7 * 24 * time.Hour

// Read extracts the current credential from the request's cookies. Missing
// cookies simply leave fields empty; Read never fails.
func Read(r *http.Request) domain.SessionCredential {
	return domain.SessionCredential{
		AccessToken:  cookieValue(r, CookieAccessToken),
		RefreshToken: cookieValue(r, CookieRefreshToken),
		TenantID:     cookieValue(r, CookieTenant),
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// TokenExpired reports whether the access token is a JWT whose exp claim has
// already passed. The signature is NOT verified; the backend remains the
// authority on token validity. This only exists to skip a forward attempt
// that is guaranteed to come back 401. Opaque or unparseable tokens report
// false so they are forwarded as-is.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}

// Write attaches the refreshed credential to the outbound response. The
// access cookie lives exactly as long as the token; the refresh cookie is
// only rewritten when the backend rotated it. Both cookies are HttpOnly,
// SameSite=Lax, scoped to the whole path, and Secure when the connection
// itself is TLS.
func Write(w http.ResponseWriter, res domain.RefreshResult, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieAccessToken,
		Value:    res.AccessToken,
		MaxAge:   int(res.ExpiresIn.Seconds()),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	if res.Rotated() {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieRefreshToken,
			Value:    res.RefreshToken,
			MaxAge:   int(RefreshCookieTTL.Seconds()),
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

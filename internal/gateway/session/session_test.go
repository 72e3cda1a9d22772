package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/gateway/domain"
	"github.com/aussiebroadwan/tabgate/internal/gateway/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Parallel()

	t.Run("all cookies present", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: session.CookieAccessToken, Value: "at"})
		r.AddCookie(&http.Cookie{Name: session.CookieRefreshToken, Value: "rt"})
		r.AddCookie(&http.Cookie{Name: session.CookieTenant, Value: "tenant-1"})

		cred := session.Read(r)
		require.Equal(t, "at", cred.AccessToken)
		require.Equal(t, "rt", cred.RefreshToken)
		require.Equal(t, "tenant-1", cred.TenantID)
		require.True(t, cred.CanRefresh())
	})

	t.Run("missing cookies leave fields empty", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		cred := session.Read(r)
		require.Empty(t, cred.AccessToken)
		require.Empty(t, cred.RefreshToken)
		require.Empty(t, cred.TenantID)
		require.False(t, cred.CanRefresh())
	})

	t.Run("refresh token without tenant cannot refresh", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: session.CookieRefreshToken, Value: "rt"})
		require.False(t, session.Read(r).CanRefresh())
	})
}

func TestTokenExpired(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()

	signedWithExp := func(exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-1",
			"exp": exp.Unix(),
		})
		s, err := tok.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		return s
	}

	t.Run("expired jwt reports true", func(t *testing.T) {
		require.True(t, session.TokenExpired(signedWithExp(now.Add(-time.Minute)), now))
	})

	t.Run("live jwt reports false", func(t *testing.T) {
		require.False(t, session.TokenExpired(signedWithExp(now.Add(time.Hour)), now))
	})

	t.Run("opaque token reports false", func(t *testing.T) {
		require.False(t, session.TokenExpired("not-a-jwt", now))
	})

	t.Run("jwt without exp reports false", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})
		s, err := tok.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		require.False(t, session.TokenExpired(s, now))
	})
}

func TestWrite(t *testing.T) {
	t.Parallel()

	t.Run("access cookie carries token lifetime", func(t *testing.T) {
		rec := httptest.NewRecorder()
		session.Write(rec, domain.RefreshResult{
			AccessToken: "new-at",
			ExpiresIn:   900 * time.Second,
		}, false)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)

		c := cookies[0]
		require.Equal(t, session.CookieAccessToken, c.Name)
		require.Equal(t, "new-at", c.Value)
		require.Equal(t, 900, c.MaxAge)
		require.Equal(t, "/", c.Path)
		require.True(t, c.HttpOnly)
		require.False(t, c.Secure)
		require.Equal(t, http.SameSiteLaxMode, c.SameSite)
	})

	t.Run("rotation also rewrites the refresh cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		session.Write(rec, domain.RefreshResult{
			AccessToken:  "new-at",
			RefreshToken: "new-rt",
			ExpiresIn:    900 * time.Second,
		}, true)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 2)

		byName := map[string]*http.Cookie{}
		for _, c := range cookies {
			byName[c.Name] = c
		}

		refresh := byName[session.CookieRefreshToken]
		require.NotNil(t, refresh)
		require.Equal(t, "new-rt", refresh.Value)
		require.Equal(t, int(session.RefreshCookieTTL.Seconds()), refresh.MaxAge)
		require.True(t, refresh.HttpOnly)
		require.True(t, refresh.Secure)
		require.Equal(t, http.SameSiteLaxMode, refresh.SameSite)
	})
}

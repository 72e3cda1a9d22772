package app_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/gateway/app"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseURL(t *testing.T) {
	t.Parallel()

	t.Run("localhost rewritten to loopback", func(t *testing.T) {
		got, err := app.NormalizeBaseURL("http://localhost:8080")
		require.NoError(t, err)
		require.Equal(t, "http://127.0.0.1:8080", got)
	})

	t.Run("localhost without port", func(t *testing.T) {
		got, err := app.NormalizeBaseURL("http://localhost")
		require.NoError(t, err)
		require.Equal(t, "http://127.0.0.1", got)
	})

	t.Run("case-insensitive localhost", func(t *testing.T) {
		got, err := app.NormalizeBaseURL("http://LOCALHOST:9000")
		require.NoError(t, err)
		require.Equal(t, "http://127.0.0.1:9000", got)
	})

	t.Run("other hosts untouched", func(t *testing.T) {
		got, err := app.NormalizeBaseURL("https://api.example.com")
		require.NoError(t, err)
		require.Equal(t, "https://api.example.com", got)
	})

	t.Run("trailing slash stripped", func(t *testing.T) {
		got, err := app.NormalizeBaseURL("https://api.example.com/")
		require.NoError(t, err)
		require.Equal(t, "https://api.example.com", got)
	})

	t.Run("missing scheme rejected", func(t *testing.T) {
		_, err := app.NormalizeBaseURL("api.example.com")
		require.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := app.LoadConfig()
		require.NoError(t, err)
		require.Equal(t, "http://127.0.0.1:8080", cfg.BackendBaseURL)
		require.Equal(t, 3000, cfg.Port)
		require.Equal(t, "dev", cfg.Env)
		require.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
		require.Equal(t, 10*time.Second, cfg.RefreshTimeout)
	})

	t.Run("backend url normalized on load", func(t *testing.T) {
		t.Setenv("BACKEND_BASE_URL", "http://localhost:9999/")
		cfg, err := app.LoadConfig()
		require.NoError(t, err)
		require.Equal(t, "http://127.0.0.1:9999", cfg.BackendBaseURL)
	})

	t.Run("invalid backend url rejected", func(t *testing.T) {
		t.Setenv("BACKEND_BASE_URL", "not a url")
		_, err := app.LoadConfig()
		require.Error(t, err)
	})
}

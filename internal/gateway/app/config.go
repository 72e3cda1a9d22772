package app

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all environment-based configuration for the gateway.
type Config struct {
	// BackendBaseURL is the base URL of the backend API the gateway
	// forwards to. A literal "localhost" host is normalized to 127.0.0.1
	// to avoid platform-specific DNS resolution stalls.
	BackendBaseURL string `env:"BACKEND_BASE_URL" envDefault:"http://127.0.0.1:8080"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Port      int    `env:"PORT" envDefault:"3000"`

	// UpstreamTimeout bounds every forwarded backend call.
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
	// RefreshTimeout bounds the shared token refresh call.
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT" envDefault:"10s"`

	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig parses configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	normalized, err := NormalizeBaseURL(cfg.BackendBaseURL)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BACKEND_BASE_URL: %w", err)
	}
	cfg.BackendBaseURL = normalized

	return cfg, nil
}

// NormalizeBaseURL strips any trailing slash and rewrites a localhost host to
// the loopback IP.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL %q must include scheme and host", raw)
	}

	if strings.EqualFold(u.Hostname(), "localhost") {
		host := "127.0.0.1"
		if port := u.Port(); port != "" {
			host = net.JoinHostPort(host, port)
		}
		u.Host = host
	}

	return u.String(), nil
}

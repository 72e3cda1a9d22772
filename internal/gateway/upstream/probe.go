package upstream

import (
	"context"
	"io"
	"net/http"
)

// Probe answers "is the backend reachable" for the readiness endpoint. Any
// HTTP response counts, even an error status; readiness is about
// connectivity, not backend health.
type Probe struct {
	BaseURL string
	Client  *http.Client
}

func (p *Probe) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/livez", nil)
	if err != nil {
		return err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

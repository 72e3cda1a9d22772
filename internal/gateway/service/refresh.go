package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/gateway/domain"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrRefreshFailed covers every way a refresh can fail: network errors,
	// non-2xx statuses, and malformed success bodies. The coordinator never
	// retries; callers fall back to whatever failure they already hold.
	ErrRefreshFailed = errors.New("refresh_failed")
)

// DefaultAccessTokenTTL is assumed when the backend omits expires_in.
const DefaultAccessTokenTTL = 900 * time.Second

// DefaultRefreshTimeout bounds the shared backend refresh call.
const DefaultRefreshTimeout = 10 * time.Second

// RefreshCoordinator exchanges a refresh token for a new access token at the
// backend, enforcing at most one in-flight backend call per tenant. Concurrent
// callers for the same tenant await the same call and receive the same result.
//
// This matters because the backend rotates refresh tokens: two concurrent
// refresh calls with the same token would race, one would lose, and the
// session could be stranded.
type RefreshCoordinator struct {
	BaseURL string       // backend base URL, no trailing slash
	Client  *http.Client // shared HTTP client; must have a sane timeout
	Timeout time.Duration

	group singleflight.Group
}

// refreshRequest is the backend refresh endpoint's expected body.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	TenantID     string `json:"tenant_id"`
}

// refreshResponse mirrors the backend's success body. expires_in and
// refresh_token are optional.
type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Refresh performs (or joins) the refresh for tenantID. The in-flight entry
// for the tenant is removed as soon as the call settles, success or failure,
// so a later request always triggers a fresh attempt.
//
// A caller whose context expires stops waiting and gets the context error,
// but the shared backend call keeps running for the remaining waiters.
func (c *RefreshCoordinator) Refresh(
	ctx context.Context,
	tenantID, refreshToken string,
) (domain.RefreshResult, error) {
	ch := c.group.DoChan(tenantID, func() (any, error) {
		// Detach from the initiating caller so cancelling one waiter never
		// cancels the call other waiters depend on. Values (logger, request
		// ID) survive the detach.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout())
		defer cancel()

		res, err := c.doRefresh(callCtx, tenantID, refreshToken)
		if err != nil {
			return nil, err
		}
		return res, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.RefreshResult{}, res.Err
		}
		return res.Val.(domain.RefreshResult), nil
	case <-ctx.Done():
		return domain.RefreshResult{}, ctx.Err()
	}
}

// doRefresh is the single backend call shared by all waiters for a tenant.
func (c *RefreshCoordinator) doRefresh(
	ctx context.Context,
	tenantID, refreshToken string,
) (domain.RefreshResult, error) {
	log := slogx.FromContext(ctx)

	body, err := json.Marshal(refreshRequest{
		RefreshToken: refreshToken,
		TenantID:     tenantID,
	})
	if err != nil {
		return domain.RefreshResult{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.BaseURL+"/api/v1/auth/refresh",
		bytes.NewReader(body),
	)
	if err != nil {
		return domain.RefreshResult{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		log.Warn("token refresh call failed", "tenant_id", tenantID, "err", err)
		return domain.RefreshResult{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Info("token refresh rejected", "tenant_id", tenantID, "status", resp.StatusCode)
		return domain.RefreshResult{}, fmt.Errorf("%w: backend returned %d", ErrRefreshFailed, resp.StatusCode)
	}

	var parsed refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.RefreshResult{}, fmt.Errorf("%w: malformed response: %v", ErrRefreshFailed, err)
	}
	if parsed.AccessToken == "" {
		return domain.RefreshResult{}, fmt.Errorf("%w: response missing access_token", ErrRefreshFailed)
	}

	expiresIn := DefaultAccessTokenTTL
	if parsed.ExpiresIn > 0 {
		expiresIn = time.Duration(parsed.ExpiresIn) * time.Second
	}

	log.Info("token refresh succeeded", "tenant_id", tenantID, "rotated", parsed.RefreshToken != "")

	return domain.RefreshResult{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func (c *RefreshCoordinator) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultRefreshTimeout
}

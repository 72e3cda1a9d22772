package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/gateway/domain"
	"github.com/aussiebroadwan/tabgate/internal/gateway/session"
	"github.com/aussiebroadwan/tabgate/internal/gateway/upstream"
	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
)

// Refresher exchanges a refresh token for a fresh credential. Implemented by
// service.RefreshCoordinator; an interface here so the handler can be tested
// with a fake.
type Refresher interface {
	Refresh(ctx context.Context, tenantID, refreshToken string) (domain.RefreshResult, error)
}

// forwardedResponseHeaders is the allow-list of backend response headers
// copied back to the caller. Set-Cookie is handled separately and forwarded
// verbatim.
var forwardedResponseHeaders = []string{
	"Content-Type",
	"X-Request-ID",
	"X-Total-Count",
	"Warning",
}

// ProxyHandler serves <METHOD> /api/{path...} for GET, POST, PUT, PATCH and
// DELETE. It forwards the request to the backend with a bearer token and
// transparently refreshes an expired token at most once per request, so the
// caller never sees a 401 caused merely by token expiry.
type ProxyHandler struct {
	Builder   *upstream.Builder
	Refresher Refresher
	Client    *http.Client
}

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	path := r.PathValue("path")
	cred := session.Read(r)

	var body []byte
	if r.Method != http.MethodGet && r.Method != http.MethodHead && r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "failed to read request body")
			return
		}
	}

	token := cred.AccessToken
	var refreshResult *domain.RefreshResult

	// Pre-emptive refresh: the token is missing, or is a JWT that is
	// provably past its exp claim, so forwarding it would 401 anyway.
	// The refreshed flag is set even when this attempt fails: retrying
	// a refresh token the backend just rejected would only burn a second
	// call against a known-bad credential.
	refreshed := false
	if (token == "" || session.TokenExpired(token, time.Now())) && cred.CanRefresh() {
		refreshed = true
		if res, err := h.Refresher.Refresh(ctx, cred.TenantID, cred.RefreshToken); err == nil {
			token = res.AccessToken
			refreshResult = &res
		} else {
			log.Info("pre-emptive refresh failed, forwarding without token", "err", err)
			token = ""
		}
	}

	resp, err := h.send(ctx, r, path, body, token, cred.RefreshToken)
	if err != nil {
		log.Warn("backend unreachable", "path", path, "err", err)
		h.writeProxyError(w, r, refreshResult, err)
		return
	}

	// Reactive refresh-and-retry: exactly one retry, and only when this
	// request has not already spent its refresh attempt.
	if resp.StatusCode == http.StatusUnauthorized && !refreshed && cred.CanRefresh() {
		if res, rerr := h.Refresher.Refresh(ctx, cred.TenantID, cred.RefreshToken); rerr == nil {
			refreshResult = &res

			retry, serr := h.send(ctx, r, path, body, res.AccessToken, cred.RefreshToken)
			if serr != nil {
				drainAndClose(resp)
				log.Warn("backend unreachable on retry", "path", path, "err", serr)
				h.writeProxyError(w, r, refreshResult, serr)
				return
			}
			drainAndClose(resp)
			resp = retry
		} else {
			log.Info("reactive refresh failed, returning original 401", "err", rerr)
		}
	}
	defer resp.Body.Close()

	h.writeResponse(w, r, resp, refreshResult)
}

// send builds and performs one forward attempt.
func (h *ProxyHandler) send(
	ctx context.Context,
	r *http.Request,
	path string,
	body []byte,
	accessToken, refreshToken string,
) (*http.Response, error) {
	req, err := h.Builder.Build(ctx, r, path, body, accessToken, refreshToken)
	if err != nil {
		return nil, err
	}
	return h.Client.Do(req)
}

// writeResponse translates the backend response for the caller: allow-listed
// headers, verbatim Set-Cookie passthrough, refreshed credential cookies, and
// the backend's status and body. A 204 carries no body no matter what the
// backend sent alongside it.
func (h *ProxyHandler) writeResponse(
	w http.ResponseWriter,
	r *http.Request,
	resp *http.Response,
	refreshResult *domain.RefreshResult,
) {
	for _, name := range forwardedResponseHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}

	// Set-Cookie passes through verbatim so backend-driven session
	// mutations (login, logout) proxied through this path still work.
	for _, sc := range resp.Header.Values("Set-Cookie") {
		w.Header().Add("Set-Cookie", sc)
	}

	if refreshResult != nil {
		session.Write(w, *refreshResult, r.TLS != nil)
	}

	if resp.StatusCode == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slogx.FromContext(r.Context()).Warn("failed to read backend response body", "err", err)
		// Credential cookies were already attached above.
		h.writeProxyError(w, r, nil, err)
		return
	}

	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

// writeProxyError reports an unreachable backend as a well-formed 502. A
// credential refreshed earlier in the request is still persisted; the token
// rotation already happened on the backend and dropping it would strand the
// session.
func (h *ProxyHandler) writeProxyError(
	w http.ResponseWriter,
	r *http.Request,
	refreshResult *domain.RefreshResult,
	err error,
) {
	if refreshResult != nil {
		session.Write(w, *refreshResult, r.TLS != nil)
	}
	httpx.WriteError(w, http.StatusBadGateway, "PROXY_ERROR", err.Error())
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

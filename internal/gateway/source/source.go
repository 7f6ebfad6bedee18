// Package source is the HTTP client for the Source System (a Dolibarr-style
// ERP REST API).
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/config"
	"github.com/fincoval/creditsync/internal/gateway"
	"github.com/fincoval/creditsync/internal/netx"
)

type Gateway struct {
	cfg    config.SourceConfig
	http   *netx.Client
	tokens gateway.TokenProvider
}

func New(cfg config.SourceConfig, tokens gateway.TokenProvider) *Gateway {
	return &Gateway{cfg: cfg, http: netx.NewClient(cfg.RequestTimeout), tokens: tokens}
}

// SetTokens wires the provider after construction, since the vault needs
// Login before the gateway can hand out tokens.
func (g *Gateway) SetTokens(tokens gateway.TokenProvider) {
	g.tokens = tokens
}

// Instrument layers middleware over every request the gateway sends.
func (g *Gateway) Instrument(mw func(http.RoundTripper) http.RoundTripper) {
	g.http.Wrap(mw)
}

func (g *Gateway) path(entity gateway.Entity) (string, error) {
	switch entity {
	case gateway.Clients:
		return g.cfg.ClientsPath, nil
	case gateway.Credits:
		return g.cfg.CreditsPath, nil
	case gateway.Payments:
		return g.cfg.PaymentsPath, nil
	case gateway.Installments:
		return g.cfg.InstallmentsPath, nil
	case gateway.Actions:
		return g.cfg.ActionsPath, nil
	}
	return "", fmt.Errorf("source: unknown entity %q", entity)
}

type loginResponse struct {
	Success struct {
		Token string `json:"token"`
	} `json:"success"`
}

// Login exchanges the API login for a token. It does not go through the
// token provider.
func (g *Gateway) Login(ctx context.Context, username, password string) (string, error) {
	u, err := netx.BuildURL(g.cfg.BaseURL, g.cfg.LoginPath, url.Values{"login": {username}, "password": {password}})
	if err != nil {
		return "", err
	}
	resp, err := g.http.Do(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return "", err
	}
	if !gateway.IsSuccess(resp.Status) {
		return "", &common.RemoteError{Kind: common.ErrRemoteRejected, Status: resp.Status, Message: "login failed: " + resp.Snippet()}
	}
	var lr loginResponse
	if err := resp.Decode(&lr); err != nil {
		return "", err
	}
	if lr.Success.Token == "" {
		return "", &common.RemoteError{Kind: common.ErrRemoteRejected, Status: resp.Status, Message: "login returned no token"}
	}
	return lr.Success.Token, nil
}

// FetchPage returns one page of raw records. An empty page may come back as
// 404, which is not an error here.
func (g *Gateway) FetchPage(ctx context.Context, entity gateway.Entity, page, pageSize int) ([]json.RawMessage, error) {
	p, err := g.path(entity)
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"sortfield": {"t.rowid"},
		"sortorder": {"ASC"},
		"limit":     {strconv.Itoa(pageSize)},
		"page":      {strconv.Itoa(page)},
	}
	u, err := netx.BuildURL(g.cfg.BaseURL, p, q)
	if err != nil {
		return nil, err
	}

	resp, err := g.authed(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusNotFound {
		return nil, nil
	}
	if !gateway.IsSuccess(resp.Status) {
		return nil, &common.RemoteError{Kind: common.ErrRemoteRejected, Status: resp.Status, Message: resp.Snippet()}
	}

	var out []json.RawMessage
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchAll walks pages until a short page or the configured page cap.
func (g *Gateway) FetchAll(ctx context.Context, entity gateway.Entity) ([]json.RawMessage, error) {
	size := g.cfg.PageSize
	if size <= 0 {
		size = 100
	}

	var all []json.RawMessage
	for page := 0; g.cfg.MaxPages <= 0 || page < g.cfg.MaxPages; page++ {
		recs, err := g.FetchPage(ctx, entity, page, size)
		if err != nil {
			return nil, fmt.Errorf("fetch %s page %d: %w", entity, page, err)
		}
		all = append(all, recs...)
		if len(recs) < size {
			break
		}
	}
	return all, nil
}

// FetchOne returns common.ErrorNotFound on 404.
func (g *Gateway) FetchOne(ctx context.Context, entity gateway.Entity, id string) (json.RawMessage, error) {
	p, err := g.path(entity)
	if err != nil {
		return nil, err
	}
	u, err := netx.BuildURL(g.cfg.BaseURL, p+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.authed(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusNotFound {
		return nil, common.ErrorNotFound
	}
	if !gateway.IsSuccess(resp.Status) {
		return nil, &common.RemoteError{Kind: common.ErrRemoteRejected, Status: resp.Status, Message: resp.Snippet()}
	}
	return json.RawMessage(resp.Body), nil
}

// Submit posts one record back to the Source. 200 and 201 are accepted.
func (g *Gateway) Submit(ctx context.Context, entity gateway.Entity, record any) (*gateway.Ack, error) {
	p, err := g.path(entity)
	if err != nil {
		return nil, err
	}
	u, err := netx.BuildURL(g.cfg.BaseURL, p, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.authed(ctx, http.MethodPost, u, record)
	if err != nil {
		return nil, err
	}
	ack := &gateway.Ack{Code: resp.Status, Message: resp.Snippet()}
	if resp.Status == http.StatusOK || resp.Status == http.StatusCreated {
		ack.Accepted = true
		return ack, nil
	}
	return ack, &common.RemoteError{Kind: common.ErrRemoteRejected, Status: resp.Status, Message: ack.Message}
}

// authed sends the request with the current token. On 401/403 it refreshes
// once and retries; a second refusal is reported as rejected.
func (g *Gateway) authed(ctx context.Context, method, u string, body any) (*netx.Response, error) {
	token, err := g.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := g.http.Do(ctx, method, u, header(token), body)
	if err != nil {
		return nil, err
	}
	if !gateway.IsAuthStatus(resp.Status) {
		return resp, nil
	}

	if token, err = g.tokens.Refresh(ctx, token); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrAuthExpired, err)
	}
	resp, err = g.http.Do(ctx, method, u, header(token), body)
	if err != nil {
		return nil, err
	}
	if gateway.IsAuthStatus(resp.Status) {
		return nil, &common.RemoteError{Kind: common.ErrRemoteRejected, Status: resp.Status, Message: "refused after token refresh: " + resp.Snippet()}
	}
	return resp, nil
}

func header(token string) http.Header {
	h := http.Header{}
	h.Set(common.SourceTokenHeaderName, token)
	return h
}

// Package target is the HTTP client for the Target System (the collections
// platform). Every call is routed to a tenant with the ur query parameter.
package target

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/config"
	"github.com/fincoval/creditsync/internal/gateway"
	"github.com/fincoval/creditsync/internal/jsonx"
	"github.com/fincoval/creditsync/internal/netx"
)

const acceptedMessage = "OK"

type Gateway struct {
	cfg  config.TargetConfig
	http *netx.Client
}

func New(cfg config.TargetConfig) *Gateway {
	return &Gateway{cfg: cfg, http: netx.NewClient(cfg.RequestTimeout)}
}

type envelope struct {
	HTTPResponse jsonx.Text `json:"httpResponse"`
	Mensaje      string     `json:"mensaje"`
}

// Instrument layers middleware over every request the gateway sends.
func (g *Gateway) Instrument(mw func(http.RoundTripper) http.RoundTripper) {
	g.http.Wrap(mw)
}

// route returns the endpoint and the envelope status that means success.
func (g *Gateway) route(entity gateway.Entity) (string, int, error) {
	switch entity {
	case gateway.Clients:
		return g.cfg.ClientsURL, http.StatusOK, nil
	case gateway.Credits:
		return g.cfg.CreditsURL, http.StatusCreated, nil
	case gateway.Payments:
		return g.cfg.PaymentsURL, http.StatusOK, nil
	}
	return "", 0, fmt.Errorf("target: %q cannot be submitted", entity)
}

func (g *Gateway) routingKey(key string) string {
	if key == "" {
		return g.cfg.DefaultRoutingKey
	}
	return key
}

// Submit posts one record for one routing key. Acceptance needs both the
// expected envelope status and the OK message; anything else is rejected with
// the remote message kept verbatim.
func (g *Gateway) Submit(ctx context.Context, entity gateway.Entity, record any, routingKey string) (*gateway.Ack, error) {
	endpoint, want, err := g.route(entity)
	if err != nil {
		return nil, err
	}
	u, err := netx.BuildURL(endpoint, "", url.Values{common.RoutingKeyParam: {g.routingKey(routingKey)}})
	if err != nil {
		return nil, err
	}

	resp, err := g.http.Do(ctx, http.MethodPost, u, nil, record)
	if err != nil {
		return nil, err
	}

	var env envelope
	if jerr := json.Unmarshal(resp.Body, &env); jerr != nil {
		ack := &gateway.Ack{Code: resp.Status, Message: resp.Snippet()}
		return ack, &common.RemoteError{Kind: common.ErrRemoteRejected, Status: resp.Status, Message: ack.Message}
	}

	code, cerr := strconv.Atoi(env.HTTPResponse.String())
	if cerr != nil || code == 0 {
		code = resp.Status
	}
	ack := &gateway.Ack{Code: code, Message: env.Mensaje}
	if gateway.IsSuccess(resp.Status) && cerr == nil && code == want && env.Mensaje == acceptedMessage {
		ack.Accepted = true
		return ack, nil
	}
	return ack, &common.RemoteError{Kind: common.ErrRemoteRejected, Status: code, Message: env.Mensaje}
}

// ClientExists asks whether the tenant already knows clientID.
func (g *Gateway) ClientExists(ctx context.Context, routingKey, clientID string) (bool, error) {
	var body struct {
		Codigo jsonx.Text `json:"codigo"`
	}
	status, err := g.get(ctx, g.cfg.ClientsURL, url.Values{
		common.RoutingKeyParam: {g.routingKey(routingKey)},
		"codigo":               {clientID},
	}, &body)
	if err != nil {
		if status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return body.Codigo != "", nil
}

// DebtKey resolves the Target's internal key for a credit. An empty key is
// common.ErrorNotFound.
func (g *Gateway) DebtKey(ctx context.Context, routingKey, creditID string) (string, error) {
	var body struct {
		Llave jsonx.Text `json:"llave"`
	}
	status, err := g.get(ctx, g.cfg.DebtKeyURL, url.Values{
		common.RoutingKeyParam: {g.routingKey(routingKey)},
		"credito":              {creditID},
	}, &body)
	if err != nil {
		if status == http.StatusNotFound {
			return "", common.ErrorNotFound
		}
		return "", err
	}
	if body.Llave == "" {
		return "", common.ErrorNotFound
	}
	return body.Llave.String(), nil
}

// Balances is the cierre block of a debt simulation.
type Balances struct {
	Interest jsonx.Amount `json:"saldointeres"`
	Arrears  jsonx.Amount `json:"saldomora"`
	Other    jsonx.Amount `json:"saldootros"`
	Fees     jsonx.Amount `json:"saldohonorarios"`
	Overdue  jsonx.Amount `json:"saldovencido"`
}

type DebtSnapshot struct {
	Closing      *Balances  `json:"cierre"`
	UpdatedAt    jsonx.Text `json:"fechaactualizacion"`
	RegisteredAt jsonx.Text `json:"fecharegistro"`
}

// DebtSnapshot fetches the current balances of a debt. A response without a
// cierre block is rejected.
func (g *Gateway) DebtSnapshot(ctx context.Context, routingKey, debtKey string) (*DebtSnapshot, error) {
	var body struct {
		Objetores *DebtSnapshot `json:"objetores"`
	}
	if _, err := g.get(ctx, g.cfg.DebtSimulationURL, url.Values{
		common.RoutingKeyParam: {g.routingKey(routingKey)},
		"llave":                {debtKey},
	}, &body); err != nil {
		return nil, err
	}
	if body.Objetores == nil || body.Objetores.Closing == nil {
		return nil, &common.RemoteError{Kind: common.ErrRemoteRejected, Message: "debt simulation without cierre for " + debtKey}
	}
	return body.Objetores, nil
}

// RemoteAction is one collection event as returned by the Target.
type RemoteAction struct {
	ActionID  jsonx.Text `json:"idgestion"`
	CreditID  jsonx.Text `json:"idcredito"`
	Task      jsonx.Text `json:"tarea"`
	ActionAt  jsonx.Text `json:"fechagestion"`
	Action    jsonx.Text `json:"accion"`
	Note      jsonx.Text `json:"gestion"`
	PartyName jsonx.Text `json:"nombretercero"`
}

// Actions lists the collection events of a credit recorded after since.
func (g *Gateway) Actions(ctx context.Context, routingKey, creditID string, since time.Time) ([]RemoteAction, error) {
	var body struct {
		Gestiones []RemoteAction `json:"gestiones"`
	}
	status, err := g.get(ctx, g.cfg.ActionsURL, url.Values{
		common.RoutingKeyParam: {g.routingKey(routingKey)},
		"credito":              {creditID},
		"desde":                {since.Format("2006-01-02T15:04:05")},
	}, &body)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return body.Gestiones, nil
}

// get decodes a 2xx JSON response into v. The status is returned alongside
// errors so callers can special-case 404.
func (g *Gateway) get(ctx context.Context, endpoint string, q url.Values, v any) (int, error) {
	u, err := netx.BuildURL(endpoint, "", q)
	if err != nil {
		return 0, err
	}
	resp, err := g.http.Do(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return 0, err
	}
	if !gateway.IsSuccess(resp.Status) {
		return resp.Status, &common.RemoteError{Kind: common.ErrRemoteRejected, Status: resp.Status, Message: resp.Snippet()}
	}
	return resp.Status, resp.Decode(v)
}

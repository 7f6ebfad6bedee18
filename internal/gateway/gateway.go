// Package gateway holds the contract shared by the Source and Target
// gateways. Gateways speak HTTP only and never touch local storage.
package gateway

import (
	"context"
	"net/http"
)

type Entity string

const (
	Clients      Entity = "clients"
	Credits      Entity = "credits"
	Payments     Entity = "payments"
	Installments Entity = "installments"
	Actions      Entity = "actions"
)

// Ack is the remote verdict on one submitted record.
type Ack struct {
	Accepted bool
	Code     int
	Message  string
}

// TokenProvider supplies the Source System token. Refresh replaces a token
// the Source refused.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context, stale string) (string, error)
}

// IsAuthStatus reports whether status means the credential was refused.
func IsAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// IsSuccess reports a 2xx status.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// Package models holds the locally stored entities kept in sync with the
// Source and Target systems.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ExportStatus tracks whether a row has been acknowledged by the remote
// system it is exported to.
type ExportStatus string

const (
	StatusPending  ExportStatus = "pending"
	StatusExported ExportStatus = "exported"
)

// ClientCompany is one (client, company routing key) association taken from
// the credits table.
type ClientCompany struct {
	ClientID   string
	CompanyKey string
}

// fingerprint hashes the JSON form of v. Callers zero bookkeeping fields
// first so only mapped fields take part.
func fingerprint(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

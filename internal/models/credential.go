package models

import (
	"log/slog"
	"time"
)

// Credential is the decrypted form of a vault record. It never leaves the
// process and redacts itself when logged.
type Credential struct {
	ServiceName string
	Username    string
	Password    string
	Token       string
	ExpiresAt   *time.Time
	Metadata    map[string]string
}

// Expired reports whether the token is missing or expires within margin.
func (c *Credential) Expired(now time.Time, margin time.Duration) bool {
	if c.Token == "" || c.ExpiresAt == nil {
		return true
	}
	return !now.Add(margin).Before(*c.ExpiresAt)
}

func (c Credential) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("service", c.ServiceName)}
	if c.ExpiresAt != nil {
		attrs = append(attrs, slog.Time("expires_at", *c.ExpiresAt))
	}
	return slog.GroupValue(attrs...)
}

// CredentialRecord is the encrypted form stored in the credentials table.
type CredentialRecord struct {
	ID          string
	ServiceName string
	UsernameEnc string
	PasswordEnc string
	TokenEnc    string
	ExpiresAt   *time.Time
	Metadata    []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

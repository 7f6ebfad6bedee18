// Package vault keeps remote-system credentials encrypted at rest and hands
// out decrypted copies to the gateways.
package vault

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fincoval/creditsync/internal/config"
	"github.com/fincoval/creditsync/internal/cryptox"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/fincoval/creditsync/internal/repositories/credentials"
)

var ErrNoKey = errors.New("vault: passphrase or key required")

// KeyFromConfig returns the raw AES key, or derives one from the passphrase
// and salt with argon2id.
func KeyFromConfig(cfg config.VaultConfig) ([]byte, error) {
	if cfg.KeyHex != "" {
		key, err := hex.DecodeString(cfg.KeyHex)
		if err != nil {
			return nil, fmt.Errorf("vault: bad key: %w", err)
		}
		if len(key) != cryptox.KeySize {
			return nil, fmt.Errorf("vault: key must be %d bytes, got %d", cryptox.KeySize, len(key))
		}
		return key, nil
	}
	if cfg.Passphrase == "" {
		return nil, ErrNoKey
	}
	return cryptox.DeriveMasterKey([]byte(cfg.Passphrase), []byte(cfg.Salt)), nil
}

type Vault struct {
	repo credentials.Repository
	key  []byte
}

func New(repo credentials.Repository, key []byte) *Vault {
	return &Vault{repo: repo, key: key}
}

// Get returns common.ErrorNotFound when service has no stored credential.
func (v *Vault) Get(ctx context.Context, service string) (*models.Credential, error) {
	rec, err := v.repo.Get(ctx, service)
	if err != nil {
		return nil, err
	}
	return v.open(rec)
}

func (v *Vault) Save(ctx context.Context, c *models.Credential) error {
	rec, err := v.seal(c)
	if err != nil {
		return err
	}
	return v.repo.Create(ctx, rec)
}

func (v *Vault) Update(ctx context.Context, c *models.Credential) error {
	rec, err := v.seal(c)
	if err != nil {
		return err
	}
	return v.repo.Update(ctx, rec)
}

func (v *Vault) seal(c *models.Credential) (*models.CredentialRecord, error) {
	rec := &models.CredentialRecord{ServiceName: c.ServiceName, ExpiresAt: c.ExpiresAt}

	var err error
	if rec.UsernameEnc, err = cryptox.SealString(c.Username, v.key); err != nil {
		return nil, fmt.Errorf("vault: seal username: %w", err)
	}
	if rec.PasswordEnc, err = cryptox.SealString(c.Password, v.key); err != nil {
		return nil, fmt.Errorf("vault: seal password: %w", err)
	}
	if rec.TokenEnc, err = cryptox.SealString(c.Token, v.key); err != nil {
		return nil, fmt.Errorf("vault: seal token: %w", err)
	}
	if len(c.Metadata) > 0 {
		if rec.Metadata, err = json.Marshal(c.Metadata); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (v *Vault) open(rec *models.CredentialRecord) (*models.Credential, error) {
	c := &models.Credential{ServiceName: rec.ServiceName, ExpiresAt: rec.ExpiresAt}

	var err error
	if c.Username, err = cryptox.OpenString(rec.UsernameEnc, v.key); err != nil {
		return nil, fmt.Errorf("vault: open username: %w", err)
	}
	if c.Password, err = cryptox.OpenString(rec.PasswordEnc, v.key); err != nil {
		return nil, fmt.Errorf("vault: open password: %w", err)
	}
	if c.Token, err = cryptox.OpenString(rec.TokenEnc, v.key); err != nil {
		return nil, fmt.Errorf("vault: open token: %w", err)
	}
	if len(rec.Metadata) > 0 {
		if err := json.Unmarshal(rec.Metadata, &c.Metadata); err != nil {
			return nil, fmt.Errorf("vault: metadata: %w", err)
		}
	}
	return c, nil
}

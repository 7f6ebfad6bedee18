package vault

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/logging"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// LoginFunc exchanges a username and password for a fresh token.
type LoginFunc func(ctx context.Context, username, password string) (string, error)

// Store is the part of Vault that SourceTokens needs.
type Store interface {
	Get(ctx context.Context, service string) (*models.Credential, error)
	Save(ctx context.Context, c *models.Credential) error
	Update(ctx context.Context, c *models.Credential) error
}

// SourceTokens keeps the Source System token in the vault and renews it
// when it is about to expire. The decrypted credential is cached in memory
// so the hot path touches neither the database nor the cipher.
type SourceTokens struct {
	store    Store
	login    LoginFunc
	service  string
	username string
	password string
	validity time.Duration
	margin   time.Duration
	logger   logging.Logger
	now      func() time.Time

	mu     sync.RWMutex
	cached *models.Credential
}

type TokenOptions struct {
	Service  string
	Username string
	Password string
	Validity time.Duration
	Margin   time.Duration
}

// NewSourceTokens builds a token provider. Username and Password are the
// fallback used when the vault has no stored login.
func NewSourceTokens(store Store, login LoginFunc, opts TokenOptions, logger logging.Logger) *SourceTokens {
	if opts.Service == "" {
		opts.Service = common.SourceCredentialName
	}
	return &SourceTokens{
		store:    store,
		login:    login,
		service:  opts.Service,
		username: opts.Username,
		password: opts.Password,
		validity: opts.Validity,
		margin:   opts.Margin,
		logger:   logger,
		now:      time.Now,
	}
}

// Token returns the cached token unless it expires within the margin.
func (s *SourceTokens) Token(ctx context.Context) (string, error) {
	if token, ok := s.fresh(""); ok {
		return token, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.freshLocked(""); ok {
		return token, nil
	}
	cred, found, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if found && !cred.Expired(s.now(), s.margin) {
		s.cached = cred
		return cred.Token, nil
	}
	return s.renew(ctx, cred, found)
}

// Refresh logs in again because stale was refused. When another caller has
// already replaced stale, its token is returned without a new login. The
// stored login is re-read so that a credential changed in the vault is used.
func (s *SourceTokens) Refresh(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.freshLocked(stale); ok {
		return token, nil
	}
	cred, found, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return s.renew(ctx, cred, found)
}

// Invalidate drops the in-memory credential; the next call reads the vault.
func (s *SourceTokens) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

func (s *SourceTokens) fresh(stale string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.freshLocked(stale)
}

// freshLocked reports the cached token when it is usable and differs from
// stale. An empty stale matches nothing.
func (s *SourceTokens) freshLocked(stale string) (string, bool) {
	c := s.cached
	if c == nil || c.Token == "" || c.Token == stale || c.Expired(s.now(), s.margin) {
		return "", false
	}
	return c.Token, true
}

// load returns the stored credential, or an unsaved one built from the
// configured login when the vault has none.
func (s *SourceTokens) load(ctx context.Context) (*models.Credential, bool, error) {
	cred, err := s.store.Get(ctx, s.service)
	if err == nil {
		if cred.Username == "" {
			cred.Username, cred.Password = s.username, s.password
		}
		return cred, true, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, false, err
	}
	return &models.Credential{ServiceName: s.service, Username: s.username, Password: s.password}, false, nil
}

func (s *SourceTokens) renew(ctx context.Context, cred *models.Credential, found bool) (string, error) {
	if cred.Username == "" {
		return "", &common.RemoteError{Kind: common.ErrAuthExpired, Message: "no login configured for " + s.service}
	}

	token, err := s.login(ctx, cred.Username, cred.Password)
	if err != nil {
		return "", err
	}

	expires := s.expiry(token)
	cred.Token = token
	cred.ExpiresAt = &expires

	if found {
		err = s.store.Update(ctx, cred)
	} else {
		err = s.store.Save(ctx, cred)
	}
	if err != nil {
		return "", err
	}

	s.cached = cred
	s.logger.Info(ctx, "source token renewed", "credential", *cred)
	return token, nil
}

// expiry is now+validity, or the JWT exp claim when that comes earlier.
func (s *SourceTokens) expiry(token string) time.Time {
	exp := s.now().Add(s.validity)

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		if claims.ExpiresAt.Time.Before(exp) {
			exp = claims.ExpiresAt.Time
		}
	}
	return exp.UTC()
}

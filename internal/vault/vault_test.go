package vault

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/config"
	"github.com/fincoval/creditsync/internal/cryptox"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	recs map[string]*models.CredentialRecord
	gets int
}

func newMemRepo() *memRepo { return &memRepo{recs: map[string]*models.CredentialRecord{}} }

func (m *memRepo) Get(_ context.Context, name string) (*models.CredentialRecord, error) {
	m.gets++
	r, ok := m.recs[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) Create(_ context.Context, rec *models.CredentialRecord) error {
	if _, ok := m.recs[rec.ServiceName]; ok {
		return common.StorageError(assert.AnError)
	}
	cp := *rec
	m.recs[rec.ServiceName] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, rec *models.CredentialRecord) error {
	if _, ok := m.recs[rec.ServiceName]; !ok {
		return common.ErrorNotFound
	}
	cp := *rec
	m.recs[rec.ServiceName] = &cp
	return nil
}

func testKey() []byte {
	return cryptox.DeriveMasterKey([]byte("passphrase"), []byte("salt"))
}

func TestKeyFromConfig(t *testing.T) {
	key, err := KeyFromConfig(config.VaultConfig{KeyHex: strings.Repeat("ab", 32)})
	require.NoError(t, err)
	assert.Len(t, key, cryptox.KeySize)

	_, err = KeyFromConfig(config.VaultConfig{KeyHex: "abcd"})
	assert.Error(t, err)

	_, err = KeyFromConfig(config.VaultConfig{KeyHex: "zz"})
	assert.Error(t, err)

	key, err = KeyFromConfig(config.VaultConfig{Passphrase: "passphrase", Salt: "salt"})
	require.NoError(t, err)
	assert.Equal(t, testKey(), key)

	_, err = KeyFromConfig(config.VaultConfig{})
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestVault_SaveGetUpdate(t *testing.T) {
	repo := newMemRepo()
	v := New(repo, testKey())
	ctx := context.Background()

	exp := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	in := &models.Credential{ServiceName: "source_api", Username: "api", Password: "s3cret", Token: "tok", ExpiresAt: &exp,
		Metadata: map[string]string{"company": "900123"}}
	require.NoError(t, v.Save(ctx, in))

	stored := repo.recs["source_api"]
	assert.NotContains(t, stored.PasswordEnc, "s3cret")
	assert.NotEqual(t, "tok", stored.TokenEnc)

	got, err := v.Get(ctx, "source_api")
	require.NoError(t, err)
	assert.Equal(t, "api", got.Username)
	assert.Equal(t, "s3cret", got.Password)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "900123", got.Metadata["company"])

	got.Token = "tok2"
	require.NoError(t, v.Update(ctx, got))
	again, err := v.Get(ctx, "source_api")
	require.NoError(t, err)
	assert.Equal(t, "tok2", again.Token)

	_, err = v.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestVault_WrongKey(t *testing.T) {
	repo := newMemRepo()
	require.NoError(t, New(repo, testKey()).Save(context.Background(), &models.Credential{ServiceName: "x", Password: "p"}))

	other := cryptox.DeriveMasterKey([]byte("other"), []byte("salt"))
	_, err := New(repo, other).Get(context.Background(), "x")
	assert.Error(t, err)
}

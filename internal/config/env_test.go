package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnv(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	applyEnv(cfg, &EnvConfig{
		DatabaseDSN:      "postgres://x",
		DatabaseMaxConns: "5",
		SourceUsername:   "api",
		SourcePassword:   "pw",
		SourceCompanyKey: "FINCOVAL",
		TargetRoutingKey: "170308620248819112351",
		VaultPassphrase:  "pass",
		Concurrency:      "3",
		ReexportOnChange: "true",
		KafkaBrokers:     "k1:9092, k2:9092,",
	})

	assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
	assert.Equal(t, 5, cfg.DatabaseMaxConns)
	assert.Equal(t, "api", cfg.Source.Username)
	assert.Equal(t, "pw", cfg.Source.Password)
	assert.Equal(t, "FINCOVAL", cfg.Source.CompanyKey)
	assert.Equal(t, "170308620248819112351", cfg.Target.DefaultRoutingKey)
	assert.Equal(t, "pass", cfg.Vault.Passphrase)
	assert.Equal(t, 3, cfg.Sync.Concurrency)
	assert.True(t, cfg.Sync.ReexportOnChange)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)

	// unset values keep defaults
	assert.Equal(t, ":8080", cfg.OpsHTTPAddr)
}

func TestApplyEnv_InvalidValuesPanic(t *testing.T) {
	cfg := &Config{}
	require.Panics(t, func() { applyEnv(cfg, &EnvConfig{Concurrency: "ten"}) })
	require.Panics(t, func() { applyEnv(cfg, &EnvConfig{ReexportOnChange: "maybe"}) })
}

func TestSetters(t *testing.T) {
	var d time.Duration
	setDuration(&d, "90s")
	assert.Equal(t, 90*time.Second, d)

	var ts time.Time
	setDate(&ts, "2025-03-01")
	assert.Equal(t, "2025-03-01", ts.Format(dateLayout))
	setDate(&ts, "2024-12-13T00:00:00Z")
	assert.Equal(t, "2024-12-13", ts.Format(dateLayout))
	require.Panics(t, func() { setDate(&ts, "13/12/2024") })
}

func TestParseEnv_MissingEnvFilePanics(t *testing.T) {
	cfg := &Config{}
	require.Panics(t, func() { parseEnv(cfg, []string{"-env-file", "/does/not/exist.env"}) })
}

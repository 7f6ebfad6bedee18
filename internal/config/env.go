package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/fincoval/creditsync/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// EnvConfig is the environment DTO. Every field is a string so that an unset
// variable can be told apart from a zero value; parseEnv converts them.
type EnvConfig struct {
	DatabaseDSN      string `env:"CREDSYNC_DATABASE_DSN"`
	DatabaseMaxConns string `env:"CREDSYNC_DATABASE_MAX_CONNS"`
	OpsHTTPAddr      string `env:"CREDSYNC_OPS_HTTP_ADDR"`
	HealthGRPCAddr   string `env:"CREDSYNC_HEALTH_GRPC_ADDR"`
	LogLevel         string `env:"CREDSYNC_LOG_LEVEL"`
	TracingEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	SourceBaseURL    string `env:"CREDSYNC_SOURCE_BASE_URL"`
	SourceUsername   string `env:"CREDSYNC_SOURCE_USERNAME"`
	SourcePassword   string `env:"CREDSYNC_SOURCE_PASSWORD"`
	SourceCompanyKey string `env:"CREDSYNC_SOURCE_COMPANY_KEY"`
	SourcePageSize   string `env:"CREDSYNC_SOURCE_PAGE_SIZE"`

	TargetClientsURL        string `env:"CREDSYNC_TARGET_CLIENTS_URL"`
	TargetCreditsURL        string `env:"CREDSYNC_TARGET_CREDITS_URL"`
	TargetPaymentsURL       string `env:"CREDSYNC_TARGET_PAYMENTS_URL"`
	TargetDebtKeyURL        string `env:"CREDSYNC_TARGET_DEBT_KEY_URL"`
	TargetDebtSimulationURL string `env:"CREDSYNC_TARGET_DEBT_SIMULATION_URL"`
	TargetActionsURL        string `env:"CREDSYNC_TARGET_ACTIONS_URL"`
	TargetRoutingKey        string `env:"CREDSYNC_TARGET_ROUTING_KEY"`

	VaultPassphrase string `env:"CREDSYNC_VAULT_PASSPHRASE"`
	VaultSalt       string `env:"CREDSYNC_VAULT_SALT"`
	VaultKeyHex     string `env:"CREDSYNC_VAULT_KEY"`

	Concurrency      string `env:"CREDSYNC_CONCURRENCY"`
	ReexportOnChange string `env:"CREDSYNC_REEXPORT_ON_CHANGE"`
	TimeZone         string `env:"CREDSYNC_TIMEZONE"`

	S3Bucket       string `env:"CREDSYNC_S3_BUCKET"`
	S3Region       string `env:"CREDSYNC_S3_REGION"`
	S3BaseEndpoint string `env:"CREDSYNC_S3_BASE_ENDPOINT"`
	S3AccessKey    string `env:"CREDSYNC_S3_ACCESS_KEY"`
	S3SecretKey    string `env:"CREDSYNC_S3_SECRET_KEY"`

	KafkaBrokers string `env:"CREDSYNC_KAFKA_BROKERS"`
	KafkaTopic   string `env:"CREDSYNC_KAFKA_TOPIC"`
}

// parseEnv loads an optional dotenv file and overlays non-empty environment
// variables onto config.
//
// The dotenv path comes from -env-file; without it, ./.env is loaded when it
// exists. Variables already present in the process environment win over the
// file. Invalid values panic, like the other configuration layers.
func parseEnv(config *Config, args []string) {
	if err := loadDotEnv(flagx.EnvFileFlags(args)); err != nil {
		panic(err)
	}

	e := &EnvConfig{}
	if _, err := env.UnmarshalFromEnviron(e); err != nil {
		panic(err)
	}

	applyEnv(config, e)
}

func loadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(defaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config, e *EnvConfig) {
	setString(&c.DatabaseDSN, e.DatabaseDSN)
	setInt(&c.DatabaseMaxConns, e.DatabaseMaxConns)
	setString(&c.OpsHTTPAddr, e.OpsHTTPAddr)
	setString(&c.HealthGRPCAddr, e.HealthGRPCAddr)
	setString(&c.LogLevel, e.LogLevel)
	setString(&c.TracingEndpoint, e.TracingEndpoint)

	setString(&c.Source.BaseURL, e.SourceBaseURL)
	setString(&c.Source.Username, e.SourceUsername)
	setString(&c.Source.Password, e.SourcePassword)
	setString(&c.Source.CompanyKey, e.SourceCompanyKey)
	setInt(&c.Source.PageSize, e.SourcePageSize)

	setString(&c.Target.ClientsURL, e.TargetClientsURL)
	setString(&c.Target.CreditsURL, e.TargetCreditsURL)
	setString(&c.Target.PaymentsURL, e.TargetPaymentsURL)
	setString(&c.Target.DebtKeyURL, e.TargetDebtKeyURL)
	setString(&c.Target.DebtSimulationURL, e.TargetDebtSimulationURL)
	setString(&c.Target.ActionsURL, e.TargetActionsURL)
	setString(&c.Target.DefaultRoutingKey, e.TargetRoutingKey)

	setString(&c.Vault.Passphrase, e.VaultPassphrase)
	setString(&c.Vault.Salt, e.VaultSalt)
	setString(&c.Vault.KeyHex, e.VaultKeyHex)

	setInt(&c.Sync.Concurrency, e.Concurrency)
	setBool(&c.Sync.ReexportOnChange, e.ReexportOnChange)
	setString(&c.Schedule.TimeZone, e.TimeZone)

	setString(&c.Archive.S3Bucket, e.S3Bucket)
	setString(&c.Archive.S3Region, e.S3Region)
	setString(&c.Archive.S3BaseEndpoint, e.S3BaseEndpoint)
	setString(&c.Archive.S3AccessKey, e.S3AccessKey)
	setString(&c.Archive.S3SecretKey, e.S3SecretKey)

	setList(&c.Events.Brokers, e.KafkaBrokers)
	setString(&c.Events.Topic, e.KafkaTopic)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v string) {
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		panic(fmt.Errorf("invalid integer %q: %w", v, err))
	}
	*dst = n
}

func setBool(dst *bool, v string) {
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		panic(fmt.Errorf("invalid bool %q: %w", v, err))
	}
	*dst = b
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		panic(fmt.Errorf("invalid duration %q: %w", v, err))
	}
	*dst = d
}

func setDate(dst *time.Time, v string) {
	if v == "" {
		return
	}
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		*dst = t
		return
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		panic(fmt.Errorf("invalid date %q: %w", v, err))
	}
	*dst = t
}

func setList(dst *[]string, v string) {
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

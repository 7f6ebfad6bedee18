package config

import (
	"encoding/json"
	"os"

	"github.com/fincoval/creditsync/internal/flagx"
	"github.com/fincoval/creditsync/internal/timex"
)

// JsonConfig is the DTO for JSON configuration files. Durations use
// timex.Duration so both "30s" and integer nanoseconds are accepted; cutoff
// dates are "YYYY-MM-DD" or RFC 3339 strings. Absent fields leave the current
// value untouched.
type JsonConfig struct {
	DatabaseDSN      string `json:"database_dsn"`
	DatabaseMaxConns int    `json:"database_max_conns"`
	OpsHTTPAddr      string `json:"ops_http_addr"`
	HealthGRPCAddr   string `json:"health_grpc_addr"`
	LogLevel         string `json:"log_level"`
	TracingEndpoint  string `json:"tracing_endpoint"`

	Source struct {
		BaseURL          string         `json:"base_url"`
		LoginPath        string         `json:"login_path"`
		ClientsPath      string         `json:"clients_path"`
		CreditsPath      string         `json:"credits_path"`
		PaymentsPath     string         `json:"payments_path"`
		InstallmentsPath string         `json:"installments_path"`
		ActionsPath      string         `json:"actions_path"`
		PageSize         int            `json:"page_size"`
		MaxPages         int            `json:"max_pages"`
		TokenValidity    timex.Duration `json:"token_validity"`
		TokenMargin      timex.Duration `json:"token_margin"`
		RequestTimeout   timex.Duration `json:"request_timeout"`
		CompanyKey       string         `json:"company_key"`
		Tag              string         `json:"tag"`
	} `json:"source"`

	Target struct {
		ClientsURL        string         `json:"clients_url"`
		CreditsURL        string         `json:"credits_url"`
		PaymentsURL       string         `json:"payments_url"`
		DebtKeyURL        string         `json:"debt_key_url"`
		DebtSimulationURL string         `json:"debt_simulation_url"`
		ActionsURL        string         `json:"actions_url"`
		DefaultRoutingKey string         `json:"default_routing_key"`
		RequestTimeout    timex.Duration `json:"request_timeout"`
	} `json:"target"`

	Sync struct {
		Concurrency      int               `json:"concurrency"`
		PaymentCutoff    string            `json:"payment_cutoff"`
		ActionCutoff     string            `json:"action_cutoff"`
		EnsureAttempts   int               `json:"ensure_attempts"`
		EnsureInterval   timex.Duration    `json:"ensure_interval"`
		ReexportOnChange *bool             `json:"reexport_on_change"`
		CityCodes        map[string]string `json:"city_codes"`
	} `json:"sync"`

	Schedule struct {
		TimeZone       string `json:"time_zone"`
		TokenRefresh   string `json:"token_refresh"`
		InboundSync    string `json:"inbound_sync"`
		OutboundExport string `json:"outbound_export"`
		SnapshotSync   string `json:"snapshot_sync"`
		ActionSync     string `json:"action_sync"`
		RunOnStart     *bool  `json:"run_on_start"`
	} `json:"schedule"`

	Archive struct {
		S3Bucket       string `json:"s3_bucket"`
		S3Region       string `json:"s3_region"`
		S3BaseEndpoint string `json:"s3_base_endpoint"`
		Prefix         string `json:"prefix"`
		LocalDir       string `json:"local_dir"`
	} `json:"archive"`

	Events struct {
		Brokers []string `json:"brokers"`
		Topic   string   `json:"topic"`
	} `json:"events"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag in args. Without the flag nothing is loaded. An unreadable file
// or invalid JSON panics. Secrets (vault passphrase, Source login, S3 keys)
// are deliberately not accepted here.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.JsonConfigFlags(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	applyJson(config, c)
}

func applyJson(config *Config, c *JsonConfig) {
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setPositive(&config.DatabaseMaxConns, c.DatabaseMaxConns)
	setString(&config.OpsHTTPAddr, c.OpsHTTPAddr)
	setString(&config.HealthGRPCAddr, c.HealthGRPCAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.TracingEndpoint, c.TracingEndpoint)

	s := &config.Source
	setString(&s.BaseURL, c.Source.BaseURL)
	setString(&s.LoginPath, c.Source.LoginPath)
	setString(&s.ClientsPath, c.Source.ClientsPath)
	setString(&s.CreditsPath, c.Source.CreditsPath)
	setString(&s.PaymentsPath, c.Source.PaymentsPath)
	setString(&s.InstallmentsPath, c.Source.InstallmentsPath)
	setString(&s.ActionsPath, c.Source.ActionsPath)
	setPositive(&s.PageSize, c.Source.PageSize)
	setPositive(&s.MaxPages, c.Source.MaxPages)
	if c.Source.TokenValidity.Duration > 0 {
		s.TokenValidity = c.Source.TokenValidity.Duration
	}
	if c.Source.TokenMargin.Duration > 0 {
		s.TokenMargin = c.Source.TokenMargin.Duration
	}
	if c.Source.RequestTimeout.Duration > 0 {
		s.RequestTimeout = c.Source.RequestTimeout.Duration
	}
	setString(&s.CompanyKey, c.Source.CompanyKey)
	setString(&s.Tag, c.Source.Tag)

	t := &config.Target
	setString(&t.ClientsURL, c.Target.ClientsURL)
	setString(&t.CreditsURL, c.Target.CreditsURL)
	setString(&t.PaymentsURL, c.Target.PaymentsURL)
	setString(&t.DebtKeyURL, c.Target.DebtKeyURL)
	setString(&t.DebtSimulationURL, c.Target.DebtSimulationURL)
	setString(&t.ActionsURL, c.Target.ActionsURL)
	setString(&t.DefaultRoutingKey, c.Target.DefaultRoutingKey)
	if c.Target.RequestTimeout.Duration > 0 {
		t.RequestTimeout = c.Target.RequestTimeout.Duration
	}

	y := &config.Sync
	setPositive(&y.Concurrency, c.Sync.Concurrency)
	setDate(&y.PaymentCutoff, c.Sync.PaymentCutoff)
	setDate(&y.ActionCutoff, c.Sync.ActionCutoff)
	setPositive(&y.EnsureAttempts, c.Sync.EnsureAttempts)
	if c.Sync.EnsureInterval.Duration > 0 {
		y.EnsureInterval = c.Sync.EnsureInterval.Duration
	}
	if c.Sync.ReexportOnChange != nil {
		y.ReexportOnChange = *c.Sync.ReexportOnChange
	}
	if len(c.Sync.CityCodes) > 0 {
		y.CityCodes = c.Sync.CityCodes
	}

	h := &config.Schedule
	setString(&h.TimeZone, c.Schedule.TimeZone)
	setString(&h.TokenRefresh, c.Schedule.TokenRefresh)
	setString(&h.InboundSync, c.Schedule.InboundSync)
	setString(&h.OutboundExport, c.Schedule.OutboundExport)
	setString(&h.SnapshotSync, c.Schedule.SnapshotSync)
	setString(&h.ActionSync, c.Schedule.ActionSync)
	if c.Schedule.RunOnStart != nil {
		h.RunOnStart = *c.Schedule.RunOnStart
	}

	a := &config.Archive
	setString(&a.S3Bucket, c.Archive.S3Bucket)
	setString(&a.S3Region, c.Archive.S3Region)
	setString(&a.S3BaseEndpoint, c.Archive.S3BaseEndpoint)
	setString(&a.Prefix, c.Archive.Prefix)
	setString(&a.LocalDir, c.Archive.LocalDir)

	if len(c.Events.Brokers) > 0 {
		config.Events.Brokers = c.Events.Brokers
	}
	setString(&config.Events.Topic, c.Events.Topic)
}

func setPositive(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

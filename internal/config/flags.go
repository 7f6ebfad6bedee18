package config

import (
	"flag"
	"io"
	"time"

	"github.com/fincoval/creditsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   ops HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-w int      per-pass concurrency cap
//	-t int      remote request timeout, seconds (both gateways)
//	-k string   default Target routing key
//	-s string   Source System base URL
//	-l string   log level
//	-b string   S3 archive bucket
//	-p int      Source System page size
//
// Only these flags are parsed; args are filtered with flagx.FilterArgs first
// so that subcommand flags do not collide.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-w", "-t", "-k", "-s", "-l", "-b", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.OpsHTTPAddr, "a", config.OpsHTTPAddr, "ops HTTP address")
	fs.StringVar(&config.HealthGRPCAddr, "g", config.HealthGRPCAddr, "gRPC health address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.Sync.Concurrency, "w", config.Sync.Concurrency, "concurrency cap per pass")

	requestTimeout := fs.Int("t", int(config.Source.RequestTimeout.Seconds()), "remote request timeout (in seconds)")

	fs.StringVar(&config.Target.DefaultRoutingKey, "k", config.Target.DefaultRoutingKey, "default routing key")
	fs.StringVar(&config.Source.BaseURL, "s", config.Source.BaseURL, "source base URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.Archive.S3Bucket, "b", config.Archive.S3Bucket, "S3 archive bucket")
	fs.IntVar(&config.Source.PageSize, "p", config.Source.PageSize, "source page size")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	timeout := time.Duration(*requestTimeout) * time.Second
	if timeout != config.Source.RequestTimeout {
		config.Source.RequestTimeout = timeout
		config.Target.RequestTimeout = timeout
	}
}

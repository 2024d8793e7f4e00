// Package config centralizes process configuration for the pipeline and its
// companion tools. All tunables are sourced from command-line flags with
// environment-variable fallbacks (12-factor style), so every binary works
// with zero flags when the environment — or a .env file in the working
// directory — supplies the values.
//
// Typical usage:
//
//	cfg := config.Load() // godotenv + os.Args + os.Environ
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg, err := config.LoadFromArgs(fs, getenv, []string{"-db_driver=sqlite"})
package config

import (
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Supported sink drivers.
const (
	DriverPostgres = "postgres"
	DriverMSSQL    = "mssql"
	DriverSQLite   = "sqlite"
)

// Config holds all process configuration derived from flags and environment
// variables. Fields are plain values, safe to copy after construction.
type Config struct {
	// Input file locations.
	MerchantsCSV    string // Path to the merchants CSV.
	TransactionsCSV string // Path to the transactions CSV.

	// Sink connectivity. A full DSN wins; otherwise one is assembled from
	// the discrete parts (postgres/mssql only — sqlite takes its database
	// file path as the DSN).
	DBDriver   string // "postgres", "mssql" or "sqlite".
	DSN        string // Full DSN / sqlite file path.
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string

	// Metrics emission.
	MetricsBackend string // "none", "prometheus" or "datadog".
	PushgatewayURL string // Prometheus Pushgateway base URL.
	StatsdAddr     string // DogStatsD address, e.g. "127.0.0.1:8125".

	LogLevel string // debug, info, warn, error.
}

// Error reports every configuration problem found during validation, so a
// misconfigured run fails once with the full list instead of one key at a
// time. It is fatal before any I/O happens.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration: %s", strings.Join(e.Problems, "; "))
}

// LoadFromArgs builds a Config by defining flags on fs, seeding each flag's
// default from the environment via getenv, then parsing args.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
//
// A parse error is returned as-is; with flag.ContinueOnError the caller
// decides, with flag.ExitOnError the process has already exited.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) (*Config, error) {
	cfg := &Config{}

	envOr := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}

	fs.StringVar(&cfg.MerchantsCSV, "merchants_csv", envOr("ETL_MERCHANTS_CSV", "data/merchants.csv"), "Path to merchants CSV")
	fs.StringVar(&cfg.TransactionsCSV, "transactions_csv", envOr("ETL_TRANSACTIONS_CSV", "data/transactions.csv"), "Path to transactions CSV")

	fs.StringVar(&cfg.DBDriver, "db_driver", envOr("ETL_DB_DRIVER", DriverPostgres), "Sink driver: postgres, mssql or sqlite")
	fs.StringVar(&cfg.DSN, "dsn", getenv("ETL_DB_DSN"), "Full DSN (sqlite: database file path)")
	fs.StringVar(&cfg.DBHost, "db_host", getenv("ETL_DB_HOST"), "Sink host")
	fs.StringVar(&cfg.DBPort, "db_port", getenv("ETL_DB_PORT"), "Sink port (defaults per driver)")
	fs.StringVar(&cfg.DBName, "db_name", getenv("ETL_DB_NAME"), "Sink database name")
	fs.StringVar(&cfg.DBUser, "db_user", getenv("ETL_DB_USER"), "Sink user")
	fs.StringVar(&cfg.DBPassword, "db_password", getenv("ETL_DB_PASSWORD"), "Sink password")

	fs.StringVar(&cfg.MetricsBackend, "metrics_backend", envOr("ETL_METRICS_BACKEND", "none"), "Metrics backend: none, prometheus or datadog")
	fs.StringVar(&cfg.PushgatewayURL, "pushgateway_url", getenv("ETL_PUSHGATEWAY_URL"), "Prometheus Pushgateway URL")
	fs.StringVar(&cfg.StatsdAddr, "statsd_addr", envOr("ETL_STATSD_ADDR", "127.0.0.1:8125"), "DogStatsD address")

	fs.StringVar(&cfg.LogLevel, "log_level", envOr("ETL_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is the production entry point. It loads a .env file when one exists
// in the working directory, then wires the loader to flag.CommandLine,
// os.Getenv and os.Args[1:].
func Load() *Config {
	_ = godotenv.Load()
	cfg, err := LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
	if err != nil {
		// flag.CommandLine is ExitOnError; this only runs if that changes.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

// ValidateSink checks that the sink side of the configuration is complete:
// a known driver and a DSN that is either given or assemblable from parts.
// All problems are reported at once.
func (c *Config) ValidateSink() error {
	var problems []string

	switch c.DBDriver {
	case DriverPostgres, DriverMSSQL:
		if c.DSN == "" {
			for _, p := range []struct{ key, val string }{
				{"db_host (ETL_DB_HOST)", c.DBHost},
				{"db_name (ETL_DB_NAME)", c.DBName},
				{"db_user (ETL_DB_USER)", c.DBUser},
				{"db_password (ETL_DB_PASSWORD)", c.DBPassword},
			} {
				if p.val == "" {
					problems = append(problems, "missing "+p.key)
				}
			}
		}
	case DriverSQLite:
		if c.DSN == "" {
			problems = append(problems, "missing dsn (ETL_DB_DSN): sqlite needs a database file path")
		}
	case "":
		problems = append(problems, "missing db_driver (ETL_DB_DRIVER)")
	default:
		problems = append(problems, fmt.Sprintf("unknown db_driver %q (want postgres, mssql or sqlite)", c.DBDriver))
	}

	if len(problems) > 0 {
		return &Error{Problems: problems}
	}
	return nil
}

// ValidateInputs checks that both input file paths are configured. It does
// not stat the files; open errors surface from the extractor.
func (c *Config) ValidateInputs() error {
	var problems []string
	if c.MerchantsCSV == "" {
		problems = append(problems, "missing merchants_csv (ETL_MERCHANTS_CSV)")
	}
	if c.TransactionsCSV == "" {
		problems = append(problems, "missing transactions_csv (ETL_TRANSACTIONS_CSV)")
	}
	if len(problems) > 0 {
		return &Error{Problems: problems}
	}
	return nil
}

// SinkDSN returns the connection string for the configured driver,
// assembling one from discrete parts when no full DSN was given.
// ValidateSink should have passed before calling this.
func (c *Config) SinkDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	switch c.DBDriver {
	case DriverPostgres:
		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.DBUser, c.DBPassword),
			Host:   net.JoinHostPort(c.DBHost, c.portOr("5432")),
			Path:   "/" + c.DBName,
		}
		return u.String()
	case DriverMSSQL:
		u := &url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     net.JoinHostPort(c.DBHost, c.portOr("1433")),
			RawQuery: "database=" + url.QueryEscape(c.DBName),
		}
		return u.String()
	default:
		return ""
	}
}

func (c *Config) portOr(def string) string {
	if c.DBPort != "" {
		return c.DBPort
	}
	return def
}

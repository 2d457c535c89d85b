// Package config resolves runtime settings from a .env file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/erazemk/logistika/internal/db"
)

// Config holds the server settings.
type Config struct {
	Driver      db.Dialect
	DatabaseURL string
	Addr        string
	LogPath     string
	Env         string
	AuditURL    string
	AuditSecret string
}

// Defaults.
const (
	DefaultDatabase = "logistika.sqlite3"
	DefaultAddr     = ":8080"
	DefaultEnv      = "production"
)

// Usage is printed for -h.
const Usage = `Usage: logistika [flags]

Flags:
  -d, -db <dsn>           database path or URL (default: logistika.sqlite3, env DATABASE_URL)
  -driver <name>          sqlite or postgres (default: sqlite, env LOGISTIKA_DB_DRIVER)
  -a, -addr <host:port>   listen address (default: :8080, env LOGISTIKA_ADDR)
  -l, -log <path>         log file path (default: none, env LOGISTIKA_LOG)
  -env <name>             production or development (default: production, env LOGISTIKA_ENV)
  -h, -help               show this help and exit

Environment:
  AUDIT_URL               external audit service endpoint (optional)
  AUDIT_SECRET            HS256 secret for audit service tokens
`

// ErrHelp is returned when -h was given.
var ErrHelp = flag.ErrHelp

// Load reads .env (if present), the environment and args.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Driver:      db.Dialect(envOr("LOGISTIKA_DB_DRIVER", string(db.SQLite))),
		DatabaseURL: envOr("DATABASE_URL", DefaultDatabase),
		Addr:        envOr("LOGISTIKA_ADDR", DefaultAddr),
		LogPath:     os.Getenv("LOGISTIKA_LOG"),
		Env:         envOr("LOGISTIKA_ENV", DefaultEnv),
		AuditURL:    os.Getenv("AUDIT_URL"),
		AuditSecret: os.Getenv("AUDIT_SECRET"),
	}

	fset := flag.NewFlagSet("logistika", flag.ContinueOnError)
	fset.SetOutput(io.Discard)

	fset.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "")
	fset.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "")

	driver := string(cfg.Driver)
	fset.StringVar(&driver, "driver", driver, "")

	fset.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fset.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fset.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fset.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fset.StringVar(&cfg.Env, "env", cfg.Env, "")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fset.Arg(0))
	}

	cfg.Driver = db.Dialect(driver)
	switch cfg.Driver {
	case db.SQLite, db.Postgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// Package config loads mailvet settings from the environment, with an
// optional .env file beside the binary merged in first.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mailvet/mailvet/internal/audit"
	"github.com/mailvet/mailvet/internal/truststore"
)

// Config holds everything the dispatch and trust layers need. Flags may
// override individual fields after Load.
type Config struct {
	SMTPHost string `env:"MAILVET_SMTP_HOST"`
	SMTPPort int    `env:"MAILVET_SMTP_PORT" envDefault:"587"`
	Username string `env:"MAILVET_SMTP_USER"`
	Password string `env:"MAILVET_SMTP_PASS"`
	From     string `env:"MAILVET_FROM"`

	// TLSOpportunistic falls back to plaintext when the server does not
	// offer STARTTLS. The default is mandatory STARTTLS.
	TLSOpportunistic bool `env:"MAILVET_TLS_OPPORTUNISTIC" envDefault:"false"`

	Timeout time.Duration `env:"MAILVET_TIMEOUT" envDefault:"15s"`

	AllowlistPath string `env:"MAILVET_ALLOWLIST"`
	AuditLogPath  string `env:"MAILVET_AUDIT_LOG"`
}

// Load reads configuration from the environment. A .env file beside the
// binary is merged in first when present (already-set variables win).
// Unset paths default to files beside the binary.
func Load() (Config, error) {
	_ = godotenv.Load(BesideBinary(".env")) // best effort

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.AllowlistPath == "" {
		cfg.AllowlistPath = BesideBinary(truststore.DefaultFileName)
	}
	if cfg.AuditLogPath == "" {
		cfg.AuditLogPath = BesideBinary(audit.DefaultFileName)
	}
	return cfg, nil
}

// Addr returns the SMTP endpoint in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.SMTPHost, strconv.Itoa(c.SMTPPort))
}

// BesideBinary resolves name next to the running executable, falling back
// to the working directory when the executable path is unknown.
func BesideBinary(name string) string {
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exe), name)
}

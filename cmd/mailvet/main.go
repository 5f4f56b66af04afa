package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mailvet/mailvet/internal/audit"
	"github.com/mailvet/mailvet/internal/config"
	"github.com/mailvet/mailvet/internal/truststore"
	"github.com/mailvet/mailvet/internal/validator"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Exit codes. Trust failures are distinguished from plain input errors so
// scripts can react to a rejected server certificate.
const (
	ExitSuccess    = 0
	ExitInputError = 1
	ExitTrustFail  = 2
)

var rootCmd = &cobra.Command{
	Use:   "mailvet",
	Short: "Send mail over STARTTLS with fingerprint-pinned server trust",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(allowlistCmd)
	rootCmd.AddCommand(versionCmd)
}

// runtime wires the process-wide singletons: one store, one validator,
// one audit logger, shared by every subcommand.
type runtime struct {
	cfg   config.Config
	audit *slog.Logger
	store *truststore.Store
	val   *validator.Validator
}

func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := audit.NewLogger(cfg.AuditLogPath)
	store := truststore.New(cfg.AllowlistPath, log)

	return &runtime{
		cfg:   cfg,
		audit: log,
		store: store,
		val:   validator.New(store, log),
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitInputError)
	}
}

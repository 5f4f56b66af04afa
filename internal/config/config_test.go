package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"MAILVET_SMTP_HOST", "MAILVET_SMTP_PORT", "MAILVET_SMTP_USER",
		"MAILVET_SMTP_PASS", "MAILVET_FROM", "MAILVET_TLS_OPPORTUNISTIC",
		"MAILVET_TIMEOUT", "MAILVET_ALLOWLIST", "MAILVET_AUDIT_LOG",
	} {
		// t.Setenv registers the restore; the variable must be absent
		// for envDefault to apply.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout)
	}
	if cfg.TLSOpportunistic {
		t.Error("TLSOpportunistic = true, want false by default")
	}
	if !strings.HasSuffix(cfg.AllowlistPath, "allowlist.txt") {
		t.Errorf("AllowlistPath = %q, want default beside the binary", cfg.AllowlistPath)
	}
	if !strings.HasSuffix(cfg.AuditLogPath, "mailvet.log") {
		t.Errorf("AuditLogPath = %q, want default beside the binary", cfg.AuditLogPath)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MAILVET_SMTP_HOST", "mail.example.test")
	t.Setenv("MAILVET_SMTP_PORT", "2525")
	t.Setenv("MAILVET_SMTP_USER", "mailer")
	t.Setenv("MAILVET_SMTP_PASS", "hunter2")
	t.Setenv("MAILVET_FROM", "noreply@example.test")
	t.Setenv("MAILVET_TLS_OPPORTUNISTIC", "true")
	t.Setenv("MAILVET_TIMEOUT", "30s")
	t.Setenv("MAILVET_ALLOWLIST", "/etc/mailvet/pins.txt")
	t.Setenv("MAILVET_AUDIT_LOG", "/var/log/mailvet.log")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SMTPHost != "mail.example.test" || cfg.SMTPPort != 2525 {
		t.Errorf("endpoint = %s:%d", cfg.SMTPHost, cfg.SMTPPort)
	}
	if cfg.Username != "mailer" || cfg.Password != "hunter2" {
		t.Errorf("credentials = %q/%q", cfg.Username, cfg.Password)
	}
	if cfg.From != "noreply@example.test" {
		t.Errorf("From = %q", cfg.From)
	}
	if !cfg.TLSOpportunistic {
		t.Error("TLSOpportunistic = false, want true")
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.AllowlistPath != "/etc/mailvet/pins.txt" {
		t.Errorf("AllowlistPath = %q", cfg.AllowlistPath)
	}
	if cfg.AuditLogPath != "/var/log/mailvet.log" {
		t.Errorf("AuditLogPath = %q", cfg.AuditLogPath)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("MAILVET_SMTP_PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want parse error")
	}
}

func TestAddr(t *testing.T) {
	t.Parallel()

	cfg := Config{SMTPHost: "mail.example.test", SMTPPort: 587}
	if got, want := cfg.Addr(), "mail.example.test:587"; got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}

	cfg = Config{SMTPHost: "2001:db8::1", SMTPPort: 25}
	if got, want := cfg.Addr(), "[2001:db8::1]:25"; got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
}

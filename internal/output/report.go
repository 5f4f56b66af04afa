package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mailvet/mailvet/internal/probe"
	"github.com/mailvet/mailvet/internal/validator"
)

// jsonTimeFormat is the ISO 8601 UTC timestamp format for JSON output.
// Uses a literal 'Z' suffix since all times are converted to UTC.
const jsonTimeFormat = "2006-01-02T15:04:05Z"

// CheckReport implements Formatter for probe results.
type CheckReport struct {
	Report *probe.Report
}

// FormatText formats the probe report as a summary followed by the
// presented chain table.
func (c *CheckReport) FormatText() string {
	r := c.Report

	var b strings.Builder
	fmt.Fprintf(&b, "endpoint:       %s\n", r.Endpoint)
	fmt.Fprintf(&b, "outcome:        %s\n", r.Outcome)
	fp := "absent"
	if r.Fingerprint != "" {
		fp = r.Fingerprint.Colons()
	}
	fmt.Fprintf(&b, "fingerprint:    %s\n", fp)
	fmt.Fprintf(&b, "policy error:   %s\n", r.PolicyError)
	fmt.Fprintf(&b, "allowlist size: %d\n", r.WhitelistSize)

	if len(r.Chain) > 0 {
		b.WriteString("\n")
		tw := NewTableWriter()
		tw.Header("POS", "SUBJECT", "ISSUER")
		for _, e := range r.Chain {
			tw.Row(strconv.Itoa(e.Position), e.Subject, e.Issuer)
		}
		b.WriteString(tw.String())
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// FormatJSON formats the probe report as JSON.
func (c *CheckReport) FormatJSON() ([]byte, error) {
	r := c.Report

	jr := jsonCheckReport{
		Endpoint:      r.Endpoint,
		Outcome:       r.Outcome.String(),
		Accepted:      r.Outcome.Accepted(),
		PolicyError:   r.PolicyError,
		AllowlistSize: r.WhitelistSize,
	}
	if r.Fingerprint != "" {
		jr.Certificate = &jsonCheckCert{
			FingerprintSHA256: string(r.Fingerprint),
			Subject:           r.Subject,
			Issuer:            r.Issuer,
			NotBefore:         r.NotBefore.UTC().Format(jsonTimeFormat),
			NotAfter:          r.NotAfter.UTC().Format(jsonTimeFormat),
		}
	}
	for _, e := range r.Chain {
		jr.Chain = append(jr.Chain, jsonChainEntry{
			Position: e.Position,
			Subject:  e.Subject,
			Issuer:   e.Issuer,
		})
	}

	return json.MarshalIndent(jr, "", "  ")
}

// Whitelisted reports whether the probe ended in the allow-list override.
func (c *CheckReport) Whitelisted() bool {
	return c.Report.Outcome == validator.OutcomeAcceptWhitelisted
}

type jsonCheckReport struct {
	Endpoint      string           `json:"endpoint"`
	Outcome       string           `json:"outcome"`
	Accepted      bool             `json:"accepted"`
	PolicyError   string           `json:"policy_error"`
	AllowlistSize int              `json:"allowlist_size"`
	Certificate   *jsonCheckCert   `json:"certificate,omitempty"`
	Chain         []jsonChainEntry `json:"chain,omitempty"`
}

type jsonCheckCert struct {
	FingerprintSHA256 string `json:"fingerprint_sha256"`
	Subject           string `json:"subject"`
	Issuer            string `json:"issuer"`
	NotBefore         string `json:"not_before"`
	NotAfter          string `json:"not_after"`
}

type jsonChainEntry struct {
	Position int    `json:"position"`
	Subject  string `json:"subject"`
	Issuer   string `json:"issuer"`
}

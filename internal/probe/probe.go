// Package probe performs a STARTTLS handshake against an SMTP endpoint
// and reports the trust decision without sending mail.
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailvet/mailvet/internal/truststore"
	"github.com/mailvet/mailvet/internal/validator"
)

// defaultSMTPPort is the standard submission port.
const defaultSMTPPort = "587"

// Report is the result of probing one endpoint.
type Report struct {
	Endpoint      string
	Outcome       validator.Outcome
	Fingerprint   truststore.Fingerprint // empty when absent
	PolicyError   string
	WhitelistSize int
	Subject       string
	Issuer        string
	NotBefore     time.Time
	NotAfter      time.Time
	Chain         []ChainEntry
}

// ChainEntry summarizes one presented chain certificate.
type ChainEntry struct {
	Position int
	Subject  string
	Issuer   string
}

// Run connects to an SMTP endpoint, negotiates STARTTLS with an
// observation-only TLS configuration, then evaluates the captured state
// against the validator. The decision is made outside the handshake so
// rejected chains can still be reported in full. Endpoint can be "host"
// or "host:port"; the default port is 587.
func Run(ctx context.Context, endpoint string, v *validator.Validator, timeout time.Duration) (*Report, error) {
	host, addr := splitEndpoint(endpoint)

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return nil, fmt.Errorf("smtp greeting from %s: %w", addr, err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return nil, fmt.Errorf("%s does not offer STARTTLS", addr)
	}

	tlsConfig := &tls.Config{
		ServerName:         host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true, //nolint:gosec // G402: observation only, decision happens below
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		return nil, fmt.Errorf("starttls with %s: %w", addr, err)
	}

	state, ok := client.TLSConnectionState()
	if !ok {
		return nil, fmt.Errorf("no TLS state after STARTTLS with %s", addr)
	}
	_ = client.Quit()

	return reportFrom(endpoint, v.Evaluate(state)), nil
}

// splitEndpoint returns the bare host and the dialable host:port form.
func splitEndpoint(endpoint string) (host, addr string) {
	if h, _, err := net.SplitHostPort(endpoint); err == nil {
		return h, endpoint
	}
	// No port given; IPv6 literals need brackets for JoinHostPort.
	host = strings.Trim(endpoint, "[]")
	return host, net.JoinHostPort(host, defaultSMTPPort)
}

func reportFrom(endpoint string, ev validator.Evaluation) *Report {
	r := &Report{
		Endpoint:      endpoint,
		Outcome:       ev.Outcome,
		Fingerprint:   ev.Fingerprint,
		PolicyError:   ev.PolicyError,
		WhitelistSize: ev.WhitelistSize,
	}

	if ev.Cert != nil {
		r.Subject = ev.Cert.Subject.String()
		r.Issuer = ev.Cert.Issuer.String()
		r.NotBefore = ev.Cert.NotBefore
		r.NotAfter = ev.Cert.NotAfter
	}
	for i, c := range ev.Chain {
		r.Chain = append(r.Chain, ChainEntry{
			Position: i,
			Subject:  c.Subject.String(),
			Issuer:   c.Issuer.String(),
		})
	}
	return r
}

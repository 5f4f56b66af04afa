// Package dispatch sends mail through a single SMTP endpoint using
// opportunistic TLS, with the server certificate decision delegated to
// the injected trust validator.
package dispatch

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/mailvet/mailvet/internal/config"
)

// TLSConfigurer supplies the per-connection TLS trust decision. The
// validator implements it; tests inject fixed configurations.
type TLSConfigurer interface {
	ClientConfig(serverName string) *tls.Config
}

// Request describes one outgoing message. To, Cc and Bcc are comma- or
// semicolon-separated address lists.
type Request struct {
	From        string // falls back to the configured sender
	To          string
	Cc          string
	Bcc         string
	Subject     string
	Body        string
	HTMLBody    string
	Attachments []string // file paths, loaded at send time
}

// Mailer dispatches messages through the configured SMTP endpoint.
type Mailer struct {
	cfg       config.Config
	tlsConfig *tls.Config
}

// New creates a Mailer. The TLS trust decision is wired in at
// construction: every connection the mailer opens consults the decider.
func New(cfg config.Config, decider TLSConfigurer) *Mailer {
	return &Mailer{cfg: cfg, tlsConfig: decider.ClientConfig(cfg.SMTPHost)}
}

// Send dispatches one message. A certificate rejection by the validator
// aborts the STARTTLS handshake and surfaces here as a single send error.
func (m *Mailer) Send(ctx context.Context, req Request) error {
	msg, err := m.build(req)
	if err != nil {
		return err
	}

	client, err := m.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send via %s: %w", m.cfg.Addr(), err)
	}
	return nil
}

// build assembles the wire message from the request.
func (m *Mailer) build(req Request) (*mail.Msg, error) {
	msg := mail.NewMsg()

	from := req.From
	if from == "" {
		from = m.cfg.From
	}
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}

	to := SplitRecipients(req.To)
	if len(to) == 0 {
		return nil, fmt.Errorf("no recipients")
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("to addresses: %w", err)
	}
	if cc := SplitRecipients(req.Cc); len(cc) > 0 {
		if err := msg.Cc(cc...); err != nil {
			return nil, fmt.Errorf("cc addresses: %w", err)
		}
	}
	if bcc := SplitRecipients(req.Bcc); len(bcc) > 0 {
		if err := msg.Bcc(bcc...); err != nil {
			return nil, fmt.Errorf("bcc addresses: %w", err)
		}
	}

	msg.Subject(req.Subject)

	if req.HTMLBody != "" {
		msg.SetBodyString(mail.TypeTextHTML, req.HTMLBody)
		if req.Body != "" {
			msg.AddAlternativeString(mail.TypeTextPlain, req.Body)
		}
	} else {
		msg.SetBodyString(mail.TypeTextPlain, req.Body)
	}

	for _, path := range req.Attachments {
		msg.AttachFile(path)
	}

	return msg, nil
}

// client builds the go-mail SMTP client with the injected TLS config.
func (m *Mailer) client() (*mail.Client, error) {
	policy := mail.TLSMandatory
	if m.cfg.TLSOpportunistic {
		policy = mail.TLSOpportunistic
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithTLSPolicy(policy),
		mail.WithTLSConfig(m.tlsConfig),
		mail.WithTimeout(m.cfg.Timeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	return mail.NewClient(m.cfg.SMTPHost, opts...)
}

// SplitRecipients splits a comma- or semicolon-separated address list,
// trimming whitespace and dropping empty items.
func SplitRecipients(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Package validator implements the STARTTLS server certificate trust
// decision: an operator allow-list consulted ahead of standard chain
// validation, with a diagnostic record written for every rejection.
package validator

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mailvet/mailvet/internal/truststore"
)

// Outcome is the tri-state result of a single trust decision. It is
// produced fresh per handshake and never persisted.
type Outcome int

const (
	// OutcomeReject means the certificate is neither allow-listed nor
	// accepted by standard chain validation.
	OutcomeReject Outcome = iota

	// OutcomeAcceptWhitelisted means the presented fingerprint matched
	// the allow-list. This is an explicit operator trust override: it
	// wins even when the platform reports policy errors (self-signed,
	// hostname mismatch, expired, untrusted root).
	OutcomeAcceptWhitelisted

	// OutcomeAcceptChainValid means standard chain validation passed
	// with no policy errors.
	OutcomeAcceptChainValid
)

// String satisfies fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeReject:
		return "REJECT"
	case OutcomeAcceptWhitelisted:
		return "ACCEPT_WHITELISTED"
	case OutcomeAcceptChainValid:
		return "ACCEPT_CHAIN_VALID"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Accepted reports whether the outcome permits the handshake to proceed.
func (o Outcome) Accepted() bool { return o != OutcomeReject }

// Decider is the capability the transport layer consumes: one decision
// per presented certificate. policyErr carries the platform chain
// validation result; nil means "no errors".
type Decider interface {
	Decide(cert *x509.Certificate, chain []*x509.Certificate, policyErr error) Outcome
}

// classificationNone is the policy-error classification for a clean chain.
const classificationNone = "none"

var errNoPeerCertificate = errors.New("no peer certificate presented")

// systemPool returns the platform root pool. Tests override this variable
// to pin the pool to generated CAs.
var systemPool = x509.SystemCertPool

// Validator makes the per-connection trust decision for opportunistic TLS
// connections. One instance is shared process-wide; it holds no
// per-connection state and is safe for parallel handshakes.
type Validator struct {
	store *truststore.Store
	log   *slog.Logger

	initOnce sync.Once
	roots    *x509.CertPool
	rootsErr error
}

// New creates a Validator backed by the given allow-list store. Rejection
// diagnostics are written to log; a nil log discards them.
func New(store *truststore.Store, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Validator{store: store, log: log}
}

// ClientConfig returns a TLS client configuration that routes the peer
// certificate decision through this validator. Standard verification is
// disabled because VerifyConnection re-runs it itself, so the allow-list
// override can be applied ahead of the platform result.
func (v *Validator) ClientConfig(serverName string) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true, //nolint:gosec // G402: decision happens in VerifyConnection
		VerifyConnection:   v.VerifyConnection,
	}
}

// VerifyConnection is invoked by crypto/tls during the handshake, once
// per connection. It must not block beyond the best-effort diagnostic
// write and must not mutate the store. A rejection surfaces as a single
// handshake error, not a distinguishable code.
func (v *Validator) VerifyConnection(cs tls.ConnectionState) error {
	ev := v.Evaluate(cs)
	if ev.Outcome.Accepted() {
		return nil
	}
	return fmt.Errorf("server certificate rejected (%s)", ev.PolicyError)
}

// Evaluation is the full result of one trust decision, consumed by the
// handshake callback and by the check command's probe report.
type Evaluation struct {
	Outcome       Outcome
	Fingerprint   truststore.Fingerprint // empty when no certificate was presented
	PolicyError   string                 // classification, "none" for a clean chain
	WhitelistSize int
	Cert          *x509.Certificate
	Chain         []*x509.Certificate
}

// Evaluate runs the decision algorithm against a captured connection
// state. An allow-list hit short-circuits before any chain building; this
// is the documented trust override, not a bypass for unknown certificates.
func (v *Validator) Evaluate(cs tls.ConnectionState) Evaluation {
	set := v.store.Snapshot()
	ev := Evaluation{PolicyError: classificationNone, WhitelistSize: set.Len()}

	if len(cs.PeerCertificates) == 0 {
		ev.PolicyError = Classify(errNoPeerCertificate)
		ev.Outcome = v.decide(nil, nil, errNoPeerCertificate, set)
		return ev
	}

	cert := cs.PeerCertificates[0]
	ev.Cert = cert
	ev.Chain = cs.PeerCertificates
	ev.Fingerprint = truststore.FromCert(cert)

	if whitelisted(cert, set) {
		ev.Outcome = OutcomeAcceptWhitelisted
		return ev
	}

	policyErr := v.verifyChain(cert, cs.PeerCertificates[1:], cs.ServerName)
	ev.PolicyError = Classify(policyErr)
	ev.Outcome = v.decide(cert, cs.PeerCertificates, policyErr, set)
	return ev
}

// Decide implements Decider against the current allow-list snapshot.
func (v *Validator) Decide(cert *x509.Certificate, chain []*x509.Certificate, policyErr error) Outcome {
	return v.decide(cert, chain, policyErr, v.store.Snapshot())
}

// decide applies the decision algorithm to one snapshot:
//
//  1. allow-listed fingerprint -> ACCEPT_WHITELISTED, beating any policy
//     error (explicit trust override)
//  2. no policy errors -> ACCEPT_CHAIN_VALID
//  3. otherwise REJECT, emitting one diagnostic record
func (v *Validator) decide(cert *x509.Certificate, chain []*x509.Certificate, policyErr error, set truststore.Set) Outcome {
	if whitelisted(cert, set) {
		return OutcomeAcceptWhitelisted
	}
	if policyErr == nil {
		return OutcomeAcceptChainValid
	}
	newRecord(cert, chain, policyErr, set).emit(v.log)
	return OutcomeReject
}

// whitelisted reports whether the certificate's fingerprint is in the
// allow-list. A nil or unparseable certificate has no fingerprint and
// never matches. Both digest forms are checked so SHA-1 era allow-lists
// keep working.
func whitelisted(cert *x509.Certificate, set truststore.Set) bool {
	if cert == nil || len(cert.Raw) == 0 || set.Len() == 0 {
		return false
	}
	return set.Contains(truststore.FromCert(cert)) || set.Contains(truststore.SHA1FromCert(cert))
}

// verifyChain runs platform-standard validation: trusted system roots,
// presented intermediates, hostname check against the SNI.
func (v *Validator) verifyChain(cert *x509.Certificate, intermediates []*x509.Certificate, serverName string) error {
	roots, err := v.systemRoots()
	if err != nil {
		return fmt.Errorf("system root pool unavailable: %w", err)
	}

	pool := x509.NewCertPool()
	for _, ic := range intermediates {
		pool.AddCert(ic)
	}

	_, err = cert.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: pool,
		DNSName:       serverName,
	})
	return err
}

// systemRoots loads the platform root pool exactly once per validator.
func (v *Validator) systemRoots() (*x509.CertPool, error) {
	v.initOnce.Do(func() {
		v.roots, v.rootsErr = systemPool()
	})
	return v.roots, v.rootsErr
}

// Classify maps a chain validation error to a short policy-error
// classification used in diagnostics and reports. Returns "none" for nil.
func Classify(err error) string {
	if err == nil {
		return classificationNone
	}

	var unknownAuth x509.UnknownAuthorityError
	if errors.As(err, &unknownAuth) {
		return "certificate signed by unknown authority"
	}

	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &certInvalid) {
		switch certInvalid.Reason {
		case x509.Expired:
			return "certificate has expired or is not yet valid"
		case x509.NotAuthorizedToSign:
			return "certificate is not authorized to sign other certificates"
		case x509.TooManyIntermediates:
			return "too many intermediates for path length constraint"
		case x509.IncompatibleUsage:
			return "certificate specifies an incompatible key usage"
		case x509.NameMismatch:
			return "issuer name does not match subject"
		case x509.CANotAuthorizedForThisName:
			return "CA is not authorized for this name"
		default:
			if certInvalid.Detail != "" {
				return certInvalid.Detail
			}
		}
	}

	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return fmt.Sprintf("certificate is not valid for %s", hostnameErr.Host)
	}

	return err.Error()
}

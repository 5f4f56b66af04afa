package validator

import (
	"crypto/x509"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailvet/mailvet/internal/truststore"
)

// fingerprintAbsent is recorded when no certificate (or an unparseable
// one) was presented.
const fingerprintAbsent = "absent"

// Record is the diagnostic trail captured for a rejected handshake.
// It is write-only: emitted to the audit sink and never read back.
type Record struct {
	Fingerprint   string // normalized hex, or "absent"
	PolicyError   string
	Whitelisted   bool
	WhitelistSize int
	Subject       string // best effort, empty when absent
	Issuer        string
	NotBefore     time.Time
	NotAfter      time.Time
	Chain         []ChainEntry
}

// ChainEntry summarizes one presented chain certificate. Go surfaces a
// single verification error rather than a per-certificate status array,
// so each entry carries a best-effort local status instead.
type ChainEntry struct {
	Position int
	Subject  string
	Status   string
}

func newRecord(cert *x509.Certificate, chain []*x509.Certificate, policyErr error, set truststore.Set) Record {
	r := Record{
		Fingerprint:   fingerprintAbsent,
		PolicyError:   Classify(policyErr),
		WhitelistSize: set.Len(),
	}

	if cert != nil && len(cert.Raw) > 0 {
		fp := truststore.FromCert(cert)
		r.Fingerprint = string(fp)
		r.Whitelisted = set.Contains(fp) || set.Contains(truststore.SHA1FromCert(cert))
		r.Subject = cert.Subject.String()
		r.Issuer = cert.Issuer.String()
		r.NotBefore = cert.NotBefore
		r.NotAfter = cert.NotAfter
	}

	now := time.Now()
	for i, c := range chain {
		r.Chain = append(r.Chain, ChainEntry{
			Position: i,
			Subject:  c.Subject.String(),
			Status:   chainEntryStatus(c, now),
		})
	}

	return r
}

// chainEntryStatus gives a local, best-effort status for one chain
// certificate: validity window plus a self-issued marker.
func chainEntryStatus(c *x509.Certificate, now time.Time) string {
	switch {
	case now.Before(c.NotBefore):
		return "not yet valid"
	case now.After(c.NotAfter):
		return "expired"
	case c.Subject.String() == c.Issuer.String():
		return "self-issued"
	default:
		return "within validity window"
	}
}

// emit writes the record as one timestamped line. The sink is best
// effort; a failed write never changes the decision outcome.
func (r Record) emit(log *slog.Logger) {
	chain := make([]string, len(r.Chain))
	for i, e := range r.Chain {
		chain[i] = fmt.Sprintf("%d:%s [%s]", e.Position, e.Subject, e.Status)
	}

	log.Warn("server certificate rejected",
		"fingerprint", r.Fingerprint,
		"policy_error", r.PolicyError,
		"whitelisted", r.Whitelisted,
		"whitelist_size", r.WhitelistSize,
		"subject", r.Subject,
		"issuer", r.Issuer,
		"not_before", r.NotBefore,
		"not_after", r.NotAfter,
		"chain", chain,
	)
}

package truststore

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Fingerprint is a certificate digest in canonical form: hex with all
// separators stripped, upper-cased. Both SHA-1 (40 chars) and SHA-256
// (64 chars) digests are representable; comparison is plain string
// equality, so two fingerprints match only if algorithm and digest match.
type Fingerprint string

const (
	sha1Pairs   = sha1.Size
	sha256Pairs = sha256.Size
)

// separatorReplacer strips the separator characters accepted in
// allow-list entries and operator input.
var separatorReplacer = strings.NewReplacer(" ", "", ":", "", "-", "")

// Normalize converts free-form fingerprint text to canonical form:
// surrounding whitespace trimmed, space/colon/hyphen separators stripped,
// hex upper-cased. It is idempotent and deliberately lenient - it neither
// validates length nor hex content, so the allow-list loader can apply it
// to any non-comment line. Use ParseStrict where operator input must be
// validated before it is persisted.
func Normalize(input string) Fingerprint {
	return Fingerprint(strings.ToUpper(separatorReplacer.Replace(strings.TrimSpace(input))))
}

// FromCert computes the SHA-256 fingerprint of a certificate.
func FromCert(cert *x509.Certificate) Fingerprint {
	sum := sha256.Sum256(cert.Raw)
	return Fingerprint(strings.ToUpper(hex.EncodeToString(sum[:])))
}

// SHA1FromCert computes the legacy SHA-1 fingerprint of a certificate.
// Allow-lists migrated from tooling that records SHA-1 thumbprints keep
// working through this form.
func SHA1FromCert(cert *x509.Certificate) Fingerprint {
	sum := sha1.Sum(cert.Raw) //nolint:gosec // G401: identification only, not integrity
	return Fingerprint(strings.ToUpper(hex.EncodeToString(sum[:])))
}

// Algorithm reports the digest algorithm implied by the fingerprint
// length: "sha1", "sha256", or "unknown".
func (f Fingerprint) Algorithm() string {
	switch len(f) {
	case sha1Pairs * 2:
		return "sha1"
	case sha256Pairs * 2:
		return "sha256"
	default:
		return "unknown"
	}
}

// Colons returns the display form "AA:BB:CC:...".
func (f Fingerprint) Colons() string {
	if len(f)%2 != 0 {
		return string(f)
	}
	parts := make([]string, 0, len(f)/2)
	for i := 0; i+2 <= len(f); i += 2 {
		parts = append(parts, string(f[i:i+2]))
	}
	return strings.Join(parts, ":")
}

// Truncate returns a truncated display string with the specified number
// of octets, e.g. Truncate(4) -> "AA:BB:CC:DD...".
func (f Fingerprint) Truncate(octets int) string {
	if octets <= 0 {
		return ""
	}
	if octets*2 >= len(f) {
		return f.Colons()
	}
	return f[:octets*2].Colons() + "..."
}

// rawHexRe matches raw hex format: 40 (SHA-1) or 64 (SHA-256) hex chars.
var rawHexRe = regexp.MustCompile(`^[0-9A-Fa-f]{40}([0-9A-Fa-f]{24})?$`)

// separatorRe matches separator-delimited formats with consistent
// separators. Requires exactly 20 or 32 hex pairs with the SAME separator
// throughout.
var separatorRe = regexp.MustCompile(
	`^[0-9A-Fa-f]{2}([:][0-9A-Fa-f]{2}){19}(([:][0-9A-Fa-f]{2}){12})?$` +
		`|^[0-9A-Fa-f]{2}([-][0-9A-Fa-f]{2}){19}(([-][0-9A-Fa-f]{2}){12})?$` +
		`|^[0-9A-Fa-f]{2}([ ][0-9A-Fa-f]{2}){19}(([ ][0-9A-Fa-f]{2}){12})?$`)

// separatedGrammar defines the grammar for separator-delimited fingerprints.
//
// Grammar:
//
//	fingerprint := PAIR ( SEP PAIR )*
//	PAIR := [0-9A-Fa-f]{2}
//	SEP  := [: -]
type separatedGrammar struct {
	Pairs []string `parser:"@Pair ( Sep @Pair )*"`
}

var separatedLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Pair", Pattern: `[0-9A-Fa-f]{2}`},
	{Name: "Sep", Pattern: `[: -]`}, // Exactly one separator char
})

var separatedParser = participle.MustBuild[separatedGrammar](
	participle.Lexer(separatedLexer),
	// No Elide - strict parsing, no silent skipping
)

// ParseStrict validates operator-supplied fingerprint input and returns
// its canonical form.
//
// Accepts two formats:
//   - Raw hex: exactly 40 or 64 hex chars
//   - Separated: 20 or 32 hex pairs with consistent separator
//     (e.g. "D7:A7:A0:FB:...")
//
// Rejects malformed inputs like mixed separators, double separators, or
// incomplete pairs. The allow-list load path uses the lenient Normalize
// instead; ParseStrict guards only what gets written to the file.
func ParseStrict(input string) (Fingerprint, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty fingerprint")
	}

	var hexStr string

	// Try raw hex format first (no separators)
	if rawHexRe.MatchString(input) {
		hexStr = input
	} else {
		// Validate separator-delimited format with consistent separators
		if !separatorRe.MatchString(input) {
			return "", fmt.Errorf("invalid fingerprint format: must be 40 or 64 hex chars, or hex pairs with consistent separator")
		}

		// Parse the validated input
		fp, err := separatedParser.ParseString("", input)
		if err != nil {
			return "", fmt.Errorf("invalid fingerprint format: %w", err)
		}

		if n := len(fp.Pairs); n != sha1Pairs && n != sha256Pairs {
			return "", fmt.Errorf("invalid fingerprint length: got %d pairs, want %d or %d", n, sha1Pairs, sha256Pairs)
		}

		hexStr = strings.Join(fp.Pairs, "")
	}

	// Decode hex to confirm the token is well-formed
	if _, err := hex.DecodeString(hexStr); err != nil {
		return "", fmt.Errorf("invalid hex: %w", err)
	}

	return Normalize(hexStr), nil
}

// Package testutil provides shared certificate fixtures for tests.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"
)

// CertSpec controls the generated certificate.
type CertSpec struct {
	CommonName string
	DNSNames   []string
	IsCA       bool
	NotBefore  time.Time // zero: one hour ago
	NotAfter   time.Time // zero: one hour ahead
}

// MakeCert creates a test certificate. With a nil parent the certificate
// is self-signed; otherwise it is signed by parent/parentKey.
func MakeCert(tb testing.TB, spec CertSpec, parent *x509.Certificate, parentKey *rsa.PrivateKey) (*x509.Certificate, *rsa.PrivateKey) {
	tb.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatal(err)
	}

	notBefore := spec.NotBefore
	if notBefore.IsZero() {
		notBefore = time.Now().Add(-time.Hour)
	}
	notAfter := spec.NotAfter
	if notAfter.IsZero() {
		notAfter = time.Now().Add(time.Hour)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: spec.CommonName},
		DNSNames:     spec.DNSNames,
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	if spec.IsCA {
		template.IsCA = true
		template.KeyUsage |= x509.KeyUsageCertSign
		template.BasicConstraintsValid = true
	}

	signerCert := template
	signerKey := key
	if parent != nil {
		signerCert = parent
		signerKey = parentKey
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, signerCert, &key.PublicKey, signerKey)
	if err != nil {
		tb.Fatal(err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		tb.Fatal(err)
	}

	return cert, key
}

// TLSPair converts a generated certificate and key into a tls.Certificate
// for test servers.
func TLSPair(tb testing.TB, cert *x509.Certificate, key *rsa.PrivateKey) tls.Certificate {
	tb.Helper()
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  key,
		Leaf:        cert,
	}
}

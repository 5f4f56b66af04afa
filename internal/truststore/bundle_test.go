package truststore

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

func makeTestCert(t *testing.T, cn string) *x509.Certificate {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	return cert
}

func TestCertificatesFromBundlePEM(t *testing.T) {
	t.Parallel()

	a := makeTestCert(t, "relay-a")
	b := makeTestCert(t, "relay-b")

	var bundle []byte
	for _, cert := range []*x509.Certificate{a, b} {
		bundle = append(bundle, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})...)
	}

	certs, err := CertificatesFromBundle(bundle)
	if err != nil {
		t.Fatalf("CertificatesFromBundle: %v", err)
	}
	if len(certs) != 2 {
		t.Fatalf("len(certs) = %d, want 2", len(certs))
	}
	if certs[0].Subject.CommonName != "relay-a" || certs[1].Subject.CommonName != "relay-b" {
		t.Errorf("unexpected subjects: %s, %s", certs[0].Subject.CommonName, certs[1].Subject.CommonName)
	}
}

func TestCertificatesFromBundleSkipsForeignBlocks(t *testing.T) {
	t.Parallel()

	cert := makeTestCert(t, "relay")
	bundle := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: []byte("not a key")})
	bundle = append(bundle, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})...)

	certs, err := CertificatesFromBundle(bundle)
	if err != nil {
		t.Fatalf("CertificatesFromBundle: %v", err)
	}
	if len(certs) != 1 {
		t.Fatalf("len(certs) = %d, want 1", len(certs))
	}
}

func TestCertificatesFromBundleGarbage(t *testing.T) {
	t.Parallel()

	if _, err := CertificatesFromBundle([]byte("definitely not a bundle")); err == nil {
		t.Error("expected error for garbage input")
	}
}

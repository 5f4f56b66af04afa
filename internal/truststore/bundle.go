package truststore

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"go.mozilla.org/pkcs7"
)

// CertificatesFromBundle extracts certificates from a PEM bundle or a
// DER/PEM-encoded PKCS#7 blob (.p7b/.p7c). Used by "allowlist import" to
// seed the allow-list from certificate bundles operators already have.
func CertificatesFromBundle(data []byte) ([]*x509.Certificate, error) {
	if certs := certificatesFromPEM(data); len(certs) > 0 {
		return certs, nil
	}

	p7, err := pkcs7.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("no PEM certificates and PKCS#7 parse failed: %w", err)
	}
	if len(p7.Certificates) == 0 {
		return nil, fmt.Errorf("PKCS#7 structure contains no certificates")
	}
	return p7.Certificates, nil
}

// certificatesFromPEM collects every CERTIFICATE block that parses.
// PKCS7 blocks inside PEM armor are unwrapped as well.
func certificatesFromPEM(data []byte) []*x509.Certificate {
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return certs
		}
		switch block.Type {
		case "CERTIFICATE":
			if cert, err := x509.ParseCertificate(block.Bytes); err == nil {
				certs = append(certs, cert)
			}
		case "PKCS7":
			if p7, err := pkcs7.Parse(block.Bytes); err == nil {
				certs = append(certs, p7.Certificates...)
			}
		}
	}
}

package cert

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Load reads a PEM-encoded certificate file and returns its content as the
// canonical string form used to identify an authority on the task bus.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "certificate file not found: %s", path)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return "", errors.Errorf("no PEM certificate block in %s", path)
	}

	return string(data), nil
}

// Verify parses a PEM certificate string and checks its validity window.
func Verify(certPEM string, now time.Time) error {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil || block.Type != "CERTIFICATE" {
		return errors.New("no PEM certificate block")
	}

	x509Cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return errors.Wrap(err, "failed to parse certificate")
	}
	if now.After(x509Cert.NotAfter) {
		return errors.Errorf("certificate expired at %s", x509Cert.NotAfter)
	}
	if now.Before(x509Cert.NotBefore) {
		return errors.Errorf("certificate not valid until %s", x509Cert.NotBefore)
	}

	return nil
}

// Fingerprint returns the hex SHA-256 digest of the certificate's DER
// bytes. Input that is not PEM is digested as-is, so two formattings of the
// same certificate still compare equal through their raw bytes.
func Fingerprint(certPEM string) string {
	data := []byte(certPEM)
	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

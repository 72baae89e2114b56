package cert_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agoravoting/election-orchestra/internal/util/cert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfSignedPEM(t *testing.T, notBefore, notAfter time.Time) string {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-authority"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	require.NoError(t, err)

	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func TestLoad(t *testing.T) {
	certPEM := selfSignedPEM(t, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	path := filepath.Join(t.TempDir(), "authority.crt")
	require.NoError(t, os.WriteFile(path, []byte(certPEM), 0o644))

	loaded, err := cert.Load(path)
	require.NoError(t, err)
	assert.Equal(t, certPEM, loaded)

	_, err = cert.Load(filepath.Join(t.TempDir(), "missing.crt"))
	require.Error(t, err)

	bogus := filepath.Join(t.TempDir(), "bogus.crt")
	require.NoError(t, os.WriteFile(bogus, []byte("not a certificate"), 0o644))
	_, err = cert.Load(bogus)
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	now := time.Now()

	valid := selfSignedPEM(t, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, cert.Verify(valid, now))

	expired := selfSignedPEM(t, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.Error(t, cert.Verify(expired, now))

	future := selfSignedPEM(t, now.Add(time.Hour), now.Add(2*time.Hour))
	require.Error(t, cert.Verify(future, now))

	require.Error(t, cert.Verify("garbage", now))
}

func TestFingerprint(t *testing.T) {
	certPEM := selfSignedPEM(t, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	other := selfSignedPEM(t, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	assert.Equal(t, cert.Fingerprint(certPEM), cert.Fingerprint(certPEM))
	assert.NotEqual(t, cert.Fingerprint(certPEM), cert.Fingerprint(other))

	// surrounding whitespace does not change the digest of the DER bytes
	assert.Equal(t, cert.Fingerprint(certPEM), cert.Fingerprint("\n"+certPEM+"\n"))
}

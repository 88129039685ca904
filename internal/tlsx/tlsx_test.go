package tlsx

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestIdentity writes a self-signed certificate, its key and a CA file
// into dir and returns the three paths.
func writeTestIdentity(t *testing.T, dir string) (certFile, keyFile, caFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "tlsx test"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	caFile = filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o600))
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o600))
	return certFile, keyFile, caFile
}

func TestServerConfig(t *testing.T) {
	certFile, keyFile, caFile := writeTestIdentity(t, t.TempDir())

	cfg, err := ServerConfig(certFile, keyFile, caFile)
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Equal(t, tls.RequireAndVerifyClientCert, cfg.ClientAuth)
	assert.NotNil(t, cfg.ClientCAs)
	assert.Len(t, cfg.Certificates, 1)
}

func TestClientConfig(t *testing.T) {
	certFile, keyFile, caFile := writeTestIdentity(t, t.TempDir())

	cfg, err := ClientConfig(certFile, keyFile, caFile, "mediator.local")
	require.NoError(t, err)
	assert.Equal(t, "mediator.local", cfg.ServerName)
	assert.NotNil(t, cfg.RootCAs)
}

func TestFailsClosed(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile, caFile := writeTestIdentity(t, dir)

	t.Run("missing identity", func(t *testing.T) {
		_, err := ServerConfig(filepath.Join(dir, "absent.pem"), keyFile, caFile)
		assert.Error(t, err)
	})

	t.Run("missing ca", func(t *testing.T) {
		_, err := ServerConfig(certFile, keyFile, filepath.Join(dir, "absent.pem"))
		assert.Error(t, err)
	})

	t.Run("garbage ca", func(t *testing.T) {
		garbage := filepath.Join(dir, "garbage.pem")
		require.NoError(t, os.WriteFile(garbage, []byte("not a certificate"), 0o600))
		_, err := ClientConfig(certFile, keyFile, garbage, "x")
		assert.Error(t, err)
	})
}

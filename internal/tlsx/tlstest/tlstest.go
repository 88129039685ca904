// Package tlstest mints a throwaway certificate authority and leaf
// certificates for use in tests. Production binaries only ever load
// identity material from files (see package tlsx); certificate generation
// belongs to an external provisioning step.
package tlstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"
)

// Identity bundles ready-to-use TLS configs for one CA domain.
type Identity struct {
	CAPool *x509.CertPool
	Server tls.Certificate
	Client tls.Certificate
}

// New generates a CA plus server and client leaf certificates valid for
// 127.0.0.1/localhost for one hour.
func New(t *testing.T) *Identity {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating CA key: %v", err)
	}
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "remotehelp test CA"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("creating CA certificate: %v", err)
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		t.Fatalf("parsing CA certificate: %v", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(caCert)

	return &Identity{
		CAPool: pool,
		Server: leaf(t, caCert, caKey, 2, x509.ExtKeyUsageServerAuth),
		Client: leaf(t, caCert, caKey, 3, x509.ExtKeyUsageClientAuth),
	}
}

// ServerConfig returns a TLS config for an accepting test endpoint that
// requires a client certificate from the same CA.
func (id *Identity) ServerConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{id.Server},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    id.CAPool,
		MinVersion:   tls.VersionTLS12,
	}
}

// ClientConfig returns a TLS config for a dialing test endpoint.
func (id *Identity) ClientConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{id.Client},
		RootCAs:      id.CAPool,
		ServerName:   "127.0.0.1",
		MinVersion:   tls.VersionTLS12,
	}
}

func leaf(t *testing.T, caCert *x509.Certificate, caKey *ecdsa.PrivateKey, serial int64, usage x509.ExtKeyUsage) tls.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating leaf key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: "remotehelp test leaf"},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{usage},
		DNSNames:     []string{"localhost", "127.0.0.1"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, caCert, &key.PublicKey, caKey)
	if err != nil {
		t.Fatalf("creating leaf certificate: %v", err)
	}

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

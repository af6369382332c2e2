package btest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestCertificate is a self-signed server certificate generated for tests
type TestCertificate struct {
	CertPEM []byte // PEM "CERTIFICATE"
	KeyPEM  []byte // PEM "PRIVATE KEY" in PKCS8
	Pool    *x509.CertPool
	Pair    tls.Certificate
	Leaf    *x509.Certificate
}

// NewTestCertificate generates an ECDSA P-256 certificate valid for the given DNS names or IP addresses
func NewTestCertificate(t *testing.T, hosts ...string) TestCertificate {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: "syslog-tools test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	leaf, err := x509.ParseCertificate(der)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	return TestCertificate{
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		Pool:    pool,
		Pair:    tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf},
		Leaf:    leaf,
	}
}

// ServerConfig creates a TLS server config presenting this certificate
func (c TestCertificate) ServerConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{c.Pair},
		MinVersion:   tls.VersionTLS12,
	}
}

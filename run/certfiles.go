package run

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/relex/syslog-tools/input/sysloginput"
)

// LoadTLSIdentity reads a PEM certificate file and a PEM PKCS8 key file to create a server identity
func LoadTLSIdentity(certPath string, keyPath string) (tls.Certificate, error) {
	if certPath == "" || keyPath == "" {
		return tls.Certificate{}, fmt.Errorf("TLS requires both certificate and key files")
	}
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to read private key: %w", err)
	}
	identity, err := sysloginput.NewTLSIdentity(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%s, %s: %w", certPath, keyPath, err)
	}
	return identity, nil
}

// LoadCertPool reads PEM certificates as trusted roots, in addition to the system roots
func LoadCertPool(path string) (*x509.CertPool, error) {
	pemData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificates: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pemData) {
		return nil, fmt.Errorf("%s: no valid PEM certificate", path)
	}
	return pool, nil
}

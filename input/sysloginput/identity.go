package sysloginput

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrInvalidIdentity is returned when the certificate and key cannot form a TLS identity
var ErrInvalidIdentity = errors.New("invalid TLS identity")

// NewTLSIdentity creates a TLS server identity from a PEM certificate chain and a PEM PKCS8 private key
func NewTLSIdentity(certPEM []byte, keyPEM []byte) (tls.Certificate, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return tls.Certificate{}, fmt.Errorf("%w: no PEM data in private key", ErrInvalidIdentity)
	}
	if _, err := x509.ParsePKCS8PrivateKey(block.Bytes); err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: private key is not PKCS8: %s", ErrInvalidIdentity, err.Error())
	}
	identity, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: %s", ErrInvalidIdentity, err.Error())
	}
	return identity, nil
}

// NewServerTLSConfig creates the TLS config shared read-only by all connections of a listener
func NewServerTLSConfig(identity tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{identity},
		MinVersion:   tls.VersionTLS12,
	}
}

package syslogsender

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strconv"

	"github.com/relex/syslog-tools/output/syslogformat"
	"github.com/relex/syslog-tools/syslogprotocol"
)

// Config defines the destination and transport of a Sender
type Config struct {
	Transport syslogprotocol.Transport
	Host      string
	Port      int // 0 for the default port of transport
	Framing   syslogformat.Framing

	// TLS only
	TLSDomain              string         // name to verify the server certificate against, default to Host
	AcceptInvalidCerts     bool           // skip all verification of server certificate
	AcceptInvalidHostnames bool           // verify certificate chain but not the name
	RootCAs                *x509.CertPool // nil for system roots
}

// Address returns "host:port" of the destination
func (cfg Config) Address() string {
	port := cfg.Port
	if port == 0 {
		port = cfg.Transport.DefaultClientPort()
	}
	return net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}

// ServerName returns the name used to verify the server certificate
func (cfg Config) ServerName() string {
	if cfg.TLSDomain != "" {
		return cfg.TLSDomain
	}
	return cfg.Host
}

// NewTLSConfig creates the client TLS config from the verification policy
//
// AcceptInvalidCerts disables verification entirely, including hostname.
// AcceptInvalidHostnames alone still verifies the certificate chain against RootCAs.
func (cfg Config) NewTLSConfig() *tls.Config {
	tlsConfig := &tls.Config{
		ServerName: cfg.ServerName(),
		RootCAs:    cfg.RootCAs,
		MinVersion: tls.VersionTLS12,
	}
	switch {
	case cfg.AcceptInvalidCerts:
		tlsConfig.InsecureSkipVerify = true //nolint:gosec // requested by --accept-invalid-certs
	case cfg.AcceptInvalidHostnames:
		tlsConfig.InsecureSkipVerify = true //nolint:gosec // chain is verified in VerifyConnection
		roots := cfg.RootCAs
		tlsConfig.VerifyConnection = func(state tls.ConnectionState) error {
			return verifyChainOnly(state, roots)
		}
	}
	return tlsConfig
}

func verifyChainOnly(state tls.ConnectionState, roots *x509.CertPool) error {
	if len(state.PeerCertificates) == 0 {
		return errors.New("server presented no certificate")
	}
	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: x509.NewCertPool(),
	}
	for _, cert := range state.PeerCertificates[1:] {
		opts.Intermediates.AddCert(cert)
	}
	_, err := state.PeerCertificates[0].Verify(opts)
	return err
}

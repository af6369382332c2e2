package syslogsender

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"testing"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/base/btest"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/output/syslogformat"
	"github.com/relex/syslog-tools/syslogprotocol"
	"github.com/stretchr/testify/assert"
)

func TestConfigAddress(t *testing.T) {
	assert.Equal(t, "[::1]:6514", Config{Transport: syslogprotocol.TransportTLS, Host: "::1"}.Address())
	assert.Equal(t, "localhost:601", Config{Transport: syslogprotocol.TransportTCP, Host: "localhost"}.Address())
	assert.Equal(t, "localhost:1514", Config{Transport: syslogprotocol.TransportUDP, Host: "localhost", Port: 1514}.Address())

	assert.Equal(t, "example.com", Config{Host: "10.0.0.1", TLSDomain: "example.com"}.ServerName())
	assert.Equal(t, "10.0.0.1", Config{Host: "10.0.0.1"}.ServerName())
}

func TestNewTLSConfig(t *testing.T) {
	strict := Config{Host: "h"}.NewTLSConfig()
	assert.False(t, strict.InsecureSkipVerify)
	assert.Nil(t, strict.VerifyConnection)
	assert.Equal(t, "h", strict.ServerName)

	noName := Config{Host: "h", AcceptInvalidHostnames: true}.NewTLSConfig()
	assert.True(t, noName.InsecureSkipVerify)
	assert.NotNil(t, noName.VerifyConnection)

	none := Config{Host: "h", AcceptInvalidCerts: true, AcceptInvalidHostnames: true}.NewTLSConfig()
	assert.True(t, none.InsecureSkipVerify)
	assert.Nil(t, none.VerifyConnection)
}

func TestUDPSender(t *testing.T) {
	pconn, err := net.ListenPacket("udp", "127.0.0.1:0")
	assert.NoError(t, err)
	defer pconn.Close()
	port := pconn.LocalAddr().(*net.UDPAddr).Port

	sender, err := Dial(context.Background(), logger.WithField("test", t.Name()), Config{
		Transport: syslogprotocol.TransportUDP,
		Host:      "127.0.0.1",
		Port:      port,
		Framing:   syslogformat.FramingOctetCounting, // ignored by UDP
	})
	assert.NoError(t, err)
	assert.NoError(t, sender.Send([]byte("<13>first")))
	assert.NoError(t, sender.Send([]byte("<13>second")))
	assert.NoError(t, sender.Flush())

	buf := make([]byte, 1024)
	assert.NoError(t, pconn.SetReadDeadline(time.Now().Add(defs.TestReadTimeout)))
	n, _, err := pconn.ReadFrom(buf)
	assert.NoError(t, err)
	assert.Equal(t, "<13>first", string(buf[:n]))
	n, _, err = pconn.ReadFrom(buf)
	assert.NoError(t, err)
	assert.Equal(t, "<13>second", string(buf[:n]))
	assert.NoError(t, sender.Close())
}

func TestTCPSender(t *testing.T) {
	listener, received := listenAndCollect(t, nil)
	defer listener.Close()

	for _, framing := range []syslogformat.Framing{
		syslogformat.FramingNone,
		syslogformat.FramingNewline,
		syslogformat.FramingOctetCounting,
	} {
		sender, err := Dial(context.Background(), logger.WithField("test", t.Name()), Config{
			Transport: syslogprotocol.TransportTCP,
			Host:      "127.0.0.1",
			Port:      listener.Addr().(*net.TCPAddr).Port,
			Framing:   framing,
		})
		if !assert.NoError(t, err) {
			continue
		}
		assert.NoError(t, sender.Send([]byte("hello")))
		assert.NoError(t, sender.Flush())
		assert.NoError(t, sender.Send([]byte("abc")))
		assert.NoError(t, sender.Close())

		switch framing {
		case syslogformat.FramingNone:
			assert.Equal(t, "helloabc", readResult(received))
		case syslogformat.FramingNewline:
			assert.Equal(t, "hello\nabc\n", readResult(received))
		case syslogformat.FramingOctetCounting:
			assert.Equal(t, "5 hello3 abc", readResult(received))
		}
	}
}

func TestTCPSenderConnectFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	_, err = Dial(context.Background(), logger.WithField("test", t.Name()), Config{
		Transport: syslogprotocol.TransportTCP,
		Host:      "127.0.0.1",
		Port:      port,
	})
	assert.ErrorContains(t, err, "failed to connect:")
}

func TestUnsupportedTransport(t *testing.T) {
	_, err := Dial(context.Background(), logger.WithField("test", t.Name()), Config{
		Transport: syslogprotocol.Transport(99),
		Host:      "127.0.0.1",
	})
	assert.ErrorIs(t, err, ErrUnsupportedTransport)
}

func TestTLSSender(t *testing.T) {
	cert := btest.NewTestCertificate(t, "localhost", "127.0.0.1")
	listener, received := listenAndCollect(t, cert.ServerConfig())
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	dial := func(t *testing.T, cfg Config) (Sender, error) {
		cfg.Transport = syslogprotocol.TransportTLS
		cfg.Host = "127.0.0.1"
		cfg.Port = port
		return Dial(context.Background(), logger.WithField("test", t.Name()), cfg)
	}

	t.Run("verified", func(t *testing.T) {
		sender, err := dial(t, Config{TLSDomain: "localhost", RootCAs: cert.Pool, Framing: syslogformat.FramingNewline})
		if assert.NoError(t, err) {
			assert.NoError(t, sender.Send([]byte("<13>secure")))
			assert.NoError(t, sender.Close())
			assert.Equal(t, "<13>secure\n", readResult(received))
		}
	})

	t.Run("unknown authority", func(t *testing.T) {
		_, err := dial(t, Config{TLSDomain: "localhost"})
		assert.ErrorContains(t, err, "failed to handshake:")
	})

	t.Run("unknown authority accepted", func(t *testing.T) {
		sender, err := dial(t, Config{TLSDomain: "wrong.example", AcceptInvalidCerts: true})
		if assert.NoError(t, err) {
			assert.NoError(t, sender.Send([]byte("x")))
			assert.NoError(t, sender.Close())
			assert.Equal(t, "x", readResult(received))
		}
	})

	t.Run("wrong hostname", func(t *testing.T) {
		_, err := dial(t, Config{TLSDomain: "wrong.example", RootCAs: cert.Pool})
		assert.ErrorContains(t, err, "failed to handshake:")
	})

	t.Run("wrong hostname accepted", func(t *testing.T) {
		sender, err := dial(t, Config{TLSDomain: "wrong.example", RootCAs: cert.Pool, AcceptInvalidHostnames: true})
		if assert.NoError(t, err) {
			assert.NoError(t, sender.Send([]byte("y")))
			assert.NoError(t, sender.Close())
			assert.Equal(t, "y", readResult(received))
		}
	})

	t.Run("wrong hostname accepted but unknown authority", func(t *testing.T) {
		_, err := dial(t, Config{TLSDomain: "wrong.example", AcceptInvalidHostnames: true})
		assert.ErrorContains(t, err, "failed to handshake:")
	})
}

// listenAndCollect launches a TCP or TLS server which sends the whole content of each successful connection to the channel
func listenAndCollect(t *testing.T, tlsConfig *tls.Config) (net.Listener, <-chan string) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	if tlsConfig != nil {
		listener = tls.NewListener(listener, tlsConfig)
	}
	received := make(chan string, 10)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				data, err := io.ReadAll(conn)
				if err == nil {
					received <- string(data)
				}
			}()
		}
	}()
	return listener, received
}

func readResult(received <-chan string) string {
	select {
	case s := <-received:
		return s
	case <-time.After(defs.TestReadTimeout):
		return "timeout"
	}
}

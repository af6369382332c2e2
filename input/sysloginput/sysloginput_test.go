package sysloginput

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/base"
	"github.com/relex/syslog-tools/base/btest"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/input/tcplistener"
	"github.com/relex/syslog-tools/output/syslogformat"
	"github.com/relex/syslog-tools/output/syslogsender"
	"github.com/relex/syslog-tools/syslogprotocol"
	"github.com/stretchr/testify/assert"
)

type reportedMessage struct {
	peer string
	msg  syslogprotocol.Message
}

func newCollectingReporter() (base.MessageReporter, <-chan reportedMessage) {
	ch := make(chan reportedMessage, 100)
	return base.MessageReporterFunc(func(peer string, msg syslogprotocol.Message) {
		ch <- reportedMessage{peer, msg}
	}), ch
}

func readReported(ch <-chan reportedMessage) reportedMessage {
	select {
	case r := <-ch:
		return r
	case <-time.After(defs.TestReadTimeout):
		return reportedMessage{peer: "timeout"}
	}
}

func TestSyslogTCPInput(t *testing.T) {
	const testLogLine = "<163>1 2019-08-15T15:50:46.866915+03:00 local my-app 123 fn - Something"

	config := &Config{Host: "localhost", Port: 0, Transport: syslogprotocol.TransportTCP}
	reporter, reported := newCollectingReporter()
	metricFactory := base.NewMetricFactory("testsysloginput_tcp_", nil, nil)
	stopInput := channels.NewSignalAwaitable()

	// create and launch input (the server)
	input, inputErr := config.NewInput(logger.WithField("test", t.Name()), reporter, metricFactory, stopInput)
	if !assert.Nil(t, inputErr) {
		return
	}
	input.Launch()

	// create client connection to send test logs
	conn, connErr := net.Dial("tcp", input.Address())
	if !assert.Nil(t, connErr) {
		return
	}
	_, connErr = conn.Write([]byte(testLogLine))
	assert.Nil(t, connErr)
	{
		r := readReported(reported)
		assert.Equal(t, conn.LocalAddr().String(), r.peer)
		assert.Equal(t, syslogprotocol.RFC5424, r.msg.Variant)
		assert.Equal(t, "local4", r.msg.Facility.String())
		assert.Equal(t, syslogprotocol.SeverityError, r.msg.Severity)
		assert.Equal(t, "my-app", r.msg.AppName)
		assert.Equal(t, "Something", r.msg.Body)
	}
	_, connErr = conn.Write([]byte("\x01\x02 binary garbage"))
	assert.Nil(t, connErr)
	{
		r := readReported(reported)
		assert.False(t, r.msg.HasPriority)
		assert.Equal(t, "\x01\x02 binary garbage", r.msg.Body)
	}
	assert.Nil(t, conn.Close())

	stopInput.Signal()
	assert.True(t, input.Stopped().Wait(defs.TestReadTimeout))

	messages := metricFactory.AddOrGetCounterVec("received_messages_total", "", []string{"protocol"}, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(messages.WithLabelValues("rfc5424")))
	assert.Equal(t, 1.0, testutil.ToFloat64(messages.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metricFactory.AddOrGetCounter("accepted_connections_total", "", nil, nil)))
}

func TestSyslogTLSInput(t *testing.T) {
	cert := btest.NewTestCertificate(t, "localhost", "127.0.0.1")
	identity, err := NewTLSIdentity(cert.CertPEM, cert.KeyPEM)
	if !assert.NoError(t, err) {
		return
	}

	config := &Config{Host: "127.0.0.1", Transport: syslogprotocol.TransportTLS, Identity: &identity, Framing: tcplistener.FramingNewline}
	reporter, reported := newCollectingReporter()
	stopInput := channels.NewSignalAwaitable()
	input, inputErr := config.NewInput(logger.WithField("test", t.Name()), reporter, base.NewMetricFactory("testsysloginput_tls_", nil, nil), stopInput)
	if !assert.Nil(t, inputErr) {
		return
	}
	input.Launch()

	_, portStr, _ := net.SplitHostPort(input.Address())
	port, _ := net.LookupPort("tcp", portStr)
	sender, err := syslogsender.Dial(context.Background(), logger.WithField("test", t.Name()), syslogsender.Config{
		Transport: syslogprotocol.TransportTLS,
		Host:      "127.0.0.1",
		Port:      port,
		Framing:   syslogformat.FramingNewline,
		TLSDomain: "localhost",
		RootCAs:   cert.Pool,
	})
	if !assert.NoError(t, err) {
		return
	}

	elem, _ := syslogprotocol.NewSDElement("syslog-client@1234")
	assert.NoError(t, elem.AddParam("quote", `say "hi" [now]\`))
	formatter := syslogformat.Formatter{Facility: syslogprotocol.FacilityDaemon, Hostname: "sender", AppName: "test", Now: time.Now}
	assert.NoError(t, sender.Send(formatter.FormatRFC5424(syslogprotocol.SeverityInformational, "MSG1", []syslogprotocol.SDElement{*elem}, "over TLS")))
	assert.NoError(t, sender.Send(formatter.FormatRFC3164(syslogprotocol.SeverityNotice, "legacy")))
	assert.NoError(t, sender.Close())

	{
		r := readReported(reported)
		assert.Equal(t, syslogprotocol.RFC5424, r.msg.Variant)
		assert.Equal(t, syslogprotocol.FacilityDaemon, r.msg.Facility)
		assert.Equal(t, syslogprotocol.SeverityInformational, r.msg.Severity)
		assert.Equal(t, "MSG1", r.msg.MsgID)
		v, _ := r.msg.SDParam("syslog-client@1234", "quote")
		assert.Equal(t, `say "hi" [now]\`, v)
		assert.Equal(t, "over TLS", r.msg.Body)
	}
	{
		r := readReported(reported)
		assert.Equal(t, syslogprotocol.RFC3164, r.msg.Variant)
		assert.Equal(t, "sender", r.msg.Hostname)
		assert.Equal(t, "test", r.msg.AppName)
		assert.Equal(t, "legacy", r.msg.Body)
	}

	stopInput.Signal()
	assert.True(t, input.Stopped().Wait(defs.TestReadTimeout))
}

func TestSyslogInputFilter(t *testing.T) {
	config := &Config{Host: "localhost", Transport: syslogprotocol.TransportTCP, Framing: tcplistener.FramingNewline, Filter: "*keep*"}
	reporter, reported := newCollectingReporter()
	metricFactory := base.NewMetricFactory("testsysloginput_filter_", nil, nil)
	stopInput := channels.NewSignalAwaitable()
	input, inputErr := config.NewInput(logger.WithField("test", t.Name()), reporter, metricFactory, stopInput)
	if !assert.Nil(t, inputErr) {
		return
	}
	input.Launch()

	conn, connErr := net.Dial("tcp", input.Address())
	if !assert.Nil(t, connErr) {
		return
	}
	_, connErr = conn.Write([]byte("<13>drop this\n<13>please keep this\n"))
	assert.Nil(t, connErr)
	assert.Equal(t, "please keep this", readReported(reported).msg.Body)
	assert.Nil(t, conn.Close())

	stopInput.Signal()
	assert.True(t, input.Stopped().Wait(defs.TestReadTimeout))
	assert.Empty(t, reported)

	messages := metricFactory.AddOrGetCounterVec("received_messages_total", "", []string{"protocol"}, nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(messages.WithLabelValues("rfc3164")))
}

func TestVerifyConfig(t *testing.T) {
	assert.ErrorIs(t, (&Config{Transport: syslogprotocol.TransportUDP}).VerifyConfig(), ErrUDPUnsupported)
	assert.ErrorContains(t, (&Config{Transport: syslogprotocol.TransportTLS}).VerifyConfig(), "TLS requires")
	assert.ErrorContains(t, (&Config{Transport: syslogprotocol.TransportTCP, Filter: "[a"}).VerifyConfig(), "invalid filter '[a'")
	assert.ErrorContains(t, (&Config{Transport: syslogprotocol.TransportTCP, Port: 70000}).VerifyConfig(), "out of range")
	assert.NoError(t, (&Config{Transport: syslogprotocol.TransportTCP, Port: 514, Filter: "*"}).VerifyConfig())

	_, err := (&Config{Transport: syslogprotocol.TransportUDP}).NewInput(logger.Root(), nil, nil, channels.NewSignalAwaitable())
	assert.ErrorIs(t, err, ErrUDPUnsupported)

	_, err = (&Config{Host: "localhost", Transport: syslogprotocol.TransportTCP, Filter: "[a"}).NewInput(logger.Root(), nil, nil, channels.NewSignalAwaitable())
	assert.ErrorContains(t, err, "invalid filter '[a'")

	filter, err := (&Config{Transport: syslogprotocol.TransportTCP, Filter: "*keep*"}).verify()
	if assert.NoError(t, err) && assert.NotNil(t, filter) {
		assert.True(t, filter("please keep me"))
		assert.False(t, filter("drop me"))
	}
	filter, err = (&Config{Transport: syslogprotocol.TransportTCP}).verify()
	assert.NoError(t, err)
	assert.Nil(t, filter)
}

func TestConfigAddress(t *testing.T) {
	assert.Equal(t, "[::]:514", (&Config{Host: "[::]", Port: 514}).Address())
	assert.Equal(t, "[::1]:6514", (&Config{Host: "::1", Port: 6514}).Address())
	assert.Equal(t, "localhost:0", (&Config{Host: "localhost"}).Address())
	assert.Equal(t, ":514", (&Config{Port: 514}).Address())
}

func TestNewTLSIdentity(t *testing.T) {
	cert := btest.NewTestCertificate(t, "localhost")
	other := btest.NewTestCertificate(t, "localhost")

	identity, err := NewTLSIdentity(cert.CertPEM, cert.KeyPEM)
	assert.NoError(t, err)
	assert.Len(t, identity.Certificate, 1)

	_, err = NewTLSIdentity(cert.CertPEM, other.KeyPEM)
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	_, err = NewTLSIdentity(cert.CertPEM, []byte("not a key"))
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	sec1, err := x509.MarshalECPrivateKey(cert.Pair.PrivateKey.(*ecdsa.PrivateKey))
	assert.NoError(t, err)
	_, err = NewTLSIdentity(cert.CertPEM, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: sec1}))
	assert.ErrorContains(t, err, "not PKCS8")
}

func TestConsoleReporter(t *testing.T) {
	msg := syslogprotocol.Message{
		Variant:     syslogprotocol.RFC3164,
		HasPriority: true,
		Facility:    syslogprotocol.FacilityUser,
		Severity:    syslogprotocol.SeverityError,
		Body:        "hi",
	}
	{
		out := &bytes.Buffer{}
		rep := NewConsoleReporter(logger.WithField("test", t.Name()), out, false)
		rep.Report("10.0.0.1:5000", msg)
		rep.Report(defs.UnknownPeer, syslogprotocol.Message{Body: "raw"})
		rep.Close()
		assert.Equal(t, "10.0.0.1:5000 facility=user severity=error timestamp=- host=- app=- msg=\"hi\"\n"+
			"unknown peer facility=unknown severity=unknown timestamp=- host=- app=- msg=\"raw\"\n", out.String())
	}
	{
		out := &bytes.Buffer{}
		rep := NewConsoleReporter(logger.WithField("test", t.Name()), out, true)
		rep.Report("p", msg)
		rep.Close()
		assert.True(t, strings.HasPrefix(out.String(), "p \x1b["), out.String())
		assert.Contains(t, out.String(), `msg="hi"`)
	}
}

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/base"
	"github.com/relex/syslog-tools/output/syslogformat"
	"github.com/relex/syslog-tools/output/syslogsender"
	"github.com/relex/syslog-tools/run"
	"github.com/relex/syslog-tools/syslogprotocol"
)

type clientCommandState struct {
	Host                   string `help:"Server host name or IP address"`
	Port                   int    `help:"Server port, 0 for the default of transport (514 UDP, 601 TCP, 6514 TLS)"`
	TLSDomain              string `name:"tls-domain" help:"Name to verify the server certificate against, default to host"`
	AcceptInvalidCerts     bool   `name:"accept-invalid-certs" help:"Accept any server certificate (TLS)"`
	AcceptInvalidHostnames bool   `name:"accept-invalid-hostnames" help:"Accept server certificates for other names (TLS)"`
	CACert                 string `name:"ca-cert" help:"PEM file of extra trusted CA certificates (TLS)"`
	Format                 string `help:"Message format: rfc3164 or rfc5424"`
	SDID                   string `name:"sd-id" help:"ID of the structured data element (RFC 5424)"`
	MsgID                  string `name:"msg-id" help:"MSGID header (RFC 5424)"`
	SDElements             string `name:"sd-elements" help:"Structured data params as k=v,k2=v2 (RFC 5424)"`
	Severity               string `help:"Severity: emergency, alert, critical, error, warning, notice, informational or debug"`
	Facility               string `help:"Facility: kern, user, mail, daemon, ... local0-local7"`
	Framing                string `help:"Framing of TCP and TLS streams: none, newline or octet-counting"`
	Stdin                  bool   `help:"Send lines from stdin after the messages in arguments"`
	Defaults               string `help:"YAML file of default ports"`
}

var clientCmd = clientCommandState{
	Host:     "localhost",
	Format:   syslogprotocol.RFC3164.String(),
	SDID:     "syslog-client@1234",
	Severity: "notice",
	Facility: syslogprotocol.DefaultFacility.String(),
	Framing:  syslogformat.FramingNone.String(),
}

func (cmd *clientCommandState) run(args []string) {
	if len(args) == 0 {
		logger.Fatal("transport is required: one of ", syslogprotocol.TransportNames)
	}
	config, err := cmd.buildConfig(args[0])
	if err != nil {
		logger.Fatalf("invalid arguments: %s", err.Error())
	}

	var input io.Reader
	if cmd.Stdin {
		input = os.Stdin
	}
	metricFactory := base.NewMetricFactory("syslog_client_", nil, nil)
	if _, err := run.RunClient(context.Background(), logger.Root(), config, args[1:], input, metricFactory); err != nil {
		logger.Fatalf("failed to start client: %s", err.Error())
	}
}

func (cmd *clientCommandState) buildConfig(transportName string) (run.ClientConfig, error) {
	transport, err := syslogprotocol.ParseTransport(transportName)
	if err != nil {
		return run.ClientConfig{}, err
	}
	variant, err := syslogprotocol.ParseVariant(cmd.Format)
	if err != nil {
		return run.ClientConfig{}, err
	}
	severity, err := syslogprotocol.ParseSeverity(cmd.Severity)
	if err != nil {
		return run.ClientConfig{}, err
	}
	facility, err := syslogprotocol.ParseFacility(cmd.Facility)
	if err != nil {
		return run.ClientConfig{}, err
	}
	framing, err := syslogformat.ParseFraming(cmd.Framing)
	if err != nil {
		return run.ClientConfig{}, err
	}
	defaults, err := run.LoadPortDefaults(cmd.Defaults)
	if err != nil {
		return run.ClientConfig{}, err
	}

	sender := syslogsender.Config{
		Transport:              transport,
		Host:                   cmd.Host,
		Port:                   cmd.Port,
		Framing:                framing,
		TLSDomain:              cmd.TLSDomain,
		AcceptInvalidCerts:     cmd.AcceptInvalidCerts,
		AcceptInvalidHostnames: cmd.AcceptInvalidHostnames,
	}
	if sender.Port == 0 {
		sender.Port = defaults.ClientPort(transport)
	}
	if cmd.CACert != "" {
		if sender.RootCAs, err = run.LoadCertPool(cmd.CACert); err != nil {
			return run.ClientConfig{}, err
		}
	}

	return run.ClientConfig{
		Sender:   sender,
		Variant:  variant,
		Facility: facility,
		Severity: severity,
		SDID:     cmd.SDID,
		MsgID:    cmd.MsgID,
		SDParams: run.ParseSDParams(cmd.SDElements),
	}, nil
}

package cmd

import (
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/base"
	"github.com/relex/syslog-tools/input/sysloginput"
	"github.com/relex/syslog-tools/input/tcplistener"
	"github.com/relex/syslog-tools/run"
	"github.com/relex/syslog-tools/syslogprotocol"
)

type serverCommandState struct {
	Address        string `help:"Listening address"`
	Port           int    `help:"Listening port, 0 for the default (514)"`
	Cert           string `help:"PEM certificate chain file (TLS)"`
	Key            string `help:"PEM PKCS8 private key file (TLS)"`
	Framing        string `help:"Message framing: chunk (one read per message) or newline"`
	ReadBuffer     string `name:"read-buffer" help:"Read buffer size per connection, e.g. 16KB. Empty for the default"`
	MaxConnections int    `name:"max-connections" help:"Max concurrent connections, 0 for unlimited"`
	Filter         string `help:"Glob pattern of message bodies to report, e.g. '*error*'"`
	Echo           bool   `help:"Print received messages to stdout, colored on terminals"`
	MetricsAddr    string `name:"metrics-addr" help:"The listener address to expose Prometheus metrics, empty to disable"`
	Defaults       string `help:"YAML file of default ports and read buffer size"`
}

var serverCmd = serverCommandState{
	Address: "[::]",
	Framing: tcplistener.FramingChunk.String(),
}

func (cmd *serverCommandState) run(args []string) {
	if len(args) != 1 {
		logger.Fatal("transport is required: tcp or tls")
	}
	config, err := cmd.buildConfig(args[0])
	if err != nil {
		logger.Fatalf("invalid arguments: %s", err.Error())
	}
	run.RunServer(config, base.NewMetricFactory("syslog_server_", nil, nil))
}

func (cmd *serverCommandState) buildConfig(transportName string) (run.ServerConfig, error) {
	transport, err := syslogprotocol.ParseTransport(transportName)
	if err != nil {
		return run.ServerConfig{}, err
	}
	framing, err := tcplistener.ParseFraming(cmd.Framing)
	if err != nil {
		return run.ServerConfig{}, err
	}
	defaults, err := run.LoadPortDefaults(cmd.Defaults)
	if err != nil {
		return run.ServerConfig{}, err
	}
	readBuffer := defaults.Server.ReadBuffer
	if cmd.ReadBuffer != "" {
		if err := readBuffer.UnmarshalText([]byte(cmd.ReadBuffer)); err != nil {
			return run.ServerConfig{}, err
		}
	}
	if readBuffer > datasize.MB {
		logger.Warnf("read buffer %s is larger than 1MB per connection", readBuffer.HR())
	}

	config := run.ServerConfig{
		Input: sysloginput.Config{
			Host:           cmd.Address,
			Port:           cmd.Port,
			Transport:      transport,
			Framing:        framing,
			ReadBufferSize: int(readBuffer.Bytes()),
			MaxConnections: cmd.MaxConnections,
			Filter:         cmd.Filter,
		},
		CertPath:    cmd.Cert,
		KeyPath:     cmd.Key,
		MetricsAddr: cmd.MetricsAddr,
	}
	if config.Input.Port == 0 {
		config.Input.Port = defaults.ServerPort(transport)
	}
	if cmd.Echo {
		config.Echo = os.Stdout
		config.EchoColored = sysloginput.IsColorTerminal(os.Stdout)
	}
	return config, nil
}

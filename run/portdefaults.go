package run

import (
	"fmt"
	"strconv"

	"github.com/c2h5oh/datasize"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/syslogprotocol"
	"github.com/relex/syslog-tools/util"
	"gopkg.in/yaml.v3"
)

// PortNumber is a TCP or UDP port number in 1-65535, 0 for unset
type PortNumber int

// PortDefaults defines the optional defaults file of ports and sizes, e.g.
//
//	client: {udp: 514, tcp: 601, tls: 6514}
//	server: {tcp: 514, tls: 514, readBuffer: 16KB}
type PortDefaults struct {
	Client ClientPortDefaults `yaml:"client"`
	Server ServerPortDefaults `yaml:"server"`
}

// ClientPortDefaults defines the default remote ports of the client by transport
type ClientPortDefaults struct {
	UDP PortNumber `yaml:"udp"`
	TCP PortNumber `yaml:"tcp"`
	TLS PortNumber `yaml:"tls"`
}

// ServerPortDefaults defines the default listening ports and read buffer of the server
type ServerPortDefaults struct {
	TCP        PortNumber        `yaml:"tcp"`
	TLS        PortNumber        `yaml:"tls"`
	ReadBuffer datasize.ByteSize `yaml:"readBuffer"`
}

// UnmarshalYAML checks the range of port
func (port *PortNumber) UnmarshalYAML(value *yaml.Node) error {
	num, err := strconv.Atoi(value.Value)
	if err != nil || value.Kind != yaml.ScalarNode {
		return util.NewYamlError(value, fmt.Sprintf("port must be a number: '%s'", value.Value))
	}
	if num < 1 || num > 65535 {
		return util.NewYamlError(value, fmt.Sprintf("port %d is out of range 1-65535", num))
	}
	*port = PortNumber(num)
	return nil
}

// BuiltinPortDefaults returns the well-known ports without any defaults file
func BuiltinPortDefaults() PortDefaults {
	return PortDefaults{
		Client: ClientPortDefaults{
			UDP: PortNumber(syslogprotocol.TransportUDP.DefaultClientPort()),
			TCP: PortNumber(syslogprotocol.TransportTCP.DefaultClientPort()),
			TLS: PortNumber(syslogprotocol.TransportTLS.DefaultClientPort()),
		},
		Server: ServerPortDefaults{
			TCP:        syslogprotocol.DefaultServerPort,
			TLS:        syslogprotocol.DefaultServerPort,
			ReadBuffer: datasize.ByteSize(defs.ListenerReadBufferSize),
		},
	}
}

// LoadPortDefaults loads the defaults file; entries missing from the file keep their built-in values
func LoadPortDefaults(path string) (PortDefaults, error) {
	defaults := BuiltinPortDefaults()
	if path == "" {
		return defaults, nil
	}
	if err := util.UnmarshalYamlFile(path, &defaults); err != nil {
		return defaults, err
	}
	return defaults, nil
}

// ClientPort returns the default remote port of transport
func (pd PortDefaults) ClientPort(transport syslogprotocol.Transport) int {
	switch transport {
	case syslogprotocol.TransportUDP:
		return int(pd.Client.UDP)
	case syslogprotocol.TransportTLS:
		return int(pd.Client.TLS)
	default:
		return int(pd.Client.TCP)
	}
}

// ServerPort returns the default listening port of transport
func (pd PortDefaults) ServerPort(transport syslogprotocol.Transport) int {
	if transport == syslogprotocol.TransportTLS {
		return int(pd.Server.TLS)
	}
	return int(pd.Server.TCP)
}

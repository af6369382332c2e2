package syslogprotocol

// Variant is the wire format of a syslog message
type Variant int

// Supported variants
const (
	RFC3164 Variant = iota
	RFC5424
)

// VariantNames contains the command-line names of variants
var VariantNames = []string{
	"rfc3164",
	"rfc5424",
}

// ParseVariant parses variant name case-insensitively
func ParseVariant(name string) (Variant, error) {
	index, err := parseEnum("format", name, VariantNames)
	return Variant(index), err
}

func (v Variant) String() string {
	if v < RFC3164 || v > RFC5424 {
		return "unknown"
	}
	return VariantNames[v]
}

// Transport is the delivery mode of syslog messages
type Transport int

// Supported transports
const (
	TransportTCP Transport = iota
	TransportUDP
	TransportTLS
)

// TransportNames contains the command-line names of transports
var TransportNames = []string{
	"tcp",
	"udp",
	"tls",
}

// ParseTransport parses transport name case-insensitively
func ParseTransport(name string) (Transport, error) {
	index, err := parseEnum("transport", name, TransportNames)
	return Transport(index), err
}

func (t Transport) String() string {
	if t < TransportTCP || t > TransportTLS {
		return "unknown"
	}
	return TransportNames[t]
}

// DefaultClientPort returns the well-known remote port of the transport: 514 (UDP), 601 (TCP) or 6514 (TLS)
func (t Transport) DefaultClientPort() int {
	switch t {
	case TransportUDP:
		return 514
	case TransportTLS:
		return 6514
	default:
		return 601
	}
}

// DefaultServerPort is the default listening port of the receiver for all transports
const DefaultServerPort = 514

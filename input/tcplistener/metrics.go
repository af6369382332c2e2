package tcplistener

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/syslog-tools/base"
)

type listenerMetrics struct {
	acceptedConnections prometheus.Counter
	rejectedConnections prometheus.Counter
	activeConnections   prometheus.Gauge
	handshakeFailures   prometheus.Counter
	receivedBytes       prometheus.Counter
}

func newListenerMetrics(factory *base.MetricFactory) listenerMetrics {
	if factory == nil {
		factory = base.NewMetricFactory("syslog_server_", nil, nil)
	}
	return listenerMetrics{
		acceptedConnections: factory.AddOrGetCounter("accepted_connections_total", "Numbers of accepted connections", nil, nil),
		rejectedConnections: factory.AddOrGetCounter("rejected_connections_total", "Numbers of connections closed for exceeding the limit", nil, nil),
		activeConnections:   factory.AddOrGetGauge("active_connections", "Numbers of currently open connections", nil, nil),
		handshakeFailures:   factory.AddOrGetCounter("handshake_failures_total", "Numbers of failed TLS handshakes", nil, nil),
		receivedBytes:       factory.AddOrGetCounter("received_bytes_total", "Total length in bytes received from all connections", nil, nil),
	}
}

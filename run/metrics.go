package run

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/syslog-tools/base"
)

type clientMetrics struct {
	sentMessages   prometheus.Counter
	failedMessages prometheus.Counter
	sentBytes      prometheus.Counter
}

func newClientMetrics(factory *base.MetricFactory) clientMetrics {
	return clientMetrics{
		sentMessages:   factory.AddOrGetCounter("sent_messages_total", "Numbers of sent messages", nil, nil),
		failedMessages: factory.AddOrGetCounter("failed_messages_total", "Numbers of messages failed to send", nil, nil),
		sentBytes:      factory.AddOrGetCounter("sent_bytes_total", "Total length in bytes of sent messages before framing", nil, nil),
	}
}

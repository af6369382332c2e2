package run

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rbmk-project/common/errclass"
	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/base"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/output/syslogformat"
	"github.com/relex/syslog-tools/output/syslogsender"
	"github.com/relex/syslog-tools/syslogprotocol"
)

// maxInputLineLength is the max length of a message line read from stdin
const maxInputLineLength = 1024 * 1024

// ClientConfig defines what and how the client sends
type ClientConfig struct {
	Sender   syslogsender.Config
	Variant  syslogprotocol.Variant
	Facility syslogprotocol.Facility
	Severity syslogprotocol.Severity
	SDID     string // ID of the structured data element, used only if there are params
	MsgID    string
	SDParams []syslogprotocol.SDParam
}

// ClientResult summarizes a batch of sending
type ClientResult struct {
	Sent  int
	Total int
}

// Client formats message lines and sends them one by one over a single connection
type Client struct {
	logger    logger.Logger
	formatter syslogformat.Formatter
	config    ClientConfig
	elements  []syslogprotocol.SDElement
	sender    syslogsender.Sender
	metrics   clientMetrics
}

// ParseSDParams parses "k=v,k2=v2" into params in the same order
//
// Items without '=' are ignored. Values may contain '=' but not ','.
func ParseSDParams(text string) []syslogprotocol.SDParam {
	var params []syslogprotocol.SDParam
	for _, item := range strings.Split(text, ",") {
		name, value, found := strings.Cut(item, "=")
		if !found {
			continue
		}
		params = append(params, syslogprotocol.SDParam{Name: name, Value: value})
	}
	return params
}

// BuildSDElements creates the structured data for outgoing RFC 5424 messages
//
// Returns nil if there is no param, which is serialized as "-"
func BuildSDElements(id string, params []syslogprotocol.SDParam) ([]syslogprotocol.SDElement, error) {
	if len(params) == 0 {
		return nil, nil
	}
	elem, err := syslogprotocol.NewSDElement(id)
	if err != nil {
		return nil, err
	}
	for _, p := range params {
		if err := elem.AddParam(p.Name, p.Value); err != nil {
			return nil, err
		}
	}
	return []syslogprotocol.SDElement{*elem}, nil
}

// NewClient validates the message settings and connects to the server
//
// Invalid settings are reported before any network activity
func NewClient(ctx context.Context, parentLogger logger.Logger, config ClientConfig, metricFactory *base.MetricFactory) (*Client, error) {
	if !config.Severity.Valid() {
		return nil, fmt.Errorf("%w: severity %d", syslogprotocol.ErrInvalidValue, config.Severity)
	}
	if !config.Facility.Valid() {
		return nil, fmt.Errorf("%w: facility %d", syslogprotocol.ErrInvalidValue, config.Facility)
	}
	var elements []syslogprotocol.SDElement
	if config.Variant == syslogprotocol.RFC5424 {
		if config.MsgID != "" && !syslogformat.IsValidHeaderField(config.MsgID, syslogformat.MaxMsgIDLength) {
			return nil, fmt.Errorf("%w: msg-id '%s' must be 1-%d printable ASCII characters",
				syslogprotocol.ErrInvalidValue, config.MsgID, syslogformat.MaxMsgIDLength)
		}
		var err error
		if elements, err = BuildSDElements(config.SDID, config.SDParams); err != nil {
			return nil, fmt.Errorf("structured data: %w", err)
		}
	}

	formatter := syslogformat.NewFormatter()
	formatter.Facility = config.Facility

	sender, err := syslogsender.Dial(ctx, parentLogger, config.Sender)
	if err != nil {
		return nil, err
	}
	return &Client{
		logger:    parentLogger.WithField(defs.LabelComponent, "Client"),
		formatter: formatter,
		config:    config,
		elements:  elements,
		sender:    sender,
		metrics:   newClientMetrics(metricFactory),
	}, nil
}

// Send formats and sends one message body, then flushes
func (client *Client) Send(body string) error {
	payload := client.formatter.Format(client.config.Variant, client.config.Severity, client.config.MsgID, client.elements, body)
	err := client.sender.Send(payload)
	if err == nil {
		err = client.sender.Flush()
	}
	if err != nil {
		client.metrics.failedMessages.Inc()
		return err
	}
	client.metrics.sentMessages.Inc()
	client.metrics.sentBytes.Add(float64(len(payload)))
	return nil
}

// SendAll sends all messages followed by lines from input (optional), and logs failures without stopping
func (client *Client) SendAll(messages []string, input io.Reader) ClientResult {
	result := ClientResult{}
	send := func(body string) {
		result.Total++
		if err := client.Send(body); err != nil {
			client.logger.WithField(defs.LabelErrorClass, errclass.New(err)).Errorf("failed to send message #%d: %s", result.Total, err.Error())
			return
		}
		result.Sent++
	}
	for _, msg := range messages {
		send(msg)
	}
	if input != nil {
		scanner := bufio.NewScanner(input)
		scanner.Buffer(make([]byte, 0, 64*1024), maxInputLineLength)
		for scanner.Scan() {
			send(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			client.logger.Error("failed to read input: ", err)
		}
	}
	return result
}

// Close flushes and closes the connection
func (client *Client) Close() error {
	return client.sender.Close()
}

// RunClient connects, sends the given messages and lines from input, and closes the connection
//
// Returns error only when the client cannot start; failures of individual messages are logged and counted
func RunClient(ctx context.Context, parentLogger logger.Logger, config ClientConfig, messages []string, input io.Reader,
	metricFactory *base.MetricFactory) (ClientResult, error) {

	client, err := NewClient(ctx, parentLogger, config, metricFactory)
	if err != nil {
		return ClientResult{}, err
	}
	result := client.SendAll(messages, input)
	if err := client.Close(); err != nil {
		client.logger.Warn("error closing sender: ", err)
	}
	client.logger.Infof("sent %d of %d messages", result.Sent, result.Total)
	if dump, err := metricFactory.DumpMetrics(false); err == nil {
		client.logger.Debug("metrics:\n", dump)
	}
	return result, nil
}

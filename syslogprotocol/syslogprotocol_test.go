package syslogprotocol

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriority(t *testing.T) {
	for f := FacilityKern; f <= FacilityLocal7; f++ {
		for s := SeverityEmergency; s <= SeverityDebug; s++ {
			pri := Priority(f, s)
			assert.Equal(t, int(f)*8+int(s), pri)
			assert.GreaterOrEqual(t, pri, 0)
			assert.LessOrEqual(t, pri, 191)

			f2, s2, ok := SplitPriority(pri)
			assert.True(t, ok)
			assert.Equal(t, f, f2)
			assert.Equal(t, s, s2)
		}
	}
	assert.Equal(t, 13, Priority(DefaultFacility, SeverityNotice))
	assert.Equal(t, 191, MaxPriority)

	_, _, ok := SplitPriority(192)
	assert.False(t, ok)
	_, _, ok = SplitPriority(-1)
	assert.False(t, ok)
}

func TestParseEnums(t *testing.T) {
	sev, err := ParseSeverity("NoTiCe")
	assert.NoError(t, err)
	assert.Equal(t, SeverityNotice, sev)

	_, err = ParseSeverity("loud")
	if assert.Error(t, err) {
		assert.True(t, errors.Is(err, ErrInvalidValue))
		assert.Contains(t, err.Error(), "emergency, alert, critical, error, warning, notice, informational, debug")
	}

	fac, err := ParseFacility("LOCAL4")
	assert.NoError(t, err)
	assert.Equal(t, Facility(20), fac)

	variant, err := ParseVariant("RFC5424")
	assert.NoError(t, err)
	assert.Equal(t, RFC5424, variant)
	_, err = ParseVariant("rfc9999")
	assert.ErrorIs(t, err, ErrInvalidValue)

	transport, err := ParseTransport("Tls")
	assert.NoError(t, err)
	assert.Equal(t, TransportTLS, transport)
	assert.Equal(t, 6514, transport.DefaultClientPort())
	assert.Equal(t, 514, TransportUDP.DefaultClientPort())
	assert.Equal(t, 601, TransportTCP.DefaultClientPort())
	_, err = ParseTransport("quic")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestSDElement(t *testing.T) {
	_, err := NewSDElement("bad id")
	assert.ErrorIs(t, err, ErrInvalidName)
	for _, id := range []string{"", "a=b", "a]", `a"`, "tab\t", "\x7f", "123456789012345678901234567890123"} {
		_, err := NewSDElement(id)
		assert.ErrorIs(t, err, ErrInvalidName, id)
	}

	elem, err := NewSDElement("ok-id")
	if !assert.NoError(t, err) {
		return
	}
	assert.ErrorIs(t, elem.AddParam("k=", "v"), ErrInvalidName)
	assert.NoError(t, elem.AddParam("k", `a"b\c]d`))
	assert.NoError(t, elem.AddParam("second", "plain"))
	assert.ErrorIs(t, elem.AddParam("k", "again"), ErrDuplicateParam)

	assert.Equal(t, `[ok-id k="a\"b\\c\]d" second="plain"]`, elem.String())

	v, ok := elem.Param("k")
	assert.True(t, ok)
	assert.Equal(t, `a"b\c]d`, v)
}

func TestEscaping(t *testing.T) {
	const literal = `quote" backslash\ bracket]`
	escaped := string(AppendEscapedParamValue(nil, literal))
	assert.Equal(t, `quote\" backslash\\ bracket\]`, escaped)
	assert.Equal(t, literal, UnescapeParamValue(escaped))
	assert.Equal(t, `keep\n as is`, UnescapeParamValue(`keep\n as is`))
	assert.Equal(t, `trailing\`, UnescapeParamValue(`trailing\`))
}

func TestStructuredData(t *testing.T) {
	assert.Equal(t, "-", string(AppendStructuredData(nil, nil)))
	elements := []SDElement{
		{ID: "a@1", Params: []SDParam{{"x", "1"}}},
		{ID: "b@2"},
	}
	assert.Equal(t, `[a@1 x="1"][b@2]`, string(AppendStructuredData(nil, elements)))
}

func TestMessageString(t *testing.T) {
	msg := Message{
		Variant:     RFC5424,
		HasPriority: true,
		Facility:    FacilityUser,
		Severity:    SeverityNotice,
		Timestamp:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Hostname:    "box",
		AppName:     "cron",
		ProcID:      "42",
		Body:        "hello",
	}
	assert.Equal(t, `facility=user severity=notice timestamp=2024-01-02T03:04:05Z host=box app=cron[42] msgid=- sd=- msg="hello"`, msg.String())
	assert.Equal(t, 13, msg.Priority())
	assert.Equal(t, `facility=unknown severity=unknown timestamp=- host=- app=- msg=""`, Message{}.String())
	assert.Equal(t, -1, Message{}.Priority())
}

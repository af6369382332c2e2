// Package syslogprotocol provides shared types and constants of the syslog protocol family (RFC 3164 and RFC 5424)
package syslogprotocol

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// ErrInvalidValue is returned when an enumeration string cannot be recognized
var ErrInvalidValue = errors.New("invalid value")

// Severity is the syslog severity (level), lower is more severe
type Severity int

// Severity values defined by RFC 5424 section 6.2.1
const (
	SeverityEmergency Severity = iota
	SeverityAlert
	SeverityCritical
	SeverityError
	SeverityWarning
	SeverityNotice
	SeverityInformational
	SeverityDebug
)

// Facility is the syslog facility code, 0-23
type Facility int

// A subset of facility values; all of 0-23 are valid
const (
	FacilityKern   Facility = 0
	FacilityUser   Facility = 1
	FacilityDaemon Facility = 3
	FacilityLocal0 Facility = 16
	FacilityLocal7 Facility = 23
)

// DefaultFacility is used by the sender when no facility is specified
const DefaultFacility = FacilityUser

// MaxPriority is the largest valid PRI value: facility local7 with severity debug
const MaxPriority = int(FacilityLocal7)*8 + int(SeverityDebug)

// FacilityNames contains the mapping of facility numbers to readable names
var FacilityNames = []string{
	"kern",     // 0
	"user",     // 1
	"mail",     // 2
	"daemon",   // 3
	"auth",     // 4
	"syslog",   // 5
	"lpr",      // 6
	"news",     // 7
	"uucp",     // 8
	"cron",     // 9
	"authpriv", // 10
	"ftp",      // 11
	"ntp",      // 12
	"audit",    // 13
	"alert",    // 14
	"clock",    // 15
	"local0",   // 16
	"local1",   // 17
	"local2",   // 18
	"local3",   // 19
	"local4",   // 20
	"local5",   // 21
	"local6",   // 22
	"local7",   // 23
}

// SeverityNames contains the mapping of severity (level) numbers to readable names
var SeverityNames = []string{
	"emergency",     // 0
	"alert",         // 1
	"critical",      // 2
	"error",         // 3
	"warning",       // 4
	"notice",        // 5
	"informational", // 6
	"debug",         // 7
}

// ParseSeverity parses severity name case-insensitively
func ParseSeverity(name string) (Severity, error) {
	index, err := parseEnum("severity", name, SeverityNames)
	return Severity(index), err
}

// ParseFacility parses facility name case-insensitively
func ParseFacility(name string) (Facility, error) {
	index, err := parseEnum("facility", name, FacilityNames)
	return Facility(index), err
}

// Valid checks whether the severity is within 0-7
func (s Severity) Valid() bool {
	return s >= SeverityEmergency && s <= SeverityDebug
}

func (s Severity) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return SeverityNames[s]
}

// Valid checks whether the facility is within 0-23
func (f Facility) Valid() bool {
	return f >= FacilityKern && f <= FacilityLocal7
}

func (f Facility) String() string {
	if !f.Valid() {
		return "unknown"
	}
	return FacilityNames[f]
}

// Priority encodes facility and severity into the PRI value: facility * 8 + severity
//
// Out-of-range inputs are clamped to the default facility and severity notice so the result is always within 0-191
func Priority(facility Facility, severity Severity) int {
	if !facility.Valid() {
		facility = DefaultFacility
	}
	if !severity.Valid() {
		severity = SeverityNotice
	}
	return int(facility)*8 + int(severity)
}

// SplitPriority decodes a PRI value, returns false if the value is outside of 0-191
func SplitPriority(pri int) (Facility, Severity, bool) {
	if pri < 0 || pri > MaxPriority {
		return 0, 0, false
	}
	return Facility(pri >> 3), Severity(pri & 0b111), true
}

func parseEnum(kind string, name string, names []string) (int, error) {
	index := slices.Index(names, strings.ToLower(name))
	if index == -1 {
		return -1, fmt.Errorf("%w: %s '%s' is not one of [%s]", ErrInvalidValue, kind, name, strings.Join(names, ", "))
	}
	return index, nil
}

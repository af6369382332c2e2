package syslogprotocol

import (
	"errors"
	"fmt"
	"strings"
)

// MaxSDNameLength is the max length of SD-ID and SD-PARAM names (RFC 5424 SD-NAME)
const MaxSDNameLength = 32

var (
	// ErrInvalidName is returned when a SD-ID or parameter name contains forbidden characters
	ErrInvalidName = errors.New("invalid SD name")

	// ErrDuplicateParam is returned when a parameter name is added twice to the same element
	ErrDuplicateParam = errors.New("duplicate SD parameter")
)

// SDParam is a single parameter of structured data
type SDParam struct {
	Name  string
	Value string // unescaped value
}

// SDElement is a RFC 5424 structured data element, e.g. [exampleSDID@32473 iut="3" eventSource="Application"]
//
// Params keep insertion order. Values are stored verbatim and escaped at serialization.
type SDElement struct {
	ID     string
	Params []SDParam
}

// NewSDElement creates an empty element with validated SD-ID
func NewSDElement(id string) (*SDElement, error) {
	if err := checkSDName(id); err != nil {
		return nil, fmt.Errorf("SD-ID '%s': %w", id, err)
	}
	return &SDElement{ID: id}, nil
}

// AddParam appends a parameter with validated name
func (e *SDElement) AddParam(name string, value string) error {
	if err := checkSDName(name); err != nil {
		return fmt.Errorf("SD param '%s': %w", name, err)
	}
	if _, exists := e.Param(name); exists {
		return fmt.Errorf("%w: '%s' in [%s]", ErrDuplicateParam, name, e.ID)
	}
	e.Params = append(e.Params, SDParam{Name: name, Value: value})
	return nil
}

// Param looks up the value of the first parameter of the given name
func (e SDElement) Param(name string) (string, bool) {
	for _, p := range e.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// AppendTo serializes the element into the given buffer
func (e SDElement) AppendTo(buf []byte) []byte {
	buf = append(buf, '[')
	buf = append(buf, e.ID...)
	for _, p := range e.Params {
		buf = append(buf, ' ')
		buf = append(buf, p.Name...)
		buf = append(buf, '=', '"')
		buf = AppendEscapedParamValue(buf, p.Value)
		buf = append(buf, '"')
	}
	return append(buf, ']')
}

func (e SDElement) String() string {
	return string(e.AppendTo(make([]byte, 0, 64)))
}

// AppendStructuredData serializes a list of elements, or "-" if there is none
func AppendStructuredData(buf []byte, elements []SDElement) []byte {
	if len(elements) == 0 {
		return append(buf, '-')
	}
	for _, e := range elements {
		buf = e.AppendTo(buf)
	}
	return buf
}

// AppendEscapedParamValue escapes '\', '"' and ']' in PARAM-VALUE with a preceding backslash
func AppendEscapedParamValue(buf []byte, value string) []byte {
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch c {
		case '\\', '"', ']':
			buf = append(buf, '\\', c)
		default:
			buf = append(buf, c)
		}
	}
	return buf
}

// UnescapeParamValue reverses AppendEscapedParamValue
//
// A backslash followed by any other character is kept as it is, per RFC 5424 section 6.3.3
func UnescapeParamValue(value string) string {
	if strings.IndexByte(value, '\\') == -1 {
		return value
	}
	sb := strings.Builder{}
	sb.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == '\\' && i+1 < len(value) {
			switch next := value[i+1]; next {
			case '\\', '"', ']':
				sb.WriteByte(next)
				i++
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// IsValidSDName checks SD-NAME: 1-32 printable US-ASCII characters except '=', ']', '"' and space
func IsValidSDName(name string) bool {
	return checkSDName(name) == nil
}

func checkSDName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > MaxSDNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, MaxSDNameLength)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= ' ' || c >= 0x7F || c == '=' || c == ']' || c == '"' {
			return fmt.Errorf("%w: forbidden character %q at %d", ErrInvalidName, c, i)
		}
	}
	return nil
}

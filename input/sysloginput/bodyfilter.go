package sysloginput

import (
	"fmt"

	"github.com/gobwas/glob"
)

type bodyFilter func(body string) bool

// newBodyFilter compiles a glob expression of message body, or returns nil for empty expression
func newBodyFilter(expr string) (bodyFilter, error) {
	if expr == "" {
		return nil, nil
	}
	g, err := glob.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter '%s': %w", expr, err)
	}
	return g.Match, nil
}

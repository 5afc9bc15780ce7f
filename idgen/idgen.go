// Package idgen generates request and trace identifiers.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator of time-sortable RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends prefix to every ID ("req_", "trc_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is UUIDv7.
var Default Generator = UUIDv7()

// Request and Trace are the generators used at the HTTP, MCP and CLI edges.
var (
	Request = Prefixed("req_", Default)
	Trace   = Prefixed("trc_", Default)
)

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// Parse validates a UUID, with or without a known prefix, and returns it
// without the prefix.
func Parse(s string) (string, error) {
	for _, p := range []string{"req_", "trc_"} {
		if len(s) > len(p) && s[:len(p)] == p {
			s = s[len(p):]
			break
		}
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("idgen: invalid id: %w", err)
	}
	return u.String(), nil
}

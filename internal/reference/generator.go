// Package reference produces provider-facing payment references and CLABE account numbers.
//
// References are a method prefix followed by an upper-case base-36 snowflake id, so they
// carry the creation time, the generating node and a per-millisecond sequence, and use
// only [0-9A-Z]. Banks accept that alphabet in SPEI concept and reference fields.
package reference

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ErrMalformedReference is returned when a reference cannot be decoded.
var ErrMalformedReference = errors.New("malformed reference")

// Generator produces unique references. Generate performs no I/O and never fails.
type Generator interface {
	Generate(prefix string) string
}

type snowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator creates a Generator for the given node id (0-1023). Processes
// that generate references concurrently must use distinct node ids.
func NewSnowflakeGenerator(nodeID int64) (Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create reference node: %w", err)
	}
	return &snowflakeGenerator{node: node}, nil
}

// Generate returns prefix followed by the upper-case base-36 form of a new snowflake id.
func (g *snowflakeGenerator) Generate(prefix string) string {
	return strings.ToUpper(prefix) + strings.ToUpper(g.node.Generate().Base36())
}

// Timestamp extracts the creation time embedded in a reference issued with prefix.
func Timestamp(prefix, ref string) (time.Time, error) {
	if !strings.HasPrefix(ref, strings.ToUpper(prefix)) {
		return time.Time{}, ErrMalformedReference
	}

	id, err := snowflake.ParseBase36(strings.ToLower(strings.TrimPrefix(ref, strings.ToUpper(prefix))))
	if err != nil || id.Int64() <= 0 {
		return time.Time{}, ErrMalformedReference
	}

	return time.UnixMilli(id.Time()).UTC(), nil
}

// IsSafe reports whether ref contains only characters accepted in bank transfer fields.
func IsSafe(ref string) bool {
	if ref == "" {
		return false
	}
	for _, c := range ref {
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

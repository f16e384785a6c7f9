// internal/nodeid/id.go
package nodeid

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ErrInvalidKey is returned when a user-chosen key cannot be used as an ID.
var ErrInvalidKey = errors.New("invalid node key")

// uuidLen is the length of a canonical textual UUID.
const uuidLen = 36

// ID uniquely identifies a node within a graph.
type ID string

// New returns a fresh generated identity for a node built from the named
// operation. An empty name is replaced by "node".
func New(name string) ID {
	if name == "" {
		name = "node"
	}
	return ID(name + "-" + uuid.NewString())
}

// Key validates a user-chosen key and returns it as an ID. Keys must be
// non-empty and may not contain whitespace or '.', which is reserved for
// reference traversals such as `task.x.field`.
func Key(k string) (ID, error) {
	if k == "" {
		return "", fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}
	for _, r := range k {
		if unicode.IsSpace(r) || r == '.' {
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidKey, k, r)
		}
	}
	return ID(k), nil
}

// String returns the textual form of the identity.
func (id ID) String() string {
	return string(id)
}

// Name returns the readable part of the identity: the name passed to New
// (an operation name or a graph key) and the whole identity otherwise.
func (id ID) Name() string {
	s := string(id)
	if len(s) <= uuidLen+1 {
		return s
	}
	cut := len(s) - uuidLen - 1
	if s[cut] != '-' {
		return s
	}
	if _, err := uuid.Parse(s[cut+1:]); err != nil {
		return s
	}
	return s[:cut]
}

// Generated reports whether the identity was produced by New.
func (id ID) Generated() bool {
	return id.Name() != string(id)
}

// Short returns a compact form suitable for log lines: the name followed by
// the first block of the uuid for generated identities.
func (id ID) Short() string {
	if !id.Generated() {
		return string(id)
	}
	suffix := strings.TrimPrefix(string(id), id.Name()+"-")
	if i := strings.IndexByte(suffix, '-'); i > 0 {
		suffix = suffix[:i]
	}
	return id.Name() + "-" + suffix
}

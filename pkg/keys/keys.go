// Package keys implements the composite key grammar shared by every
// collection: `<kind>:<discriminant...>:<value>`. The first segment names
// the logical collection scope, the last segment is the entity's own id,
// and no segment may be empty.
package keys

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind is the leading key segment identifying a logical collection scope.
type Kind string

const (
	KindUser    Kind = "user"
	KindEmail   Kind = "email"
	KindTodo    Kind = "todo"
	KindSession Kind = "session"
)

// ParseKind validates a raw kind segment.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindUser, KindEmail, KindTodo, KindSession:
		return k, nil
	default:
		return "", &InvalidKeyError{Raw: s}
	}
}

// InvalidKeyError reports key bytes that do not satisfy the grammar.
// Repositories treat it as data corruption, not a normal runtime condition.
type InvalidKeyError struct {
	Raw string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("key without recognized prefix: %q", e.Raw)
}

// Prefix is a key bound scoping a range scan to one collection or to one
// owner's sub-range within it. It always ends with the segment separator.
type Prefix struct {
	s string
}

// NewPrefix builds an owner-scoped prefix such as "todo:<user_id>:".
func NewPrefix(kind Kind, discriminant string) Prefix {
	return Prefix{s: string(kind) + ":" + discriminant + ":"}
}

// ForKind builds a bare collection prefix such as "user:".
func ForKind(kind Kind) Prefix {
	return Prefix{s: string(kind) + ":"}
}

func prefixFromParts(parts []string) Prefix {
	return Prefix{s: strings.Join(parts, ":") + ":"}
}

func (p Prefix) String() string { return p.s }

// IsZero reports whether the prefix was never set.
func (p Prefix) IsZero() bool { return p.s == "" }

// Key is a parsed composite key. The zero value is not a valid key.
type Key struct {
	prefix Prefix
	full   string
}

// New appends a value segment to a prefix: New(NewPrefix(KindTodo, uid), tid)
// yields "todo:<uid>:<tid>".
func New(prefix Prefix, value string) Key {
	return Key{prefix: prefix, full: prefix.s + value}
}

// FromPrefix turns a bare prefix into a key, used as the starting point of
// a scan over the whole scope.
func FromPrefix(prefix Prefix) Key {
	return Key{prefix: prefix, full: prefix.s}
}

// FromBytes parses raw key bytes back into a structured key. It fails with
// InvalidKeyError when the first segment is not a known kind, when any
// segment is empty, or when the bytes are not valid UTF-8.
func FromBytes(raw []byte) (Key, error) {
	if !utf8.Valid(raw) {
		return Key{}, &InvalidKeyError{Raw: string(raw)}
	}
	full := string(raw)

	parts := strings.Split(full, ":")
	if len(parts) < 2 {
		return Key{}, &InvalidKeyError{Raw: full}
	}
	if _, err := ParseKind(parts[0]); err != nil {
		return Key{}, &InvalidKeyError{Raw: full}
	}
	for _, part := range parts {
		if part == "" {
			return Key{}, &InvalidKeyError{Raw: full}
		}
	}

	return Key{prefix: prefixFromParts(parts[:len(parts)-1]), full: full}, nil
}

// Bytes returns the encoded key as stored in the engine.
func (k Key) Bytes() []byte { return []byte(k.full) }

func (k Key) String() string { return k.full }

// Prefix returns the key's scope, everything up to and including the last
// segment separator.
func (k Key) Prefix() Prefix { return k.prefix }

// Kind returns the key's leading segment.
func (k Key) Kind() Kind {
	head, _, _ := strings.Cut(k.full, ":")
	return Kind(head)
}

// Value returns the key's final segment, the entity's own id.
func (k Key) Value() string {
	return k.full[len(k.prefix.s):]
}

// StartsWith reports whether the key lies inside the given scope.
func (k Key) StartsWith(prefix Prefix) bool {
	return strings.HasPrefix(k.full, prefix.s)
}

// Equal reports structural equality of the full key.
func (k Key) Equal(other Key) bool { return k.full == other.full }

// IsZero reports whether the key was never set.
func (k Key) IsZero() bool { return k.full == "" }

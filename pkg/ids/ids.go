// Package ids defines the typed identifiers used by the storage layer.
//
// Each entity gets its own 128-bit random identifier type so a TodoID can
// never be passed where a UserID is expected. The canonical string form is
// what ends up inside keys; it orders the same way as the raw bytes, which
// keeps range scans stable.
package ids

import (
	"fmt"

	"github.com/gofrs/uuid/v5"
)

// UserID identifies a user record.
type UserID struct {
	id uuid.UUID
}

// NewUserID returns a fresh random UserID.
func NewUserID() UserID {
	return UserID{id: uuid.Must(uuid.NewV4())}
}

// ParseUserID parses the canonical string form of a UserID.
func ParseUserID(s string) (UserID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return UserID{}, fmt.Errorf("parse user id: %w", err)
	}
	return UserID{id: id}, nil
}

// UserIDFromBytes rebuilds a UserID from its 16 raw bytes.
func UserIDFromBytes(b []byte) (UserID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return UserID{}, fmt.Errorf("user id from bytes: %w", err)
	}
	return UserID{id: id}, nil
}

func (u UserID) String() string { return u.id.String() }

// Bytes returns the 16-byte raw form used by the record codec.
func (u UserID) Bytes() []byte { return u.id.Bytes() }

// IsNil reports whether the id is the zero value.
func (u UserID) IsNil() bool { return u.id == uuid.Nil }

// TodoID identifies a todo record within its owner's key range.
type TodoID struct {
	id uuid.UUID
}

// NewTodoID returns a fresh random TodoID.
func NewTodoID() TodoID {
	return TodoID{id: uuid.Must(uuid.NewV4())}
}

// ParseTodoID parses the canonical string form of a TodoID.
func ParseTodoID(s string) (TodoID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return TodoID{}, fmt.Errorf("parse todo id: %w", err)
	}
	return TodoID{id: id}, nil
}

// TodoIDFromBytes rebuilds a TodoID from its 16 raw bytes.
func TodoIDFromBytes(b []byte) (TodoID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return TodoID{}, fmt.Errorf("todo id from bytes: %w", err)
	}
	return TodoID{id: id}, nil
}

func (t TodoID) String() string { return t.id.String() }

// Bytes returns the 16-byte raw form used by the record codec.
func (t TodoID) Bytes() []byte { return t.id.Bytes() }

// IsNil reports whether the id is the zero value.
func (t TodoID) IsNil() bool { return t.id == uuid.Nil }

// SessionID identifies a session record.
type SessionID struct {
	id uuid.UUID
}

// NewSessionID returns a fresh random SessionID.
func NewSessionID() SessionID {
	return SessionID{id: uuid.Must(uuid.NewV4())}
}

// ParseSessionID parses the canonical string form of a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return SessionID{}, fmt.Errorf("parse session id: %w", err)
	}
	return SessionID{id: id}, nil
}

// SessionIDFromBytes rebuilds a SessionID from its 16 raw bytes.
func SessionIDFromBytes(b []byte) (SessionID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return SessionID{}, fmt.Errorf("session id from bytes: %w", err)
	}
	return SessionID{id: id}, nil
}

func (s SessionID) String() string { return s.id.String() }

// Bytes returns the 16-byte raw form used by the record codec.
func (s SessionID) Bytes() []byte { return s.id.Bytes() }

// IsNil reports whether the id is the zero value.
func (s SessionID) IsNil() bool { return s.id == uuid.Nil }

// RefreshID is the jti of the refresh token currently bound to a session.
type RefreshID struct {
	id uuid.UUID
}

// NewRefreshID returns a fresh random RefreshID.
func NewRefreshID() RefreshID {
	return RefreshID{id: uuid.Must(uuid.NewV4())}
}

// ParseRefreshID parses the canonical string form of a RefreshID.
func ParseRefreshID(s string) (RefreshID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return RefreshID{}, fmt.Errorf("parse refresh id: %w", err)
	}
	return RefreshID{id: id}, nil
}

// RefreshIDFromBytes rebuilds a RefreshID from its 16 raw bytes.
func RefreshIDFromBytes(b []byte) (RefreshID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return RefreshID{}, fmt.Errorf("refresh id from bytes: %w", err)
	}
	return RefreshID{id: id}, nil
}

func (r RefreshID) String() string { return r.id.String() }

// Bytes returns the 16-byte raw form used by the record codec.
func (r RefreshID) Bytes() []byte { return r.id.Bytes() }

// IsNil reports whether the id is the zero value.
func (r RefreshID) IsNil() bool { return r.id == uuid.Nil }

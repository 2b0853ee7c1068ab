package engine

import (
	"errors"
	"fmt"
)

// Sentinels for the two business-meaningful outcomes. Everything else the
// engine returns is an EngineError and indicates a store-level failure.
var (
	// ErrNotFound indicates a point lookup or referenced cursor key is absent.
	ErrNotFound = errors.New("data for key not found")

	// ErrNoContent indicates a delete or update targeted a key that was
	// already absent.
	ErrNoContent = errors.New("content for key not found")
)

// EngineError wraps an underlying pebble failure. It is always surfaced,
// never swallowed.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

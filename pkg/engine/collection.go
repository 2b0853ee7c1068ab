package engine

import (
	"errors"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/ssargent/skulddb/pkg/keys"
)

// Collection is a shared handle onto one named key space. Copying it is
// cheap; every copy points at the same engine.
type Collection struct {
	name string
	eng  *Engine
}

// Name returns the collection's on-disk name.
func (c Collection) Name() string { return c.name }

// physical maps a logical key into the collection's range. '/' cannot
// appear in the grammar's segments, so the mapping never collides across
// collections.
func (c Collection) physical(key []byte) []byte {
	buf := make([]byte, 0, len(c.name)+1+len(key))
	buf = append(buf, c.name...)
	buf = append(buf, '/')
	return append(buf, key...)
}

// upperBound is the first physical key past the collection ('0' is the
// byte after '/').
func (c Collection) upperBound() []byte {
	return append([]byte(c.name), '0')
}

// Get returns the value stored under key, or ErrNotFound.
func (c Collection) Get(key keys.Key) ([]byte, error) {
	value, closer, err := c.eng.db.Get(c.physical(key.Bytes()))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &EngineError{Op: "get", Err: err}
	}

	out := make([]byte, len(value))
	copy(out, value)
	if err := closer.Close(); err != nil {
		return nil, &EngineError{Op: "get", Err: err}
	}
	return out, nil
}

// Has reports whether key is present without reading its value.
func (c Collection) Has(key keys.Key) (bool, error) {
	_, err := c.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Put stores value under key with overwrite semantics. Replacing an
// existing value is an observability signal, not an error.
func (c Collection) Put(key keys.Key, value []byte) error {
	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()

	replaced, err := c.Has(key)
	if err != nil {
		return err
	}

	if err := c.eng.db.Set(c.physical(key.Bytes()), value, pebble.NoSync); err != nil {
		return &EngineError{Op: "set", Err: err}
	}

	if replaced {
		c.eng.log.Warn("put replaced old value",
			zap.String("collection", c.name), zap.Stringer("key", key))
	}
	return nil
}

// Delete removes key, reporting ErrNoContent when it was already absent.
func (c Collection) Delete(key keys.Key) error {
	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()

	present, err := c.Has(key)
	if err != nil {
		return err
	}
	if !present {
		c.eng.log.Warn("tried to remove non-existing key",
			zap.String("collection", c.name), zap.Stringer("key", key))
		return ErrNoContent
	}

	if err := c.eng.db.Delete(c.physical(key.Bytes()), pebble.NoSync); err != nil {
		return &EngineError{Op: "delete", Err: err}
	}
	return nil
}

// Scan opens an ordered iterator over the collection starting at start
// (inclusive) and bounded by the collection's end.
func (c Collection) Scan(start keys.Key) (*Iterator, error) {
	it, err := c.eng.db.NewIter(&pebble.IterOptions{
		LowerBound: c.physical(start.Bytes()),
		UpperBound: c.upperBound(),
	})
	if err != nil {
		return nil, &EngineError{Op: "iter", Err: err}
	}
	return &Iterator{it: it, prefixLen: len(c.name) + 1}, nil
}

// Iterator walks one collection in key order. Callers must Close it.
type Iterator struct {
	it        *pebble.Iterator
	prefixLen int
	started   bool
}

// Next advances to the next entry, returning false when exhausted.
func (i *Iterator) Next() bool {
	if !i.started {
		i.started = true
		return i.it.First()
	}
	return i.it.Next()
}

// Key returns the logical key bytes of the current entry. Only valid until
// the next call to Next.
func (i *Iterator) Key() []byte {
	return i.it.Key()[i.prefixLen:]
}

// Value returns the value bytes of the current entry. Only valid until the
// next call to Next.
func (i *Iterator) Value() []byte {
	return i.it.Value()
}

// Close releases the iterator and reports any accumulated iteration error.
func (i *Iterator) Close() error {
	if err := i.it.Close(); err != nil {
		return &EngineError{Op: "iter", Err: err}
	}
	return nil
}

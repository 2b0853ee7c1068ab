package engine

import (
	"errors"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/ssargent/skulddb/pkg/keys"
)

// Get reads key from a collection inside the transaction, observing the
// transaction's own earlier writes. Returns ErrNotFound when absent.
func (t *Txn) Get(c Collection, key keys.Key) ([]byte, error) {
	value, closer, err := t.batch.Get(c.physical(key.Bytes()))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &EngineError{Op: "txn get", Err: err}
	}

	out := make([]byte, len(value))
	copy(out, value)
	if err := closer.Close(); err != nil {
		return nil, &EngineError{Op: "txn get", Err: err}
	}
	return out, nil
}

// Has reports whether key is present in the transaction's view.
func (t *Txn) Has(c Collection, key keys.Key) (bool, error) {
	_, err := t.Get(c, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Put stores value under key inside the transaction, warning when it
// replaces an existing value.
func (t *Txn) Put(c Collection, key keys.Key, value []byte) error {
	replaced, err := t.Has(c, key)
	if err != nil {
		return err
	}

	if err := t.batch.Set(c.physical(key.Bytes()), value, nil); err != nil {
		return &EngineError{Op: "txn set", Err: err}
	}

	if replaced {
		t.log.Warn("put replaced old value",
			zap.String("collection", c.Name()), zap.Stringer("key", key))
	}
	return nil
}

// Delete removes key inside the transaction. Unlike the point form it only
// warns when the key is absent: batched deletes tolerate already-gone keys.
func (t *Txn) Delete(c Collection, key keys.Key) error {
	present, err := t.Has(c, key)
	if err != nil {
		return err
	}
	if !present {
		t.log.Warn("tried to remove non-existing key",
			zap.String("collection", c.Name()), zap.Stringer("key", key))
	}

	if err := t.batch.Delete(c.physical(key.Bytes()), nil); err != nil {
		return &EngineError{Op: "txn delete", Err: err}
	}
	return nil
}

// DeleteBatch removes a set of keys from one collection.
func (t *Txn) DeleteBatch(c Collection, batch []keys.Key) error {
	for _, key := range batch {
		if err := t.batch.Delete(c.physical(key.Bytes()), nil); err != nil {
			return &EngineError{Op: "txn delete batch", Err: err}
		}
	}

	t.log.Info("removed items",
		zap.String("collection", c.Name()), zap.Int("removed_items", len(batch)))
	return nil
}

// Package engine adapts the embedded ordered store (pebble) to the
// storage layer's needs: named collections, point operations, atomic
// multi-collection transactions, ordered range iteration, and a bulk
// flush for shutdown.
package engine

import (
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/ssargent/skulddb/pkg/metrics"
)

// The four collections the adapter owns. Their names and the key grammar
// inside them are the on-disk compatibility surface.
const (
	CollectionTodos    = "todos"
	CollectionUsers    = "users"
	CollectionEmails   = "emails"
	CollectionSessions = "sessions"
)

// CollectionNames lists every collection in flush order.
var CollectionNames = []string{
	CollectionTodos,
	CollectionUsers,
	CollectionEmails,
	CollectionSessions,
}

// Engine wraps one pebble database. Collections are key-prefixed ranges
// within it, so a single batch can touch several collections atomically.
//
// All mutating operations are serialized on an internal lock; point reads
// go straight to pebble. Callers that need atomic multi-key changes use
// Transaction; there is no external locking.
type Engine struct {
	db   *pebble.DB
	log  *zap.Logger
	sink metrics.Sink

	// mu serializes mutations so read-modify-write inside a transaction
	// observes a stable view.
	mu sync.Mutex
}

// Open opens or creates the store at path.
func Open(path string, log *zap.Logger, sink metrics.Sink) (*Engine, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		log.Error("failed to open engine", zap.String("path", path), zap.Error(err))
		return nil, &EngineError{Op: "open", Err: err}
	}

	log.Info("opened engine", zap.String("path", path))
	return &Engine{db: db, log: log, sink: sink}, nil
}

// Collection returns a handle bound to one named collection. The handle is
// a cheap value sharing the engine; it is concurrency-safe by construction
// of the engine, not by anything the caller does.
func (e *Engine) Collection(name string) Collection {
	return Collection{name: name, eng: e}
}

// Txn is the view of the store inside one transaction. Reads observe
// earlier writes in the same transaction; nothing is visible outside until
// commit.
type Txn struct {
	batch *pebble.Batch
	log   *zap.Logger
}

// Transaction runs fn against an atomic view spanning all collections.
// Either every write inside fn commits or none do. An error returned by fn
// aborts the transaction and is surfaced to the caller unchanged, so
// domain errors pass through with their types intact; only commit failures
// come back wrapped in EngineError.
func (e *Engine) Transaction(fn func(tx *Txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	batch := e.db.NewIndexedBatch()
	tx := &Txn{batch: batch, log: e.log}

	if err := fn(tx); err != nil {
		_ = batch.Close()
		e.sink.RecordOperation("engine.transaction", false, time.Since(start))
		return err
	}

	if err := batch.Commit(pebble.NoSync); err != nil {
		e.sink.RecordOperation("engine.transaction", false, time.Since(start))
		e.log.Error("failed to commit transaction", zap.Error(err))
		return &EngineError{Op: "commit", Err: err}
	}

	e.sink.RecordOperation("engine.transaction", true, time.Since(start))
	return nil
}

// Flush forces durable persistence of all collections. It is called once
// at graceful shutdown, never on the request path.
func (e *Engine) Flush() error {
	start := time.Now()
	if err := e.db.Flush(); err != nil {
		e.sink.RecordOperation("engine.flush", false, time.Since(start))
		e.log.Error("failed to flush engine", zap.Error(err))
		return &EngineError{Op: "flush", Err: err}
	}

	e.sink.RecordOperation("engine.flush", true, time.Since(start))
	e.log.Info("flushed engine", zap.Strings("collections", CollectionNames))
	return nil
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	if err := e.db.Close(); err != nil {
		return &EngineError{Op: "close", Err: err}
	}
	return nil
}

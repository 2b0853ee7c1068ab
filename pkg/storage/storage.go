// Package storage composes the key grammar, the record codecs, the engine
// adapter and the range scanner into entity repositories for todos, users
// and sessions. It is the only package the service layer talks to.
package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ssargent/skulddb/pkg/blocking"
	"github.com/ssargent/skulddb/pkg/codec"
	"github.com/ssargent/skulddb/pkg/config"
	"github.com/ssargent/skulddb/pkg/engine"
	"github.com/ssargent/skulddb/pkg/ids"
	"github.com/ssargent/skulddb/pkg/keys"
	"github.com/ssargent/skulddb/pkg/metrics"
	"github.com/ssargent/skulddb/pkg/model"
	"github.com/ssargent/skulddb/pkg/scan"
)

// TodoStorage is the todo operation set exposed to the service layer.
type TodoStorage interface {
	Get(ctx context.Context, userID ids.UserID, todoID ids.TodoID) (model.Todo, error)
	Put(ctx context.Context, userID ids.UserID, todoID ids.TodoID, todo model.Todo) error
	Delete(ctx context.Context, userID ids.UserID, todoID ids.TodoID) error
	Update(ctx context.Context, userID ids.UserID, todoID ids.TodoID, patch model.TodoPatch) error
	GetAll(ctx context.Context, userID ids.UserID, p scan.Pagination[ids.TodoID]) (scan.Page[model.Todo, ids.TodoID], error)
	DeleteAll(ctx context.Context, userID ids.UserID) error
}

// UserStorage is the user operation set exposed to the service layer.
type UserStorage interface {
	Get(ctx context.Context, userID ids.UserID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Put(ctx context.Context, userID ids.UserID, user model.User) error
	Delete(ctx context.Context, userID ids.UserID) error
	UpdateRole(ctx context.Context, userID ids.UserID, role model.Role) error
	GetAll(ctx context.Context, requesterID ids.UserID, p scan.Pagination[ids.UserID]) (scan.Page[model.User, ids.UserID], error)
}

// SessionStorage is the session operation set exposed to the service layer.
type SessionStorage interface {
	Get(ctx context.Context, sessionID ids.SessionID) (model.Session, error)
	Put(ctx context.Context, sessionID ids.SessionID, session model.Session) error
	Delete(ctx context.Context, sessionID ids.SessionID) error
	UpdateRefresh(ctx context.Context, sessionID ids.SessionID, refreshJTI ids.RefreshID) error
}

// Flusher forces durable persistence; called once at graceful shutdown.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Storage owns the engine and hands out the entity repositories.
type Storage struct {
	eng *engine.Engine

	todos    engine.Collection
	users    engine.Collection
	emails   engine.Collection
	sessions engine.Collection

	todoCodec    codec.TodoCodec
	userCodec    codec.UserCodec
	sessionCodec codec.SessionCodec

	pool      *blocking.Pool
	sink      metrics.Sink
	log       *zap.Logger
	batchSize int
}

// Open opens the store described by cfg. The logger and sink are injected;
// pass metrics.Nop{} to discard observations.
func Open(cfg config.Storage, log *zap.Logger, sink metrics.Sink) (*Storage, error) {
	eng, err := engine.Open(cfg.Path, log, sink)
	if err != nil {
		return nil, err
	}
	return newStorage(eng, cfg, log, sink), nil
}

func newStorage(eng *engine.Engine, cfg config.Storage, log *zap.Logger, sink metrics.Sink) *Storage {
	slots := int64(cfg.BlockingSlots)
	if slots < 1 {
		slots = 1
	}

	return &Storage{
		eng:       eng,
		todos:     eng.Collection(engine.CollectionTodos),
		users:     eng.Collection(engine.CollectionUsers),
		emails:    eng.Collection(engine.CollectionEmails),
		sessions:  eng.Collection(engine.CollectionSessions),
		pool:      blocking.NewPool(slots, sink),
		sink:      sink,
		log:       log,
		batchSize: cfg.DeleteBatchSize,
	}
}

// Todos returns the todo repository.
func (s *Storage) Todos() *TodoStore { return &TodoStore{st: s} }

// Users returns the user repository.
func (s *Storage) Users() *UserStore { return &UserStore{st: s} }

// Sessions returns the session repository.
func (s *Storage) Sessions() *SessionStore { return &SessionStore{st: s} }

// Flush forces durable persistence of all collections.
func (s *Storage) Flush(ctx context.Context) error {
	return s.measure("storage.flush", func() error {
		return s.eng.Flush()
	})
}

// Close releases the underlying engine.
func (s *Storage) Close() error {
	return s.eng.Close()
}

// measure times fn and reports the outcome to the metrics sink.
func (s *Storage) measure(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.sink.RecordOperation(operation, err == nil, time.Since(start))
	return err
}

// Key builders. The key layout is the compatibility surface; nothing else
// in the repo assembles key strings.

func todoKey(userID ids.UserID, todoID ids.TodoID) keys.Key {
	return keys.New(keys.NewPrefix(keys.KindTodo, userID.String()), todoID.String())
}

// todoScanStart is the owner-scoped starting point of a full todo scan:
// "todo:<user_id>" sorts immediately before every "todo:<user_id>:..." key.
func todoScanStart(userID ids.UserID) keys.Key {
	return keys.New(keys.ForKind(keys.KindTodo), userID.String())
}

func userKey(userID ids.UserID) keys.Key {
	return keys.New(keys.ForKind(keys.KindUser), userID.String())
}

func emailKey(email string) keys.Key {
	return keys.New(keys.ForKind(keys.KindEmail), email)
}

func sessionKey(sessionID ids.SessionID) keys.Key {
	return keys.New(keys.ForKind(keys.KindSession), sessionID.String())
}

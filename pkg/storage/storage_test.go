package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ssargent/skulddb/pkg/config"
	"github.com/ssargent/skulddb/pkg/engine"
	"github.com/ssargent/skulddb/pkg/ids"
	"github.com/ssargent/skulddb/pkg/metrics"
	"github.com/ssargent/skulddb/pkg/model"
	"github.com/ssargent/skulddb/pkg/scan"
)

// countingSink tallies RecordOperation and pool-dispatch calls per
// operation name.
type countingSink struct {
	mu      sync.Mutex
	ops     map[string]int
	started map[string]int
}

func newCountingSink() *countingSink {
	return &countingSink{ops: map[string]int{}, started: map[string]int{}}
}

func (c *countingSink) RecordOperation(operation string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops[operation]++
}

func (c *countingSink) BlockingStarted(operation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started[operation]++
}

func (c *countingSink) BlockingFinished(string) {}

func (c *countingSink) count(operation string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ops[operation]
}

func (c *countingSink) dispatched(operation string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started[operation]
}

func newTestStorage(t *testing.T, batchSize int, sink metrics.Sink) *Storage {
	t.Helper()

	if sink == nil {
		sink = metrics.Nop{}
	}
	cfg := config.Storage{
		Path:            filepath.Join(t.TempDir(), "db"),
		DeleteBatchSize: batchSize,
		BlockingSlots:   4,
	}

	st, err := Open(cfg, zap.NewNop(), sink)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestUser(email string) model.User {
	return model.User{
		ID:    ids.NewUserID(),
		Email: email,
		Password: model.HashedPassword{
			Salt: []byte("salt"),
			Hash: []byte("hash"),
		},
		Role: model.RoleUser,
	}
}

func ptr[T any](v T) *T { return &v }

func TestTodoLifecycle(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	todos := st.Todos()
	ctx := context.Background()

	userID := ids.NewUserID()
	todo := model.NewTodo(ids.NewTodoID(), "aaa")
	todo.Group = "chores"

	require.NoError(t, todos.Put(ctx, userID, todo.ID, todo))

	got, err := todos.Get(ctx, userID, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, todo, got)

	// Only the provided field changes.
	require.NoError(t, todos.Update(ctx, userID, todo.ID, model.TodoPatch{Completed: ptr(true)}))

	got, err = todos.Get(ctx, userID, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "aaa", got.Text)
	assert.Equal(t, "chores", got.Group)
	assert.True(t, got.Completed)

	require.NoError(t, todos.Delete(ctx, userID, todo.ID))

	_, err = todos.Get(ctx, userID, todo.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting it again is a distinct outcome.
	require.ErrorIs(t, todos.Delete(ctx, userID, todo.ID), ErrNoContent)
}

func TestTodoUpdate_Missing(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	err := st.Todos().Update(context.Background(), ids.NewUserID(), ids.NewTodoID(),
		model.TodoPatch{Text: ptr("nope")})
	require.ErrorIs(t, err, ErrNotFound)
}

func putTodos(t *testing.T, st *Storage, userID ids.UserID, count int) []model.Todo {
	t.Helper()
	ctx := context.Background()

	todos := make([]model.Todo, 0, count)
	for i := 0; i < count; i++ {
		todo := model.NewTodo(ids.NewTodoID(), "task")
		require.NoError(t, st.Todos().Put(ctx, userID, todo.ID, todo))
		todos = append(todos, todo)
	}
	sort.Slice(todos, func(i, j int) bool {
		return todos[i].ID.String() < todos[j].ID.String()
	})
	return todos
}

func TestTodoGetAll_Paginates(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	ctx := context.Background()

	userID := ids.NewUserID()
	want := putTodos(t, st, userID, 25)

	// A second user's todos must never leak into the page.
	putTodos(t, st, ids.NewUserID(), 5)

	var collected []model.Todo
	var after *ids.TodoID
	pages := 0
	for {
		page, err := st.Todos().GetAll(ctx, userID, scan.Pagination[ids.TodoID]{After: after, Limit: 10})
		require.NoError(t, err)

		collected = append(collected, page.Items...)
		pages++
		if page.NextCursor == nil {
			break
		}
		assert.Equal(t, page.Items[len(page.Items)-1].ID, *page.NextCursor)
		after = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, want, collected)
}

func TestTodoGetAll_StaleCursor(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	userID := ids.NewUserID()
	putTodos(t, st, userID, 3)

	phantom := ids.NewTodoID()
	_, err := st.Todos().GetAll(context.Background(), userID,
		scan.Pagination[ids.TodoID]{After: &phantom, Limit: 10})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTodoDeleteAll_Batched(t *testing.T) {
	sink := newCountingSink()
	st := newTestStorage(t, 10, sink)
	ctx := context.Background()

	userID := ids.NewUserID()
	putTodos(t, st, userID, 21)
	before := sink.count("engine.transaction")

	require.NoError(t, st.Todos().DeleteAll(ctx, userID))

	// 21 keys with batches of 10 take exactly three transactions.
	assert.Equal(t, 3, sink.count("engine.transaction")-before)

	page, err := st.Todos().GetAll(ctx, userID, scan.Pagination[ids.TodoID]{Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextCursor)
}

func TestTodoDeleteAll_Empty(t *testing.T) {
	st := newTestStorage(t, 10, nil)
	require.NoError(t, st.Todos().DeleteAll(context.Background(), ids.NewUserID()))
}

func TestUserPut_DualWrite(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	ctx := context.Background()

	user := newTestUser("freyja@example.com")
	require.NoError(t, st.Users().Put(ctx, user.ID, user))

	byID, err := st.Users().Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, byID)

	byEmail, err := st.Users().GetByEmail(ctx, "freyja@example.com")
	require.NoError(t, err)
	assert.Equal(t, user, byEmail)
}

func TestUserDualWrite_AbortLeavesNoCopy(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	ctx := context.Background()

	user := newTestUser("partial@example.com")
	encoded, err := st.userCodec.Encode(user)
	require.NoError(t, err)

	// A transaction that fails after writing only the user copy must leave
	// neither copy behind.
	abort := errors.New("abort")
	err = st.eng.Transaction(func(tx *engine.Txn) error {
		require.NoError(t, tx.Put(st.users, userKey(user.ID), encoded))
		return abort
	})
	require.ErrorIs(t, err, abort)

	_, err = st.Users().Get(ctx, user.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = st.Users().GetByEmail(ctx, "partial@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserPut_DispatchesToPool(t *testing.T) {
	sink := newCountingSink()
	st := newTestStorage(t, 100, sink)

	user := newTestUser("pooled@example.com")
	require.NoError(t, st.Users().Put(context.Background(), user.ID, user))

	// The dual-write is a multi-step transaction and must run on a
	// blocking slot like the other heavyweight user operations.
	assert.Equal(t, 1, sink.dispatched("user.put"))

	require.NoError(t, st.Users().UpdateRole(context.Background(), user.ID, model.RoleAdmin))
	assert.Equal(t, 1, sink.dispatched("user.update_role"))
}

func TestUserPut_FailureLeavesNoCopy(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A Put that fails inside the repository must not leave either copy
	// behind; here slot acquisition fails before anything is written.
	user := newTestUser("aborted@example.com")
	err := st.Users().Put(ctx, user.ID, user)
	require.ErrorIs(t, err, context.Canceled)

	_, err = st.Users().Get(context.Background(), user.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = st.Users().GetByEmail(context.Background(), "aborted@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserUpdateRole_BothCopies(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	ctx := context.Background()

	user := newTestUser("odin@example.com")
	require.NoError(t, st.Users().Put(ctx, user.ID, user))

	require.NoError(t, st.Users().UpdateRole(ctx, user.ID, model.RoleAdmin))

	byID, err := st.Users().Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, byID.Role)

	byEmail, err := st.Users().GetByEmail(ctx, "odin@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, byEmail.Role)
}

func TestUserUpdateRole_Missing(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	err := st.Users().UpdateRole(context.Background(), ids.NewUserID(), model.RoleAdmin)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserDelete_Missing(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	err := st.Users().Delete(context.Background(), ids.NewUserID())
	require.ErrorIs(t, err, ErrNoContent)
}

func TestUserDelete_Cascades(t *testing.T) {
	st := newTestStorage(t, 10, nil)
	ctx := context.Background()

	user := newTestUser("thor@example.com")
	require.NoError(t, st.Users().Put(ctx, user.ID, user))
	putTodos(t, st, user.ID, 21)

	survivor := newTestUser("loki@example.com")
	require.NoError(t, st.Users().Put(ctx, survivor.ID, survivor))
	survivorTodos := putTodos(t, st, survivor.ID, 3)

	require.NoError(t, st.Users().Delete(ctx, user.ID))

	_, err := st.Users().Get(ctx, user.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = st.Users().GetByEmail(ctx, "thor@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	page, err := st.Todos().GetAll(ctx, user.ID, scan.Pagination[ids.TodoID]{Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	// The other user's data is untouched.
	page, err = st.Todos().GetAll(ctx, survivor.ID, scan.Pagination[ids.TodoID]{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, survivorTodos, page.Items)
	_, err = st.Users().GetByEmail(ctx, "loki@example.com")
	require.NoError(t, err)
}

func TestUserGetAll_ExcludesRequester(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	ctx := context.Background()

	requester := newTestUser("me@example.com")
	require.NoError(t, st.Users().Put(ctx, requester.ID, requester))

	others := make([]model.User, 0, 3)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		u := newTestUser(email)
		require.NoError(t, st.Users().Put(ctx, u.ID, u))
		others = append(others, u)
	}
	sort.Slice(others, func(i, j int) bool {
		return others[i].ID.String() < others[j].ID.String()
	})

	page, err := st.Users().GetAll(ctx, requester.ID, scan.Pagination[ids.UserID]{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, others, page.Items)
	assert.Nil(t, page.NextCursor)
}

func TestSessionLifecycle(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	ctx := context.Background()

	session := model.NewSession(ids.NewUserID(), ids.NewRefreshID(), time.Hour)
	require.NoError(t, st.Sessions().Put(ctx, session.ID, session))

	got, err := st.Sessions().Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.CurrentRefreshJTI, got.CurrentRefreshJTI)

	require.NoError(t, st.Sessions().Delete(ctx, session.ID))
	_, err = st.Sessions().Get(ctx, session.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, st.Sessions().Delete(ctx, session.ID), ErrNoContent)
}

func TestSessionUpdateRefresh_Rotates(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	ctx := context.Background()

	session := model.NewSession(ids.NewUserID(), ids.NewRefreshID(), time.Hour)
	require.NoError(t, st.Sessions().Put(ctx, session.ID, session))

	next := ids.NewRefreshID()
	require.NoError(t, st.Sessions().UpdateRefresh(ctx, session.ID, next))

	got, err := st.Sessions().Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, next, got.CurrentRefreshJTI)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, session.ExpiresAt, got.ExpiresAt)
}

func TestSessionUpdateRefresh_Missing(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	err := st.Sessions().UpdateRefresh(context.Background(), ids.NewSessionID(), ids.NewRefreshID())
	require.ErrorIs(t, err, ErrNoContent)
}

func TestStorageFlush(t *testing.T) {
	st := newTestStorage(t, 100, nil)
	ctx := context.Background()

	todo := model.NewTodo(ids.NewTodoID(), "durable")
	require.NoError(t, st.Todos().Put(ctx, ids.NewUserID(), todo.ID, todo))
	require.NoError(t, st.Flush(ctx))
}

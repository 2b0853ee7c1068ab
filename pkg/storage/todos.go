package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/ssargent/skulddb/pkg/blocking"
	"github.com/ssargent/skulddb/pkg/engine"
	"github.com/ssargent/skulddb/pkg/ids"
	"github.com/ssargent/skulddb/pkg/keys"
	"github.com/ssargent/skulddb/pkg/model"
	"github.com/ssargent/skulddb/pkg/scan"
)

// TodoStore implements TodoStorage. Ownership lives in the key layout, so
// every operation is scoped by the owner's UserID.
type TodoStore struct {
	st *Storage
}

var _ TodoStorage = (*TodoStore)(nil)

// Get returns one todo by owner and id.
func (t *TodoStore) Get(ctx context.Context, userID ids.UserID, todoID ids.TodoID) (model.Todo, error) {
	t.st.log.Info("get todo", zap.Stringer("user_id", userID), zap.Stringer("todo_id", todoID))

	var todo model.Todo
	err := t.st.measure("todo.get", func() error {
		value, err := t.st.todos.Get(todoKey(userID, todoID))
		if err != nil {
			return err
		}
		todo, err = t.st.todoCodec.Decode(value)
		return err
	})
	return todo, t.st.translate(err, "failed to get todo",
		zap.Stringer("user_id", userID), zap.Stringer("todo_id", todoID))
}

// Put stores a todo with overwrite semantics.
func (t *TodoStore) Put(ctx context.Context, userID ids.UserID, todoID ids.TodoID, todo model.Todo) error {
	t.st.log.Info("put todo", zap.Stringer("user_id", userID), zap.Stringer("todo_id", todoID))

	err := t.st.measure("todo.put", func() error {
		encoded, err := t.st.todoCodec.Encode(todo)
		if err != nil {
			return err
		}
		return t.st.todos.Put(todoKey(userID, todoID), encoded)
	})
	return t.st.translate(err, "failed to put todo",
		zap.Stringer("user_id", userID), zap.Stringer("todo_id", todoID))
}

// Delete removes one todo, reporting ErrNoContent when it was already gone.
func (t *TodoStore) Delete(ctx context.Context, userID ids.UserID, todoID ids.TodoID) error {
	t.st.log.Info("delete todo", zap.Stringer("user_id", userID), zap.Stringer("todo_id", todoID))

	err := t.st.measure("todo.delete", func() error {
		return t.st.todos.Delete(todoKey(userID, todoID))
	})
	return t.st.translate(err, "failed to delete todo",
		zap.Stringer("user_id", userID), zap.Stringer("todo_id", todoID))
}

// Update applies a partial patch inside a transaction: decode, patch only
// the provided fields, re-encode, write back. Fails with ErrNotFound when
// the todo does not exist.
func (t *TodoStore) Update(ctx context.Context, userID ids.UserID, todoID ids.TodoID, patch model.TodoPatch) error {
	err := t.st.pool.Run(ctx, "todo.update", func() error {
		return t.st.measure("todo.update", func() error {
			t.st.log.Info("update todo", zap.Stringer("user_id", userID), zap.Stringer("todo_id", todoID))

			return t.st.eng.Transaction(func(tx *engine.Txn) error {
				key := todoKey(userID, todoID)

				value, err := tx.Get(t.st.todos, key)
				if err != nil {
					return err
				}

				todo, err := t.st.todoCodec.Decode(value)
				if err != nil {
					return err
				}
				todo.Apply(patch)

				encoded, err := t.st.todoCodec.Encode(todo)
				if err != nil {
					return err
				}
				return tx.Put(t.st.todos, key, encoded)
			})
		})
	})
	return t.st.translate(err, "failed to update todo",
		zap.Stringer("user_id", userID), zap.Stringer("todo_id", todoID))
}

// GetAll returns one page of the owner's todos in key order.
func (t *TodoStore) GetAll(ctx context.Context, userID ids.UserID, p scan.Pagination[ids.TodoID]) (scan.Page[model.Todo, ids.TodoID], error) {
	page, err := blocking.Run(ctx, t.st.pool, "todo.get_all", func() (scan.Page[model.Todo, ids.TodoID], error) {
		var page scan.Page[model.Todo, ids.TodoID]
		err := t.st.measure("todo.get_all", func() error {
			var err error
			page, err = t.collectPage(userID, p)
			return err
		})
		return page, err
	})
	return page, t.st.translate(err, "failed to get todo page", zap.Stringer("user_id", userID))
}

// DeleteAll removes every todo the user owns via the batched cascade.
func (t *TodoStore) DeleteAll(ctx context.Context, userID ids.UserID) error {
	err := t.st.pool.Run(ctx, "todo.delete_all", func() error {
		return t.st.measure("todo.delete_all", func() error {
			t.st.log.Info("delete all todos", zap.Stringer("user_id", userID))
			return t.st.drainTodos(userID, nil)
		})
	})
	return t.st.translate(err, "failed to delete all todos", zap.Stringer("user_id", userID))
}

func (t *TodoStore) collectPage(userID ids.UserID, p scan.Pagination[ids.TodoID]) (scan.Page[model.Todo, ids.TodoID], error) {
	afterKey := todoScanStart(userID)
	if p.After != nil {
		afterKey = todoKey(userID, *p.After)
	}

	return scan.From(t.st.todos, afterKey,
		func(_ keys.Key, value []byte) (model.Todo, error) { return t.st.todoCodec.Decode(value) },
		func(todo model.Todo) ids.TodoID { return todo.ID }).
		Within(keys.NewPrefix(keys.KindTodo, userID.String())).
		WithPagination(p).
		Logger(t.st.log).
		Collect()
}

// Package model holds the domain records persisted by the storage layer.
package model

import "github.com/ssargent/skulddb/pkg/ids"

// Todo is a single item owned by exactly one user. Ownership lives in the
// key layout ("todo:<user_id>:<todo_id>"), not in the record itself.
type Todo struct {
	ID        ids.TodoID
	Text      string
	Completed bool
	Group     string
}

// NewTodo returns an open todo with no group assigned.
func NewTodo(id ids.TodoID, text string) Todo {
	return Todo{ID: id, Text: text}
}

// TodoPatch carries a partial update; nil fields leave the stored value
// untouched.
type TodoPatch struct {
	Text      *string
	Completed *bool
	Group     *string
}

// Apply overwrites only the fields the patch provides.
func (t *Todo) Apply(patch TodoPatch) {
	if patch.Text != nil {
		t.Text = *patch.Text
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	if patch.Group != nil {
		t.Group = *patch.Group
	}
}

package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/skulddb/pkg/ids"
)

func TestTodoApply_PartialPatch(t *testing.T) {
	todo := NewTodo(ids.NewTodoID(), "aaa")

	completed := true
	todo.Apply(TodoPatch{Completed: &completed})

	assert.Equal(t, "aaa", todo.Text)
	assert.True(t, todo.Completed)
	assert.Equal(t, "", todo.Group)
}

func TestTodoApply_AllFields(t *testing.T) {
	todo := NewTodo(ids.NewTodoID(), "aaa")

	text := "bbb"
	completed := true
	group := "red"
	todo.Apply(TodoPatch{Text: &text, Completed: &completed, Group: &group})

	assert.Equal(t, "bbb", todo.Text)
	assert.True(t, todo.Completed)
	assert.Equal(t, "red", todo.Group)
}

func TestTodoApply_EmptyPatch(t *testing.T) {
	todo := NewTodo(ids.NewTodoID(), "aaa")
	todo.Group = "blue"

	todo.Apply(TodoPatch{})

	assert.Equal(t, "aaa", todo.Text)
	assert.Equal(t, "blue", todo.Group)
	assert.False(t, todo.Completed)
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	role, err = ParseRole("user")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestHashedPassword_NeverPrints(t *testing.T) {
	p := HashedPassword{Salt: []byte("salt"), Hash: []byte("hash")}

	assert.Equal(t, "***", p.String())
	assert.Equal(t, "***", fmt.Sprintf("%v", p))
	assert.Equal(t, "***", fmt.Sprintf("%+v", p))
}

func TestSessionExpiry(t *testing.T) {
	userID := ids.NewUserID()
	session := NewSession(userID, ids.NewRefreshID(), time.Hour)

	assert.Equal(t, userID, session.UserID)
	assert.False(t, session.Expired(time.Now()))
	assert.True(t, session.Expired(time.Now().Add(2*time.Hour)))
}

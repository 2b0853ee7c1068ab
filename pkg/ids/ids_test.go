package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserID_StringRoundTrip(t *testing.T) {
	id := NewUserID()

	parsed, err := ParseUserID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestUserID_BytesRoundTrip(t *testing.T) {
	id := NewUserID()

	rebuilt, err := UserIDFromBytes(id.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, rebuilt)
	assert.Len(t, id.Bytes(), 16)
}

func TestParseUserID_Invalid(t *testing.T) {
	_, err := ParseUserID("not-a-uuid")
	assert.Error(t, err)
}

func TestTodoID_RoundTrip(t *testing.T) {
	id := NewTodoID()

	parsed, err := ParseTodoID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	rebuilt, err := TodoIDFromBytes(id.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, rebuilt)
}

func TestSessionID_RoundTrip(t *testing.T) {
	id := NewSessionID()

	parsed, err := ParseSessionID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestRefreshID_RoundTrip(t *testing.T) {
	id := NewRefreshID()

	parsed, err := ParseRefreshID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestIDs_NilDetection(t *testing.T) {
	assert.True(t, UserID{}.IsNil())
	assert.True(t, TodoID{}.IsNil())
	assert.False(t, NewUserID().IsNil())
	assert.False(t, NewSessionID().IsNil())
	assert.False(t, NewRefreshID().IsNil())
}

// The string form must order the same way as the raw bytes, otherwise
// cursors issued from decoded records would not line up with key order.
func TestID_StringOrderMatchesByteOrder(t *testing.T) {
	for i := 0; i < 64; i++ {
		a, b := NewTodoID(), NewTodoID()

		stringLess := a.String() < b.String()
		byteLess := string(a.Bytes()) < string(b.Bytes())
		assert.Equal(t, byteLess, stringLess)
	}
}

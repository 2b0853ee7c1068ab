package codec

import (
	"fmt"

	"github.com/ssargent/skulddb/pkg/ids"
	"github.com/ssargent/skulddb/pkg/model"
)

// Todo schema versions. The set is closed: decoding matches exhaustively
// and normalizes to the current model.Todo immediately, so no other code
// ever branches on version.
const (
	todoTagV1 = 0x01 // id, text, completed
	todoTagV2 = 0x02 // id, text, completed, group
)

// TodoCodec encodes todos at the latest version and decodes every
// historical one.
type TodoCodec struct{}

// Encode emits the V2 layout:
// [tag(1)][id(16)][textLen(4)][text][completed(1)][groupLen(4)][group]
func (TodoCodec) Encode(todo model.Todo) ([]byte, error) {
	if todo.ID.IsNil() {
		return nil, &EncodeError{Record: "todo", Reason: "nil id"}
	}

	w := writer{buf: make([]byte, 0, 1+16+4+len(todo.Text)+1+4+len(todo.Group))}
	w.uint8(todoTagV2)
	w.raw(todo.ID.Bytes())
	w.bytes([]byte(todo.Text))
	w.uint8(boolByte(todo.Completed))
	w.bytes([]byte(todo.Group))
	return w.buf, nil
}

// Decode dispatches on the version tag. V1 records backfill Group with the
// empty string.
func (TodoCodec) Decode(data []byte) (model.Todo, error) {
	r := reader{buf: data, record: "todo"}

	tag, err := r.uint8()
	if err != nil {
		return model.Todo{}, err
	}

	switch tag {
	case todoTagV1, todoTagV2:
	default:
		return model.Todo{}, r.fail(fmt.Sprintf("unknown version tag 0x%02x", tag))
	}

	rawID, err := r.rawN(16)
	if err != nil {
		return model.Todo{}, err
	}
	id, err := ids.TodoIDFromBytes(rawID)
	if err != nil {
		return model.Todo{}, r.fail("malformed id")
	}

	text, err := r.string()
	if err != nil {
		return model.Todo{}, err
	}
	completed, err := r.uint8()
	if err != nil {
		return model.Todo{}, err
	}

	todo := model.Todo{ID: id, Text: text, Completed: completed != 0}

	if tag == todoTagV2 {
		group, err := r.string()
		if err != nil {
			return model.Todo{}, err
		}
		todo.Group = group
	}

	return todo, nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

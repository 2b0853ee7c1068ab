package codec

import (
	"fmt"

	"github.com/ssargent/skulddb/pkg/ids"
	"github.com/ssargent/skulddb/pkg/model"
)

const sessionTagV1 = 0x01

// SessionCodec encodes session records.
type SessionCodec struct{}

// Encode layout:
// [tag(1)][id(16)][user_id(16)][created_at(8)][expires_at(8)][jti(16)]
func (SessionCodec) Encode(session model.Session) ([]byte, error) {
	if session.ID.IsNil() {
		return nil, &EncodeError{Record: "session", Reason: "nil id"}
	}

	w := writer{buf: make([]byte, 0, 1+16+16+8+8+16)}
	w.uint8(sessionTagV1)
	w.raw(session.ID.Bytes())
	w.raw(session.UserID.Bytes())
	w.int64(session.CreatedAt)
	w.int64(session.ExpiresAt)
	w.raw(session.CurrentRefreshJTI.Bytes())
	return w.buf, nil
}

func (SessionCodec) Decode(data []byte) (model.Session, error) {
	r := reader{buf: data, record: "session"}

	tag, err := r.uint8()
	if err != nil {
		return model.Session{}, err
	}
	if tag != sessionTagV1 {
		return model.Session{}, r.fail(fmt.Sprintf("unknown version tag 0x%02x", tag))
	}

	rawID, err := r.rawN(16)
	if err != nil {
		return model.Session{}, err
	}
	id, err := ids.SessionIDFromBytes(rawID)
	if err != nil {
		return model.Session{}, r.fail("malformed id")
	}

	rawUserID, err := r.rawN(16)
	if err != nil {
		return model.Session{}, err
	}
	userID, err := ids.UserIDFromBytes(rawUserID)
	if err != nil {
		return model.Session{}, r.fail("malformed user id")
	}

	createdAt, err := r.int64()
	if err != nil {
		return model.Session{}, err
	}
	expiresAt, err := r.int64()
	if err != nil {
		return model.Session{}, err
	}

	rawJTI, err := r.rawN(16)
	if err != nil {
		return model.Session{}, err
	}
	jti, err := ids.RefreshIDFromBytes(rawJTI)
	if err != nil {
		return model.Session{}, r.fail("malformed refresh id")
	}

	return model.Session{
		ID:                id,
		UserID:            userID,
		CreatedAt:         createdAt,
		ExpiresAt:         expiresAt,
		CurrentRefreshJTI: jti,
	}, nil
}

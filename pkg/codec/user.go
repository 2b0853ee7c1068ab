package codec

import (
	"fmt"

	"github.com/ssargent/skulddb/pkg/ids"
	"github.com/ssargent/skulddb/pkg/model"
)

const userTagV1 = 0x01

// UserCodec encodes the user record stored identically in the users and
// emails collections.
type UserCodec struct{}

// Encode layout:
// [tag(1)][id(16)][emailLen(4)][email][saltLen(4)][salt][hashLen(4)][hash][role(1)]
func (UserCodec) Encode(user model.User) ([]byte, error) {
	if user.ID.IsNil() {
		return nil, &EncodeError{Record: "user", Reason: "nil id"}
	}

	w := writer{buf: make([]byte, 0, 1+16+4+len(user.Email)+4+len(user.Password.Salt)+4+len(user.Password.Hash)+1)}
	w.uint8(userTagV1)
	w.raw(user.ID.Bytes())
	w.bytes([]byte(user.Email))
	w.bytes(user.Password.Salt)
	w.bytes(user.Password.Hash)
	w.uint8(byte(user.Role))
	return w.buf, nil
}

func (UserCodec) Decode(data []byte) (model.User, error) {
	r := reader{buf: data, record: "user"}

	tag, err := r.uint8()
	if err != nil {
		return model.User{}, err
	}
	if tag != userTagV1 {
		return model.User{}, r.fail(fmt.Sprintf("unknown version tag 0x%02x", tag))
	}

	rawID, err := r.rawN(16)
	if err != nil {
		return model.User{}, err
	}
	id, err := ids.UserIDFromBytes(rawID)
	if err != nil {
		return model.User{}, r.fail("malformed id")
	}

	email, err := r.string()
	if err != nil {
		return model.User{}, err
	}
	salt, err := r.bytes()
	if err != nil {
		return model.User{}, err
	}
	hash, err := r.bytes()
	if err != nil {
		return model.User{}, err
	}
	role, err := r.uint8()
	if err != nil {
		return model.User{}, err
	}
	if role > byte(model.RoleAdmin) {
		return model.User{}, r.fail(fmt.Sprintf("unknown role byte 0x%02x", role))
	}

	return model.User{
		ID:       id,
		Email:    email,
		Password: model.HashedPassword{Salt: salt, Hash: hash},
		Role:     model.Role(role),
	}, nil
}

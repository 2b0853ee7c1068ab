package storage

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ssargent/skulddb/pkg/blocking"
	"github.com/ssargent/skulddb/pkg/engine"
	"github.com/ssargent/skulddb/pkg/ids"
	"github.com/ssargent/skulddb/pkg/keys"
	"github.com/ssargent/skulddb/pkg/model"
	"github.com/ssargent/skulddb/pkg/scan"
)

// UserStore implements UserStorage. Users are stored twice: the full
// record under "user:<id>" and again under "email:<address>" so that
// lookups by either handle are single point reads. The two copies are
// only ever written inside one transaction.
type UserStore struct {
	st *Storage
}

var _ UserStorage = (*UserStore)(nil)

// Get returns a user by id.
func (u *UserStore) Get(ctx context.Context, userID ids.UserID) (model.User, error) {
	u.st.log.Info("get user", zap.Stringer("user_id", userID))

	var user model.User
	err := u.st.measure("user.get", func() error {
		value, err := u.st.users.Get(userKey(userID))
		if err != nil {
			return err
		}
		user, err = u.st.userCodec.Decode(value)
		return err
	})
	return user, u.st.translate(err, "failed to get user", zap.Stringer("user_id", userID))
}

// GetByEmail returns a user by email address.
func (u *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u.st.log.Info("get user by email")

	var user model.User
	err := u.st.measure("user.get_by_email", func() error {
		value, err := u.st.emails.Get(emailKey(email))
		if err != nil {
			return err
		}
		user, err = u.st.userCodec.Decode(value)
		return err
	})
	return user, u.st.translate(err, "failed to get user by email")
}

// Put writes both copies of the user atomically.
func (u *UserStore) Put(ctx context.Context, userID ids.UserID, user model.User) error {
	err := u.st.pool.Run(ctx, "user.put", func() error {
		return u.st.measure("user.put", func() error {
			u.st.log.Info("put user", zap.Stringer("user_id", userID))

			encoded, err := u.st.userCodec.Encode(user)
			if err != nil {
				return err
			}
			return u.st.eng.Transaction(func(tx *engine.Txn) error {
				if err := tx.Put(u.st.users, userKey(userID), encoded); err != nil {
					return err
				}
				return tx.Put(u.st.emails, emailKey(user.Email), encoded)
			})
		})
	})
	return u.st.translate(err, "failed to put user", zap.Stringer("user_id", userID))
}

// UpdateRole rewrites both copies of the user with the new role. Fails
// with ErrNotFound when the user does not exist.
func (u *UserStore) UpdateRole(ctx context.Context, userID ids.UserID, role model.Role) error {
	err := u.st.pool.Run(ctx, "user.update_role", func() error {
		return u.st.measure("user.update_role", func() error {
			u.st.log.Info("update user role",
				zap.Stringer("user_id", userID), zap.Stringer("role", role))

			return u.st.eng.Transaction(func(tx *engine.Txn) error {
				value, err := tx.Get(u.st.users, userKey(userID))
				if err != nil {
					return err
				}

				user, err := u.st.userCodec.Decode(value)
				if err != nil {
					return err
				}
				user.Role = role

				encoded, err := u.st.userCodec.Encode(user)
				if err != nil {
					return err
				}
				if err := tx.Put(u.st.users, userKey(userID), encoded); err != nil {
					return err
				}
				return tx.Put(u.st.emails, emailKey(user.Email), encoded)
			})
		})
	})
	return u.st.translate(err, "failed to update user role", zap.Stringer("user_id", userID))
}

// Delete removes the user, the email copy and every todo the user owns.
// The user record and email copy go in the same transaction as the final
// todo batch, so a crash never leaves a user without their email handle.
// Returns ErrNoContent when the user does not exist.
func (u *UserStore) Delete(ctx context.Context, userID ids.UserID) error {
	err := u.st.pool.Run(ctx, "user.delete", func() error {
		return u.st.measure("user.delete", func() error {
			u.st.log.Info("delete user", zap.Stringer("user_id", userID))

			exists, err := u.st.users.Has(userKey(userID))
			if err != nil {
				return err
			}
			if !exists {
				return engine.ErrNoContent
			}

			return u.st.drainTodos(userID, u.removeUserAndEmail(userID))
		})
	})
	return u.st.translate(err, "failed to delete user", zap.Stringer("user_id", userID))
}

// removeUserAndEmail deletes both copies of the user inside tx. The email
// copy's address comes from the stored record; a record that vanished
// between the existence check and this transaction is treated as done.
func (u *UserStore) removeUserAndEmail(userID ids.UserID) func(tx *engine.Txn) error {
	return func(tx *engine.Txn) error {
		value, err := tx.Get(u.st.users, userKey(userID))
		if errors.Is(err, engine.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		user, err := u.st.userCodec.Decode(value)
		if err != nil {
			return err
		}

		if err := tx.Delete(u.st.users, userKey(userID)); err != nil {
			return err
		}
		return tx.Delete(u.st.emails, emailKey(user.Email))
	}
}

// GetAll returns one page of users in key order, excluding the requester.
func (u *UserStore) GetAll(ctx context.Context, requesterID ids.UserID, p scan.Pagination[ids.UserID]) (scan.Page[model.User, ids.UserID], error) {
	page, err := blocking.Run(ctx, u.st.pool, "user.get_all", func() (scan.Page[model.User, ids.UserID], error) {
		var page scan.Page[model.User, ids.UserID]
		err := u.st.measure("user.get_all", func() error {
			var err error
			page, err = u.collectPage(requesterID, p)
			return err
		})
		return page, err
	})
	return page, u.st.translate(err, "failed to get user page", zap.Stringer("requester_id", requesterID))
}

func (u *UserStore) collectPage(requesterID ids.UserID, p scan.Pagination[ids.UserID]) (scan.Page[model.User, ids.UserID], error) {
	afterKey := keys.FromPrefix(keys.ForKind(keys.KindUser))
	if p.After != nil {
		afterKey = userKey(*p.After)
	}

	return scan.From(u.st.users, afterKey,
		func(_ keys.Key, value []byte) (model.User, error) { return u.st.userCodec.Decode(value) },
		func(user model.User) ids.UserID { return user.ID }).
		Within(keys.ForKind(keys.KindUser)).
		WithPagination(p).
		Filter(func(user model.User) bool { return user.ID != requesterID }).
		Logger(u.st.log).
		Collect()
}

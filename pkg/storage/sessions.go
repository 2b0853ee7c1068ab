package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/ssargent/skulddb/pkg/engine"
	"github.com/ssargent/skulddb/pkg/ids"
	"github.com/ssargent/skulddb/pkg/model"
)

// SessionStore implements SessionStorage.
type SessionStore struct {
	st *Storage
}

var _ SessionStorage = (*SessionStore)(nil)

// Get returns a session by id.
func (s *SessionStore) Get(ctx context.Context, sessionID ids.SessionID) (model.Session, error) {
	s.st.log.Info("get session", zap.Stringer("session_id", sessionID))

	var session model.Session
	err := s.st.measure("session.get", func() error {
		value, err := s.st.sessions.Get(sessionKey(sessionID))
		if err != nil {
			return err
		}
		session, err = s.st.sessionCodec.Decode(value)
		return err
	})
	return session, s.st.translate(err, "failed to get session", zap.Stringer("session_id", sessionID))
}

// Put stores a session with overwrite semantics.
func (s *SessionStore) Put(ctx context.Context, sessionID ids.SessionID, session model.Session) error {
	s.st.log.Info("put session", zap.Stringer("session_id", sessionID))

	err := s.st.measure("session.put", func() error {
		encoded, err := s.st.sessionCodec.Encode(session)
		if err != nil {
			return err
		}
		return s.st.sessions.Put(sessionKey(sessionID), encoded)
	})
	return s.st.translate(err, "failed to put session", zap.Stringer("session_id", sessionID))
}

// Delete removes a session, reporting ErrNoContent when it was already gone.
func (s *SessionStore) Delete(ctx context.Context, sessionID ids.SessionID) error {
	s.st.log.Info("delete session", zap.Stringer("session_id", sessionID))

	err := s.st.measure("session.delete", func() error {
		return s.st.sessions.Delete(sessionKey(sessionID))
	})
	return s.st.translate(err, "failed to delete session", zap.Stringer("session_id", sessionID))
}

// UpdateRefresh rotates the session's current refresh token id. Only the
// JTI changes; the creation and expiry instants stay fixed for the life of
// the session. A rotation against a missing session reports ErrNoContent
// so the caller treats the whole session as revoked.
func (s *SessionStore) UpdateRefresh(ctx context.Context, sessionID ids.SessionID, refreshJTI ids.RefreshID) error {
	err := s.st.measure("session.update", func() error {
		s.st.log.Info("rotate session refresh token", zap.Stringer("session_id", sessionID))

		return s.st.eng.Transaction(func(tx *engine.Txn) error {
			key := sessionKey(sessionID)

			exists, err := tx.Has(s.st.sessions, key)
			if err != nil {
				return err
			}
			if !exists {
				return engine.ErrNoContent
			}

			value, err := tx.Get(s.st.sessions, key)
			if err != nil {
				return err
			}

			session, err := s.st.sessionCodec.Decode(value)
			if err != nil {
				return err
			}
			session.CurrentRefreshJTI = refreshJTI

			encoded, err := s.st.sessionCodec.Encode(session)
			if err != nil {
				return err
			}
			return tx.Put(s.st.sessions, key, encoded)
		})
	})
	return s.st.translate(err, "failed to rotate session refresh token", zap.Stringer("session_id", sessionID))
}

package storage

import (
	"errors"

	"go.uber.org/zap"

	"github.com/ssargent/skulddb/pkg/engine"
)

// The two business-meaningful outcomes, re-exported so the service layer
// depends on one package. Every other error reaching the caller indicates
// corruption, a logic bug, or an engine failure.
var (
	ErrNotFound  = engine.ErrNotFound
	ErrNoContent = engine.ErrNoContent
)

// translate applies the propagation policy: NotFound/NoContent are
// expected and logged at warn; everything else is logged at error. The
// error itself always flows to the caller unchanged.
func (s *Storage) translate(err error, msg string, fields ...zap.Field) error {
	if err == nil {
		return nil
	}

	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoContent):
		s.log.Warn(msg, fields...)
	default:
		s.log.Error(msg, fields...)
	}
	return err
}

// Package scan implements the cursor-based range pagination shared by
// every listing operation: ordered iteration from an after-key, bounded by
// a required prefix, collecting up to a limit of decoded records plus a
// continuation cursor.
package scan

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ssargent/skulddb/pkg/engine"
	"github.com/ssargent/skulddb/pkg/keys"
)

// ErrUninitializedScan flags a programmer error: Collect was invoked
// without both a prefix bound and a pagination request.
var ErrUninitializedScan = errors.New("scan invoked without required parameters")

// DecodeFunc turns one stored entry into a record. Key-only scans return
// the key itself and ignore the value.
type DecodeFunc[T any] func(key keys.Key, value []byte) (T, error)

// Scanner is a configured range scan. Build it with From, bound it with
// Within, shape it with WithPagination, then run Collect.
type Scanner[T any, ID any] struct {
	coll     engine.Collection
	afterKey keys.Key
	decode   DecodeFunc[T]
	ident    func(T) ID

	prefix     keys.Prefix
	pagination *Pagination[ID]
	filter     func(T) bool
	log        *zap.Logger
}

// From starts a scan of coll at afterKey (inclusive at the byte level;
// the after-key itself is skipped during collection). decode produces
// items, ident extracts the id used for continuation cursors.
func From[T any, ID any](coll engine.Collection, afterKey keys.Key, decode DecodeFunc[T], ident func(T) ID) *Scanner[T, ID] {
	return &Scanner[T, ID]{
		coll:     coll,
		afterKey: afterKey,
		decode:   decode,
		ident:    ident,
		log:      zap.NewNop(),
	}
}

// Within bounds the scan to keys inside prefix. Required.
func (s *Scanner[T, ID]) Within(prefix keys.Prefix) *Scanner[T, ID] {
	s.prefix = prefix
	return s
}

// WithPagination sets the page request. Required.
func (s *Scanner[T, ID]) WithPagination(p Pagination[ID]) *Scanner[T, ID] {
	s.pagination = &p
	return s
}

// Filter drops records that lie in the key range but must not appear in
// this page. Filtered records do not count against the limit.
func (s *Scanner[T, ID]) Filter(filter func(T) bool) *Scanner[T, ID] {
	s.filter = filter
	return s
}

// Logger attaches a logger for scan diagnostics.
func (s *Scanner[T, ID]) Logger(log *zap.Logger) *Scanner[T, ID] {
	s.log = log
	return s
}

func (s *Scanner[T, ID]) validate() (*Pagination[ID], error) {
	switch {
	case s.pagination == nil && s.prefix.IsZero():
		return nil, fmt.Errorf("%w: Within and WithPagination", ErrUninitializedScan)
	case s.pagination == nil:
		return nil, fmt.Errorf("%w: WithPagination", ErrUninitializedScan)
	case s.prefix.IsZero():
		return nil, fmt.Errorf("%w: Within", ErrUninitializedScan)
	}
	return s.pagination, nil
}

// Collect runs the scan and assembles one page.
//
// When the pagination carries a cursor, the corresponding after-key must
// still exist; its absence fails with engine.ErrNotFound so a stale cursor
// is an explicit error instead of silently skipped records.
func (s *Scanner[T, ID]) Collect() (page Page[T, ID], err error) {
	pagination, err := s.validate()
	if err != nil {
		return Page[T, ID]{}, err
	}

	s.log.Info("collect values with key prefix",
		zap.String("collection", s.coll.Name()), zap.Stringer("prefix", s.prefix))

	if pagination.After != nil {
		s.log.Info("collect values after key", zap.Stringer("after", s.afterKey))

		present, err := s.coll.Has(s.afterKey)
		if err != nil {
			return Page[T, ID]{}, err
		}
		if !present {
			s.log.Error("cursor key not found", zap.Stringer("key", s.afterKey))
			return Page[T, ID]{}, engine.ErrNotFound
		}
	}

	it, err := s.coll.Scan(s.afterKey)
	if err != nil {
		return Page[T, ID]{}, err
	}
	defer func() {
		if closeErr := it.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	page = newPage[T, ID](pagination.Limit)
	for it.Next() {
		key, keyErr := keys.FromBytes(it.Key())
		if keyErr != nil {
			return Page[T, ID]{}, keyErr
		}

		if key.Equal(s.afterKey) {
			continue
		}
		if !key.StartsWith(s.prefix) {
			break
		}

		item, decodeErr := s.decode(key, it.Value())
		if decodeErr != nil {
			return Page[T, ID]{}, decodeErr
		}
		if s.filter != nil && !s.filter(item) {
			continue
		}

		if page.completeWith(item, s.ident) {
			break
		}
	}

	return page, err
}

package storage

import (
	"go.uber.org/zap"

	"github.com/ssargent/skulddb/pkg/engine"
	"github.com/ssargent/skulddb/pkg/ids"
	"github.com/ssargent/skulddb/pkg/keys"
	"github.com/ssargent/skulddb/pkg/scan"
)

// drainTodos removes every todo in the owner's key range in batches of at
// most batchSize keys, one atomic transaction per batch. final, when
// non-nil, runs inside the same transaction as the last batch, once no
// more pages remain.
//
// Each iteration scans one page of keys, re-inserts the previous
// iteration's cursor key (the scanner skipped it but it still has to be
// deleted), and, when another page follows, pops the last key back out so
// it survives as the next cursor instead of being deleted prematurely.
// Batches are disjoint, every key is deleted exactly once, and the loop
// terminates because the scan boundary strictly advances.
func (s *Storage) drainTodos(userID ids.UserID, final func(tx *engine.Txn) error) error {
	firstKey := todoScanStart(userID)
	prefix := keys.NewPrefix(keys.KindTodo, userID.String())

	var after *keys.Key
	deleted := 0

	for {
		afterKey := firstKey
		if after != nil {
			afterKey = *after
		}

		s.log.Info("scan deletion candidates",
			zap.Stringer("after_key", afterKey), zap.Stringer("key_prefix", prefix))

		page, err := scan.From(s.todos, afterKey,
			func(k keys.Key, _ []byte) (keys.Key, error) { return k, nil },
			func(k keys.Key) keys.Key { return k }).
			Within(prefix).
			WithPagination(scan.Pagination[keys.Key]{After: after, Limit: s.batchSize}).
			Logger(s.log).
			Collect()
		if err != nil {
			return err
		}

		batch := page.Items
		if after != nil {
			batch = append([]keys.Key{*after}, batch...)
		}
		if page.NextCursor != nil {
			batch = batch[:len(batch)-1]
		}

		err = s.eng.Transaction(func(tx *engine.Txn) error {
			if err := tx.DeleteBatch(s.todos, batch); err != nil {
				return err
			}
			if page.NextCursor == nil && final != nil {
				return final(tx)
			}
			return nil
		})
		if err != nil {
			return err
		}

		deleted += len(batch)
		if page.NextCursor == nil {
			break
		}
		after = page.NextCursor
	}

	s.log.Info("deleted todos", zap.Int("count", deleted), zap.Stringer("user_id", userID))
	return nil
}

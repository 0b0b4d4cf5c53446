package database

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
)

// WithAdvisoryLocks runs fn in a transaction holding a transaction-scoped
// advisory lock for every key.
//
// Keys are de-duplicated and acquired in sorted order so two callers that
// share a subset of keys cannot deadlock. The locks are released on commit or
// rollback; nothing needs to be unlocked explicitly.
//
//	err := db.WithAdvisoryLocks(ctx, []string{"email:a@b.com", "phone:9876543210"}, func(tx *sqlx.Tx) error {
//	    // lookup-then-write is now serialized against other holders of either key
//	})
func (db *DB) WithAdvisoryLocks(ctx context.Context, keys []string, fn func(*sqlx.Tx) error) error {
	ordered := uniqueSorted(keys)

	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, key := range ordered {
			if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
				return fmt.Errorf("failed to acquire advisory lock %q: %w", key, err)
			}
		}
		return fn(tx)
	})
}

func uniqueSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

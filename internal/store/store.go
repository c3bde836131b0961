// Package store holds the four durable collections behind the order
// lifecycle: items (inventory), orders, pending decisions, and transactions.
// Each store is a thin wrapper around a gorm handle; WithTx rebinds a store
// to a transaction so the service can group writes atomically.
package store

import "strings"

// likeUniqueViolation reports whether err looks like a UNIQUE constraint
// failure. The sqlite driver does not expose a typed error for this, so we
// match on the message the same way the rest of the codebase treats
// duplicate inserts as idempotent replays.
func likeUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique")
}

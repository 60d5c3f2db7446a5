package audit

import (
	"context"
)

// Store is the append-only audit trail. Append is called exactly once per
// committed transition, never for a rejected one. Entries are never deleted
// or reordered; the trail length only grows.
type Store interface {
	Append(ctx context.Context, entry Entry) error

	// Entries returns the full trail in commit order.
	Entries(ctx context.Context) ([]Entry, error)

	// EntriesAfter returns up to limit entries with Seq > after, in commit
	// order. limit <= 0 means no limit. Used by indexers catching up.
	EntriesAfter(ctx context.Context, after uint64, limit int) ([]Entry, error)

	// Len returns the number of committed entries.
	Len(ctx context.Context) (int, error)
}

package storage

import "context"

// ResultStore abstracts persistence of finished matches. Live match state is
// never stored; a process restart loses in-flight matches.
type ResultStore interface {
	// Write
	RecordResult(ctx context.Context, rec MatchRecord) error

	// Read
	RecentResults(ctx context.Context, limit int) ([]MatchRecord, error)
	ResultsByUserID(ctx context.Context, userID string, limit int) ([]MatchRecord, error)

	// Lifecycle
	Close()
}

// Ensure *Store implements ResultStore at compile time.
var _ ResultStore = (*Store)(nil)

package store

import (
	"context"
	"time"
)

// SeenStore is the dedup side of the crawl store: an atomic set-insert whose
// return value says whether the member was newly added.
type SeenStore interface {
	// MarkSeen inserts url into the session's seen set. Returns true when the
	// url was not present before (first discoverer wins).
	MarkSeen(ctx context.Context, sessionID, url string) (bool, error)
}

// BudgetReader exposes the per-seed visited counter without mutating it.
type BudgetReader interface {
	// VisitedCount returns the number of fetches attributed to seedURL within
	// the session. A key that was never incremented reads as zero.
	VisitedCount(ctx context.Context, sessionID, seedURL string) (int64, error)
}

// CrawlStore is the shared visited/budget state for a crawl session. All
// operations are atomic at the store boundary so multiple worker processes
// can share one session without in-process locks.
type CrawlStore interface {
	SeenStore
	BudgetReader

	// IncrementVisited attributes one successful fetch to seedURL and returns
	// the new count.
	IncrementVisited(ctx context.Context, sessionID, seedURL string) (int64, error)

	// MarkProcessed records that a task (session, url) has been handled once.
	// Returns false when a redelivery of the same task already claimed it.
	MarkProcessed(ctx context.Context, sessionID, url string) (bool, error)

	// StartSession records the session start time if not already set and
	// returns the authoritative value (the first writer wins).
	StartSession(ctx context.Context, sessionID string, at time.Time) (time.Time, error)

	// SessionStart reads the session start time. ok is false when no start
	// was ever recorded.
	SessionStart(ctx context.Context, sessionID string) (time.Time, bool, error)

	Close() error
}

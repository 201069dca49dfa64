package crawler

import (
	"context"
	"time"

	"depthcharge/internal/models"
	"depthcharge/internal/store"
)

// Decision is the outcome of a budget check for one dequeued task.
type Decision int

const (
	// Proceed admits the task; the fetch may go ahead.
	Proceed Decision = iota
	// SkipDepthExceeded rejects a task deeper than the configured maximum.
	SkipDepthExceeded
	// SkipTimeExceeded rejects any task once the session's global wall-clock
	// budget has elapsed.
	SkipTimeExceeded
	// SkipCountExceeded rejects a task whose seed has used up its fetch quota.
	SkipCountExceeded
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case SkipDepthExceeded:
		return "skip_depth_exceeded"
	case SkipTimeExceeded:
		return "skip_time_exceeded"
	case SkipCountExceeded:
		return "skip_count_exceeded"
	default:
		return "unknown"
	}
}

// BudgetEnforcer decides whether another fetch may proceed for a task. It
// reads shared state (the per-seed visited counter) but never mutates it;
// attribution happens after a successful fetch, so failed fetches consume no
// budget and exactly MaxURLsPerSeed fetches are admitted per seed.
type BudgetEnforcer struct {
	store store.BudgetReader
	cfg   Config
	now   func() time.Time
}

// NewBudgetEnforcer builds an enforcer over the shared budget store.
func NewBudgetEnforcer(reader store.BudgetReader, cfg Config) *BudgetEnforcer {
	return &BudgetEnforcer{store: reader, cfg: cfg, now: time.Now}
}

// Admit checks, in order: depth, global elapsed time, per-seed count.
// startedAt is the session start time recorded at seeding. A store error
// fails closed: the caller must treat the task as skipped.
func (e *BudgetEnforcer) Admit(ctx context.Context, job models.CrawlJob, startedAt time.Time) (Decision, error) {
	if job.Depth > e.cfg.MaxDepth {
		return SkipDepthExceeded, nil
	}
	if e.cfg.MaxCrawlTime > 0 && e.now().Sub(startedAt) >= e.cfg.MaxCrawlTime {
		return SkipTimeExceeded, nil
	}
	if e.cfg.MaxURLsPerSeed > 0 {
		visited, err := e.store.VisitedCount(ctx, job.SessionID, job.SeedURL)
		if err != nil {
			return SkipCountExceeded, err
		}
		if visited >= e.cfg.MaxURLsPerSeed {
			return SkipCountExceeded, nil
		}
	}
	return Proceed, nil
}

package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"depthcharge/internal/crawler"
)

// Drainer empties a consumer group's pending backlog at shutdown. Messages
// are committed without being processed: the session is ending, so leftover
// frontier tasks are discarded rather than replayed by the next process that
// joins the group. Checkpoint-and-resume was considered and rejected; a
// restarted crawl re-seeds from the api instead.
type Drainer struct {
	reader  crawler.MessageReader
	timeout time.Duration

	once    sync.Once
	drained int
	err     error
}

// NewDrainer wraps reader. timeout bounds each receive; once no message
// arrives within it the backlog is considered empty.
func NewDrainer(reader crawler.MessageReader, timeout time.Duration) *Drainer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Drainer{reader: reader, timeout: timeout}
}

// Drain consumes and commits pending messages until the receive times out or
// ctx is cancelled, and returns how many were discarded. Idempotent: later
// calls return the first result without touching the reader, so a double
// shutdown cannot double-drain.
func (d *Drainer) Drain(ctx context.Context) (int, error) {
	d.once.Do(func() {
		d.drained, d.err = d.drain(ctx)
	})
	return d.drained, d.err
}

func (d *Drainer) drain(ctx context.Context) (int, error) {
	count := 0
	for {
		fetchCtx, cancel := context.WithTimeout(ctx, d.timeout)
		msg, err := d.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return count, nil
			}
			return count, err
		}
		if err := d.reader.CommitMessages(ctx, msg); err != nil {
			return count, err
		}
		count++
	}
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key layout, all scoped by session so concurrent sessions never collide:
//
//	crawl:seen:<session>            set of enqueued URLs (dedup gate)
//	crawl:processed:<session>:<url> marker for at-least-once redeliveries
//	crawl:visited:<session>:<seed>  counter of fetches attributed to the seed
//	crawl:start:<session>           session start time, RFC3339Nano
const (
	seenKeyPrefix      = "crawl:seen:"
	processedKeyPrefix = "crawl:processed:"
	visitedKeyPrefix   = "crawl:visited:"
	startKeyPrefix     = "crawl:start:"
)

// RedisCrawlStore implements CrawlStore on Redis. Every operation is a single
// round-trip command (SADD, INCR, SETNX, GET) so there is no read-modify-write
// window between workers.
type RedisCrawlStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCrawlStore connects to Redis at addr. Keys expire after ttl so
// finished sessions age out without explicit cleanup; ttl <= 0 keeps them
// forever.
func NewRedisCrawlStore(addr string, ttl time.Duration) *RedisCrawlStore {
	return &RedisCrawlStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Close closes the Redis client.
func (s *RedisCrawlStore) Close() error {
	return s.client.Close()
}

// MarkSeen adds url to the session's seen set. SADD reports how many members
// were newly added, which is the atomic check-and-insert the dedup gate needs.
func (s *RedisCrawlStore) MarkSeen(ctx context.Context, sessionID, url string) (bool, error) {
	key := seenKeyPrefix + sessionID
	added, err := s.client.SAdd(ctx, key, url).Result()
	if err != nil {
		return false, err
	}
	if added > 0 && s.ttl > 0 {
		// Refresh on every first-seen insert; cheap relative to a fetch.
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return true, err
		}
	}
	return added > 0, nil
}

// MarkProcessed claims a delivered task via SETNX.
func (s *RedisCrawlStore) MarkProcessed(ctx context.Context, sessionID, url string) (bool, error) {
	return s.client.SetNX(ctx, processedKeyPrefix+sessionID+":"+url, "1", s.ttl).Result()
}

// IncrementVisited attributes one fetch to seedURL and returns the new count.
func (s *RedisCrawlStore) IncrementVisited(ctx context.Context, sessionID, seedURL string) (int64, error) {
	key := visitedKeyPrefix + sessionID + ":" + seedURL
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// VisitedCount reads the counter; a missing key counts as zero.
func (s *RedisCrawlStore) VisitedCount(ctx context.Context, sessionID, seedURL string) (int64, error) {
	n, err := s.client.Get(ctx, visitedKeyPrefix+sessionID+":"+seedURL).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// StartSession records the start time with SETNX so the first writer (api or
// a worker repairing a missing key) wins, then reads back the stored value.
func (s *RedisCrawlStore) StartSession(ctx context.Context, sessionID string, at time.Time) (time.Time, error) {
	key := startKeyPrefix + sessionID
	if err := s.client.SetNX(ctx, key, at.UTC().Format(time.RFC3339Nano), s.ttl).Err(); err != nil {
		return time.Time{}, err
	}
	started, ok, err := s.SessionStart(ctx, sessionID)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		// SETNX succeeded but the key vanished (e.g. eviction mid-call).
		return at.UTC(), nil
	}
	return started, nil
}

// SessionStart reads the recorded start time.
func (s *RedisCrawlStore) SessionStart(ctx context.Context, sessionID string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, startKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	started, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return started, true, nil
}

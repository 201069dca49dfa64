package models

import "time"

// CrawlStatus tracks the state of a crawl session. CreatedAt doubles as the
// session start time for the global wall-clock budget.
type CrawlStatus struct {
	SessionID string    `json:"session_id"`
	Seeds     []string  `json:"seeds"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

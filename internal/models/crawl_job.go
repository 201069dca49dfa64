package models

import "time"

// CrawlJob is a unit of work on the crawl frontier. URL and Depth drive the
// crawl; SessionID and SeedURL attribute the task to its crawl session and
// originating seed so per-seed budgets can be enforced across workers.
type CrawlJob struct {
	SessionID string    `json:"session_id"`
	SeedURL   string    `json:"seed_url"`
	URL       string    `json:"url"`
	Depth     int       `json:"depth"`
	CreatedAt time.Time `json:"created_at"`
}

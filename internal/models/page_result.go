package models

import "time"

// PageResult is the payload written to the results topic after a successful
// fetch. The archiver consumes it and persists the raw HTML to object storage.
type PageResult struct {
	SessionID  string    `json:"session_id"`
	SeedURL    string    `json:"seed_url"`
	URL        string    `json:"url"`
	Depth      int       `json:"depth"`
	StatusCode int       `json:"status_code"`
	HTML       string    `json:"html"`
	FetchedAt  time.Time `json:"fetched_at"`
}

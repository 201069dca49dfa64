// Package fetch retrieves pages over HTTP for the crawl worker.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultUserAgent identifies the crawler to target sites.
const DefaultUserAgent = "depthcharge/1.0 (web crawler)"

// Page is the outcome of a successful fetch. FinalURL is the URL after
// redirects and is the base for resolving relative links on the page.
type Page struct {
	StatusCode int
	Body       []byte
	FinalURL   string
}

// FetchPage retrieves url with the given client. Transport errors and
// non-2xx statuses are terminal failures for the task; there is no retry
// here, redelivery is the queue's concern.
func FetchPage(ctx context.Context, client *http.Client, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Page{
		StatusCode: resp.StatusCode,
		Body:       body,
		FinalURL:   finalURL,
	}, nil
}

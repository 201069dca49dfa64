// Package storage persists fetched pages to object storage.
package storage

import (
	"context"
	"strings"
)

// PageStore persists raw pages. Put returns the stored object's location.
type PageStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// ObjectKey derives a storage key from a page URL: slashes, colons and dots
// become underscores, with a .txt suffix. Stable, so re-archiving the same
// URL overwrites rather than duplicates.
func ObjectKey(pageURL string) string {
	replacer := strings.NewReplacer("/", "_", ":", "_", ".", "_")
	return replacer.Replace(pageURL) + ".txt"
}

// EncodePage builds the stored object payload: the raw URL on the first
// line, then the raw HTML.
func EncodePage(pageURL, html string) []byte {
	return []byte(pageURL + "\n" + html)
}

// DecodePage splits a stored object back into URL and HTML. ok is false when
// the payload has no URL line.
func DecodePage(data []byte) (pageURL, html string, ok bool) {
	s := string(data)
	idx := strings.IndexByte(s, '\n')
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

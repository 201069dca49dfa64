package crawler

import (
	"context"
	"net"
	"net/url"
	"strings"

	"depthcharge/internal/store"
)

// DedupeGate decides whether a discovered link gets enqueued. It normalizes
// the raw href against the URL of the page it was found on and performs a
// single atomic check-and-insert on the shared seen set, so across all
// workers a URL is admitted at most once per session.
type DedupeGate struct {
	store store.SeenStore
}

// NewDedupeGate builds a gate over the shared seen set.
func NewDedupeGate(seen store.SeenStore) *DedupeGate {
	return &DedupeGate{store: seen}
}

// Admit resolves rawHref against base (the final URL of the page being
// crawled) and inserts the normalized result into the session's seen set.
// Returns the normalized absolute URL and true on first sight; false for
// invalid input or an already-seen URL. Already-seen is not an error and has
// no side effect beyond the insert attempt itself.
func (g *DedupeGate) Admit(ctx context.Context, sessionID string, base *url.URL, rawHref string) (string, bool, error) {
	normalized, ok := NormalizeLink(base, rawHref)
	if !ok {
		return "", false, nil
	}
	added, err := g.store.MarkSeen(ctx, sessionID, normalized)
	if err != nil {
		return "", false, err
	}
	return normalized, added, nil
}

// NormalizeLink resolves a possibly-relative href against base and normalizes
// it into a canonical absolute URL: lowercased scheme and host, default ports
// stripped, fragment dropped, empty path mapped to "/". Returns false for
// empty or unparseable hrefs and for anything that is not http(s) with a host.
func NormalizeLink(base *url.URL, rawHref string) (string, bool) {
	href := strings.TrimSpace(rawHref)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}

	abs.Scheme = strings.ToLower(abs.Scheme)
	abs.Host = strings.ToLower(abs.Host)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if abs.Host == "" {
		return "", false
	}
	if host, port, err := net.SplitHostPort(abs.Host); err == nil {
		if (abs.Scheme == "http" && port == "80") || (abs.Scheme == "https" && port == "443") {
			abs.Host = host
		}
	}
	if abs.Path == "" {
		abs.Path = "/"
	}
	abs.Fragment = ""

	return abs.String(), true
}

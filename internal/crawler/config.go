package crawler

import "time"

// Config bounds a crawl invocation. Immutable after construction; every
// worker consuming the same session must run with the same values.
type Config struct {
	// MaxDepth is the deepest task depth that may be fetched. Tasks with a
	// strictly greater depth are skipped.
	MaxDepth int
	// MaxURLsPerSeed caps fetches attributed to one seed. Zero or negative
	// means unlimited.
	MaxURLsPerSeed int64
	// MaxCrawlTime is the global wall-clock budget measured from session
	// start, across all seeds. Zero or negative means unlimited.
	MaxCrawlTime time.Duration
}

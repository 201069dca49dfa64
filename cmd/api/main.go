package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"depthcharge/common"
	"depthcharge/internal/crawler"
	"depthcharge/internal/kafka"
	"depthcharge/internal/models"
	"depthcharge/internal/storage"
	"depthcharge/internal/store"
)

// seedMarker is the slice of the crawl store the api needs: recording the
// session start and pre-seeding the seen set.
type seedMarker interface {
	MarkSeen(ctx context.Context, sessionID, url string) (bool, error)
	StartSession(ctx context.Context, sessionID string, at time.Time) (time.Time, error)
}

type server struct {
	prod  kafka.JobProducer
	store store.StatusStore
	crawl seedMarker
	pages storage.PageStore
}

func newServer(prod kafka.JobProducer, statusStore store.StatusStore, crawl seedMarker, pages storage.PageStore) *server {
	return &server{
		prod:  prod,
		store: statusStore,
		crawl: crawl,
		pages: pages,
	}
}

func main() {
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	topic := common.GetEnv("KAFKA_FRONTIER_TOPIC", "depthcharge.crawl.frontier")
	redisAddr := common.GetEnv("REDIS_ADDR", "localhost:6379")
	storeTTL := common.ParseDuration(common.GetEnv("STORE_TTL", "24h"), 24*time.Hour)
	minioEndpoint := common.GetEnv("MINIO_ENDPOINT", "localhost:9000")
	minioAccessKey := common.GetEnv("MINIO_ACCESS_KEY", "minioadmin")
	minioSecretKey := common.GetEnv("MINIO_SECRET_KEY", "minioadmin")
	minioBucket := common.GetEnv("MINIO_BUCKET", "depthcharge-pages")
	minioSSL := common.GetEnv("MINIO_USE_SSL", "") == "true"

	prod := kafka.NewProducer(broker, topic)
	defer func() {
		if err := prod.Close(); err != nil {
			log.Printf("failed to close producer: %v", err)
		}
	}()

	statusStore := store.NewRedisStatusStore(redisAddr, "crawl:status:", storeTTL)
	defer func() {
		if err := statusStore.Close(); err != nil {
			log.Printf("failed to close status store: %v", err)
		}
	}()

	crawlStore := store.NewRedisCrawlStore(redisAddr, storeTTL)
	defer func() {
		if err := crawlStore.Close(); err != nil {
			log.Printf("failed to close crawl store: %v", err)
		}
	}()

	pages, err := storage.NewMinioStore(minioEndpoint, minioAccessKey, minioSecretKey, minioBucket, minioSSL)
	if err != nil {
		log.Fatalf("object store error: %v", err)
	}

	srv := newServer(prod, statusStore, crawlStore, pages)

	mux := http.NewServeMux()
	mux.HandleFunc("/crawl", srv.handleCrawl)
	mux.HandleFunc("/crawl/", srv.handleCrawlStatus)
	mux.HandleFunc("/pages", srv.handlePageList)
	mux.HandleFunc("/pages/", srv.handlePageGet)
	mux.HandleFunc("/metrics", srv.handleMetrics)

	addr := common.GetEnv("API_ADDR", ":8080")
	log.Printf("api listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

// crawlRequest is the POST /crawl body.
type crawlRequest struct {
	Seeds []string `json:"seeds"`
}

// handleCrawl starts a crawl session for a list of seed URLs.
//
// Method: POST
// Path:   /crawl
// Body:   {"seeds": ["https://example.com", ...]}
// Example:
//
//	curl -X POST "http://localhost:8080/crawl" -d '{"seeds":["https://example.com"]}'
func (s *server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Seeds) == 0 {
		http.Error(w, "missing seeds", http.StatusBadRequest)
		return
	}

	seeds := make([]string, 0, len(req.Seeds))
	for _, raw := range req.Seeds {
		normalized, ok := crawler.NormalizeLink(nil, raw)
		if !ok {
			http.Error(w, "invalid seed url: "+raw, http.StatusBadRequest)
			return
		}
		seeds = append(seeds, normalized)
	}

	id := newSessionID()
	createdAt := time.Now().UTC()
	status := models.CrawlStatus{
		SessionID: id,
		Seeds:     seeds,
		Status:    "queued",
		CreatedAt: createdAt,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Record the session start before any task exists; the wall-clock budget
	// counts from here.
	if _, err := s.crawl.StartSession(ctx, id, createdAt); err != nil {
		http.Error(w, "failed to start session", http.StatusBadGateway)
		return
	}

	for _, seed := range seeds {
		// Pre-mark the seed so a page linking back to it is not re-enqueued.
		if _, err := s.crawl.MarkSeen(ctx, id, seed); err != nil {
			http.Error(w, "failed to mark seed", http.StatusBadGateway)
			return
		}
		job := models.CrawlJob{
			SessionID: id,
			SeedURL:   seed,
			URL:       seed,
			Depth:     0,
			CreatedAt: createdAt,
		}
		if err := s.prod.WriteJob(ctx, job); err != nil {
			http.Error(w, "failed to enqueue job", http.StatusBadGateway)
			return
		}
	}

	if err := s.store.SetStatus(ctx, status); err != nil {
		http.Error(w, "failed to persist status", http.StatusBadGateway)
		return
	}

	writeJSON(w, status, http.StatusAccepted)
}

// handleCrawlStatus returns status for a previously created crawl session.
//
// Method: GET
// Path:   /crawl/{sessionID}
// Example:
//
//	curl "http://localhost:8080/crawl/20260830120000"
func (s *server) handleCrawlStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/crawl/"), "/")
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	status, ok, err := s.store.GetStatus(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "failed to load status", http.StatusBadGateway)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, status, http.StatusOK)
}

// handlePageList lists stored page objects.
//
// Method: GET
// Path:   /pages[?prefix=...]
// Example:
//
//	curl "http://localhost:8080/pages"
func (s *server) handlePageList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	keys, err := s.pages.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		http.Error(w, "failed to list pages", http.StatusBadGateway)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, map[string][]string{"files": keys}, http.StatusOK)
}

// handlePageGet retrieves one stored page, split back into its raw URL and
// raw HTML.
//
// Method: GET
// Path:   /pages/{key}
// Example:
//
//	curl "http://localhost:8080/pages/https___example_com_.txt"
func (s *server) handlePageGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.Trim(strings.TrimPrefix(r.URL.Path, "/pages/"), "/")
	if key == "" {
		http.Error(w, "missing page key", http.StatusBadRequest)
		return
	}

	data, err := s.pages.Get(r.Context(), key)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	pageURL, html, ok := storage.DecodePage(data)
	if !ok {
		http.Error(w, "malformed page object", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"raw_url": pageURL, "raw_html": html}, http.StatusOK)
}

// handleMetrics exposes a minimal Prometheus-compatible endpoint.
//
// Method: GET
// Path:   /metrics
func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("depthcharge_api_up 1\n"))
}

func writeJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func newSessionID() string {
	return strings.ReplaceAll(time.Now().UTC().Format("20060102150405.000000000"), ".", "")
}

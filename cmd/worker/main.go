package main

import (
	"bytes"
	"context"
	"encoding/json"
	"hash/fnv"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"depthcharge/common"
	"depthcharge/internal/crawler"
	"depthcharge/internal/fetch"
	dkafka "depthcharge/internal/kafka"
	"depthcharge/internal/models"
	"depthcharge/internal/parse"
	"depthcharge/internal/store"
)

type messageReader = crawler.MessageReader
type resultWriter = crawler.MessageWriter

type worker struct {
	reader         messageReader
	store          store.CrawlStore
	budget         *crawler.BudgetEnforcer
	gate           *crawler.DedupeGate
	resultsWriter  resultWriter
	frontierWriter resultWriter
	dlqWriter      resultWriter
	client         *http.Client
	concurrentJobs int
	jobTimeout     time.Duration // per-job deadline so one stuck job can't hold a slot forever
	publishTimeout time.Duration // max time for Kafka publish phase so we never block commit path
	commitCh       chan<- kafka.Message
	sem            chan struct{}
	wg             *sync.WaitGroup
}

// selectProxyFromPool returns one URL from pool (comma-separated) by hashing hostname.
// Used so each pod picks a deterministic proxy for multi-egress. Empty pool or hostname yields "".
func selectProxyFromPool(pool, hostname string) string {
	parts := strings.Split(strings.TrimSpace(pool), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var valid []string
	for _, p := range parts {
		if p != "" {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return ""
	}
	if hostname == "" {
		hostname = "0"
	}
	h := fnv.New32a()
	h.Write([]byte(hostname))
	idx := int(h.Sum32()) % len(valid)
	if idx < 0 {
		idx = -idx
	}
	return valid[idx]
}

// metricsProxyURL is the proxy URL this worker uses (set at startup for /metrics proxy label).
var metricsProxyURL string

// Page fetch timeouts so a single hung site doesn't hold a worker slot indefinitely.
const (
	fetchConnectTimeout  = 10 * time.Second
	fetchResponseTimeout = 25 * time.Second // time to first response header
	fetchTotalTimeout    = 30 * time.Second // total request (connect + headers + body)
)

// buildHTTPClient returns an http.Client for page fetches. If PROXY_URL is set, uses that
// proxy; if PROXY_POOL is set (comma-separated URLs), picks one by HOSTNAME (e.g. pod name)
// so replicas spread across proxies for multi-egress crawling.
// Transport uses explicit connect and response-header timeouts so hung requests release the slot.
func buildHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: fetchConnectTimeout}).DialContext,
		ResponseHeaderTimeout: fetchResponseTimeout,
	}
	proxyURL := common.GetEnv("PROXY_URL", "")
	pool := common.GetEnv("PROXY_POOL", "")
	if proxyURL == "" && pool != "" {
		hostname := os.Getenv("HOSTNAME")
		proxyURL = selectProxyFromPool(pool, hostname)
		if proxyURL != "" {
			log.Printf("worker proxy from pool: hostname=%s proxy=%s", hostname, proxyURL)
		}
	}
	metricsProxyURL = proxyURL
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			log.Printf("invalid PROXY_URL/PROXY_POOL: %v", err)
		} else {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Transport: transport,
		Timeout:   fetchTotalTimeout,
	}
}

func newWorker(
	reader messageReader,
	crawlStore store.CrawlStore,
	cfg crawler.Config,
	resultsWriter resultWriter,
	frontierWriter resultWriter,
	dlqWriter resultWriter,
	client *http.Client,
	concurrentJobs int,
	jobTimeout time.Duration,
	publishTimeout time.Duration,
	commitCh chan<- kafka.Message,
	wg *sync.WaitGroup,
) *worker {
	if concurrentJobs < 1 {
		concurrentJobs = 1
	}
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Minute
	}
	if publishTimeout <= 0 {
		publishTimeout = 90 * time.Second
	}
	// Cap publish timeout so job context can still cancel the publish phase
	if publishTimeout >= jobTimeout {
		publishTimeout = jobTimeout - time.Minute
		if publishTimeout < 30*time.Second {
			publishTimeout = 30 * time.Second
		}
	}
	sem := make(chan struct{}, concurrentJobs)
	return &worker{
		reader:         reader,
		store:          crawlStore,
		budget:         crawler.NewBudgetEnforcer(crawlStore, cfg),
		gate:           crawler.NewDedupeGate(crawlStore),
		resultsWriter:  resultsWriter,
		frontierWriter: frontierWriter,
		dlqWriter:      dlqWriter,
		client:         client,
		concurrentJobs: concurrentJobs,
		jobTimeout:     jobTimeout,
		publishTimeout: publishTimeout,
		commitCh:       commitCh,
		sem:            sem,
		wg:             wg,
	}
}

func main() {
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	frontierTopic := common.GetEnv("KAFKA_FRONTIER_TOPIC", "depthcharge.crawl.frontier")
	groupID := common.GetEnv("KAFKA_GROUP_ID", "depthcharge-worker")
	resultsTopic := common.GetEnv("KAFKA_RESULTS_TOPIC", "depthcharge.crawl.results")
	dlqTopic := common.GetEnv("KAFKA_DLQ_TOPIC", "depthcharge.crawl.dlq")
	redisAddr := common.GetEnv("REDIS_ADDR", "localhost:6379")
	storeTTL := common.ParseDuration(common.GetEnv("STORE_TTL", "24h"), 24*time.Hour)
	maxDepth := common.ParseInt(common.GetEnv("MAX_DEPTH", "2"), 2)
	maxURLsPerSeed := common.ParseInt64(common.GetEnv("MAX_URLS_PER_SEED", "5"), 5)
	maxCrawlTime := common.ParseDuration(common.GetEnv("MAX_CRAWL_TIME", "30s"), 30*time.Second)
	concurrentJobs := common.ParseInt(common.GetEnv("CONCURRENT_JOBS", "5"), 5)
	jobTimeout := common.ParseDuration(common.GetEnv("JOB_TIMEOUT", "5m"), 5*time.Minute)
	publishTimeout := common.ParseDuration(common.GetEnv("PUBLISH_TIMEOUT", "90s"), 90*time.Second)
	drainTimeout := common.ParseDuration(common.GetEnv("DRAIN_TIMEOUT", "2s"), 2*time.Second)
	metricsAddr := common.GetEnv("METRICS_ADDR", ":9090")

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   frontierTopic,
		GroupID: groupID,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			log.Printf("failed to close reader: %v", err)
		}
	}()

	crawlStore := store.NewRedisCrawlStore(redisAddr, storeTTL)
	defer func() {
		if err := crawlStore.Close(); err != nil {
			log.Printf("failed to close crawl store: %v", err)
		}
	}()

	resultsWriter := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  resultsTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: false,
	}
	frontierWriter := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  frontierTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: false,
	}
	dlqWriter := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  dlqTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: false,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		startMetricsServer(ctx, metricsAddr)
	}

	commitCh := make(chan kafka.Message, concurrentJobs*2)
	coordinator := newCommitCoordinator(reader, commitCh)
	var coordWg sync.WaitGroup
	coordWg.Add(1)
	go coordinator.run(ctx, &coordWg)

	cfg := crawler.Config{
		MaxDepth:       maxDepth,
		MaxURLsPerSeed: maxURLsPerSeed,
		MaxCrawlTime:   maxCrawlTime,
	}

	var wg sync.WaitGroup
	log.Printf("worker consuming topic=%s group=%s broker=%s concurrent_jobs=%d max_depth=%d max_urls_per_seed=%d max_crawl_time=%s",
		frontierTopic, groupID, broker, concurrentJobs, maxDepth, maxURLsPerSeed, maxCrawlTime)
	w := newWorker(
		reader,
		crawlStore,
		cfg,
		resultsWriter,
		frontierWriter,
		dlqWriter,
		buildHTTPClient(),
		concurrentJobs,
		jobTimeout,
		publishTimeout,
		commitCh,
		&wg,
	)
	w.run(ctx)
	wg.Wait()
	close(commitCh)
	coordWg.Wait()

	// Shutdown: stop producing first, then discard whatever is still queued
	// for this group so a restarted worker does not replay a dead session's
	// backlog as new work.
	closeWriter("results", resultsWriter)
	closeWriter("frontier", frontierWriter)
	closeWriter("dlq", dlqWriter)
	drainer := dkafka.NewDrainer(reader, drainTimeout)
	drained, err := drainer.Drain(context.Background())
	if err != nil {
		log.Printf("drain error after %d messages: %v", drained, err)
	} else {
		log.Printf("drained %d pending messages", drained)
	}
}

func closeWriter(name string, w resultWriter) {
	if err := w.Close(); err != nil {
		log.Printf("failed to close %s writer: %v", name, err)
	}
}

// run consumes messages from the frontier topic, dispatches to worker goroutines
// (bounded by semaphore), and routes commits through the coordinator.
func (w *worker) run(ctx context.Context) {
	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("fetch error: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if err := w.dispatchMessage(ctx, msg); err != nil {
			log.Printf("message dispatch error: %v", err)
		}
	}
}

// dispatchMessage parses, guards against redelivery, and runs the budget check
// synchronously; spawns a goroutine for fetch+publish. Every terminal path
// routes the message to the commit coordinator: budget skips and store
// failures drop the task acknowledged, never parked for redelivery.
func (w *worker) dispatchMessage(ctx context.Context, msg kafka.Message) error {
	var job models.CrawlJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		log.Printf("invalid job payload: %v", err)
		w.commitCh <- msg
		return nil
	}

	atomic.AddUint64(&workerJobsReceived, 1)

	// At-least-once compensation: a redelivered task must not be fetched or
	// counted twice. SETNX is the atomic claim.
	claimed, err := w.store.MarkProcessed(ctx, job.SessionID, job.URL)
	if err != nil {
		atomic.AddUint64(&workerJobsDropped, 1)
		log.Printf("store unavailable, dropping task url=%s depth=%d: %v", job.URL, job.Depth, err)
		w.commitCh <- msg
		return nil
	}
	if !claimed {
		atomic.AddUint64(&workerJobsDuplicate, 1)
		log.Printf("duplicate delivery skipped session=%s url=%s", job.SessionID, job.URL)
		w.commitCh <- msg
		return nil
	}

	startedAt, err := w.sessionStart(ctx, job)
	if err != nil {
		atomic.AddUint64(&workerJobsDropped, 1)
		log.Printf("store unavailable, dropping task url=%s: %v", job.URL, err)
		w.commitCh <- msg
		return nil
	}

	decision, err := w.budget.Admit(ctx, job, startedAt)
	if err != nil {
		atomic.AddUint64(&workerJobsDropped, 1)
		log.Printf("budget check failed, dropping task url=%s: %v", job.URL, err)
		w.commitCh <- msg
		return nil
	}
	if decision != crawler.Proceed {
		atomic.AddUint64(&workerJobsSkippedBudget, 1)
		log.Printf("budget skip decision=%s session=%s seed=%s url=%s depth=%d", decision, job.SessionID, job.SeedURL, job.URL, job.Depth)
		w.commitCh <- msg
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case w.sem <- struct{}{}:
	}
	atomic.AddInt64(&workerInFlight, 1)
	w.wg.Add(1)
	go w.processJobAsync(ctx, msg, job)
	return nil
}

// processMessage is an alias for dispatchMessage (tests).
func (w *worker) processMessage(ctx context.Context, msg kafka.Message) error {
	return w.dispatchMessage(ctx, msg)
}

// sessionStart reads the session's recorded start time, repairing a missing
// key from the job's creation timestamp so the wall-clock budget still binds
// when the api never recorded one.
func (w *worker) sessionStart(ctx context.Context, job models.CrawlJob) (time.Time, error) {
	startedAt, ok, err := w.store.SessionStart(ctx, job.SessionID)
	if err != nil {
		return time.Time{}, err
	}
	if ok {
		return startedAt, nil
	}
	at := job.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return w.store.StartSession(ctx, job.SessionID, at)
}

// processJobAsync fetches, publishes, and commits; runs in a worker goroutine.
// Uses a per-job context with timeout so one stuck job can't hold the slot forever.
// Defers sending msg to commitCh so the partition advances even on panic or timeout.
func (w *worker) processJobAsync(ctx context.Context, msg kafka.Message, job models.CrawlJob) {
	// Always release slot and signal commit so one bad job doesn't block the partition.
	defer func() {
		atomic.AddInt64(&workerInFlight, -1)
		<-w.sem
		w.wg.Done()
		w.commitCh <- msg
	}()

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	log.Printf("received job session=%s url=%s depth=%d partition=%d offset=%d", job.SessionID, job.URL, job.Depth, msg.Partition, msg.Offset)
	page, err := fetchPageWithMetrics(jobCtx, w.client, job.URL)

	// Bounded publish phase so a stuck Kafka write never blocks the commit path (avoids stuck partition).
	publishCtx, publishCancel := context.WithTimeout(jobCtx, w.publishTimeout)
	defer publishCancel()

	if err != nil {
		// No retry: the fetch is terminal for this task and consumes no
		// budget. The DLQ records the failure for observability.
		atomic.AddUint64(&workerJobsFailed, 1)
		log.Printf("fetch failed session=%s url=%s depth=%d: %v", job.SessionID, job.URL, job.Depth, err)
		if dlqErr := w.publishDLQ(publishCtx, job, err); dlqErr != nil {
			log.Printf("dlq publish error: %v", dlqErr)
		}
		return
	}

	// Attribution happens exactly once per processed fetch, after success, so
	// the per-seed quota admits exactly MaxURLsPerSeed pages.
	visited, err := w.store.IncrementVisited(jobCtx, job.SessionID, job.SeedURL)
	if err != nil {
		log.Printf("visited increment failed session=%s seed=%s: %v", job.SessionID, job.SeedURL, err)
	}
	atomic.AddUint64(&workerJobsSuccess, 1)
	log.Printf("fetched session=%s url=%s depth=%d status=%d visited=%d", job.SessionID, job.URL, job.Depth, page.StatusCode, visited)

	if err := w.publishResult(publishCtx, job, page); err != nil {
		log.Printf("publish result error: %v", err)
	}
	if publishCtx.Err() != nil {
		log.Printf("publish timeout partition=%d offset=%d (advancing to avoid stuck partition)", msg.Partition, msg.Offset)
		return
	}
	w.enqueueLinks(publishCtx, job, page)
	if publishCtx.Err() != nil {
		log.Printf("publish timeout partition=%d offset=%d (advancing to avoid stuck partition)", msg.Partition, msg.Offset)
	}
}

// enqueueLinks extracts anchors from the fetched page, runs each through the
// dedupe gate, and publishes survivors to the frontier at depth+1. Depth is
// not checked here: a too-deep task is published and rejected by the budget
// check on consumption, keeping the admission decision in one place.
func (w *worker) enqueueLinks(ctx context.Context, job models.CrawlJob, page *fetch.Page) {
	base, err := url.Parse(page.FinalURL)
	if err != nil {
		log.Printf("unparseable final url %q: %v", page.FinalURL, err)
		return
	}
	hrefs, err := parse.ExtractLinks(bytes.NewReader(page.Body))
	if err != nil {
		log.Printf("link extraction failed url=%s: %v", job.URL, err)
		return
	}
	atomic.AddUint64(&workerLinksDiscovered, uint64(len(hrefs)))

	for _, href := range hrefs {
		if ctx.Err() != nil {
			return
		}
		target, admitted, err := w.gate.Admit(ctx, job.SessionID, base, href)
		if err != nil {
			// Dedup store down: losing the link is the safe degradation,
			// enqueueing without dedup risks unbounded duplicate fetching.
			log.Printf("dedupe store error, link dropped href=%q: %v", href, err)
			continue
		}
		if !admitted {
			continue
		}
		if err := w.enqueueURL(ctx, job, target); err != nil {
			log.Printf("frontier publish error url=%s: %v", target, err)
			continue
		}
		atomic.AddUint64(&workerLinksEnqueued, 1)
	}
}

func (w *worker) enqueueURL(ctx context.Context, job models.CrawlJob, target string) error {
	if w.frontierWriter == nil {
		return nil
	}
	next := models.CrawlJob{
		SessionID: job.SessionID,
		SeedURL:   job.SeedURL,
		URL:       target,
		Depth:     job.Depth + 1,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(next)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(job.SessionID),
		Value: payload,
		Time:  time.Now().UTC(),
	}
	return w.frontierWriter.WriteMessages(ctx, msg)
}

func (w *worker) publishResult(ctx context.Context, job models.CrawlJob, page *fetch.Page) error {
	if w.resultsWriter == nil {
		return nil
	}
	payload, err := json.Marshal(models.PageResult{
		SessionID:  job.SessionID,
		SeedURL:    job.SeedURL,
		URL:        job.URL,
		Depth:      job.Depth,
		StatusCode: page.StatusCode,
		HTML:       string(page.Body),
		FetchedAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(job.SessionID),
		Value: payload,
		Time:  time.Now().UTC(),
	}
	return w.resultsWriter.WriteMessages(ctx, msg)
}

func (w *worker) publishDLQ(ctx context.Context, job models.CrawlJob, cause error) error {
	if w.dlqWriter == nil {
		return nil
	}
	payload, err := json.Marshal(models.CrawlFailure{
		SessionID: job.SessionID,
		SeedURL:   job.SeedURL,
		URL:       job.URL,
		Depth:     job.Depth,
		Error:     cause.Error(),
		FailedAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(job.SessionID),
		Value: payload,
		Time:  time.Now().UTC(),
	}
	return w.dlqWriter.WriteMessages(ctx, msg)
}

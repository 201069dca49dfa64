package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"depthcharge/common"
	"depthcharge/internal/crawler"
	"depthcharge/internal/models"
	"depthcharge/internal/storage"
)

// archiver persists fetched pages from the results topic to object storage.
// Storage sits outside the crawl coordination path: a slow or failing upload
// never blocks budget or dedup decisions in the worker.
type archiver struct {
	pages storage.PageStore
}

var (
	// Counters for archiver throughput and failures exposed on /metrics.
	// received: messages fetched from Kafka; failed: upload or decode errors.
	archiverPagesReceived uint64
	archiverPagesFailed   uint64
	archiverPagesStored   uint64
)

func main() {
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	resultsTopic := common.GetEnv("KAFKA_RESULTS_TOPIC", "depthcharge.crawl.results")
	resultsGroup := common.GetEnv("KAFKA_RESULTS_GROUP", "depthcharge-archiver")
	metricsAddr := common.GetEnv("METRICS_ADDR", ":9091")

	minioEndpoint := common.GetEnv("MINIO_ENDPOINT", "localhost:9000")
	minioAccessKey := common.GetEnv("MINIO_ACCESS_KEY", "minioadmin")
	minioSecretKey := common.GetEnv("MINIO_SECRET_KEY", "minioadmin")
	minioBucket := common.GetEnv("MINIO_BUCKET", "depthcharge-pages")
	minioSSL := common.GetEnv("MINIO_USE_SSL", "") == "true"

	pages, err := storage.NewMinioStore(minioEndpoint, minioAccessKey, minioSecretKey, minioBucket, minioSSL)
	if err != nil {
		log.Fatalf("object store error: %v", err)
	}

	a := &archiver{pages: pages}

	resultsReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   resultsTopic,
		GroupID: resultsGroup,
	})
	defer func() {
		if err := resultsReader.Close(); err != nil {
			log.Printf("results reader close error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		startMetricsServer(ctx, metricsAddr)
	}

	log.Printf("archiver consuming topic=%s group=%s broker=%s bucket=%s", resultsTopic, resultsGroup, broker, minioBucket)
	consumeResults(ctx, resultsReader, a)
}

func startMetricsServer(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", handleMetrics)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics shutdown error: %v", err)
		}
	}()

	go func() {
		log.Printf("metrics listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	body := fmt.Sprintf(
		"depthcharge_archiver_up 1\n"+
			"depthcharge_archiver_pages_received_total %d\n"+
			"depthcharge_archiver_pages_failed_total %d\n"+
			"depthcharge_archiver_pages_stored_total %d\n",
		atomic.LoadUint64(&archiverPagesReceived),
		atomic.LoadUint64(&archiverPagesFailed),
		atomic.LoadUint64(&archiverPagesStored),
	)
	_, _ = w.Write([]byte(body))
}

func consumeResults(ctx context.Context, reader crawler.MessageReader, a *archiver) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("results fetch error: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		atomic.AddUint64(&archiverPagesReceived, 1)
		if err := a.archivePage(ctx, msg.Value); err != nil {
			atomic.AddUint64(&archiverPagesFailed, 1)
			log.Printf("archive error: %v", err)
			continue
		}
		atomic.AddUint64(&archiverPagesStored, 1)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("results commit error: %v", err)
		}
	}
}

// archivePage decodes one result and uploads it. The object key is derived
// from the page URL, so a redelivered result overwrites the same object
// instead of duplicating it.
func (a *archiver) archivePage(ctx context.Context, payload []byte) error {
	var result models.PageResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return err
	}
	if result.URL == "" {
		return nil
	}

	key := storage.ObjectKey(result.URL)
	location, err := a.pages.Put(ctx, key, storage.EncodePage(result.URL, result.HTML))
	if err != nil {
		return err
	}
	log.Printf("archived session=%s url=%s depth=%d location=%s", result.SessionID, result.URL, result.Depth, location)
	return nil
}

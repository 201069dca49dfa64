package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"

	"depthcharge/internal/models"
	"depthcharge/internal/storage"
	"depthcharge/mocks"
)

func marshalResult(t *testing.T, result models.PageResult) []byte {
	t.Helper()
	payload, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}
	return payload
}

func TestArchivePageStoresObject(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	pages := mocks.NewMockPageStore(ctrl)
	result := models.PageResult{
		SessionID:  "session-1",
		SeedURL:    "https://example.com/",
		URL:        "https://example.com/page",
		Depth:      1,
		StatusCode: 200,
		HTML:       "<html>hi</html>",
		FetchedAt:  time.Now().UTC(),
	}

	wantKey := storage.ObjectKey(result.URL)
	wantData := storage.EncodePage(result.URL, result.HTML)
	pages.EXPECT().Put(gomock.Any(), wantKey, wantData).Return("bucket/"+wantKey, nil)

	a := &archiver{pages: pages}
	if err := a.archivePage(context.Background(), marshalResult(t, result)); err != nil {
		t.Fatalf("archivePage returned error: %v", err)
	}
}

func TestArchivePageInvalidPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	pages := mocks.NewMockPageStore(ctrl)
	pages.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	a := &archiver{pages: pages}
	if err := a.archivePage(context.Background(), []byte("{invalid")); err == nil {
		t.Fatal("expected error for invalid payload, got nil")
	}
}

func TestArchivePageEmptyURLSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	pages := mocks.NewMockPageStore(ctrl)
	pages.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	a := &archiver{pages: pages}
	if err := a.archivePage(context.Background(), []byte(`{"session_id":"s"}`)); err != nil {
		t.Fatalf("expected nil error for empty url, got %v", err)
	}
}

func TestArchivePageUploadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	pages := mocks.NewMockPageStore(ctrl)
	pages.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("bucket gone"))

	a := &archiver{pages: pages}
	result := models.PageResult{URL: "https://example.com/page", HTML: "x"}
	if err := a.archivePage(context.Background(), marshalResult(t, result)); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestConsumeResultsCommitsStoredPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	reader := mocks.NewMockMessageReader(ctrl)
	pages := mocks.NewMockPageStore(ctrl)

	result := models.PageResult{URL: "https://example.com/page", HTML: "<html></html>"}
	msg := kafka.Message{Partition: 0, Offset: 10, Value: marshalResult(t, result)}

	ctx, cancel := context.WithCancel(context.Background())

	gomock.InOrder(
		reader.EXPECT().FetchMessage(gomock.Any()).Return(msg, nil),
		reader.EXPECT().CommitMessages(gomock.Any(), msg).Return(nil),
		reader.EXPECT().FetchMessage(gomock.Any()).DoAndReturn(
			func(context.Context) (kafka.Message, error) {
				cancel()
				return kafka.Message{}, context.Canceled
			}),
	)
	pages.EXPECT().Put(gomock.Any(), storage.ObjectKey(result.URL), gomock.Any()).Return("loc", nil)

	consumeResults(ctx, reader, &archiver{pages: pages})
}

// An upload failure leaves the message uncommitted so the group redelivers it.
func TestConsumeResultsSkipsCommitOnUploadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	reader := mocks.NewMockMessageReader(ctrl)
	pages := mocks.NewMockPageStore(ctrl)

	result := models.PageResult{URL: "https://example.com/page", HTML: "x"}
	msg := kafka.Message{Offset: 3, Value: marshalResult(t, result)}

	ctx, cancel := context.WithCancel(context.Background())

	gomock.InOrder(
		reader.EXPECT().FetchMessage(gomock.Any()).Return(msg, nil),
		reader.EXPECT().FetchMessage(gomock.Any()).DoAndReturn(
			func(context.Context) (kafka.Message, error) {
				cancel()
				return kafka.Message{}, context.Canceled
			}),
	)
	reader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Times(0)
	pages.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("upload failed"))

	consumeResults(ctx, reader, &archiver{pages: pages})
}

func TestArchiverHandleMetricsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	handleMetrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	for _, line := range []string{
		"depthcharge_archiver_up 1",
		"depthcharge_archiver_pages_received_total",
		"depthcharge_archiver_pages_failed_total",
		"depthcharge_archiver_pages_stored_total",
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("expected metrics to contain %q", line)
		}
	}
}

func TestArchiverHandleMetricsMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/metrics", nil)
	rec := httptest.NewRecorder()

	handleMetrics(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

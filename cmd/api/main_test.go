package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"depthcharge/internal/models"
	"depthcharge/internal/storage"
	"depthcharge/mocks"
)

type testServerMocks struct {
	prod   *mocks.MockJobProducer
	status *mocks.MockStatusStore
	crawl  *mocks.MockCrawlStore
	pages  *mocks.MockPageStore
}

func newTestServer(t *testing.T) (*server, testServerMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := testServerMocks{
		prod:   mocks.NewMockJobProducer(ctrl),
		status: mocks.NewMockStatusStore(ctrl),
		crawl:  mocks.NewMockCrawlStore(ctrl),
		pages:  mocks.NewMockPageStore(ctrl),
	}
	return newServer(m.prod, m.status, m.crawl, m.pages), m
}

func postCrawl(t *testing.T, srv *server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/crawl", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.handleCrawl(rec, req)
	return rec
}

func TestHandleCrawl(t *testing.T) {
	srv, m := newTestServer(t)

	m.crawl.EXPECT().StartSession(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, _ string, at time.Time) (time.Time, error) { return at, nil })
	m.crawl.EXPECT().MarkSeen(gomock.Any(), gomock.Any(), "https://example.com/").Return(true, nil)

	var enqueued models.CrawlJob
	m.prod.EXPECT().WriteJob(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, job models.CrawlJob) error {
			enqueued = job
			return nil
		})
	m.status.EXPECT().SetStatus(gomock.Any(), gomock.Any()).Return(nil)

	rec := postCrawl(t, srv, `{"seeds":["https://example.com"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rec.Code)
	}

	var payload models.CrawlStatus
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.SessionID == "" {
		t.Fatal("expected session id to be set")
	}
	if len(payload.Seeds) != 1 || payload.Seeds[0] != "https://example.com/" {
		t.Fatalf("unexpected seeds: %v", payload.Seeds)
	}
	if payload.Status != "queued" {
		t.Fatalf("unexpected status: %s", payload.Status)
	}

	if enqueued.URL != "https://example.com/" || enqueued.SeedURL != "https://example.com/" {
		t.Fatalf("unexpected enqueued job: %+v", enqueued)
	}
	if enqueued.Depth != 0 {
		t.Fatalf("expected seed depth 0, got %d", enqueued.Depth)
	}
	if enqueued.SessionID != payload.SessionID {
		t.Fatalf("session mismatch: job %s, status %s", enqueued.SessionID, payload.SessionID)
	}
}

func TestHandleCrawlMultipleSeedsShareSession(t *testing.T) {
	srv, m := newTestServer(t)

	m.crawl.EXPECT().StartSession(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, _ string, at time.Time) (time.Time, error) { return at, nil })
	m.crawl.EXPECT().MarkSeen(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil).Times(2)

	var sessions []string
	m.prod.EXPECT().WriteJob(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, job models.CrawlJob) error {
			sessions = append(sessions, job.SessionID)
			if job.URL != job.SeedURL {
				t.Fatalf("seed job url %s != seed %s", job.URL, job.SeedURL)
			}
			return nil
		}).Times(2)
	m.status.EXPECT().SetStatus(gomock.Any(), gomock.Any()).Return(nil)

	rec := postCrawl(t, srv, `{"seeds":["https://a.example.com","https://b.example.com"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rec.Code)
	}
	if len(sessions) != 2 || sessions[0] != sessions[1] {
		t.Fatalf("expected both seeds in one session, got %v", sessions)
	}
}

func TestHandleCrawlInvalidSeed(t *testing.T) {
	srv, m := newTestServer(t)
	m.prod.EXPECT().WriteJob(gomock.Any(), gomock.Any()).Times(0)
	m.status.EXPECT().SetStatus(gomock.Any(), gomock.Any()).Times(0)

	for _, body := range []string{
		`{"seeds":["mailto:x@y.z"]}`,
		`{"seeds":["not a url"]}`,
		`{"seeds":[""]}`,
	} {
		rec := postCrawl(t, srv, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected status %d, got %d", body, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestHandleCrawlMissingSeeds(t *testing.T) {
	srv, m := newTestServer(t)
	m.prod.EXPECT().WriteJob(gomock.Any(), gomock.Any()).Times(0)

	for _, body := range []string{`{}`, `{"seeds":[]}`, `not json`} {
		rec := postCrawl(t, srv, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected status %d, got %d", body, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestHandleCrawlMethodNotAllowed(t *testing.T) {
	srv, m := newTestServer(t)
	m.prod.EXPECT().WriteJob(gomock.Any(), gomock.Any()).Times(0)

	req := httptest.NewRequest(http.MethodGet, "/crawl", nil)
	rec := httptest.NewRecorder()
	srv.handleCrawl(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestHandleCrawlProducerError(t *testing.T) {
	srv, m := newTestServer(t)

	m.crawl.EXPECT().StartSession(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, _ string, at time.Time) (time.Time, error) { return at, nil })
	m.crawl.EXPECT().MarkSeen(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	m.prod.EXPECT().WriteJob(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
	m.status.EXPECT().SetStatus(gomock.Any(), gomock.Any()).Times(0)

	rec := postCrawl(t, srv, `{"seeds":["https://example.com"]}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, rec.Code)
	}
}

func TestHandleCrawlStatus(t *testing.T) {
	srv, m := newTestServer(t)

	stored := models.CrawlStatus{
		SessionID: "20260301120000000000000",
		Seeds:     []string{"https://example.com/"},
		Status:    "queued",
		CreatedAt: time.Now().UTC(),
	}
	m.status.EXPECT().GetStatus(gomock.Any(), stored.SessionID).Return(stored, true, nil)

	req := httptest.NewRequest(http.MethodGet, "/crawl/"+stored.SessionID, nil)
	rec := httptest.NewRecorder()
	srv.handleCrawlStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var fetched models.CrawlStatus
	if err := json.NewDecoder(rec.Body).Decode(&fetched); err != nil {
		t.Fatalf("failed to decode status response: %v", err)
	}
	if fetched.SessionID != stored.SessionID || fetched.Status != stored.Status {
		t.Fatalf("unexpected status payload: %+v", fetched)
	}
}

func TestHandleCrawlStatusNotFound(t *testing.T) {
	srv, m := newTestServer(t)
	m.status.EXPECT().GetStatus(gomock.Any(), gomock.Any()).Return(models.CrawlStatus{}, false, nil)

	req := httptest.NewRequest(http.MethodGet, "/crawl/does-not-exist", nil)
	rec := httptest.NewRecorder()
	srv.handleCrawlStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestHandleCrawlStatusMissingID(t *testing.T) {
	srv, m := newTestServer(t)
	m.status.EXPECT().GetStatus(gomock.Any(), gomock.Any()).Times(0)

	req := httptest.NewRequest(http.MethodGet, "/crawl/", nil)
	rec := httptest.NewRecorder()
	srv.handleCrawlStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandlePageList(t *testing.T) {
	srv, m := newTestServer(t)
	m.pages.EXPECT().List(gomock.Any(), "").Return([]string{"a.txt", "b.txt"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	rec := httptest.NewRecorder()
	srv.handlePageList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var payload map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload["files"]) != 2 {
		t.Fatalf("unexpected files: %v", payload["files"])
	}
}

func TestHandlePageListEmpty(t *testing.T) {
	srv, m := newTestServer(t)
	m.pages.EXPECT().List(gomock.Any(), "").Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	rec := httptest.NewRecorder()
	srv.handlePageList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	// Empty bucket serializes as an empty list, not null.
	if got := strings.TrimSpace(rec.Body.String()); got != `{"files":[]}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestHandlePageGet(t *testing.T) {
	srv, m := newTestServer(t)
	key := storage.ObjectKey("https://example.com/page")
	m.pages.EXPECT().Get(gomock.Any(), key).Return(storage.EncodePage("https://example.com/page", "<html>x</html>"), nil)

	req := httptest.NewRequest(http.MethodGet, "/pages/"+key, nil)
	rec := httptest.NewRecorder()
	srv.handlePageGet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["raw_url"] != "https://example.com/page" {
		t.Fatalf("unexpected raw_url: %s", payload["raw_url"])
	}
	if payload["raw_html"] != "<html>x</html>" {
		t.Fatalf("unexpected raw_html: %s", payload["raw_html"])
	}
}

func TestHandlePageGetNotFound(t *testing.T) {
	srv, m := newTestServer(t)
	m.pages.EXPECT().Get(gomock.Any(), "missing.txt").Return(nil, errors.New("no such key"))

	req := httptest.NewRequest(http.MethodGet, "/pages/missing.txt", nil)
	rec := httptest.NewRecorder()
	srv.handlePageGet(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestHandleMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.handleMetrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := rec.Body.String(); got != "depthcharge_api_up 1\n" {
		t.Fatalf("unexpected metrics body: %s", got)
	}
}

// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/cache"
	"github.com/tomtom215/melodex/internal/dedup"
	"github.com/tomtom215/melodex/internal/gate"
	"github.com/tomtom215/melodex/internal/history"
	"github.com/tomtom215/melodex/internal/library"
	"github.com/tomtom215/melodex/internal/models"
	"github.com/tomtom215/melodex/internal/planner"
	"github.com/tomtom215/melodex/internal/recommend"
	"github.com/tomtom215/melodex/internal/review"
	"github.com/tomtom215/melodex/internal/sanitize"
	"github.com/tomtom215/melodex/internal/storage"
)

// fakeLibrary serves a fixed library snapshot.
type fakeLibrary struct {
	artists []models.Artist
	albums  []models.Album
}

func (f *fakeLibrary) GetAllArtists(_ context.Context) ([]models.Artist, error) {
	return f.artists, nil
}

func (f *fakeLibrary) GetAllAlbums(_ context.Context) ([]models.Album, error) {
	return f.albums, nil
}

// stubFetch is a provider stand-in recording what the engine asked for.
type stubFetch struct {
	mu    sync.Mutex
	calls int
	last  models.Settings
	fn    func(call int) ([]models.Recommendation, error)
}

func (s *stubFetch) Fetch(_ context.Context, settings models.Settings, _ *models.LibraryProfile, _ recommend.FetchOptions) ([]models.Recommendation, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.last = settings
	fn := s.fn
	s.mu.Unlock()
	return fn(call)
}

func (s *stubFetch) lastSettings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func makeRecs(n int, prefix string) []models.Recommendation {
	recs := make([]models.Recommendation, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, models.Recommendation{
			Artist:     fmt.Sprintf("%s artist %d", prefix, i),
			Album:      fmt.Sprintf("%s album %d", prefix, i),
			Confidence: 0.9,
		})
	}
	return recs
}

type serverHarness struct {
	ts    *httptest.Server
	queue *review.Queue
}

func newTestServer(t *testing.T, albums []models.Album, fetch *stubFetch) *serverHarness {
	t.Helper()

	db, err := storage.Open(storage.Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := history.NewStore(db, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("history.NewStore() error = %v", err)
	}
	queue, err := review.NewQueue(db, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("review.NewQueue() error = %v", err)
	}
	g, err := gate.NewGate(queue, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("gate.NewGate() error = %v", err)
	}
	ded, err := dedup.NewDeduplicator(store, zerolog.Nop())
	if err != nil {
		t.Fatalf("dedup.NewDeduplicator() error = %v", err)
	}
	san := sanitize.NewSanitizer(zerolog.Nop())
	topup, err := recommend.NewTopUp(fetch.Fetch, san, ded, zerolog.Nop())
	if err != nil {
		t.Fatalf("recommend.NewTopUp() error = %v", err)
	}
	pipe, err := recommend.NewPipeline(recommend.NopEnricher{}, g, ded, topup, zerolog.Nop())
	if err != nil {
		t.Fatalf("recommend.NewPipeline() error = %v", err)
	}
	respCache, err := cache.New(time.Hour, 10, zerolog.Nop())
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	analyzer, err := library.NewAnalyzer(&fakeLibrary{albums: albums}, time.Hour, zerolog.Nop())
	if err != nil {
		t.Fatalf("library.NewAnalyzer() error = %v", err)
	}

	engine, err := recommend.NewEngine(recommend.EngineParams{
		Analyzer:  analyzer,
		Cache:     respCache,
		Keys:      cache.NewKeyBuilder(sanitize.Version, planner.Version),
		Guard:     dedup.NewGuard(time.Second, time.Millisecond, zerolog.Nop()),
		History:   store,
		Sanitizer: san,
		Pipeline:  pipe,
		Fetch:     fetch.Fetch,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("recommend.NewEngine() error = %v", err)
	}

	handler, err := NewHandler(HandlerParams{
		Engine:  engine,
		Queue:   queue,
		History: store,
		DB:      db,
		Settings: models.Settings{
			Provider:           models.ProviderOllama,
			Mode:               models.ModeSpecificAlbums,
			Discovery:          models.DiscoveryAdjacent,
			Sampling:           models.SamplingBalanced,
			MaxRecommendations: 5,
			MinConfidence:      0.5,
		},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	middleware := NewMiddleware(DefaultMiddlewareConfig(), zerolog.Nop())
	ts := httptest.NewServer(NewRouter(handler, middleware).Routes())
	t.Cleanup(ts.Close)

	return &serverHarness{ts: ts, queue: queue}
}

// envelope mirrors APIResponse for decoding in assertions.
type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   *APIError              `json:"error"`
}

// do issues a request and decodes the envelope. Non-JSON bodies (chi's
// default 404 and 405 responses) yield a zero envelope.
func (h *serverHarness) do(t *testing.T, method, path, body string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest(%s %s) error = %v", method, path, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp, env
}

func itemCount(t *testing.T, env envelope) int {
	t.Helper()
	count, ok := env.Data["count"].(float64)
	if !ok {
		t.Fatalf("response data has no numeric count: %v", env.Data)
	}
	return int(count)
}

func TestFetchEndpoint_ReturnsItemList(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return makeRecs(3, "fresh"), nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, env := h.do(t, http.MethodPost, "/api/v1/recommendations/fetch", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !env.Success {
		t.Fatalf("success = false, error = %+v", env.Error)
	}
	if got := itemCount(t, env); got != 3 {
		t.Errorf("count = %d, want 3", got)
	}
	items, ok := env.Data["items"].([]interface{})
	if !ok || len(items) != 3 {
		t.Errorf("items = %v, want 3 entries", env.Data["items"])
	}
}

func TestFetchEndpoint_AppliesOverrides(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return makeRecs(2, "alt"), nil
	}}
	h := newTestServer(t, nil, fetch)

	body := `{"mode": "artists", "max_recommendations": 2}`
	resp, env := h.do(t, http.MethodPost, "/api/v1/recommendations/fetch", body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	last := fetch.lastSettings()
	if last.Mode != models.ModeArtists {
		t.Errorf("provider saw mode %v, want artists", last.Mode)
	}
	if last.MaxRecommendations != 2 {
		t.Errorf("provider saw target %d, want 2", last.MaxRecommendations)
	}
	items, ok := env.Data["items"].([]interface{})
	if !ok || len(items) == 0 {
		t.Fatalf("items = %v, want non-empty", env.Data["items"])
	}
	first, ok := items[0].(map[string]interface{})
	if !ok {
		t.Fatalf("item shape = %T", items[0])
	}
	if album, present := first["album"]; present && album != "" {
		t.Errorf("artist mode item carries album %v", album)
	}
}

func TestFetchEndpoint_MalformedBody(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, env := h.do(t, http.MethodPost, "/api/v1/recommendations/fetch", "{not json")

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if env.Success || env.Error == nil || env.Error.Code != ErrCodeBadRequest {
		t.Errorf("error = %+v, want code %s", env.Error, ErrCodeBadRequest)
	}
}

func TestFetchEndpoint_InvalidOverrideValues(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	body := `{"mode": "both", "min_confidence": 2}`
	resp, env := h.do(t, http.MethodPost, "/api/v1/recommendations/fetch", body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != ErrCodeValidationFailed {
		t.Fatalf("error = %+v, want code %s", env.Error, ErrCodeValidationFailed)
	}
	details, ok := env.Error.Details.([]interface{})
	if !ok || len(details) != 2 {
		t.Errorf("details = %v, want 2 problems", env.Error.Details)
	}
}

func TestFetchEndpoint_RejectsUnknownFields(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, _ := h.do(t, http.MethodPost, "/api/v1/recommendations/fetch", `{"bogus": true}`)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFetchEndpoint_ProviderFailureStillReturnsList(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, fmt.Errorf("model unreachable")
	}}
	h := newTestServer(t, nil, fetch)

	resp, env := h.do(t, http.MethodPost, "/api/v1/recommendations/fetch", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 even on provider failure", resp.StatusCode)
	}
	if !env.Success {
		t.Fatalf("success = false, want degraded success")
	}
	items, ok := env.Data["items"].([]interface{})
	if !ok {
		t.Fatalf("items = %v, want empty list not null", env.Data["items"])
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestProviders_Catalog(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, env := h.do(t, http.MethodGet, "/api/v1/providers", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := itemCount(t, env); got != len(models.Providers) {
		t.Errorf("count = %d, want %d", got, len(models.Providers))
	}

	providers, ok := env.Data["providers"].([]interface{})
	if !ok {
		t.Fatalf("providers missing from %v", env.Data)
	}
	var sawOllama bool
	for _, entry := range providers {
		info, ok := entry.(map[string]interface{})
		if !ok {
			t.Fatalf("provider shape = %T", entry)
		}
		if info["name"] == "ollama" {
			sawOllama = true
			if local, _ := info["local"].(bool); !local {
				t.Errorf("ollama not flagged local")
			}
		}
	}
	if !sawOllama {
		t.Errorf("catalog missing ollama")
	}
}

func TestProviderModels_KnownAndUnknown(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, env := h.do(t, http.MethodGet, "/api/v1/providers/openai/models", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if env.Data["default_model"] == "" {
		t.Errorf("default_model empty for openai")
	}
	if ms, ok := env.Data["models"].([]interface{}); !ok || len(ms) == 0 {
		t.Errorf("models = %v, want non-empty", env.Data["models"])
	}

	resp, env = h.do(t, http.MethodGet, "/api/v1/providers/winamp/models", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown provider status = %d, want 404", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want %s", env.Error, ErrCodeNotFound)
	}
}

func TestReviewFlow_ListDecideCounts(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	ctx := context.Background()
	if !h.queue.Enqueue(ctx, models.Recommendation{Artist: "Bjork", Album: "Debut", Confidence: 0.3}, gate.ReasonLowConfidence) {
		t.Fatalf("Enqueue() = false")
	}
	if !h.queue.Enqueue(ctx, models.Recommendation{Artist: "Low", Album: "Things We Lost in the Fire", Confidence: 0.2}, gate.ReasonLowConfidence) {
		t.Fatalf("Enqueue() = false")
	}

	resp, env := h.do(t, http.MethodGet, "/api/v1/review", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	if got := itemCount(t, env); got != 2 {
		t.Fatalf("pending count = %d, want 2", got)
	}

	resp, env = h.do(t, http.MethodPost, "/api/v1/review/accept", `{"keys": ["Bjork|Debut"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept status = %d, want 200", resp.StatusCode)
	}
	if updated, _ := env.Data["updated"].(float64); updated != 1 {
		t.Errorf("updated = %v, want 1", env.Data["updated"])
	}

	resp, env = h.do(t, http.MethodGet, "/api/v1/review?status=accepted", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filtered list status = %d", resp.StatusCode)
	}
	if got := itemCount(t, env); got != 1 {
		t.Errorf("accepted count = %d, want 1", got)
	}

	_, env = h.do(t, http.MethodGet, "/api/v1/review/counts", "")
	if pending, _ := env.Data["pending"].(float64); pending != 1 {
		t.Errorf("counts.pending = %v, want 1", env.Data["pending"])
	}
	if accepted, _ := env.Data["accepted"].(float64); accepted != 1 {
		t.Errorf("counts.accepted = %v, want 1", env.Data["accepted"])
	}

	resp, _ = h.do(t, http.MethodGet, "/api/v1/review?status=confused", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad status filter = %d, want 400", resp.StatusCode)
	}
}

func TestReviewSetStatus_Lifecycle(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	ctx := context.Background()
	h.queue.Enqueue(ctx, models.Recommendation{Artist: "Portishead", Album: "Dummy", Confidence: 0.4}, gate.ReasonLowConfidence)

	_, env := h.do(t, http.MethodGet, "/api/v1/review", "")
	items, ok := env.Data["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v, want 1", env.Data["items"])
	}
	item := items[0].(map[string]interface{})
	id, _ := item["id"].(string)
	if id == "" {
		t.Fatalf("item has no id: %v", item)
	}

	resp, env := h.do(t, http.MethodPost, "/api/v1/review/"+id+"/status", `{"status": "rejected", "notes": "not my thing"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if env.Data["status"] != "rejected" {
		t.Errorf("decided status = %v, want rejected", env.Data["status"])
	}
	if env.Data["notes"] != "not my thing" {
		t.Errorf("notes = %v", env.Data["notes"])
	}

	resp, env = h.do(t, http.MethodPost, "/api/v1/review/"+id+"/status", `{"status": "accepted"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second decision status = %d, want 409", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != ErrCodeConflict {
		t.Errorf("error = %+v, want %s", env.Error, ErrCodeConflict)
	}

	resp, _ = h.do(t, http.MethodPost, "/api/v1/review/nope/status", `{"status": "accepted"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", resp.StatusCode)
	}

	h.queue.Enqueue(ctx, models.Recommendation{Artist: "Beach House", Album: "Teen Dream", Confidence: 0.4}, gate.ReasonLowConfidence)
	_, env = h.do(t, http.MethodGet, "/api/v1/review", "")
	items = env.Data["items"].([]interface{})
	freshID := items[0].(map[string]interface{})["id"].(string)

	resp, _ = h.do(t, http.MethodPost, "/api/v1/review/"+freshID+"/status", `{"status": "pending"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("pending target status = %d, want 400", resp.StatusCode)
	}
}

func TestReviewDecide_RequiresKeys(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, env := h.do(t, http.MethodPost, "/api/v1/review/reject", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != ErrCodeBadRequest {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestHistory_ListsRecentRecords(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return makeRecs(3, "hist"), nil
	}}
	h := newTestServer(t, nil, fetch)

	if resp, _ := h.do(t, http.MethodPost, "/api/v1/recommendations/fetch", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("fetch status = %d", resp.StatusCode)
	}

	resp, env := h.do(t, http.MethodGet, "/api/v1/history?limit=10", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d, want 200", resp.StatusCode)
	}
	if got := itemCount(t, env); got != 3 {
		t.Fatalf("records = %d, want 3", got)
	}
	records := env.Data["records"].([]interface{})
	for _, entry := range records {
		rec := entry.(map[string]interface{})
		if rec["status"] != "suggested" {
			t.Errorf("record status = %v, want suggested", rec["status"])
		}
	}

	resp, _ = h.do(t, http.MethodGet, "/api/v1/history?limit=abc", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", resp.StatusCode)
	}
}

func TestHealth_Probes(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, env := h.do(t, http.MethodGet, "/api/v1/health/live", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("live status = %d, want 200", resp.StatusCode)
	}
	if env.Data["status"] != "ok" {
		t.Errorf("live status field = %v", env.Data["status"])
	}

	resp, env = h.do(t, http.MethodGet, "/api/v1/health/ready", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready status = %d, want 200", resp.StatusCode)
	}
	if env.Data["status"] != "ready" {
		t.Errorf("ready status field = %v", env.Data["status"])
	}

	resp, env = h.do(t, http.MethodGet, "/api/v1/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d, want 200", resp.StatusCode)
	}
	if env.Data["status"] != "ok" {
		t.Errorf("summary status field = %v", env.Data["status"])
	}
}

// fetcherFunc adapts a closure to the Fetcher interface.
type fetcherFunc func(ctx context.Context, settings models.Settings) []models.ImportItem

func (f fetcherFunc) Fetch(ctx context.Context, settings models.Settings) []models.ImportItem {
	return f(ctx, settings)
}

func TestHealthReady_ClosedStore(t *testing.T) {
	db, err := storage.Open(storage.Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	store, err := history.NewStore(db, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("history.NewStore() error = %v", err)
	}
	queue, err := review.NewQueue(db, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("review.NewQueue() error = %v", err)
	}
	handler, err := NewHandler(HandlerParams{
		Engine: fetcherFunc(func(context.Context, models.Settings) []models.ImportItem {
			return nil
		}),
		Queue:   queue,
		History: store,
		DB:      db,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("db.Close() error = %v", err)
	}

	rec := httptest.NewRecorder()
	handler.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestMetricsSnapshot_ReturnsFamilies(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, env := h.do(t, http.MethodGet, "/api/v1/metrics/snapshot", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %s", ct)
	}
	families, ok := env.Data["families"].([]interface{})
	if !ok || len(families) == 0 {
		t.Fatalf("families = %v, want non-empty", env.Data["families"])
	}
	first, ok := families[0].(map[string]interface{})
	if !ok {
		t.Fatalf("family shape = %T", families[0])
	}
	if first["name"] == "" || first["type"] == "" {
		t.Errorf("family missing name or type: %v", first)
	}
}

func TestMetricsExposition_Served(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, err := h.ts.Client().Get(h.ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Errorf("exposition missing runtime metrics")
	}
}

func TestSecurityHeaders_OnAPIResponses(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, _ := h.do(t, http.MethodGet, "/api/v1/providers", "")

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := resp.Header.Get("Referrer-Policy"); got != "strict-origin-when-cross-origin" {
		t.Errorf("Referrer-Policy = %q", got)
	}
}

func TestRequestID_Propagation(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, env := h.do(t, http.MethodGet, "/api/v1/providers", "")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Errorf("response missing X-Request-ID")
	}
	if env.Data == nil {
		t.Fatalf("no data")
	}

	req, _ := http.NewRequest(http.MethodGet, h.ts.URL+"/api/v1/providers", nil)
	req.Header.Set("X-Request-ID", "trace-me-123")
	resp2, err := h.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get("X-Request-ID"); got != "trace-me-123" {
		t.Errorf("X-Request-ID = %q, want caller's id echoed", got)
	}
}

func TestRouter_MethodAndRouteErrors(t *testing.T) {
	fetch := &stubFetch{fn: func(_ int) ([]models.Recommendation, error) {
		return nil, nil
	}}
	h := newTestServer(t, nil, fetch)

	resp, _ := h.do(t, http.MethodGet, "/api/v1/recommendations/fetch", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET fetch status = %d, want 405", resp.StatusCode)
	}

	resp, _ = h.do(t, http.MethodGet, "/api/v1/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", resp.StatusCode)
	}
}

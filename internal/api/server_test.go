package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"albion-trader/internal/albion"
	"albion-trader/internal/catalog"
	"albion-trader/internal/config"
	"albion-trader/internal/db"
	"albion-trader/internal/engine"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeUpstream serves the three price-service endpoints; fail turns every answer into a 500.
func fakeUpstream(t *testing.T, gold []albion.GoldPoint, fail *bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/stats/prices/", func(w http.ResponseWriter, r *http.Request) {
		if *fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[
			{"item_id":"T4_HIDE","city":"Bridgewatch","sell_price_min":96,"sell_price_min_date":"2025-01-15T10:00:00"},
			{"item_id":"T4_HIDE","city":"Martlock","sell_price_min":100,"sell_price_min_date":"2025-01-15T10:00:00"}
		]`))
	})
	mux.HandleFunc("/stats/history/", func(w http.ResponseWriter, r *http.Request) {
		if *fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"location":"Martlock","item_id":"T4_HIDE","data":[{"item_count":5,"avg_price":101.5,"timestamp":"2025-01-14T00:00:00"},{"item_count":7,"avg_price":99,"timestamp":"2025-01-15T00:00:00"}]}]`))
	})
	mux.HandleFunc("/stats/gold", func(w http.ResponseWriter, r *http.Request) {
		if *fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(gold)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func goldMinutes(n int) []albion.GoldPoint {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	out := make([]albion.GoldPoint, n)
	for i := range out {
		out[i] = albion.GoldPoint{
			Price:     4000 + float64(i),
			Timestamp: start.Add(time.Duration(i) * time.Minute).Format("2006-01-02T15:04:05"),
		}
	}
	return out
}

type testEnv struct {
	handler http.Handler
	fail    *bool
}

func newTestEnv(t *testing.T, gold []albion.GoldPoint) *testEnv {
	t.Helper()
	fail := new(bool)
	upstream := fakeUpstream(t, gold, fail)

	cfg := config.Default()
	client := albion.NewClient(upstream.URL, 2*time.Second, 0)
	scanner := engine.NewScanner(cfg, catalog.New(cfg), client)
	database, err := db.Open(db.MemoryDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	scanner.Journal = database

	srv := NewServer(cfg, scanner, database, client)
	return &testEnv{handler: srv.Handler(), fail: fail}
}

func (e *testEnv) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHandleCategories(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/categories")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var cats []catalog.Category
	decode(t, rec, &cats)
	if len(cats) != 3 || cats[0].Key != catalog.HideKey {
		t.Errorf("categories = %+v", cats)
	}
}

func TestHandleRefreshMarketAndJournal(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/market/hide")
	var before engine.MarketView
	decode(t, rec, &before)
	if rec.Code != http.StatusOK || len(before.Items) != 0 {
		t.Errorf("market before refresh: status = %d, items = %d", rec.Code, len(before.Items))
	}

	rec = env.do(t, http.MethodPost, "/api/refresh/hide")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rec.Code, rec.Body.String())
	}
	var view engine.MarketView
	decode(t, rec, &view)
	if !view.Refreshed || view.ScanID != 1 || len(view.Items) != 1 {
		t.Fatalf("view = %+v", view)
	}
	item := view.Items[0]
	if item.Name != "4.0 Hide" || item.Recommendation.Location != catalog.Bridgewatch || item.Recommendation.Price != 96 {
		t.Errorf("item = %+v", item)
	}
	if item.Prices[catalog.Martlock] != 100 {
		t.Errorf("raw prices = %v", item.Prices)
	}

	rec = env.do(t, http.MethodGet, "/api/market/hide")
	var after engine.MarketView
	decode(t, rec, &after)
	if len(after.Items) != 1 || after.Refreshed {
		t.Errorf("market after refresh = %+v", after)
	}

	rec = env.do(t, http.MethodGet, "/api/scan/history")
	var records []db.ScanRecord
	decode(t, rec, &records)
	if len(records) != 1 || records[0].Category != catalog.HideKey {
		t.Errorf("history = %+v", records)
	}

	rec = env.do(t, http.MethodGet, "/api/scan/history/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("history/1 status = %d", rec.Code)
	}
	var detail struct {
		Scan            db.ScanRecord             `json:"scan"`
		Recommendations []db.RecommendationRecord `json:"recommendations"`
	}
	decode(t, rec, &detail)
	if detail.Scan.ID != 1 || len(detail.Recommendations) != 1 || detail.Recommendations[0].Location != "Bridgewatch" {
		t.Errorf("detail = %+v", detail)
	}

	// A second refresh inside the window is a cache hit and is not journaled.
	env.do(t, http.MethodPost, "/api/refresh/hide")
	rec = env.do(t, http.MethodGet, "/api/scan/history")
	decode(t, rec, &records)
	if len(records) != 1 {
		t.Errorf("history after cached refresh = %d records, want 1", len(records))
	}
}

func TestHandleHistory_BadRequests(t *testing.T) {
	env := newTestEnv(t, nil)
	tests := []struct {
		path string
		code int
	}{
		{"/api/scan/history/abc", http.StatusBadRequest},
		{"/api/scan/history/99", http.StatusNotFound},
		{"/api/scan/history?limit=-1", http.StatusBadRequest},
		{"/api/scan/history?limit=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := env.do(t, http.MethodGet, tt.path); rec.Code != tt.code {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.code)
		}
	}
}

func TestHandleUnknownCategory(t *testing.T) {
	env := newTestEnv(t, nil)
	if rec := env.do(t, http.MethodPost, "/api/refresh/furniture"); rec.Code != http.StatusNotFound {
		t.Errorf("refresh unknown = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/market/furniture"); rec.Code != http.StatusNotFound {
		t.Errorf("market unknown = %d, want 404", rec.Code)
	}
}

func TestHandleRefresh_UpstreamFailureIsWarning(t *testing.T) {
	env := newTestEnv(t, nil)
	*env.fail = true

	rec := env.do(t, http.MethodPost, "/api/refresh/leather_high")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var view engine.MarketView
	decode(t, rec, &view)
	if view.Warning == "" || view.Refreshed {
		t.Errorf("view = %+v, want warning", view)
	}
}

func TestHandleIndicator(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/indicator?item=T4_HIDE&location=Martlock&price=100")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]interface{}
	decode(t, rec, &out)
	// daily 99, seven-day mean(101.5, 99) = 100.25 -> 100
	if out["text"] != "[D:🔺99 7d:🔻100]" {
		t.Errorf("text = %v", out["text"])
	}
	if _, ok := out["error_kind"]; ok {
		t.Errorf("unexpected error_kind %v", out["error_kind"])
	}
}

func TestHandleIndicator_FetchFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	*env.fail = true

	rec := env.do(t, http.MethodGet, "/api/indicator?item=T4_HIDE&location=Martlock&price=100")
	var out map[string]interface{}
	decode(t, rec, &out)
	if rec.Code != http.StatusOK || out["text"] != "" || out["error_kind"] != "fetch_failure" {
		t.Errorf("status = %d, body = %v", rec.Code, out)
	}
}

func TestHandleIndicator_BadQuery(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, q := range []string{
		"item=T4_HIDE&location=Martlock",
		"item=T4_HIDE&location=Martlock&price=abc",
		"item=T4_HIDE&location=Martlock&price=-5",
		"item=HIDE&location=Martlock&price=1",
		"item=T4_HIDE&location=Atlantis&price=1",
	} {
		if rec := env.do(t, http.MethodGet, "/api/indicator?"+q); rec.Code != http.StatusBadRequest {
			t.Errorf("GET ?%s = %d, want 400", q, rec.Code)
		}
	}
}

func TestHandleGoldOHLC(t *testing.T) {
	env := newTestEnv(t, goldMinutes(31))
	rec := env.do(t, http.MethodGet, "/api/gold/ohlc")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var view engine.GoldView
	decode(t, rec, &view)
	if view.Points != 31 || len(view.Buckets) != 30 {
		t.Errorf("points = %d, buckets = %d", view.Points, len(view.Buckets))
	}
}

func TestHandleGoldOHLC_EmptyHistory(t *testing.T) {
	env := newTestEnv(t, goldMinutes(1))
	rec := env.do(t, http.MethodGet, "/api/gold/ohlc")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "empty_history") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestEnv(t, goldMinutes(2))
	env.do(t, http.MethodPost, "/api/refresh/artifacts")

	rec := env.do(t, http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Categories []categoryStatus `json:"categories"`
		UpstreamOK bool             `json:"upstream_ok"`
		Journal    bool             `json:"journal"`
	}
	decode(t, rec, &out)
	if len(out.Categories) != 3 || !out.UpstreamOK || !out.Journal {
		t.Errorf("status = %+v", out)
	}
	for _, c := range out.Categories {
		fetched := !c.FetchedAt.IsZero()
		if fetched != (c.Key == catalog.ArtifactKey) || c.Due == fetched {
			t.Errorf("category %s: fetched = %v, due = %v", c.Key, fetched, c.Due)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodOptions, "/api/status")
	if rec.Code != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

type countingHealth struct {
	calls int
	ok    bool
}

func (h *countingHealth) HealthCheck(ctx context.Context) bool {
	h.calls++
	return h.ok
}

func TestHandleStatus_HealthProbeCached(t *testing.T) {
	cfg := config.Default()
	client := albion.NewClient("http://127.0.0.1:0", time.Second, 0)
	scanner := engine.NewScanner(cfg, catalog.New(cfg), client)
	health := &countingHealth{ok: true}
	srv := NewServer(cfg, scanner, nil, health)
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	srv.now = func() time.Time { return now }
	env := &testEnv{handler: srv.Handler()}

	upstream := func() bool {
		t.Helper()
		rec := env.do(t, http.MethodGet, "/api/status")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var out struct {
			UpstreamOK bool `json:"upstream_ok"`
		}
		decode(t, rec, &out)
		return out.UpstreamOK
	}

	for i := 0; i < 3; i++ {
		if !upstream() {
			t.Error("upstream_ok = false, want true")
		}
	}
	if health.calls != 1 {
		t.Errorf("health probes = %d, want 1", health.calls)
	}

	health.ok = false
	now = now.Add(cfg.QuoteRefreshInterval)
	if !upstream() || health.calls != 1 {
		t.Errorf("probe repeated within the interval (calls = %d)", health.calls)
	}
	now = now.Add(time.Second)
	if upstream() || health.calls != 2 {
		t.Errorf("expected a fresh failing probe after the interval (calls = %d)", health.calls)
	}
}

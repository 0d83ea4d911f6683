package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dskvich/nyay-sahayak-bot/pkg/translation"
)

type fixedStats translation.Stats

func (f fixedStats) Stats() translation.Stats { return translation.Stats(f) }

func TestStatusEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		stats    StatsProvider
		path     string
		wantCode int
		wantKey  string
	}{
		{name: "health", path: "/healthz", wantCode: http.StatusOK, wantKey: "status"},
		{name: "stats", stats: fixedStats{Entries: 2, Hits: 5, Misses: 2}, path: "/stats", wantCode: http.StatusOK, wantKey: "translation_cache"},
		{name: "stats without cache", path: "/stats", wantCode: http.StatusServiceUnavailable, wantKey: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			NewStatus(tt.stats).Routes(mux)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d", rec.Code, tt.wantCode)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if _, ok := body[tt.wantKey]; !ok {
				t.Errorf("body %v lacks %q", body, tt.wantKey)
			}
		})
	}
}

func TestStatsReportsCounters(t *testing.T) {
	mux := http.NewServeMux()
	NewStatus(fixedStats{Entries: 3, Hits: 7, Misses: 3, Calls: 3, Failures: 1}).Routes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	var body struct {
		Cache map[string]int64 `json:"translation_cache"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Cache["hits"] != 7 || body.Cache["failures"] != 1 || body.Cache["entries"] != 3 {
		t.Errorf("unexpected counters %v", body.Cache)
	}
}

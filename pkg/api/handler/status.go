package handler

import (
	"net/http"
	"time"

	"github.com/dskvich/nyay-sahayak-bot/pkg/api/response"
	"github.com/dskvich/nyay-sahayak-bot/pkg/translation"
)

type StatsProvider interface {
	Stats() translation.Stats
}

type status struct {
	stats     StatsProvider
	startedAt time.Time
	writer    response.JSONResponseWriter
}

func NewStatus(stats StatsProvider) *status {
	return &status{
		stats:     stats,
		startedAt: time.Now(),
	}
}

// Routes registers the operational endpoints on mux.
func (s *status) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.Health)
	mux.HandleFunc("GET /stats", s.Stats)
}

func (s *status) Health(w http.ResponseWriter, r *http.Request) {
	s.writer.WriteSuccessResponse(w, r, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *status) Stats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		s.writer.WriteErrorResponse(w, r, http.StatusServiceUnavailable, "translation cache is not running")
		return
	}

	st := s.stats.Stats()
	s.writer.WriteSuccessResponse(w, r, map[string]any{
		"translation_cache": map[string]int64{
			"entries":  int64(st.Entries),
			"hits":     st.Hits,
			"misses":   st.Misses,
			"calls":    st.Calls,
			"failures": st.Failures,
		},
	})
}

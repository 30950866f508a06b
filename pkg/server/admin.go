package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AdminHandler returns the operational HTTP endpoints: /metrics,
// /healthz, and /statusz with a JSON status summary.
func (s *Server) AdminHandler() http.Handler {
	r := chi.NewRouter()

	if g, ok := s.config.Registry.(prometheus.Gatherer); ok {
		r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	r.Get("/statusz", func(w http.ResponseWriter, _ *http.Request) {
		status := struct {
			ActiveClients int64   `json:"active_clients"`
			Cycles        uint64  `json:"broadcast_cycles"`
			GridWidth     uint32  `json:"grid_width"`
			GridHeight    uint32  `json:"grid_height"`
			UptimeSeconds float64 `json:"uptime_seconds"`
		}{
			ActiveClients: s.activeClients.Load(),
			Cycles:        s.cycles.Load(),
			GridWidth:     s.config.GridWidth,
			GridHeight:    s.config.GridHeight,
			UptimeSeconds: time.Since(s.started).Seconds(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	return r
}

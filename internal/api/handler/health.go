package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/clipferry/clipferry/internal/stats"
)

var startTime = time.Now()

// QueueDepther reports how many pipelines are waiting for a worker.
type QueueDepther interface {
	QueueDepth() int
}

// HealthHandler handles health check and stats endpoints.
type HealthHandler struct {
	stats   *stats.Stats
	queue   QueueDepther
	tempDir string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(st *stats.Stats, queue QueueDepther, tempDir string) *HealthHandler {
	return &HealthHandler{
		stats:   st,
		queue:   queue,
		tempDir: tempDir,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// StatsResponse is the JSON response for the stats endpoint.
type StatsResponse struct {
	Pipeline      stats.Snapshot `json:"pipeline"`
	QueueDepth    int            `json:"queue_depth"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Disk          DiskStats      `json:"disk"`
}

// DiskStats describes the temp filesystem backing downloads.
type DiskStats struct {
	TotalBytes  int64   `json:"total_bytes"`
	FreeBytes   int64   `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe. The relay is ready when the
// temp directory is writable; without it no fetch can land anywhere.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	probe := filepath.Join(h.tempDir, ".readyz")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "error",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	os.Remove(probe)

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Stats handles GET /stats - pipeline counters and host stats.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	total, free, _, usedPct := getDiskStats(h.tempDir)

	writeJSON(w, http.StatusOK, StatsResponse{
		Pipeline:      h.stats.Snapshot(),
		QueueDepth:    h.queue.QueueDepth(),
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Disk: DiskStats{
			TotalBytes:  total,
			FreeBytes:   free,
			UsedPercent: usedPct,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

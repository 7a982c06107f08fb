package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/halink/internal/bridge"
)

// Metrics is the complete operational snapshot.
type Metrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	Broker        BrokerMetrics  `json:"broker"`
	Bridge        bridge.Stats   `json:"bridge"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// BrokerMetrics contains broker session statistics.
type BrokerMetrics struct {
	State         string `json:"state"`
	Subscriptions int    `json:"subscriptions"`
	DroppedSends  uint64 `json:"dropped_sends"`
}

// handleMetrics returns the full operational snapshot.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := Metrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Broker: BrokerMetrics{
			State:         string(s.broker.State()),
			Subscriptions: s.broker.SubscriptionCount(),
			DroppedSends:  s.broker.Dropped(),
		},
		Bridge: s.bridge.Stats(),
	}

	writeJSON(w, http.StatusOK, metrics)
}

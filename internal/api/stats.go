package api

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Stats counts the requests served since startup
type Stats struct {
	started time.Time

	total        atomic.Int64
	success      atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	inFlight     atomic.Int64

	mu       sync.Mutex
	byMethod map[string]int64
}

// StatsSnapshot is the JSON form of Stats reported by /health
type StatsSnapshot struct {
	Total        int64            `json:"total"`
	Success      int64            `json:"success"`
	ClientErrors int64            `json:"client_errors"`
	ServerErrors int64            `json:"server_errors"`
	InFlight     int64            `json:"in_flight"`
	ByMethod     map[string]int64 `json:"by_method"`
}

// NewStats creates an empty counter set
func NewStats() *Stats {
	return &Stats{
		started:  time.Now(),
		byMethod: make(map[string]int64),
	}
}

func (s *Stats) begin() {
	s.inFlight.Add(1)
}

// record accounts a finished request
func (s *Stats) record(method string, status int) {
	s.inFlight.Add(-1)
	s.total.Add(1)

	switch {
	case status >= 500:
		s.serverErrors.Add(1)
	case status >= 400:
		s.clientErrors.Add(1)
	default:
		s.success.Add(1)
	}

	s.mu.Lock()
	s.byMethod[methodKey(method)]++
	s.mu.Unlock()
}

// methodKey folds every method the API does not route under OTHER
func methodKey(method string) string {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return method
	default:
		return "OTHER"
	}
}

// Uptime returns the time elapsed since the counters were created
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.started)
}

// Snapshot returns a consistent copy of the per-method counters along with the totals
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	byMethod := make(map[string]int64, len(s.byMethod))
	for method, n := range s.byMethod {
		byMethod[method] = n
	}
	s.mu.Unlock()

	return StatsSnapshot{
		Total:        s.total.Load(),
		Success:      s.success.Load(),
		ClientErrors: s.clientErrors.Load(),
		ServerErrors: s.serverErrors.Load(),
		InFlight:     s.inFlight.Load(),
		ByMethod:     byMethod,
	}
}

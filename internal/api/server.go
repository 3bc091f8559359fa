package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"library/internal/manager"
)

// Version is reported by the root endpoint
const Version = "3.0.0"

// Server exposes the record managers over HTTP
type Server struct {
	books   *manager.BookManager
	readers *manager.ReaderManager
	staff   *manager.StaffManager
	backend string
	logger  *zap.Logger
	stats   *Stats
}

// NewServer creates the HTTP API. backend names the storage in use and is reported by /health.
func NewServer(books *manager.BookManager, readers *manager.ReaderManager, staff *manager.StaffManager, backend string, logger *zap.Logger) *Server {
	return &Server{
		books:   books,
		readers: readers,
		staff:   staff,
		backend: backend,
		logger:  logger,
		stats:   NewStats(),
	}
}

// Handler returns the instrumented router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.instrument(mux)
}

// RegisterRoutes registers all API routes on the provided mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	registerResource(mux, s, "book", s.books)
	registerResource(mux, s, "reader", s.readers)
	registerResource(mux, s, "staff", s.staff)

	// Nested JSON views
	mux.HandleFunc("POST /books/advanced", s.handleCreateBookAdvanced)
	mux.HandleFunc("GET /books/advanced/{id}", s.handleGetBookAdvanced)
	mux.HandleFunc("POST /readers/advanced", s.handleCreateReaderAdvanced)
	mux.HandleFunc("GET /readers/advanced/{id}", s.handleGetReaderAdvanced)

	mux.HandleFunc("POST /validate/book", s.handleValidateBook)
	mux.HandleFunc("POST /validate/reader", s.handleValidateReader)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Library Management System API",
		"version":   Version,
		"storage":   s.backend,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status        string         `json:"status"`
	Storage       string         `json:"storage"`
	Timestamp     string         `json:"timestamp"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Counts        map[string]int `json:"counts"`
	Requests      StatsSnapshot  `json:"requests"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "healthy",
		Storage:       s.backend,
		Timestamp:     time.Now().Format(time.RFC3339),
		UptimeSeconds: s.stats.Uptime().Seconds(),
		Counts:        make(map[string]int, 3),
		Requests:      s.stats.Snapshot(),
	}

	counters := []struct {
		name  string
		count func(ctx context.Context) (int, error)
	}{
		{s.books.Name(), s.books.Count},
		{s.readers.Name(), s.readers.Count},
		{s.staff.Name(), s.staff.Count},
	}

	status := http.StatusOK
	for _, c := range counters {
		n, err := c.count(r.Context())
		if err != nil {
			s.logger.Error("Health check failed", zap.String("collection", c.name), zap.Error(err))
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Counts[c.name] = n
	}

	writeJSON(w, status, resp)
}

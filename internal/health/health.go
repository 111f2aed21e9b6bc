// Package health serves probe endpoints and run progress for long batch
// collections.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

const probeTimeout = 5 * time.Second

// Status is the /health document.
type Status struct {
	Status    string           `json:"status"`
	Checks    map[string]Check `json:"checks"`
	Progress  *Progress        `json:"progress,omitempty"`
	Version   string           `json:"version,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// Check is the result of one dependency probe.
type Check struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Progress describes how far a batch run has got.
type Progress struct {
	Current string `json:"current,omitempty"`
	Done    int    `json:"done"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
}

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) (bool, string)

// Server exposes /health, /ready and /live.
type Server struct {
	port    int
	version string
	log     logger.LoggerInterface

	mu       sync.RWMutex
	checks   map[string]CheckFunc
	progress *Progress

	srv *http.Server
}

func NewServer(port int, version string, log logger.LoggerInterface) *Server {
	return &Server{
		port:    port,
		version: version,
		log:     log,
		checks:  make(map[string]CheckFunc),
	}
}

func (s *Server) RegisterCheck(name string, check CheckFunc) {
	s.mu.Lock()
	s.checks[name] = check
	s.mu.Unlock()
}

// SetProgress replaces the progress shown on /health.
func (s *Server) SetProgress(p Progress) {
	s.mu.Lock()
	s.progress = &p
	s.mu.Unlock()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.serveHealth)
	mux.HandleFunc("GET /ready", s.serveReady)
	mux.HandleFunc("GET /live", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("alive"))
	})
	return mux
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(s.port))
	if err != nil {
		return err
	}
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: probeTimeout}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "health server stopped", "error", err)
		}
	}()
	s.log.Info(context.Background(), "health endpoints enabled", "addr", ln.Addr().String())
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// probe runs every registered check concurrently.
func (s *Server) probe(ctx context.Context) (map[string]Check, bool) {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	fns := make([]CheckFunc, 0, len(s.checks))
	for n, fn := range s.checks {
		names = append(names, n)
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	results := make([]Check, len(fns))
	var g errgroup.Group
	for i, fn := range fns {
		g.Go(func() error {
			ok, msg := fn(ctx)
			results[i] = Check{Healthy: ok, Message: msg}
			return nil
		})
	}
	g.Wait()

	out := make(map[string]Check, len(names))
	healthy := true
	for i, n := range names {
		out[n] = results[i]
		healthy = healthy && results[i].Healthy
	}
	return out, healthy
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	checks, healthy := s.probe(ctx)
	doc := Status{
		Status:    "ok",
		Checks:    checks,
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.RLock()
	if s.progress != nil {
		p := *s.progress
		doc.Progress = &p
	}
	s.mu.RUnlock()

	code := http.StatusOK
	if !healthy {
		doc.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		s.log.Warn(ctx, "encode health status", "error", err)
	}
}

func (s *Server) serveReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	if _, healthy := s.probe(ctx); !healthy {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ready"))
}

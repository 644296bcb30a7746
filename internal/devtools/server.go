// Package devtools serves an HTTP inspector for a Root rendering into the
// in-memory host.
//
// The inspector steps through a fixed list of frames. Each POST /next
// applies the next frame with Root.Update and streams the applied patches
// to WebSocket clients.
//
//	GET  /tree          current tree, live HTML and applier stats
//	GET  /patches       patches of the last applied frame
//	POST /next          apply the next frame
//	POST /frames/{n}    apply frame n
//	GET  /ws            stream of applied frames
//	GET  /metrics       Prometheus metrics
package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	reconcile "github.com/vango-dev/reconcile"
	"github.com/vango-dev/reconcile/pkg/applier"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves g on /metrics. The default is
// prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// Server is the devtools HTTP server.
type Server struct {
	root   *reconcile.Root
	mem    *host.Memory
	frames []*vdom.VNode

	// applyMu serializes frame application so that concurrent POST /next
	// requests each get their own frame.
	applyMu sync.Mutex

	mu   sync.Mutex
	next int
	last reconcile.Frame

	stream   *Stream
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   chi.Router
}

// New creates a Server for root, which must render into mem. Frames are
// applied in order; none is applied until the first POST /next.
func New(root *reconcile.Root, mem *host.Memory, frames []*vdom.VNode, opts ...Option) *Server {
	s := &Server{
		root:     root,
		mem:      mem,
		frames:   frames,
		stream:   NewStream(),
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	root.OnFrame(s.onFrame)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(s.logRequests)

	r.Get("/tree", s.handleTree)
	r.Get("/patches", s.handlePatches)
	r.Post("/next", s.handleNext)
	r.Post("/frames/{n}", s.handleFrame)
	r.Get("/ws", s.stream.HandleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Stream returns the frame stream.
func (s *Server) Stream() *Stream {
	return s.stream
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("devtools: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.stream.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) onFrame(f reconcile.Frame) {
	s.mu.Lock()
	s.last = f
	s.mu.Unlock()

	s.stream.Broadcast(Message{
		Type:    MessageFrame,
		Seq:     f.Seq,
		Patches: f.Patches,
		HTML:    s.mem.RenderChildren(s.root.Container()),
	})
}

// TreeResponse is the body of GET /tree.
type TreeResponse struct {
	Seq    uint64        `json:"seq"`
	Frame  int           `json:"frame"`
	Frames int           `json:"frames"`
	HTML   string        `json:"html"`
	Tree   *vdom.VNode   `json:"tree"`
	Stats  applier.Stats `json:"stats"`
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := TreeResponse{
		Seq:    s.last.Seq,
		Frame:  s.next,
		Frames: len(s.frames),
	}
	s.mu.Unlock()

	resp.Tree = s.root.Current()
	resp.HTML = s.mem.RenderChildren(s.root.Container())
	resp.Stats = s.root.Applier().Stats()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePatches(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	patches := last.Patches
	if patches == nil {
		patches = []vdom.Patch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"seq":      last.Seq,
		"duration": last.Duration.String(),
		"patches":  patches,
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	n := s.next
	s.mu.Unlock()
	s.apply(w, n)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "frame index must be a number")
		return
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.apply(w, n)
}

// apply renders frame n. Frames are cloned so that a frame can be applied
// more than once. The caller holds applyMu.
func (s *Server) apply(w http.ResponseWriter, n int) {
	if n < 0 || n >= len(s.frames) {
		writeError(w, http.StatusConflict, "no frame "+strconv.Itoa(n))
		return
	}

	if err := s.root.Update(vdom.Clone(s.frames[n])); err != nil {
		s.logger.Warn("devtools: frame failed", "frame", n, "error", err)
		s.stream.Broadcast(Message{Type: MessageError, Error: err.Error()})
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	s.next = n + 1
	last := s.last
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"frame":   n,
		"seq":     last.Seq,
		"patches": last.Patches,
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("devtools: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

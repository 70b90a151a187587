// Package http serves the live preview page, its websocket and the editing
// and export API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/sydologie/diapoai/internal/adapters/secondary/export"
	"github.com/sydologie/diapoai/internal/adapters/secondary/monitoring"
	"github.com/sydologie/diapoai/internal/adapters/secondary/preview"
	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
	"github.com/sydologie/diapoai/internal/domain/services"
)

// Server implements the HTTPServer interface
type Server struct {
	config    entities.ServerConfig
	connMgr   *ConnectionManager
	engine    *WebSocketEngine
	limiter   *rateLimiter
	stats     *monitoring.Stats
	clock     ports.Clock
	logger    ports.Logger
	workspace *services.Workspace
	exports   *export.Service
	renderer  *preview.Renderer
	assets    *preview.HTTPAssetLoader
	assetBase string

	mu      sync.RWMutex
	server  *http.Server
	addr    string
	stopHub context.CancelFunc
	running bool
}

// NewServer creates a server with its connection hub and slide engine.
// The preview renderer is built over Engine() and attached with SetPreview.
func NewServer(config entities.ServerConfig, clock ports.Clock, logger ports.Logger) *Server {
	if clock == nil {
		clock = ports.NewRealClock()
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	hub := NewConnectionManager()
	return &Server{
		config:    config,
		connMgr:   hub,
		engine:    NewWebSocketEngine(hub, clock),
		limiter:   newRateLimiter(clock),
		stats:     monitoring.NewStats(clock),
		clock:     clock,
		logger:    logger,
		assetBase: entities.PreviewConfig{}.GetAssetBaseURL(),
	}
}

// Stats returns the server counters
func (s *Server) Stats() *monitoring.Stats {
	return s.stats
}

// Engine returns the slide engine driving the connected pages
func (s *Server) Engine() *WebSocketEngine {
	return s.engine
}

// SetWorkspace sets the deck being edited
func (s *Server) SetWorkspace(ws *services.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspace = ws
}

// SetExportService sets the export service
func (s *Server) SetExportService(exports *export.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = exports
}

// SetPreview sets the renderer reported by /api/status
func (s *Server) SetPreview(renderer *preview.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = renderer
}

// SetAssets serves cached engine files under /assets; base is the CDN root
// used for files missing from the cache
func (s *Server) SetAssets(assets *preview.HTTPAssetLoader, base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = assets
	if base != "" {
		s.assetBase = base
	}
}

// Start listens on host:port and serves in the background
func (s *Server) Start(ctx context.Context, port int, host string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("listening on %s:%d: %w", host, port, err)
	}

	hubCtx, cancel := context.WithCancel(ctx)
	go s.connMgr.Run(hubCtx)

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.GetReadTimeout(),
		WriteTimeout: s.config.GetWriteTimeout(),
		IdleTimeout:  s.config.GetReadTimeout() * 2,
	}
	s.addr = listener.Addr().String()
	s.stopHub = cancel
	s.running = true

	srv := s.server
	go func() {
		s.logger.Info("HTTP server listening on %s", listener.Addr())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop closes every page connection and shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errors.New("server not running")
	}
	s.running = false
	srv := s.server
	s.stopHub()
	s.mu.Unlock()

	select {
	case <-s.connMgr.Done():
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.GetShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// NotifyClients sends an update event to all connected pages
func (s *Server) NotifyClients(event ports.UpdateEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return errors.New("server not running")
	}

	s.connMgr.Broadcast(event)
	return nil
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// URL returns the preview page address
func (s *Server) URL() string {
	host, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return ""
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

// Handler returns the router wrapped in CORS and the middleware chain
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.GetCORSOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	return c.Handler(s.setupRoutes())
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handlePreviewPage).Methods(http.MethodGet)
	r.HandleFunc("/theme.css", s.handleThemeStylesheet).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)
	r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", http.HandlerFunc(s.handleAsset))).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/slides", s.handleSlides).Methods(http.MethodGet)
	api.HandleFunc("/deck", s.handleDeck).Methods(http.MethodPost)
	api.HandleFunc("/outline", s.handleGetOutline).Methods(http.MethodGet)
	api.HandleFunc("/outline", s.handlePutOutline).Methods(http.MethodPut)
	api.HandleFunc("/theme", s.handleTheme).Methods(http.MethodPut)
	api.HandleFunc("/transition", s.handleTransition).Methods(http.MethodPut)
	api.HandleFunc("/export/formats", s.handleExportFormats).Methods(http.MethodGet)
	api.HandleFunc("/export/{format}", s.handleExport).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed here")
	})

	// security -> rate limiting -> logging -> recovery
	var handler http.Handler = r
	handler = securityHeadersMiddleware(handler)
	handler = s.rateLimitMiddleware(handler)
	handler = countingMiddleware(handler, s.stats)
	handler = createLoggingMiddleware(handler, s.clock, s.logger)
	handler = createRecoveryMiddleware(handler, s.logger)
	return handler
}

func (s *Server) currentWorkspace() *services.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workspace
}

func (s *Server) currentExports() *export.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exports
}

var _ ports.HTTPServer = (*Server)(nil)

// Package http implements the REST API for the GameSphere scoring service.
// It exposes the leaderboard, per-user stats, and achievement check
// operations, plus health, metrics, and administrative endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gamesphere/gamesphere-scoring/config"
	"github.com/gamesphere/gamesphere-scoring/internal/application/command"
	"github.com/gamesphere/gamesphere-scoring/internal/application/query"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/leaderboard"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
	"github.com/gamesphere/gamesphere-scoring/pkg/logger"
)

// Config contains HTTP server settings.
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// EnableMetrics exposes the Prometheus endpoint at /metrics.
	EnableMetrics bool

	// RateLimitRPS and RateLimitBurst bound each client; RateLimitEnabled
	// turns the limiter on.
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	// AdminTokenHash is the bcrypt hash of the admin token. Empty
	// disables the admin endpoints.
	AdminTokenHash string

	// DefaultTopLimit is the leaderboard page size when the caller
	// does not ask for one.
	DefaultTopLimit int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Host:             "0.0.0.0",
		Port:             8080,
		ReadTimeout:      10 * time.Second,
		WriteTimeout:     15 * time.Second,
		IdleTimeout:      60 * time.Second,
		MaxHeaderBytes:   1 << 20,
		EnableMetrics:    true,
		RateLimitEnabled: true,
		RateLimitRPS:     20,
		RateLimitBurst:   40,
		DefaultTopLimit:  shared.DefaultLimit.Int(),
	}
}

// Address returns the bind address in "host:port" form.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HealthChecker reports the health of the server's backing services.
type HealthChecker interface {
	CheckDatabase(ctx context.Context) error
	CheckCache(ctx context.Context) error
}

// Rebuilder produces a fresh leaderboard snapshot on demand. The admin
// rebuild endpoint calls it directly.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*leaderboard.Snapshot, error)
}

// Dependencies wires the application layer into the HTTP handlers.
type Dependencies struct {
	GetLeaderboardHandler    *query.GetLeaderboardHandler
	GetUserStatsHandler      *query.GetUserStatsHandler
	CheckAchievementsHandler *command.CheckAchievementsHandler

	Rebuilder     Rebuilder
	HealthChecker HealthChecker
	Features      *config.FeatureFlags
	Logger        *logger.Logger
}

// Server is the HTTP front door of the scoring service.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	logger     *logger.Logger

	rateLimiter *clientLimiter

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer builds the server, its routes, and the middleware chain.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger,
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}
	if config.RateLimitEnabled && config.RateLimitRPS > 0 {
		s.rateLimiter = newClientLimiter(config.RateLimitRPS, config.RateLimitBurst)
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.buildMiddlewareChain(s.router),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}
	return s
}

func (s *Server) setupRoutes() {
	// Health and status
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth) // Kubernetes alias
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /live", s.handleLive)
	s.router.HandleFunc("GET /{$}", s.handleRoot)

	// Public API
	s.router.HandleFunc("GET /api/v1/leaderboard", s.handleGetLeaderboard)
	s.router.HandleFunc("GET /api/v1/users/{id}/stats", s.handleGetUserStats)
	s.router.HandleFunc("POST /api/v1/users/{id}/achievements/check", s.handleCheckAchievements)
	s.router.HandleFunc("POST /api/v1/dispatch", s.handleDispatch)

	// Admin API, token-gated
	s.router.Handle("POST /api/v1/admin/leaderboard/rebuild",
		s.adminAuthMiddleware(http.HandlerFunc(s.handleAdminRebuild)))
	s.router.Handle("GET /api/v1/admin/features",
		s.adminAuthMiddleware(http.HandlerFunc(s.handleAdminListFeatures)))
	s.router.Handle("PUT /api/v1/admin/features/{name}",
		s.adminAuthMiddleware(http.HandlerFunc(s.handleAdminSetFeature)))

	if s.config.EnableMetrics {
		s.router.Handle("GET /metrics", metricsHandler())
	}
}

// Start runs the server until Shutdown or a listener error.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync runs Start in a goroutine and reports its error on the
// returned channel.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// JSONResponse is the envelope every endpoint answers with.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError carries a machine-readable code plus human-readable text.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseMeta annotates successful responses.
type ResponseMeta struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version,omitempty"`
	TotalCount int       `json:"total_count,omitempty"`
	Source     string    `json:"source,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSONWithMeta(w, r, status, data, nil)
}

func writeJSONWithMeta(w http.ResponseWriter, r *http.Request, status int, data any, meta *ResponseMeta) {
	if meta == nil {
		meta = &ResponseMeta{}
	}
	meta.Timestamp = time.Now().UTC()
	meta.Version = "v1"

	encode(w, status, JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Meta:      meta,
		RequestID: getRequestID(r.Context()),
	})
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSONErrorWithDetails(w, status, code, message, "")
}

func writeJSONErrorWithDetails(w http.ResponseWriter, status int, code, message, details string) {
	encode(w, status, JSONResponse{
		Error: &APIError{Code: code, Message: message, Details: details},
		Meta:  &ResponseMeta{Timestamp: time.Now().UTC()},
	})
}

func encode(w http.ResponseWriter, status int, resp JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// responseWriter captures the status code for access logs and metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

func generateRequestID() string {
	return uuid.New().String()
}

// getQueryParamInt reads an integer query parameter, falling back to
// defaultValue when absent.
func getQueryParamInt(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be an integer", key)
	}
	return value, nil
}

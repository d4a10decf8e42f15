package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gamesphere/gamesphere-scoring/config"
	"github.com/gamesphere/gamesphere-scoring/internal/application/command"
	"github.com/gamesphere/gamesphere-scoring/internal/application/query"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
	"github.com/gamesphere/gamesphere-scoring/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps the error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_argument", "Invalid request", err.Error())
	case shared.IsNotFound(err):
		writeJSONErrorWithDetails(w, http.StatusNotFound, "not_found", "Resource not found", err.Error())
	case shared.IsConflict(err):
		writeJSONErrorWithDetails(w, http.StatusConflict, "conflict", "Conflicting write, retry the request", err.Error())
	case shared.IsUnavailable(err):
		writeJSONErrorWithDetails(w, http.StatusServiceUnavailable, "unavailable", "Backing service unavailable", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"service": "gamesphere-scoring",
		"status":  "ok",
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	if err := s.deps.HealthChecker.CheckDatabase(r.Context()); err != nil {
		writeJSONErrorWithDetails(w, http.StatusServiceUnavailable, "not_ready", "Database not reachable", err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleHealth reports per-component health. The cache being down
// degrades the response but does not fail it: reads fall back to
// direct storage access.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"database": "ok",
		"cache":    "ok",
	}
	healthy := true

	if s.deps.HealthChecker != nil {
		if err := s.deps.HealthChecker.CheckDatabase(r.Context()); err != nil {
			components["database"] = err.Error()
			healthy = false
		}
		if err := s.deps.HealthChecker.CheckCache(r.Context()); err != nil {
			components["cache"] = "degraded: " + err.Error()
		}
	}

	status := http.StatusOK
	statusText := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		statusText = "unhealthy"
	}

	writeJSON(w, r, status, map[string]interface{}{
		"status":     statusText,
		"components": components,
		"uptime":     s.Uptime().String(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PUBLIC API HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard serves GET /api/v1/leaderboard?limit=N.
// An absent limit falls back to the default page size; an explicit
// non-positive limit is rejected.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := getQueryParamInt(r, "limit", s.config.DefaultTopLimit)
	if err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_argument", "Invalid request", err.Error())
		return
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), query.GetLeaderboardQuery{Limit: limit})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{
		TotalCount: result.TotalUsers,
		Source:     result.Source,
	})
}

func (s *Server) handleGetUserStats(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetUserStatsHandler.Handle(r.Context(), query.GetUserStatsQuery{
		UserID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleCheckAchievements(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.CheckAchievementsHandler.Handle(r.Context(), command.CheckAchievementsCommand{
		UserID:        r.PathValue("id"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCH HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// DispatchRequest is the generic action envelope. It lets integrations
// drive every operation through a single endpoint.
type DispatchRequest struct {
	Action string         `json:"action"`
	Params DispatchParams `json:"params"`
}

// DispatchParams carries the union of per-action parameters. Limit is a
// pointer so an absent limit and an explicit zero stay distinguishable.
type DispatchParams struct {
	UserID string `json:"user_id,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
}

// handleDispatch serves POST /api/v1/dispatch. Unknown actions are
// rejected as invalid input. The endpoint rolls out gradually: callers
// are bucketed by the user_id in the request body.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_argument", "Invalid request body", err.Error())
		return
	}

	if s.deps.Features != nil && !s.deps.Features.IsEnabledFor(config.FeatureDispatchEndpoint, req.Params.UserID) {
		writeJSONError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	action, err := shared.NewAction(req.Action)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	switch action {
	case shared.ActionGetLeaderboard:
		limit := s.config.DefaultTopLimit
		if req.Params.Limit != nil {
			limit = *req.Params.Limit
		}
		result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), query.GetLeaderboardQuery{Limit: limit})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, r, http.StatusOK, result)

	case shared.ActionCheckAchievements:
		result, err := s.deps.CheckAchievementsHandler.Handle(r.Context(), command.CheckAchievementsCommand{
			UserID:        req.Params.UserID,
			CorrelationID: getRequestID(r.Context()),
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, r, http.StatusOK, result)

	case shared.ActionGetUserStats:
		result, err := s.deps.GetUserStatsHandler.Handle(r.Context(), query.GetUserStatsQuery{
			UserID: req.Params.UserID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, r, http.StatusOK, result)

	default:
		writeDomainError(w, shared.ErrUnsupportedAction)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAdminRebuild forces a leaderboard snapshot rebuild.
func (s *Server) handleAdminRebuild(w http.ResponseWriter, r *http.Request) {
	if s.deps.Rebuilder == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Rebuilder not configured")
		return
	}

	start := time.Now()
	snapshot, err := s.deps.Rebuilder.Rebuild(r.Context())
	if err != nil {
		s.logger.Error("admin rebuild failed", logger.Err(err))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"total_users":  snapshot.TotalUsers,
		"generated_at": snapshot.GeneratedAt,
		"duration_ms":  time.Since(start).Milliseconds(),
	})
}

// FeatureUpdateRequest updates a feature flag.
type FeatureUpdateRequest struct {
	Enabled        *bool `json:"enabled,omitempty"`
	RolloutPercent *int  `json:"rollout_percent,omitempty"`
}

func (s *Server) handleAdminListFeatures(w http.ResponseWriter, r *http.Request) {
	if s.deps.Features == nil {
		writeJSON(w, r, http.StatusOK, map[string]interface{}{})
		return
	}
	writeJSON(w, r, http.StatusOK, s.deps.Features.GetAllFeatures())
}

func (s *Server) handleAdminSetFeature(w http.ResponseWriter, r *http.Request) {
	if s.deps.Features == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Feature flags not configured")
		return
	}

	var req FeatureUpdateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<12)).Decode(&req); err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_argument", "Invalid request body", err.Error())
		return
	}

	name := r.PathValue("name")

	var err error
	switch {
	case req.RolloutPercent != nil:
		err = s.deps.Features.SetRolloutPercent(name, *req.RolloutPercent)
	case req.Enabled != nil && *req.Enabled:
		err = s.deps.Features.EnableFeature(name)
	case req.Enabled != nil:
		err = s.deps.Features.DisableFeature(name)
	default:
		writeJSONError(w, http.StatusBadRequest, "invalid_argument", "Provide enabled or rollout_percent")
		return
	}

	if err != nil {
		if errors.Is(err, config.ErrFeatureNotFound) {
			writeJSONErrorWithDetails(w, http.StatusNotFound, "not_found", "Unknown feature", name)
			return
		}
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_argument", "Invalid feature update", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"feature": name, "status": "updated"})
}

// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/leaderboard"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Получает топ-N пользователей по суммарному счёту достижений.
// Кеш-протокол: FRESH снапшот отдаётся как есть; STALE или MISS приводят
// к пересборке из хранилища; при недоступности пересборки выполняется
// прямое чтение, а кеш остаётся устаревшим.
// ══════════════════════════════════════════════════════════════════════════════

// Rebuilder пересобирает снапшот лидерборда из хранилища и заполняет кеш.
// Ошибка заполнения кеша не является ошибкой пересборки.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*leaderboard.Snapshot, error)
}

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// Limit - количество записей. Неположительное значение отклоняется;
	// отсутствие параметра на транспортном уровне заменяется на
	// shared.DefaultLimit до вызова обработчика.
	Limit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if _, err := shared.NewLimit(q.Limit); err != nil {
		return err
	}
	return nil
}

// LeaderboardEntryDTO - запись лидерборда для ответа клиенту.
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1). Пользователи с равным
	// счётом делят позицию.
	Rank int `json:"rank"`

	// UserID - идентификатор пользователя.
	UserID string `json:"user_id"`

	// DisplayName - отображаемое имя (может быть пустым).
	DisplayName string `json:"display_name,omitempty"`

	// Score - суммарный счёт достижений.
	Score int64 `json:"score"`
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	// Entries - записи лидерборда: убывание счёта, при равенстве -
	// возрастание UserID. Запрошенный limit больше населения даёт
	// все записи без ошибки.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// TotalUsers - общее количество пользователей со счётом.
	TotalUsers int `json:"total_users"`

	// Source - откуда получены данные: "cache", "rebuild" или "database".
	Source string `json:"source"`

	// GeneratedAt - время генерации данных.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает запросы на получение лидерборда.
type GetLeaderboardHandler struct {
	leaderboardRepo leaderboard.Repository
	cache           leaderboard.Cache
	rebuilder       Rebuilder
	logger          *slog.Logger
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса лидерборда.
func NewGetLeaderboardHandler(
	leaderboardRepo leaderboard.Repository,
	cache leaderboard.Cache,
	rebuilder Rebuilder,
	logger *slog.Logger,
) *GetLeaderboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetLeaderboardHandler{
		leaderboardRepo: leaderboardRepo,
		cache:           cache,
		rebuilder:       rebuilder,
		logger:          logger,
	}
}

// Handle выполняет запрос на получение лидерборда.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	// Попытка отдать свежий снапшот из кеша. Ошибка кеша не фатальна:
	// путь чтения продолжает работать через пересборку.
	if snapshot := h.tryGetFresh(ctx); snapshot != nil {
		return h.buildResult(snapshot.Top(query.Limit), snapshot.TotalUsers, "cache", snapshot.GeneratedAt), nil
	}

	// Снапшот устарел или отсутствует: пересборка из хранилища.
	if h.rebuilder != nil {
		snapshot, err := h.rebuilder.Rebuild(ctx)
		if err == nil {
			return h.buildResult(snapshot.Top(query.Limit), snapshot.TotalUsers, "rebuild", snapshot.GeneratedAt), nil
		}
		h.logger.Warn("leaderboard rebuild failed, falling back to direct read", "error", err)
	}

	// Прямое чтение без кеша. Кеш при этом остаётся устаревшим:
	// следующий запрос снова попытается пересобрать снапшот.
	return h.readDirect(ctx, query.Limit)
}

// tryGetFresh возвращает снапшот только в состоянии FRESH.
func (h *GetLeaderboardHandler) tryGetFresh(ctx context.Context) *leaderboard.Snapshot {
	if h.cache == nil {
		return nil
	}

	snapshot, freshness, err := h.cache.GetSnapshot(ctx)
	if err != nil {
		h.logger.Warn("leaderboard cache read failed", "error", err)
		return nil
	}
	if freshness != leaderboard.FreshnessFresh {
		return nil
	}
	return snapshot
}

// readDirect читает топ напрямую из хранилища, минуя кеш.
func (h *GetLeaderboardHandler) readDirect(ctx context.Context, limit int) (*GetLeaderboardResult, error) {
	entries, err := h.leaderboardRepo.ListTop(ctx, limit)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrServiceUnavailable, "leaderboard storage unavailable", err)
	}

	// Ранги присваивает доменная сортировка; равный счёт делит позицию.
	ranking := leaderboard.NewRanking()
	for _, e := range entries {
		if addErr := ranking.Add(e); addErr != nil {
			h.logger.Warn("skipping invalid leaderboard entry", "error", addErr)
		}
	}
	ranking.Sort()

	total, err := h.leaderboardRepo.CountUsers(ctx)
	if err != nil {
		total = ranking.Count()
	}

	return h.buildResult(ranking.Top(limit), total, "database", time.Now().UTC()), nil
}

// buildResult формирует итоговый результат.
func (h *GetLeaderboardHandler) buildResult(entries []*leaderboard.Entry, totalUsers int, source string, generatedAt time.Time) *GetLeaderboardResult {
	dtos := make([]LeaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		dtos = append(dtos, LeaderboardEntryDTO{
			Rank:        int(e.Rank),
			UserID:      string(e.UserID),
			DisplayName: e.DisplayName,
			Score:       e.Score.Int64(),
		})
	}

	return &GetLeaderboardResult{
		Entries:     dtos,
		TotalUsers:  totalUsers,
		Source:      source,
		GeneratedAt: generatedAt,
	}
}

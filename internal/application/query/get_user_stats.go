package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/profile"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/scoring"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER STATS QUERY
// Возвращает снапшот статистики пользователя: количество обзоров,
// подтверждённых связей и уникальных жанров. Снапшот пересчитывается
// из профиля целиком; инкрементальные счётчики не хранятся.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserStatsQuery содержит параметры запроса статистики.
type GetUserStatsQuery struct {
	// UserID - идентификатор пользователя.
	UserID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetUserStatsQuery) Validate() error {
	if _, err := shared.NewUserID(q.UserID); err != nil {
		return shared.WrapError("query", "GetUserStats", shared.ErrValidation, "invalid user id", err)
	}
	return nil
}

// GetUserStatsResult содержит результат запроса статистики.
type GetUserStatsResult struct {
	// UserID - идентификатор пользователя.
	UserID string `json:"user_id"`

	// ReviewCount - количество обзоров.
	ReviewCount int `json:"review_count"`

	// ConnectionCount - количество подтверждённых связей.
	ConnectionCount int `json:"connection_count"`

	// UniqueGenreCount - количество уникальных жанров среди сыгранных игр.
	UniqueGenreCount int `json:"unique_genre_count"`

	// Score - текущий суммарный счёт достижений.
	Score int64 `json:"score"`

	// AwardedAchievements - ID выданных достижений в порядке выдачи.
	AwardedAchievements []string `json:"awarded_achievements"`

	// ComputedAt - время вычисления снапшота.
	ComputedAt time.Time `json:"computed_at"`

	// FromCache - получен ли снапшот из кеша.
	FromCache bool `json:"-"`
}

// GetUserStatsHandler обрабатывает запросы статистики пользователя.
type GetUserStatsHandler struct {
	profileRepo profile.Repository
	awardRepo   scoring.AwardRepository
	scoreRepo   scoring.ScoreRepository
	statsCache  stats.Cache
	logger      *slog.Logger
}

// NewGetUserStatsHandler создаёт новый обработчик запроса статистики.
func NewGetUserStatsHandler(
	profileRepo profile.Repository,
	awardRepo scoring.AwardRepository,
	scoreRepo scoring.ScoreRepository,
	statsCache stats.Cache,
	logger *slog.Logger,
) *GetUserStatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetUserStatsHandler{
		profileRepo: profileRepo,
		awardRepo:   awardRepo,
		scoreRepo:   scoreRepo,
		statsCache:  statsCache,
		logger:      logger,
	}
}

// Handle выполняет запрос статистики пользователя.
func (h *GetUserStatsHandler) Handle(ctx context.Context, query GetUserStatsQuery) (*GetUserStatsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	userID := shared.UserID(query.UserID)

	snapshot, fromCache := h.getSnapshot(ctx, userID)
	if snapshot == nil {
		p, err := h.profileRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}

		computed := stats.Aggregate(p)
		snapshot = &computed

		// Ошибка записи в кеш не влияет на ответ.
		if h.statsCache != nil {
			if cerr := h.statsCache.Set(ctx, snapshot, 0); cerr != nil {
				h.logger.Warn("stats cache write failed", "user_id", query.UserID, "error", cerr)
			}
		}
	}

	score, err := h.scoreRepo.GetScore(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("query", "GetUserStats", shared.ErrServiceUnavailable, "score storage unavailable", err)
	}

	awarded, err := h.awardRepo.ListAwarded(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("query", "GetUserStats", shared.ErrServiceUnavailable, "award ledger unavailable", err)
	}

	awardedIDs := make([]string, len(awarded))
	for i, id := range awarded {
		awardedIDs[i] = string(id)
	}

	return &GetUserStatsResult{
		UserID:              query.UserID,
		ReviewCount:         snapshot.ReviewCount,
		ConnectionCount:     snapshot.ConnectionCount,
		UniqueGenreCount:    snapshot.UniqueGenreCount,
		Score:               score.Int64(),
		AwardedAchievements: awardedIDs,
		ComputedAt:          snapshot.ComputedAt,
		FromCache:           fromCache,
	}, nil
}

// getSnapshot пытается получить снапшот из кеша. Промах и ошибка кеша
// равнозначны: снапшот пересчитывается из профиля.
func (h *GetUserStatsHandler) getSnapshot(ctx context.Context, userID shared.UserID) (*stats.Snapshot, bool) {
	if h.statsCache == nil {
		return nil, false
	}

	snapshot, err := h.statsCache.Get(ctx, string(userID))
	if err != nil {
		h.logger.Warn("stats cache read failed", "user_id", string(userID), "error", err)
		return nil, false
	}
	if snapshot == nil {
		return nil, false
	}
	return snapshot, true
}

// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ACHIEVEMENT AWARDED HANDLER
// Обрабатывает события выдачи достижений и начисления очков.
//
// Ключевые функции:
// 1. Структурированный аудит-лог каждой выдачи
// 2. Prometheus-счётчики по достижениям и начисленным очкам
//
// Обработчик не изменяет состояние: выдача и начисление уже зафиксированы
// в хранилище к моменту публикации события.
// ═══════════════════════════════════════════════════════════════════════════

var (
	awardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamesphere",
		Subsystem: "scoring",
		Name:      "achievements_awarded_total",
		Help:      "Total number of achievements awarded, by achievement ID.",
	}, []string{"achievement_id"})

	awardsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gamesphere",
		Subsystem: "scoring",
		Name:      "achievements_skipped_total",
		Help:      "Awards skipped because the ledger row already existed.",
	})

	pointsAwardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gamesphere",
		Subsystem: "scoring",
		Name:      "points_awarded_total",
		Help:      "Total points credited to user scores.",
	})
)

// OnAchievementAwardedHandler обрабатывает события выдачи достижений.
type OnAchievementAwardedHandler struct {
	logger *slog.Logger
}

// NewOnAchievementAwardedHandler создаёт новый обработчик.
func NewOnAchievementAwardedHandler(logger *slog.Logger) *OnAchievementAwardedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnAchievementAwardedHandler{
		logger: logger.With("handler", "on_achievement_awarded"),
	}
}

// Register подписывает обработчик на события шины.
func (h *OnAchievementAwardedHandler) Register(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventAchievementAwarded, h.Handle); err != nil {
		return err
	}
	if err := bus.Subscribe(shared.EventAchievementSkipped, h.Handle); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventScoreIncreased, h.Handle)
}

// Handle обрабатывает событие. Реализует shared.EventHandler.
func (h *OnAchievementAwardedHandler) Handle(event shared.Event) error {
	switch e := event.(type) {
	case shared.AchievementAwardedEvent:
		awardsTotal.WithLabelValues(e.AchievementID).Inc()
		h.logger.Info("achievement awarded",
			"user_id", e.UserID,
			"achievement_id", e.AchievementID,
			"points", e.Points,
		)

	case shared.AchievementSkippedEvent:
		awardsSkippedTotal.Inc()
		h.logger.Info("achievement already awarded",
			"user_id", e.UserID,
			"achievement_id", e.AchievementID,
		)

	case shared.ScoreIncreasedEvent:
		pointsAwardedTotal.Add(float64(e.Delta))
		h.logger.Info("score increased",
			"user_id", e.UserID,
			"delta", e.Delta,
			"new_total", e.NewTotal,
			"source", e.Source,
		)

	default:
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
	}

	return nil
}

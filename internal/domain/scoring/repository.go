package scoring

import (
	"context"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракты журнала достижений и счёта. Реализация находится
// в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// AwardRepository - журнал выданных достижений (insert-if-absent).
type AwardRepository interface {
	// InsertIfAbsent записывает факт выдачи достижения.
	// Возвращает true, если строка была вставлена, и false, если пара
	// (userID, achievementID) уже существует. Конкурентные вставки одной
	// пары разрешаются уникальным ограничением хранилища: ровно один
	// вызов получает true.
	InsertIfAbsent(ctx context.Context, record AwardRecord) (bool, error)

	// ListAwarded возвращает ID всех достижений пользователя.
	ListAwarded(ctx context.Context, userID shared.UserID) ([]shared.AchievementID, error)
}

// ScoreRepository - хранилище суммарного счёта.
type ScoreRepository interface {
	// IncrementScore атомарно увеличивает счёт пользователя на delta
	// и возвращает новое значение. Отрицательная delta отклоняется.
	IncrementScore(ctx context.Context, userID shared.UserID, delta shared.Points) (shared.Score, error)

	// GetScore возвращает текущий счёт пользователя.
	// Пользователь без начислений имеет нулевой счёт.
	GetScore(ctx context.Context, userID shared.UserID) (shared.Score, error)
}

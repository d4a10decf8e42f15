package achievement

import (
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD
// ══════════════════════════════════════════════════════════════════════════════

// Award - факт получения достижения пользователем.
// Пара (UserID, AchievementID) уникальна: достижение выдаётся один раз.
type Award struct {
	UserID        shared.UserID
	AchievementID shared.AchievementID
	Points        shared.Points
	AwardedAt     time.Time
}

// NewAward создаёт запись о выданном достижении.
func NewAward(userID shared.UserID, def Definition) Award {
	return Award{
		UserID:        userID,
		AchievementID: def.ID,
		Points:        def.Points,
		AwardedAt:     time.Now().UTC(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// AwardedSet - множество уже выданных достижений пользователя.
type AwardedSet map[shared.AchievementID]bool

// NewAwardedSet строит множество из списка ID.
func NewAwardedSet(ids []shared.AchievementID) AwardedSet {
	set := make(AwardedSet, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Contains проверяет наличие достижения в множестве.
func (s AwardedSet) Contains(id shared.AchievementID) bool {
	return s[id]
}

// Evaluate возвращает определения, которые пользователь заслужил по снапшоту
// статистики, но ещё не получил. Чистая функция: не мутирует аргументы,
// детерминирована, результат следует порядку каталога.
//
// Достижение проходит фильтр, если значение его метрики в снапшоте >= порога
// И его ID отсутствует в awarded. Пустой каталог даёт пустой результат.
func Evaluate(catalog *Catalog, snapshot stats.Snapshot, awarded AwardedSet) []Definition {
	if catalog == nil {
		return nil
	}

	var qualified []Definition
	for _, def := range catalog.definitions {
		if awarded.Contains(def.ID) {
			continue
		}
		if metricValue(snapshot, def.Metric) >= def.Threshold {
			qualified = append(qualified, def)
		}
	}
	return qualified
}

// metricValue извлекает значение метрики из снапшота.
// Неизвестная метрика не может попасть сюда: каталог валидирует её при сборке.
func metricValue(s stats.Snapshot, m Metric) int {
	switch m {
	case MetricReviewCount:
		return s.ReviewCount
	case MetricConnectionCount:
		return s.ConnectionCount
	case MetricUniqueGenreCount:
		return s.UniqueGenreCount
	}
	return 0
}

// TotalPoints суммирует очки списка определений.
func TotalPoints(defs []Definition) shared.Points {
	var total shared.Points
	for _, def := range defs {
		total += def.Points
	}
	return total
}

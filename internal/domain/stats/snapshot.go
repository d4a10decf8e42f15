// Package stats содержит агрегацию статистики пользователя GameSphere.
// Снапшот - это пересчитанное с нуля состояние метрик профиля; инкрементальные
// обновления не используются, поэтому снапшот всегда согласован с профилем.
package stats

import (
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/profile"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - значения метрик пользователя на момент пересчёта.
// Все значения неотрицательны.
type Snapshot struct {
	UserID           shared.UserID `json:"user_id"`
	ReviewCount      int           `json:"review_count"`
	ConnectionCount  int           `json:"connection_count"`
	UniqueGenreCount int           `json:"unique_genre_count"`
	ComputedAt       time.Time     `json:"computed_at"`
}

// IsValid проверяет, что все метрики неотрицательны.
func (s Snapshot) IsValid() bool {
	return s.ReviewCount >= 0 && s.ConnectionCount >= 0 && s.UniqueGenreCount >= 0
}

// IsZero возвращает true для снапшота без активности.
func (s Snapshot) IsZero() bool {
	return s.ReviewCount == 0 && s.ConnectionCount == 0 && s.UniqueGenreCount == 0
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION
// ══════════════════════════════════════════════════════════════════════════════

// Aggregate пересчитывает снапшот из профиля. Чистая функция:
//   - ReviewCount - количество обзоров;
//   - ConnectionCount - количество подтверждённых связей;
//   - UniqueGenreCount - количество уникальных жанров (без учёта регистра,
//     пустые жанры игнорируются).
//
// Отсутствующие коллекции дают нулевые метрики.
func Aggregate(p *profile.Profile) Snapshot {
	if p == nil {
		return Snapshot{ComputedAt: time.Now().UTC()}
	}

	seen := make(map[shared.Genre]bool)
	for _, g := range p.Genres() {
		seen[g] = true
	}

	return Snapshot{
		UserID:           p.UserID,
		ReviewCount:      len(p.Reviews),
		ConnectionCount:  len(p.AcceptedConnections()),
		UniqueGenreCount: len(seen),
		ComputedAt:       time.Now().UTC(),
	}
}

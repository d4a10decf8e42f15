// Package leaderboard содержит доменную модель лидерборда GameSphere.
package leaderboard

import (
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot представляет собранный лидерборд в определённый момент времени.
// Снапшот - это единица кеширования: именно он сохраняется в Redis
// и отдаётся читателям, пока не будет инвалидирован изменением счёта.
type Snapshot struct {
	// GeneratedAt - время сборки снапшота.
	GeneratedAt time.Time `json:"generated_at"`

	// TotalUsers - общее количество пользователей со счётом.
	TotalUsers int `json:"total_users"`

	// Entries - записи, отсортированные по контракту упорядочивания.
	Entries []*Entry `json:"entries"`
}

// NewSnapshot собирает снапшот из рейтинга. Ranking сортируется на месте.
func NewSnapshot(ranking *Ranking) *Snapshot {
	ranking.Sort()
	return &Snapshot{
		GeneratedAt: time.Now().UTC(),
		TotalUsers:  ranking.Count(),
		Entries:     ranking.All(),
	}
}

// Top возвращает первые n записей снапшота.
func (s *Snapshot) Top(n int) []*Entry {
	if s == nil || n <= 0 {
		return nil
	}
	if n > len(s.Entries) {
		n = len(s.Entries)
	}
	result := make([]*Entry, n)
	copy(result, s.Entries[:n])
	return result
}

// Covers проверяет, хватает ли снапшота для запроса top-n.
// Снапшот покрывает запрос, если содержит не меньше n записей
// либо содержит всех пользователей.
func (s *Snapshot) Covers(n int) bool {
	if s == nil {
		return false
	}
	return len(s.Entries) >= n || len(s.Entries) == s.TotalUsers
}

// Age возвращает возраст снапшота.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.GeneratedAt)
}

// Find возвращает запись пользователя в снапшоте, либо nil.
func (s *Snapshot) Find(userID shared.UserID) *Entry {
	for _, e := range s.Entries {
		if e.UserID == userID {
			return e
		}
	}
	return nil
}

// Package scoring содержит доменную модель начисления очков GameSphere.
// Счёт пользователя растёт только за счёт очков достижений; инкременты
// коммутативны, поэтому порядок конкурентных начислений не важен.
package scoring

import (
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// UserScore - суммарный счёт пользователя.
type UserScore struct {
	UserID    shared.UserID
	Score     shared.Score
	UpdatedAt time.Time
}

// AwardRecord - строка журнала выданных достижений.
// Пара (UserID, AchievementID) уникальна на уровне хранилища.
type AwardRecord struct {
	ID            string
	UserID        shared.UserID
	AchievementID shared.AchievementID
	Points        shared.Points
	AwardedAt     time.Time
}

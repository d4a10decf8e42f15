package profile

import (
	"context"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт для работы с хранилищем профилей. Реализация находится
// в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции чтения профилей.
// Движок начисления очков профили не изменяет: запись принадлежит
// основному сервису платформы.
type Repository interface {
	// GetByUserID возвращает полный профиль пользователя.
	// Возвращает ErrProfileNotFound, если пользователь не найден.
	GetByUserID(ctx context.Context, userID shared.UserID) (*Profile, error)

	// Exists проверяет наличие профиля без загрузки коллекций.
	Exists(ctx context.Context, userID shared.UserID) (bool, error)

	// ListUserIDs возвращает ID всех пользователей с профилем.
	// Используется фоновым обходом каталога достижений.
	ListUserIDs(ctx context.Context) ([]shared.UserID, error)
}

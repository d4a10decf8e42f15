package stats

import (
	"context"
	"time"
)

// Cache хранит недавно вычисленные снапшоты статистики пользователя.
// Промах кеша не является ошибкой: Get возвращает (nil, nil), и вызывающая
// сторона пересчитывает снапшот из профиля.
type Cache interface {
	// Get возвращает закешированный снапшот пользователя или (nil, nil).
	Get(ctx context.Context, userID string) (*Snapshot, error)

	// Set сохраняет снапшот с указанным TTL.
	Set(ctx context.Context, snapshot *Snapshot, ttl time.Duration) error

	// Invalidate удаляет снапшот пользователя из кеша.
	Invalidate(ctx context.Context, userID string) error
}

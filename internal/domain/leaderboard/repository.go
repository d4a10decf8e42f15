// Package leaderboard содержит доменную модель лидерборда GameSphere.
package leaderboard

import (
	"context"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт для чтения таблицы очков.
// Реализация находится в infrastructure слое (PostgreSQL).
// Репозиторий - источник правды: кеш может отставать, репозиторий - никогда.
type Repository interface {
	// ListTop возвращает первые limit записей по контракту упорядочивания:
	// убывание счёта, при равенстве - возрастание UserID.
	// limit больше размера таблицы возвращает всю таблицу.
	ListTop(ctx context.Context, limit int) ([]*Entry, error)

	// ListAll возвращает все записи для сборки снапшота.
	ListAll(ctx context.Context) ([]*Entry, error)

	// GetUserEntry возвращает запись пользователя.
	// Возвращает nil, если у пользователя ещё нет счёта.
	GetUserEntry(ctx context.Context, userID shared.UserID) (*Entry, error)

	// CountUsers возвращает количество пользователей со счётом.
	CountUsers(ctx context.Context) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Freshness описывает состояние кешированного снапшота.
type Freshness string

const (
	// FreshnessFresh - снапшот актуален и может быть отдан как есть.
	FreshnessFresh Freshness = "fresh"
	// FreshnessStale - снапшот существует, но инвалидирован изменением счёта.
	FreshnessStale Freshness = "stale"
	// FreshnessMiss - снапшота в кеше нет.
	FreshnessMiss Freshness = "miss"
)

// Cache определяет контракт кеша лидерборда.
// Протокол: чтение проверяет свежесть; свежий снапшот отдаётся напрямую,
// устаревший или отсутствующий пересобирается из репозитория и записывается
// обратно. Инвалидация помечает снапшот устаревшим, но не удаляет его.
type Cache interface {
	// GetSnapshot возвращает кешированный снапшот и его состояние.
	// При FreshnessMiss снапшот равен nil; при FreshnessStale снапшот
	// возвращается как подсказка, но не должен отдаваться читателям.
	GetSnapshot(ctx context.Context) (*Snapshot, Freshness, error)

	// SetSnapshot записывает снапшот и помечает его свежим.
	SetSnapshot(ctx context.Context, snapshot *Snapshot, ttl time.Duration) error

	// Invalidate помечает кешированный снапшот устаревшим.
	Invalidate(ctx context.Context) error
}

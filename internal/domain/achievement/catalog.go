// Package achievement содержит доменную модель достижений GameSphere.
// Достижения - это разовые (не многоуровневые) награды: пользователь получает
// достижение один раз, когда его статистика пересекает порог из каталога.
package achievement

import (
	"fmt"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRIC
// ══════════════════════════════════════════════════════════════════════════════

// Metric определяет, какая метрика статистики пользователя сравнивается с порогом.
type Metric string

const (
	// MetricReviewCount - количество написанных обзоров игр.
	MetricReviewCount Metric = "REVIEW_COUNT"
	// MetricConnectionCount - количество принятых социальных связей.
	MetricConnectionCount Metric = "CONNECTION_COUNT"
	// MetricUniqueGenreCount - количество уникальных жанров сыгранных игр.
	MetricUniqueGenreCount Metric = "UNIQUE_GENRE_COUNT"
)

// IsValid проверяет, что метрика известна каталогу.
func (m Metric) IsValid() bool {
	switch m {
	case MetricReviewCount, MetricConnectionCount, MetricUniqueGenreCount:
		return true
	}
	return false
}

// String возвращает строковое представление метрики.
func (m Metric) String() string {
	return string(m)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFINITION
// ══════════════════════════════════════════════════════════════════════════════

// Definition описывает одно достижение каталога: порог по метрике и награду.
type Definition struct {
	// ID - уникальный идентификатор достижения (например, "GAME_MASTER").
	ID shared.AchievementID

	// Title - отображаемое название.
	Title string

	// Description - описание условия получения.
	Description string

	// Metric - метрика, по которой проверяется порог.
	Metric Metric

	// Threshold - минимальное значение метрики для получения (>= 1).
	Threshold int

	// Points - очки, начисляемые за достижение (>= 0).
	Points shared.Points
}

// Validate проверяет корректность определения.
func (d Definition) Validate() error {
	if !d.ID.IsValid() {
		return shared.NewDomainError("achievement", "Validate", shared.ErrInvalidID,
			fmt.Sprintf("invalid achievement ID %q", string(d.ID)))
	}
	if !d.Metric.IsValid() {
		return shared.WrapError("achievement", "Validate", shared.ErrInvalidInput,
			fmt.Sprintf("achievement %s: unknown metric %q", d.ID, string(d.Metric)), shared.ErrUnknownMetric)
	}
	if d.Threshold < 1 {
		return shared.WrapError("achievement", "Validate", shared.ErrValueOutOfRange,
			fmt.Sprintf("achievement %s: threshold %d", d.ID, d.Threshold), shared.ErrInvalidThreshold)
	}
	if !d.Points.IsValid() {
		return shared.WrapError("achievement", "Validate", shared.ErrNegativeValue,
			fmt.Sprintf("achievement %s: points %d", d.ID, d.Points.Int64()), shared.ErrNegativePoints)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Catalog - неизменяемый набор определений достижений.
// Каталог строится один раз при старте; порядок определений сохраняется,
// потому что результат Evaluate следует порядку каталога.
type Catalog struct {
	definitions []Definition
	byID        map[shared.AchievementID]Definition
}

// NewCatalog создаёт каталог с валидацией каждого определения.
// Дубликаты ID отклоняются.
func NewCatalog(definitions []Definition) (*Catalog, error) {
	c := &Catalog{
		definitions: make([]Definition, 0, len(definitions)),
		byID:        make(map[shared.AchievementID]Definition, len(definitions)),
	}

	for _, def := range definitions {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byID[def.ID]; exists {
			return nil, shared.WrapError("achievement", "NewCatalog", shared.ErrAlreadyExists,
				fmt.Sprintf("duplicate achievement ID %q", def.ID), shared.ErrDuplicateDefinition)
		}
		c.definitions = append(c.definitions, def)
		c.byID[def.ID] = def
	}

	return c, nil
}

// Get возвращает определение по ID.
func (c *Catalog) Get(id shared.AchievementID) (Definition, error) {
	def, ok := c.byID[id]
	if !ok {
		return Definition{}, shared.WrapError("achievement", "Get", shared.ErrNotFound,
			fmt.Sprintf("achievement %q", id), shared.ErrAchievementNotFound)
	}
	return def, nil
}

// Contains проверяет наличие достижения в каталоге.
func (c *Catalog) Contains(id shared.AchievementID) bool {
	_, ok := c.byID[id]
	return ok
}

// All возвращает копию списка определений в порядке каталога.
func (c *Catalog) All() []Definition {
	result := make([]Definition, len(c.definitions))
	copy(result, c.definitions)
	return result
}

// Count возвращает количество определений.
func (c *Catalog) Count() int {
	return len(c.definitions)
}

// ══════════════════════════════════════════════════════════════════════════════
// SEED CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// SeedDefinitions возвращает стандартный набор достижений платформы.
func SeedDefinitions() []Definition {
	return []Definition{
		{
			ID:          "GAME_MASTER",
			Title:       "Game Master",
			Description: "Write 100 game reviews",
			Metric:      MetricReviewCount,
			Threshold:   100,
			Points:      1000,
		},
		{
			ID:          "SOCIAL_BUTTERFLY",
			Title:       "Social Butterfly",
			Description: "Make 50 connections",
			Metric:      MetricConnectionCount,
			Threshold:   50,
			Points:      500,
		},
		{
			ID:          "GENRE_EXPLORER",
			Title:       "Genre Explorer",
			Description: "Play games from 10 different genres",
			Metric:      MetricUniqueGenreCount,
			Threshold:   10,
			Points:      300,
		},
	}
}

// SeedCatalog строит каталог из стандартного набора.
// Паникует только при ошибке в самих константах, то есть никогда в рантайме.
func SeedCatalog() *Catalog {
	c, err := NewCatalog(SeedDefinitions())
	if err != nil {
		panic(fmt.Sprintf("seed catalog is invalid: %v", err))
	}
	return c
}

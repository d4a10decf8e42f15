// Package leaderboard содержит доменную модель лидерборда GameSphere.
// Лидерборд - это представление таблицы очков только для чтения:
// порядок определяется убыванием очков, при равенстве очков - возрастанием
// идентификатора пользователя, чтобы результат был детерминированным.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry представляет одну запись в лидерборде.
type Entry struct {
	// Rank - текущая позиция в рейтинге (присваивается после сортировки).
	Rank shared.Rank

	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// DisplayName - отображаемое имя пользователя.
	DisplayName string

	// Score - текущий суммарный счёт.
	Score shared.Score

	// UpdatedAt - время последнего изменения счёта.
	UpdatedAt time.Time
}

// NewEntry создаёт запись лидерборда с валидацией.
func NewEntry(userID shared.UserID, displayName string, score shared.Score) (*Entry, error) {
	if userID.IsEmpty() {
		return nil, ErrInvalidEntryUserID
	}
	if !score.IsValid() {
		return nil, ErrInvalidScore
	}
	return &Entry{
		UserID:      userID,
		DisplayName: displayName,
		Score:       score,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}

// Clone создаёт копию записи.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String возвращает строковое представление для логирования.
func (e *Entry) String() string {
	return fmt.Sprintf("Entry{Rank: %d, UserID: %s, Score: %d}", e.Rank, e.UserID, e.Score)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (Ranked List)
// ══════════════════════════════════════════════════════════════════════════════

// Ranking представляет отсортированный список записей лидерборда.
// Вспомогательная структура для построения снапшота.
type Ranking struct {
	entries []*Entry
	byID    map[shared.UserID]*Entry
}

// NewRanking создаёт пустой Ranking.
func NewRanking() *Ranking {
	return &Ranking{
		entries: make([]*Entry, 0),
		byID:    make(map[shared.UserID]*Entry),
	}
}

// Add добавляет запись в рейтинг (без автоматической сортировки).
func (r *Ranking) Add(entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if _, exists := r.byID[entry.UserID]; exists {
		return ErrDuplicateUser
	}

	r.entries = append(r.entries, entry)
	r.byID[entry.UserID] = entry
	return nil
}

// Sort сортирует записи по убыванию счёта и присваивает ранги.
// При равном счёте записи идут по возрастанию UserID - это фиксированный
// контракт упорядочивания, на него опираются и хранилище, и кеш.
func (r *Ranking) Sort() {
	sort.Slice(r.entries, func(i, j int) bool {
		if r.entries[i].Score != r.entries[j].Score {
			return r.entries[i].Score > r.entries[j].Score
		}
		return r.entries[i].UserID < r.entries[j].UserID
	})

	// Одинаковый счёт = одинаковый ранг (shared rank)
	for i, entry := range r.entries {
		if i > 0 && entry.Score == r.entries[i-1].Score {
			entry.Rank = r.entries[i-1].Rank
		} else {
			entry.Rank = shared.Rank(i + 1)
		}
	}
}

// GetByID возвращает запись по ID пользователя.
func (r *Ranking) GetByID(userID shared.UserID) *Entry {
	return r.byID[userID]
}

// Top возвращает топ-N записей. Запрос больше размера списка
// возвращает весь список.
func (r *Ranking) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(r.entries) {
		n = len(r.entries)
	}
	result := make([]*Entry, n)
	copy(result, r.entries[:n])
	return result
}

// Count возвращает общее количество записей.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// All возвращает все записи.
func (r *Ranking) All() []*Entry {
	result := make([]*Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidEntryUserID - пустой ID пользователя в записи.
	ErrInvalidEntryUserID = errors.New("invalid user id: cannot be empty")

	// ErrInvalidScore - невалидное значение счёта.
	ErrInvalidScore = errors.New("invalid score: must be non-negative")

	// ErrNilEntry - попытка добавить nil запись.
	ErrNilEntry = errors.New("cannot add nil entry")

	// ErrDuplicateUser - пользователь уже есть в рейтинге.
	ErrDuplicateUser = errors.New("user already exists in ranking")

	// ErrEmptyLeaderboard - лидерборд пуст.
	ErrEmptyLeaderboard = errors.New("leaderboard is empty")
)

// Package profile содержит доменную модель профиля пользователя GameSphere.
// Профиль - источник правды для агрегации статистики: обзоры, социальные
// связи и сыгранные игры с жанрами.
package profile

import (
	"time"

	"github.com/gamesphere/gamesphere-scoring/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ConnectionStatus определяет состояние социальной связи.
type ConnectionStatus string

const (
	// ConnectionPending - запрос отправлен, но не принят.
	ConnectionPending ConnectionStatus = "pending"
	// ConnectionAccepted - связь подтверждена обеими сторонами.
	ConnectionAccepted ConnectionStatus = "accepted"
	// ConnectionDeclined - запрос отклонён.
	ConnectionDeclined ConnectionStatus = "declined"
)

// IsValid проверяет корректность статуса.
func (s ConnectionStatus) IsValid() bool {
	switch s {
	case ConnectionPending, ConnectionAccepted, ConnectionDeclined:
		return true
	}
	return false
}

// Counts возвращает true, если связь учитывается в статистике.
// В CONNECTION_COUNT входят только подтверждённые связи.
func (s ConnectionStatus) Counts() bool {
	return s == ConnectionAccepted
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Review - обзор игры, написанный пользователем.
type Review struct {
	ID        string
	GameID    string
	Rating    int
	CreatedAt time.Time
}

// Connection - социальная связь пользователя с другим пользователем.
type Connection struct {
	ID        string
	PeerID    shared.UserID
	Status    ConnectionStatus
	CreatedAt time.Time
}

// PlayedGame - игра из библиотеки пользователя.
type PlayedGame struct {
	GameID   string
	Title    string
	Genre    shared.Genre
	PlayedAt time.Time
}

// Profile - агрегат профиля пользователя.
type Profile struct {
	UserID      shared.UserID
	DisplayName string
	Reviews     []Review
	Connections []Connection
	PlayedGames []PlayedGame
	UpdatedAt   time.Time
}

// NewProfile создаёт пустой профиль.
func NewProfile(userID shared.UserID, displayName string) (*Profile, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	return &Profile{
		UserID:      userID,
		DisplayName: displayName,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}

// AcceptedConnections возвращает только подтверждённые связи.
func (p *Profile) AcceptedConnections() []Connection {
	var accepted []Connection
	for _, c := range p.Connections {
		if c.Status.Counts() {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

// Genres возвращает нормализованные непустые жанры сыгранных игр
// (с повторами; уникальность считает агрегатор статистики).
func (p *Profile) Genres() []shared.Genre {
	var genres []shared.Genre
	for _, g := range p.PlayedGames {
		if g.Genre.IsBlank() {
			continue
		}
		genres = append(genres, g.Genre.Normalize())
	}
	return genres
}

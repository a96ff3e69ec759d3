package models

import (
	"time"

	"github.com/google/uuid"
)

// GameSession представляет одну непрерывную игровую сессию мира.
// Одновременно активной может быть только одна сессия на мир
// (новая сессия деактивирует предыдущую).
type GameSession struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	WorldID       uuid.UUID  `json:"world_id" db:"world_id"`
	Name          string     `json:"name" db:"name"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	CombatActive  bool       `json:"combat_active" db:"combat_active"`
	CurrentTurnID *uuid.UUID `json:"current_turn_id,omitempty" db:"current_turn_id"` // ID комбатанта, чей сейчас ход (nil вне боя)
	Round         int        `json:"round" db:"round"`                               // Номер раунда боя, 0 вне боя
	Location      string     `json:"location" db:"location"`                         // Свободный текст или ссылка на локацию
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// SessionUpdate содержит частичные изменения сессии (nil = поле не трогаем).
type SessionUpdate struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Location *string `json:"location,omitempty"`
}

// SessionState — полный снимок состояния сессии для клиента.
// Используется при подключении и при ресинхронизации после пропущенных событий.
type SessionState struct {
	Session      GameSession   `json:"session"`
	Combatants   []Combatant   `json:"combatants"`
	Participants []Participant `json:"participants"`
	Chat         []ChatMessage `json:"chat"`
	Rolls        []DiceRoll    `json:"rolls"`
}

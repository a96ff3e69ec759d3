package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant — запись о присутствии пользователя в сессии.
// Никогда не удаляется физически: история того, кто играл, сохраняется,
// при выходе участник помечается оффлайн.
type Participant struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	SessionID   uuid.UUID  `json:"session_id" db:"session_id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	CharacterID *uuid.UUID `json:"character_id,omitempty" db:"character_id"` // Персонаж, которым играет участник (может отсутствовать у ГМ)
	Name        string     `json:"name" db:"name"`
	IsOnline    bool       `json:"is_online" db:"is_online"`
	JoinedAt    time.Time  `json:"joined_at" db:"joined_at"`
	LeftAt      *time.Time `json:"left_at,omitempty" db:"left_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage — сообщение в чате сессии. Неизменяемо после создания.
type ChatMessage struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SessionID  uuid.UUID `json:"session_id" db:"session_id"`
	AuthorID   uuid.UUID `json:"author_id" db:"author_id"`
	AuthorName string    `json:"author_name" db:"author_name"`
	Body       string    `json:"body" db:"body"`
	IsSystem   bool      `json:"is_system" db:"is_system"` // Синтезированные сервером записи журнала боя
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

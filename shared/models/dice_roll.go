package models

import (
	"time"

	"github.com/google/uuid"
)

// DiceRoll — результат броска костей в сессии. Неизменяем после создания.
type DiceRoll struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SessionID  uuid.UUID `json:"session_id" db:"session_id"`
	RollerID   uuid.UUID `json:"roller_id" db:"roller_id"`
	RollerName string    `json:"roller_name" db:"roller_name"`
	Notation   string    `json:"notation" db:"notation"` // Исходная нотация, например "2d6+3"
	Rolls      []int     `json:"rolls" db:"rolls"`
	Modifier   int       `json:"modifier" db:"modifier"`
	Total      int       `json:"total" db:"total"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

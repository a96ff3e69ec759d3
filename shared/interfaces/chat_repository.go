package interfaces

import (
	"context"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// ChatMessageRepository — append-only журнал чата сессии.
type ChatMessageRepository interface {
	// Append persists an immutable chat message.
	Append(ctx context.Context, msg *models.ChatMessage) error

	// ListRecent returns up to limit most recent messages in
	// chronological order (oldest of the window first).
	ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.ChatMessage, error)
}

// DiceRollRepository — append-only журнал бросков сессии.
type DiceRollRepository interface {
	// Append persists an immutable dice roll.
	Append(ctx context.Context, roll *models.DiceRoll) error

	// ListRecent returns up to limit most recent rolls in
	// chronological order (oldest of the window first).
	ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.DiceRoll, error)
}

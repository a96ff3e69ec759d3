package interfaces

import (
	"context"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// SessionRepository — доступ к записям игровых сессий.
type SessionRepository interface {
	// Create persists a new session row.
	Create(ctx context.Context, session *models.GameSession) error

	// GetByID retrieves a session by its unique ID.
	// Returns models.ErrSessionNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.GameSession, error)

	// Update saves the mutable session fields (name, flags, turn, round, location, ended_at).
	Update(ctx context.Context, session *models.GameSession) error

	// DeactivateForWorld ends every active session of the given world.
	// Used before creating a new session: at most one active session per world.
	DeactivateForWorld(ctx context.Context, worldID uuid.UUID) error
}

package interfaces

import (
	"context"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// ParticipantRepository — доступ к записям присутствия в сессии.
type ParticipantRepository interface {
	// Create persists a new participant row.
	Create(ctx context.Context, participant *models.Participant) error

	// GetBySessionAndUser finds the participant record of the user in the
	// session regardless of online flag. Returns models.ErrNotFound when
	// the user never joined.
	GetBySessionAndUser(ctx context.Context, sessionID, userID uuid.UUID) (*models.Participant, error)

	// Update saves the mutable participant fields (character, name, online flag, left_at).
	Update(ctx context.Context, participant *models.Participant) error

	// ListBySession returns the session's participants, optionally only the
	// currently online ones.
	ListBySession(ctx context.Context, sessionID uuid.UUID, onlineOnly bool) ([]models.Participant, error)
}

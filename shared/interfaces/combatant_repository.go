package interfaces

import (
	"context"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// CombatantRepository — доступ к комбатантам сессии.
type CombatantRepository interface {
	// Create persists a new combatant with version 1.
	Create(ctx context.Context, combatant *models.Combatant) error

	// GetByID retrieves a combatant by its unique ID.
	// Returns models.ErrCombatantNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Combatant, error)

	// ListBySession returns the session's combatants ordered by initiative
	// descending, then by creation time (the stable tie-break the turn
	// order is built on). activeOnly skips soft-removed rows.
	ListBySession(ctx context.Context, sessionID uuid.UUID, activeOnly bool) ([]models.Combatant, error)

	// Update saves the combatant using its Version as an optimistic guard:
	// the row is written only if the stored version still matches, and the
	// in-memory Version is bumped on success. A stale version fails with
	// models.ErrVersionConflict and writes nothing.
	Update(ctx context.Context, combatant *models.Combatant) error

	// DeactivateBySession soft-removes every active combatant of the session.
	// Used by end-combat; combat history stays queryable.
	DeactivateBySession(ctx context.Context, sessionID uuid.UUID) error
}

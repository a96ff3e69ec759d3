package mocks

import (
	"context"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock CombatantRepository
type CombatantRepository struct {
	mock.Mock
}

func (m *CombatantRepository) Create(ctx context.Context, combatant *models.Combatant) error {
	args := m.Called(ctx, combatant)
	return args.Error(0)
}
func (m *CombatantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Combatant, error) {
	args := m.Called(ctx, id)
	combatant, _ := args.Get(0).(*models.Combatant)
	return combatant, args.Error(1)
}
func (m *CombatantRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, activeOnly bool) ([]models.Combatant, error) {
	args := m.Called(ctx, sessionID, activeOnly)
	combatants, _ := args.Get(0).([]models.Combatant)
	return combatants, args.Error(1)
}
func (m *CombatantRepository) Update(ctx context.Context, combatant *models.Combatant) error {
	args := m.Called(ctx, combatant)
	return args.Error(0)
}
func (m *CombatantRepository) DeactivateBySession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

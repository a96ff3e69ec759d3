package mocks

import (
	"context"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock CharacterStatsRepository
type CharacterStatsRepository struct {
	mock.Mock
}

func (m *CharacterStatsRepository) GetStats(ctx context.Context, characterID uuid.UUID) (*models.CharacterStats, error) {
	args := m.Called(ctx, characterID)
	stats, _ := args.Get(0).(*models.CharacterStats)
	return stats, args.Error(1)
}
func (m *CharacterStatsRepository) SaveStats(ctx context.Context, stats *models.CharacterStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

// Mock EnemyTemplateRepository
type EnemyTemplateRepository struct {
	mock.Mock
}

func (m *EnemyTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EnemyTemplate, error) {
	args := m.Called(ctx, id)
	tmpl, _ := args.Get(0).(*models.EnemyTemplate)
	return tmpl, args.Error(1)
}

// Mock WorldMembershipRepository
type WorldMembershipRepository struct {
	mock.Mock
}

func (m *WorldMembershipRepository) GetRole(ctx context.Context, worldID, userID uuid.UUID) (models.WorldRole, error) {
	args := m.Called(ctx, worldID, userID)
	role, _ := args.Get(0).(models.WorldRole)
	return role, args.Error(1)
}

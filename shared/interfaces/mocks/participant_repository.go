package mocks

import (
	"context"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock ParticipantRepository
type ParticipantRepository struct {
	mock.Mock
}

func (m *ParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}
func (m *ParticipantRepository) GetBySessionAndUser(ctx context.Context, sessionID, userID uuid.UUID) (*models.Participant, error) {
	args := m.Called(ctx, sessionID, userID)
	participant, _ := args.Get(0).(*models.Participant)
	return participant, args.Error(1)
}
func (m *ParticipantRepository) Update(ctx context.Context, participant *models.Participant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}
func (m *ParticipantRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, onlineOnly bool) ([]models.Participant, error) {
	args := m.Called(ctx, sessionID, onlineOnly)
	participants, _ := args.Get(0).([]models.Participant)
	return participants, args.Error(1)
}

package mocks

import (
	"context"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock SessionRepository
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, session *models.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
func (m *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GameSession, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*models.GameSession)
	return session, args.Error(1)
}
func (m *SessionRepository) Update(ctx context.Context, session *models.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
func (m *SessionRepository) DeactivateForWorld(ctx context.Context, worldID uuid.UUID) error {
	args := m.Called(ctx, worldID)
	return args.Error(0)
}

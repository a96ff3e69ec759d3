package mocks

import (
	"context"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock ChatMessageRepository
type ChatMessageRepository struct {
	mock.Mock
}

func (m *ChatMessageRepository) Append(ctx context.Context, msg *models.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
func (m *ChatMessageRepository) ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, sessionID, limit)
	msgs, _ := args.Get(0).([]models.ChatMessage)
	return msgs, args.Error(1)
}

// Mock DiceRollRepository
type DiceRollRepository struct {
	mock.Mock
}

func (m *DiceRollRepository) Append(ctx context.Context, roll *models.DiceRoll) error {
	args := m.Called(ctx, roll)
	return args.Error(0)
}
func (m *DiceRollRepository) ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.DiceRoll, error) {
	args := m.Called(ctx, sessionID, limit)
	rolls, _ := args.Get(0).([]models.DiceRoll)
	return rolls, args.Error(1)
}

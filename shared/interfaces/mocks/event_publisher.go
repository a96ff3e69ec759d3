package mocks

import (
	"context"

	"mythweaver-server/shared/messaging"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock EventPublisher
type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishSessionEvent(ctx context.Context, sessionID uuid.UUID, event messaging.SessionEvent) error {
	args := m.Called(ctx, sessionID, event)
	return args.Error(0)
}

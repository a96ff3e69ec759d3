package interfaces

import (
	"context"

	"mythweaver-server/shared/messaging"

	"github.com/google/uuid"
)

// EventPublisher публикует события в канал сессии Realtime-транспорта.
// Доставка fire-and-forget, at-most-once: подтверждений нет, подписчики,
// пропустившие событие, восстанавливаются полным снимком состояния.
type EventPublisher interface {
	// PublishSessionEvent emits one event on the session-scoped channel.
	PublishSessionEvent(ctx context.Context, sessionID uuid.UUID, event messaging.SessionEvent) error
}

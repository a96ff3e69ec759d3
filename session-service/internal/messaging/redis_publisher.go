package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"mythweaver-server/shared/interfaces"
	"mythweaver-server/shared/messaging"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure RedisEventPublisher implements EventPublisher
var _ interfaces.EventPublisher = (*RedisEventPublisher)(nil)

// RedisEventPublisher публикует события сессии в Redis pub/sub.
// Доставка at-most-once: Redis не хранит сообщения для отсутствующих
// подписчиков, пропустившие событие клиенты ресинкаются полным снимком.
type RedisEventPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisEventPublisher(client *redis.Client, logger *zap.Logger) *RedisEventPublisher {
	return &RedisEventPublisher{
		client: client,
		logger: logger.Named("RedisEventPublisher"),
	}
}

func (p *RedisEventPublisher) PublishSessionEvent(ctx context.Context, sessionID uuid.UUID, event messaging.SessionEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}

	channel := messaging.SessionChannel(sessionID)
	if err := p.client.Publish(ctx, channel, raw).Err(); err != nil {
		p.logger.Error("Failed to publish session event",
			zap.String("channel", channel),
			zap.String("eventType", event.Type),
			zap.Error(err),
		)
		return fmt.Errorf("publish to %s: %w", channel, err)
	}

	p.logger.Debug("Published session event",
		zap.String("channel", channel),
		zap.String("eventType", event.Type),
	)
	return nil
}

package messaging

import (
	"context"
	"fmt"
	"log"
	"strings"

	sharedMessaging "mythweaver-server/shared/messaging"
	"mythweaver-server/websocket-service/internal/handler"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Consumer отвечает за получение событий сессий из Redis pub/sub и их
// раздачу по комнатам менеджера соединений. Доставка at-most-once:
// pub/sub не хранит сообщения, пропустивший событие клиент
// ресинхронизируется полным снимком состояния.
type Consumer struct {
	client  *redis.Client
	manager *handler.ConnectionManager
}

// NewConsumer создает нового консьюмера событий сессий.
func NewConsumer(client *redis.Client, manager *handler.ConnectionManager) *Consumer {
	return &Consumer{
		client:  client,
		manager: manager,
	}
}

// StartConsuming подписывается по шаблону на каналы всех сессий и
// блокируется до отмены контекста. Запускать в отдельной горутине.
func (c *Consumer) StartConsuming(ctx context.Context) error {
	pubsub := c.client.PSubscribe(ctx, sharedMessaging.SessionChannelPattern)
	defer pubsub.Close()

	// Дожидаемся подтверждения подписки, чтобы не терять события на старте
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("не удалось подписаться на '%s': %w", sharedMessaging.SessionChannelPattern, err)
	}
	log.Printf("Подписка на каналы сессий '%s' установлена", sharedMessaging.SessionChannelPattern)

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				log.Println("Канал сообщений Redis закрыт")
				return nil // Нормальное завершение, если канал закрыт
			}

			sessionID, err := sessionIDFromChannel(msg.Channel)
			if err != nil {
				log.Printf("Пропущено сообщение из канала '%s': %v", msg.Channel, err)
				continue
			}

			// Пересылаем исходный JSON события без переразбора: контракт
			// полезной нагрузки принадлежит оркестратору и клиенту
			c.manager.BroadcastToSession(sessionID, []byte(msg.Payload))

		case <-ctx.Done():
			log.Println("Получен сигнал остановки консьюмера Redis")
			return nil
		}
	}
}

// sessionIDFromChannel извлекает UUID сессии из имени канала "session:<uuid>".
func sessionIDFromChannel(channel string) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(channel, "session:")
	if !ok {
		return uuid.Nil, fmt.Errorf("неожиданное имя канала")
	}
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("невалидный UUID сессии: %w", err)
	}
	return sessionID, nil
}

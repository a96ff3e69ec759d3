package service

import (
	"context"
	"time"

	"mythweaver-server/shared/dice"
	"mythweaver-server/shared/interfaces"
	"mythweaver-server/shared/messaging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	chatHistoryLimit = 100
	rollHistoryLimit = 50
)

// SessionService реализует операции живой сессии: жизненный цикл,
// бой, экономику действий, чат и броски. Каждая операция проверяет
// права вызывающего, мутирует состояние через репозитории и публикует
// ровно одно основное событие в канал сессии.
type SessionService struct {
	sessions     interfaces.SessionRepository
	combatants   interfaces.CombatantRepository
	participants interfaces.ParticipantRepository
	chat         interfaces.ChatMessageRepository
	rolls        interfaces.DiceRollRepository
	stats        interfaces.CharacterStatsRepository
	templates    interfaces.EnemyTemplateRepository
	memberships  interfaces.WorldMembershipRepository
	publisher    interfaces.EventPublisher

	roller dice.Roller
	now    func() time.Time
	logger *zap.Logger
}

// Deps собирает зависимости SessionService, чтобы конструктор не
// разрастался позиционными аргументами.
type Deps struct {
	Sessions     interfaces.SessionRepository
	Combatants   interfaces.CombatantRepository
	Participants interfaces.ParticipantRepository
	Chat         interfaces.ChatMessageRepository
	Rolls        interfaces.DiceRollRepository
	Stats        interfaces.CharacterStatsRepository
	Templates    interfaces.EnemyTemplateRepository
	Memberships  interfaces.WorldMembershipRepository
	Publisher    interfaces.EventPublisher

	// Roller подменяется в тестах; nil означает crypto/rand.
	Roller dice.Roller
	// Now подменяется в тестах; nil означает time.Now.
	Now func() time.Time
}

func NewSessionService(deps Deps, logger *zap.Logger) *SessionService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		sessions:     deps.Sessions,
		combatants:   deps.Combatants,
		participants: deps.Participants,
		chat:         deps.Chat,
		rolls:        deps.Rolls,
		stats:        deps.Stats,
		templates:    deps.Templates,
		memberships:  deps.Memberships,
		publisher:    deps.Publisher,
		roller:       deps.Roller,
		now:          now,
		logger:       logger,
	}
}

// broadcast публикует событие в канал сессии. Ошибка транспорта не
// откатывает уже записанную мутацию: она логируется и возвращается
// как degraded=true, чтобы обработчик пометил ответ инициатору.
// Другие клиенты в этом случае увидят изменение только после
// следующего полного снимка состояния.
func (s *SessionService) broadcast(ctx context.Context, sessionID uuid.UUID, eventType string, payload any) bool {
	event, err := messaging.NewSessionEvent(eventType, sessionID, payload)
	if err != nil {
		s.logger.Error("Failed to build session event",
			zap.String("eventType", eventType),
			zap.String("sessionID", sessionID.String()),
			zap.Error(err),
		)
		return true
	}

	if err := s.publisher.PublishSessionEvent(ctx, sessionID, event); err != nil {
		s.logger.Warn("Broadcast failed, state persisted but not fanned out",
			zap.String("eventType", eventType),
			zap.String("sessionID", sessionID.String()),
			zap.Error(err),
		)
		return true
	}
	return false
}

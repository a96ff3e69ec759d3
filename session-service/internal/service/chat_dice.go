package service

import (
	"context"
	"fmt"
	"strings"

	"mythweaver-server/shared/dice"
	"mythweaver-server/shared/messaging"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

const maxChatBodyLength = 2000

// SendChatMessage добавляет сообщение в чат сессии.
// Отправлять может любой участник, находящийся сейчас в сессии.
func (s *SessionService) SendChatMessage(ctx context.Context, callerID uuid.UUID, callerName string, sessionID uuid.UUID, body string) (*models.ChatMessage, bool, error) {
	if _, err := s.loadActiveSession(ctx, sessionID); err != nil {
		return nil, false, err
	}
	if _, err := s.requireOnlineParticipant(ctx, sessionID, callerID); err != nil {
		return nil, false, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, false, fmt.Errorf("%w: empty chat message", models.ErrInvalidInput)
	}
	if len(body) > maxChatBodyLength {
		return nil, false, fmt.Errorf("%w: chat message exceeds %d characters", models.ErrInvalidInput, maxChatBodyLength)
	}

	msg := &models.ChatMessage{
		ID:         uuid.New(),
		SessionID:  sessionID,
		AuthorID:   callerID,
		AuthorName: callerName,
		Body:       body,
		CreatedAt:  s.now(),
	}
	if err := s.chat.Append(ctx, msg); err != nil {
		return nil, false, err
	}

	degraded := s.broadcast(ctx, sessionID, messaging.EventChatMessage, messaging.ChatMessagePayload{Message: *msg})
	return msg, degraded, nil
}

// RollDice разбирает нотацию <count>d<sides>[±mod], бросает кости и
// сохраняет результат. Бросить может любой участник в сессии.
// Невалидная нотация отклоняется до каких-либо бросков.
func (s *SessionService) RollDice(ctx context.Context, callerID uuid.UUID, callerName string, sessionID uuid.UUID, notation string) (*models.DiceRoll, bool, error) {
	if _, err := s.loadActiveSession(ctx, sessionID); err != nil {
		return nil, false, err
	}
	if _, err := s.requireOnlineParticipant(ctx, sessionID, callerID); err != nil {
		return nil, false, err
	}

	result, err := dice.RollNotation(notation, s.roller)
	if err != nil {
		return nil, false, err
	}

	roll := &models.DiceRoll{
		ID:         uuid.New(),
		SessionID:  sessionID,
		RollerID:   callerID,
		RollerName: callerName,
		Notation:   strings.TrimSpace(notation),
		Rolls:      result.Rolls,
		Modifier:   result.Modifier,
		Total:      result.Total,
		CreatedAt:  s.now(),
	}
	if err := s.rolls.Append(ctx, roll); err != nil {
		return nil, false, err
	}

	degraded := s.broadcast(ctx, sessionID, messaging.EventDiceRoll, messaging.DiceRollPayload{Roll: *roll})
	return roll, degraded, nil
}

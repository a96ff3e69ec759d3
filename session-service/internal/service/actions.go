package service

import (
	"context"
	"fmt"

	"mythweaver-server/shared/economy"
	"mythweaver-server/shared/messaging"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActionRequest — запрошенное действие комбатанта.
type ActionRequest struct {
	Name     string
	Category models.ActionCategory
	Detail   string
}

// TakeAction тратит ресурс хода комбатанта. Действовать может ГМ (за
// любого комбатанта) или игрок, чей персонаж стоит за комбатантом.
// Повторная трата не-free категории до сброса отклоняется с
// models.ErrCategoryUsed. Помимо основного события публикуется
// синтезированная строка боевого журнала в чат.
func (s *SessionService) TakeAction(ctx context.Context, callerID uuid.UUID, callerName string, sessionID, combatantID uuid.UUID, req ActionRequest) (*messaging.ActionTakenPayload, bool, error) {
	session, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if !session.CombatActive {
		return nil, false, models.ErrCombatNotActive
	}
	role, err := s.requireRole(ctx, session.WorldID, callerID)
	if err != nil {
		return nil, false, err
	}

	combatant, err := s.combatants.GetByID(ctx, combatantID)
	if err != nil {
		return nil, false, err
	}
	if combatant.SessionID != sessionID || !combatant.IsActive {
		return nil, false, models.ErrCombatantNotFound
	}

	if role != models.WorldRoleGameMaster {
		owns, err := s.ownsCombatant(ctx, combatant, callerID)
		if err != nil {
			return nil, false, err
		}
		if !owns {
			return nil, false, fmt.Errorf("%w: players may only act for their own character's combatant", models.ErrForbidden)
		}
	}

	econ, err := economy.Spend(combatant.Economy, req.Category)
	if err != nil {
		return nil, false, err
	}

	action := models.TakenAction{
		ActionID: uuid.NewString(),
		Name:     req.Name,
		Category: req.Category,
		Detail:   req.Detail,
		TakenAt:  s.now(),
	}
	combatant.Economy = economy.WithAction(econ, action)
	if err := s.combatants.Update(ctx, combatant); err != nil {
		return nil, false, err
	}

	payload := &messaging.ActionTakenPayload{
		CombatantID: combatantID,
		Action:      action,
		Economy:     combatant.Economy,
	}
	degraded := s.broadcast(ctx, sessionID, messaging.EventActionTaken, payload)

	// Синтезированная запись журнала: один читаемый боевой лог в чате
	body := fmt.Sprintf("**%s** used **%s**", combatant.Name, req.Name)
	if req.Detail != "" {
		body = fmt.Sprintf("%s: %s", body, req.Detail)
	}
	chatDegraded, err := s.appendSystemChat(ctx, sessionID, callerID, callerName, body)
	if err != nil {
		// Действие уже записано; провал записи журнала не откатывает его
		s.logger.Warn("Failed to append combat log chat line", zap.Error(err))
		return payload, degraded, nil
	}

	return payload, degraded || chatDegraded, nil
}

// appendSystemChat сохраняет и рассылает системную строку журнала.
func (s *SessionService) appendSystemChat(ctx context.Context, sessionID, authorID uuid.UUID, authorName, body string) (bool, error) {
	msg := &models.ChatMessage{
		ID:         uuid.New(),
		SessionID:  sessionID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		IsSystem:   true,
		CreatedAt:  s.now(),
	}
	if err := s.chat.Append(ctx, msg); err != nil {
		return false, err
	}
	degraded := s.broadcast(ctx, sessionID, messaging.EventChatMessage, messaging.ChatMessagePayload{Message: *msg})
	return degraded, nil
}

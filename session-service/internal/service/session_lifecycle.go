package service

import (
	"context"
	"errors"
	"fmt"

	"mythweaver-server/shared/messaging"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateSession создает новую сессию мира. Любая другая активная сессия
// мира завершается: инвариант «не более одной активной сессии на мир»
// дополнительно закреплен частичным уникальным индексом в БД.
// Только ГМ. Broadcast не нужен: на канал новой сессии еще никто не подписан.
func (s *SessionService) CreateSession(ctx context.Context, callerID, worldID uuid.UUID, name, location string) (*models.GameSession, error) {
	if err := s.requireGM(ctx, worldID, callerID); err != nil {
		return nil, err
	}

	if err := s.sessions.DeactivateForWorld(ctx, worldID); err != nil {
		return nil, fmt.Errorf("deactivate previous sessions: %w", err)
	}

	session := &models.GameSession{
		ID:       uuid.New(),
		WorldID:  worldID,
		Name:     name,
		IsActive: true,
		Location: location,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Session created",
		zap.String("sessionID", session.ID.String()),
		zap.String("worldID", worldID.String()),
	)
	return session, nil
}

// UpdateSession применяет частичные изменения сессии (имя, локация).
// Только ГМ. Возвращает degraded=true, если broadcast не дошел.
func (s *SessionService) UpdateSession(ctx context.Context, callerID, sessionID uuid.UUID, upd models.SessionUpdate) (*models.GameSession, bool, error) {
	session, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if err := s.requireGM(ctx, session.WorldID, callerID); err != nil {
		return nil, false, err
	}

	if upd.Name != nil {
		session.Name = *upd.Name
	}
	if upd.Location != nil {
		session.Location = *upd.Location
	}
	if upd.IsActive != nil && !*upd.IsActive {
		return nil, false, fmt.Errorf("%w: use the end-session operation to deactivate", models.ErrInvalidInput)
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, false, err
	}

	degraded := s.broadcast(ctx, sessionID, messaging.EventSessionUpdated, messaging.SessionUpdatedPayload{Session: *session})
	return session, degraded, nil
}

// EndSession завершает сессию. Запись не удаляется: сессия помечается
// неактивной со штампом времени. Обратного перехода нет — для новой
// игры создается новая сессия. Активный бой при этом тоже закрывается.
func (s *SessionService) EndSession(ctx context.Context, callerID, sessionID uuid.UUID) (*models.GameSession, bool, error) {
	session, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if err := s.requireGM(ctx, session.WorldID, callerID); err != nil {
		return nil, false, err
	}

	if session.CombatActive {
		if err := s.combatants.DeactivateBySession(ctx, sessionID); err != nil {
			return nil, false, err
		}
	}

	now := s.now()
	session.IsActive = false
	session.CombatActive = false
	session.CurrentTurnID = nil
	session.Round = 0
	session.EndedAt = &now
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, false, err
	}

	degraded := s.broadcast(ctx, sessionID, messaging.EventSessionUpdated, messaging.SessionUpdatedPayload{Session: *session})
	s.logger.Info("Session ended", zap.String("sessionID", sessionID.String()))
	return session, degraded, nil
}

// JoinSession создает или реактивирует запись участника.
// Требуется членство в мире; вход в неактивную сессию невозможен.
func (s *SessionService) JoinSession(ctx context.Context, callerID uuid.UUID, callerName string, sessionID uuid.UUID, characterID *uuid.UUID) (*models.Participant, bool, error) {
	session, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.requireRole(ctx, session.WorldID, callerID); err != nil {
		return nil, false, err
	}

	participant, err := s.participants.GetBySessionAndUser(ctx, sessionID, callerID)
	switch {
	case err == nil:
		// Повторный вход: реактивируем существующую запись
		participant.IsOnline = true
		participant.LeftAt = nil
		participant.Name = callerName
		if characterID != nil {
			participant.CharacterID = characterID
		}
		if err := s.participants.Update(ctx, participant); err != nil {
			return nil, false, err
		}
	case errors.Is(err, models.ErrNotFound):
		participant = &models.Participant{
			ID:          uuid.New(),
			SessionID:   sessionID,
			UserID:      callerID,
			CharacterID: characterID,
			Name:        callerName,
			IsOnline:    true,
		}
		if err := s.participants.Create(ctx, participant); err != nil {
			return nil, false, err
		}
	default:
		return nil, false, err
	}

	degraded := s.broadcast(ctx, sessionID, messaging.EventParticipantJoined, messaging.ParticipantPayload{Participant: *participant})
	return participant, degraded, nil
}

// LeaveSession помечает участника оффлайн со штампом времени выхода.
// Запись сохраняется: история того, кто играл, не теряется.
func (s *SessionService) LeaveSession(ctx context.Context, callerID, sessionID uuid.UUID) (bool, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return false, err
	}

	participant, err := s.participants.GetBySessionAndUser(ctx, sessionID, callerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, models.ErrNotParticipant
		}
		return false, err
	}

	now := s.now()
	participant.IsOnline = false
	participant.LeftAt = &now
	if err := s.participants.Update(ctx, participant); err != nil {
		return false, err
	}

	degraded := s.broadcast(ctx, sessionID, messaging.EventParticipantLeft, messaging.ParticipantPayload{Participant: *participant})
	return degraded, nil
}

// GetSessionState возвращает полный снимок состояния сессии — путь
// ресинхронизации для клиентов, пропустивших события канала.
func (s *SessionService) GetSessionState(ctx context.Context, callerID, sessionID uuid.UUID) (*models.SessionState, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireRole(ctx, session.WorldID, callerID); err != nil {
		return nil, err
	}

	combatants, err := s.combatants.ListBySession(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.ListBySession(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	chat, err := s.chat.ListRecent(ctx, sessionID, chatHistoryLimit)
	if err != nil {
		return nil, err
	}
	rolls, err := s.rolls.ListRecent(ctx, sessionID, rollHistoryLimit)
	if err != nil {
		return nil, err
	}

	return &models.SessionState{
		Session:      *session,
		Combatants:   combatants,
		Participants: participants,
		Chat:         chat,
		Rolls:        rolls,
	}, nil
}

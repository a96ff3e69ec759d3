package service

import (
	"context"
	"errors"
	"fmt"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// requireRole загружает роль вызывающего в мире сессии.
// Не-участник мира получает models.ErrForbidden от репозитория.
func (s *SessionService) requireRole(ctx context.Context, worldID, userID uuid.UUID) (models.WorldRole, error) {
	role, err := s.memberships.GetRole(ctx, worldID, userID)
	if err != nil {
		return "", err
	}
	return role, nil
}

// requireGM проверяет, что вызывающий — ГМ мира сессии.
func (s *SessionService) requireGM(ctx context.Context, worldID, userID uuid.UUID) error {
	role, err := s.requireRole(ctx, worldID, userID)
	if err != nil {
		return err
	}
	if role != models.WorldRoleGameMaster {
		return fmt.Errorf("%w: operation requires the GM role", models.ErrForbidden)
	}
	return nil
}

// loadActiveSession загружает сессию и требует, чтобы она была активна.
func (s *SessionService) loadActiveSession(ctx context.Context, sessionID uuid.UUID) (*models.GameSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, models.ErrSessionNotActive
	}
	return session, nil
}

// requireOnlineParticipant проверяет, что пользователь сейчас в сессии.
func (s *SessionService) requireOnlineParticipant(ctx context.Context, sessionID, userID uuid.UUID) (*models.Participant, error) {
	participant, err := s.participants.GetBySessionAndUser(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotParticipant
		}
		return nil, err
	}
	if !participant.IsOnline {
		return nil, models.ErrNotParticipant
	}
	return participant, nil
}

// ownsCombatant сообщает, стоит ли за комбатантом персонаж, которым
// владеет указанный пользователь. Комбатанты из шаблонов не
// принадлежат никому, кроме ГМа.
func (s *SessionService) ownsCombatant(ctx context.Context, combatant *models.Combatant, userID uuid.UUID) (bool, error) {
	if !combatant.Source.IsCharacter() {
		return false, nil
	}
	stats, err := s.stats.GetStats(ctx, combatant.Source.RefID)
	if err != nil {
		if errors.Is(err, models.ErrCharacterNotFound) {
			// Персонаж удален после добавления в бой
			return false, nil
		}
		return false, err
	}
	return stats.OwnerID == userID, nil
}

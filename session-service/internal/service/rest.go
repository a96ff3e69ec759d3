package service

import (
	"context"
	"fmt"

	"mythweaver-server/shared/messaging"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rest выполняет отдых партии. Длинный отдых восстанавливает HP до
// максимума и обнуляет потраченные ячейки заклинаний у каждого
// персонажа, привязанного к участникам сессии. Короткий отдых только
// публикует нарративную строку в чат, без числовых восстановлений —
// осознанное продуктовое решение, не упущение. Только ГМ.
func (s *SessionService) Rest(ctx context.Context, callerID uuid.UUID, callerName string, sessionID uuid.UUID, restType messaging.RestType) (bool, error) {
	session, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if err := s.requireGM(ctx, session.WorldID, callerID); err != nil {
		return false, err
	}

	var narrative string
	switch restType {
	case messaging.RestLong:
		if err := s.restoreParty(ctx, sessionID); err != nil {
			return false, err
		}
		narrative = "The party takes a long rest. Hit points and spell slots are restored."
	case messaging.RestShort:
		narrative = "The party takes a short rest."
	default:
		return false, fmt.Errorf("%w: unknown rest type %q", models.ErrInvalidInput, restType)
	}

	chatDegraded, err := s.appendSystemChat(ctx, sessionID, callerID, callerName, narrative)
	if err != nil {
		return false, err
	}

	degraded := s.broadcast(ctx, sessionID, messaging.EventRestCompleted, messaging.RestCompletedPayload{Type: restType})
	return degraded || chatDegraded, nil
}

// restoreParty проходит по всем участникам сессии с персонажами и
// восстанавливает каждому полные HP и ячейки заклинаний.
func (s *SessionService) restoreParty(ctx context.Context, sessionID uuid.UUID) error {
	participants, err := s.participants.ListBySession(ctx, sessionID, false)
	if err != nil {
		return err
	}

	for _, p := range participants {
		if p.CharacterID == nil {
			continue
		}
		stats, err := s.stats.GetStats(ctx, *p.CharacterID)
		if err != nil {
			s.logger.Warn("Skipping character during long rest",
				zap.String("characterID", p.CharacterID.String()),
				zap.Error(err),
			)
			continue
		}

		stats.CurrentHP = stats.MaxHP
		for i := range stats.SpellSlots {
			stats.SpellSlots[i].Used = 0
		}
		if err := s.stats.SaveStats(ctx, stats); err != nil {
			return fmt.Errorf("restore character %s: %w", stats.CharacterID, err)
		}
	}
	return nil
}

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

// StartCombat запускает бой в активной сессии. Порядок ходов — по
// убыванию инициативы, ничьи сохраняют порядок добавления (стабильная
// сортировка выполняется на уровне SQL: initiative DESC, created_at ASC).
// Экономика первого комбатанта сбрасывается, остальные не трогаются.
func (s *SessionService) StartCombat(ctx context.Context, callerID, sessionID uuid.UUID) (*messaging.CombatStartedPayload, bool, error) {
	session, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if err := s.requireGM(ctx, session.WorldID, callerID); err != nil {
		return nil, false, err
	}
	if session.CombatActive {
		return nil, false, models.ErrCombatAlreadyActive
	}

	combatants, err := s.combatants.ListBySession(ctx, sessionID, true)
	if err != nil {
		return nil, false, err
	}
	if len(combatants) == 0 {
		return nil, false, models.ErrNoCombatants
	}

	first := &combatants[0]
	first.Economy = economy.Reset(first.Economy)
	if err := s.combatants.Update(ctx, first); err != nil {
		return nil, false, err
	}

	session.CombatActive = true
	session.Round = 1
	session.CurrentTurnID = &first.ID
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, false, err
	}

	payload := &messaging.CombatStartedPayload{
		Combatants:    combatants,
		CurrentTurnID: first.ID,
		Round:         1,
	}
	degraded := s.broadcast(ctx, sessionID, messaging.EventCombatStarted, payload)

	s.logger.Info("Combat started",
		zap.String("sessionID", sessionID.String()),
		zap.Int("combatants", len(combatants)),
	)
	return payload, degraded, nil
}

// AddCombatant добавляет комбатанта в активную сессию. HP/AC снимаются
// с источника в момент добавления (снапшот, не живая ссылка):
// у персонажа — текущие статы, у шаблона — дефолты. Только ГМ.
func (s *SessionService) AddCombatant(ctx context.Context, callerID, sessionID uuid.UUID, source models.CombatantSource, name string, initiative int, showHP bool) (*models.Combatant, bool, error) {
	session, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if err := s.requireGM(ctx, session.WorldID, callerID); err != nil {
		return nil, false, err
	}

	combatant := &models.Combatant{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Source:     source,
		Name:       name,
		Initiative: initiative,
		Statuses:   []string{},
		IsActive:   true,
		ShowHP:     showHP,
		Economy:    economy.Fresh(),
	}

	switch source.Kind {
	case models.SourceCharacter:
		stats, err := s.stats.GetStats(ctx, source.RefID)
		if err != nil {
			return nil, false, err
		}
		combatant.CurrentHP = stats.CurrentHP
		combatant.MaxHP = stats.MaxHP
		combatant.ArmorClass = stats.ArmorClass
		if combatant.Name == "" {
			combatant.Name = stats.Name
		}
	case models.SourceTemplate:
		tmpl, err := s.templates.GetByID(ctx, source.RefID)
		if err != nil {
			return nil, false, err
		}
		combatant.CurrentHP = tmpl.MaxHP
		combatant.MaxHP = tmpl.MaxHP
		combatant.ArmorClass = tmpl.ArmorClass
		if combatant.Name == "" {
			combatant.Name = tmpl.Name
		}
	default:
		return nil, false, fmt.Errorf("%w: unknown combatant source kind %q", models.ErrInvalidInput, source.Kind)
	}

	if err := s.combatants.Create(ctx, combatant); err != nil {
		return nil, false, err
	}

	degraded := s.broadcast(ctx, sessionID, messaging.EventCombatantAdded, messaging.CombatantAddedPayload{Combatant: *combatant})
	return combatant, degraded, nil
}

// RemoveCombatant мягко выводит комбатанта из боя (is_active=false).
// История боя остается доступной. Только ГМ.
func (s *SessionService) RemoveCombatant(ctx context.Context, callerID, sessionID, combatantID uuid.UUID) (bool, error) {
	session, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if err := s.requireGM(ctx, session.WorldID, callerID); err != nil {
		return false, err
	}

	combatant, err := s.combatants.GetByID(ctx, combatantID)
	if err != nil {
		return false, err
	}
	if combatant.SessionID != sessionID {
		return false, models.ErrCombatantNotFound
	}

	combatant.IsActive = false
	if err := s.combatants.Update(ctx, combatant); err != nil {
		return false, err
	}

	degraded := s.broadcast(ctx, sessionID, messaging.EventCombatantRemoved, messaging.CombatantRemovedPayload{CombatantID: combatantID})
	return degraded, nil
}

// UpdateCombatant применяет частичные изменения комбатанта.
// ГМ меняет любые поля. Не-ГМ ограничен: статусы, инициатива,
// активность и видимость HP принадлежат ГМу, а остальные поля игрок
// может менять только у комбатанта, стоящего за его собственным
// персонажем. expectedVersion — версия, которую видел клиент; устаревшая
// версия отклоняется с models.ErrVersionConflict, без записи.
func (s *SessionService) UpdateCombatant(ctx context.Context, callerID, sessionID, combatantID uuid.UUID, upd models.CombatantUpdate, expectedVersion int) (*models.Combatant, bool, error) {
	session, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	role, err := s.requireRole(ctx, session.WorldID, callerID)
	if err != nil {
		return nil, false, err
	}

	combatant, err := s.combatants.GetByID(ctx, combatantID)
	if err != nil {
		return nil, false, err
	}
	if combatant.SessionID != sessionID {
		return nil, false, models.ErrCombatantNotFound
	}

	if role != models.WorldRoleGameMaster {
		if upd.TouchesGMOnlyFields() {
			return nil, false, fmt.Errorf("%w: field is GM-only", models.ErrForbidden)
		}
		owns, err := s.ownsCombatant(ctx, combatant, callerID)
		if err != nil {
			return nil, false, err
		}
		if !owns {
			return nil, false, fmt.Errorf("%w: players may only edit their own character's combatant", models.ErrForbidden)
		}
	}

	upd.ApplyTo(combatant)
	combatant.Version = expectedVersion
	if err := s.combatants.Update(ctx, combatant); err != nil {
		return nil, false, err
	}

	degraded := s.broadcast(ctx, sessionID, messaging.EventCombatantUpdated, messaging.CombatantUpdatedPayload{
		CombatantID: combatantID,
		Changes:     upd,
		Version:     combatant.Version,
	})
	return combatant, degraded, nil
}

// AdvanceTurn переводит ход на следующего комбатанта. Клиент присылает
// только намерение: следующий комбатант и раунд вычисляются здесь, по
// сохраненному порядку инициативы, а не принимаются от клиента.
// При обороте на начало списка раунд увеличивается на единицу.
// Экономика нового текущего комбатанта сбрасывается. Только ГМ.
func (s *SessionService) AdvanceTurn(ctx context.Context, callerID, sessionID uuid.UUID) (*messaging.TurnAdvancedPayload, bool, error) {
	session, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if err := s.requireGM(ctx, session.WorldID, callerID); err != nil {
		return nil, false, err
	}
	if !session.CombatActive {
		return nil, false, models.ErrCombatNotActive
	}

	combatants, err := s.combatants.ListBySession(ctx, sessionID, true)
	if err != nil {
		return nil, false, err
	}
	if len(combatants) == 0 {
		return nil, false, models.ErrNoCombatants
	}

	// Текущий комбатант мог быть удален из боя: тогда ход переходит
	// к началу порядка без увеличения раунда.
	currentIdx := -1
	if session.CurrentTurnID != nil {
		for i := range combatants {
			if combatants[i].ID == *session.CurrentTurnID {
				currentIdx = i
				break
			}
		}
	}

	nextIdx := 0
	round := session.Round
	if currentIdx >= 0 {
		nextIdx = (currentIdx + 1) % len(combatants)
		if nextIdx == 0 {
			round++
		}
	}

	next := &combatants[nextIdx]
	next.Economy = economy.Reset(next.Economy)
	if err := s.combatants.Update(ctx, next); err != nil {
		return nil, false, err
	}

	session.CurrentTurnID = &next.ID
	session.Round = round
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, false, err
	}

	payload := &messaging.TurnAdvancedPayload{CurrentTurnID: next.ID, Round: round}
	degraded := s.broadcast(ctx, sessionID, messaging.EventTurnAdvanced, payload)
	return payload, degraded, nil
}

// EndCombat завершает бой: все комбатанты мягко деактивируются,
// флаги боя сессии сбрасываются. Сессия остается активной,
// бой можно начинать заново сколько угодно раз. Только ГМ.
func (s *SessionService) EndCombat(ctx context.Context, callerID, sessionID uuid.UUID) (bool, error) {
	session, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if err := s.requireGM(ctx, session.WorldID, callerID); err != nil {
		return false, err
	}
	if !session.CombatActive {
		return false, models.ErrCombatNotActive
	}

	if err := s.combatants.DeactivateBySession(ctx, sessionID); err != nil {
		return false, err
	}

	session.CombatActive = false
	session.CurrentTurnID = nil
	session.Round = 0
	if err := s.sessions.Update(ctx, session); err != nil {
		return false, err
	}

	degraded := s.broadcast(ctx, sessionID, messaging.EventCombatEnded, messaging.CombatEndedPayload{SessionID: sessionID})
	s.logger.Info("Combat ended", zap.String("sessionID", sessionID.String()))
	return degraded, nil
}

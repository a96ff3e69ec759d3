package clientsync

import (
	"context"
	"fmt"

	"mythweaver-server/pkg/clientstate"
	"mythweaver-server/shared/economy"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// Orchestrator — операции оркестратора, которые нужны синхронизатору.
// *APIClient реализует его поверх HTTP.
type Orchestrator interface {
	GetState(ctx context.Context, sessionID uuid.UUID) (models.SessionState, error)
	StartCombat(ctx context.Context, sessionID uuid.UUID) (CombatStartResult, error)
	EndCombat(ctx context.Context, sessionID uuid.UUID) (StatusResult, error)
	AdvanceTurn(ctx context.Context, sessionID uuid.UUID) (TurnResult, error)
	AddCombatant(ctx context.Context, sessionID uuid.UUID, req AddCombatantRequest) (CombatantResult, error)
	RemoveCombatant(ctx context.Context, sessionID, combatantID uuid.UUID) (StatusResult, error)
	UpdateCombatant(ctx context.Context, sessionID, combatantID uuid.UUID, changes models.CombatantUpdate, version int) (CombatantResult, error)
	TakeAction(ctx context.Context, sessionID, combatantID uuid.UUID, req TakeActionRequest) (ActionResult, error)
	SendChatMessage(ctx context.Context, sessionID uuid.UUID, body string) (ChatResult, error)
	RollDice(ctx context.Context, sessionID uuid.UUID, notation string) (RollResult, error)
}

var _ Orchestrator = (*APIClient)(nil)

// Synchronizer держит клиентское состояние согласованным с сервером:
// события канала применяются редьюсером, локальные операции уходят в
// оркестратор и их подтвержденный результат применяется к хранилищу,
// не дожидаясь эха broadcast'а (эхо дедуплицируется хранилищем).
// Отклоненная сервером операция ресинкает состояние полным снимком.
//
// Как и само хранилище, Synchronizer рассчитан на один клиентский поток.
type Synchronizer struct {
	store     *clientstate.Store
	api       Orchestrator
	sessionID uuid.UUID
}

// NewSynchronizer создает синхронизатор для одной сессии.
func NewSynchronizer(store *clientstate.Store, api Orchestrator, sessionID uuid.UUID) *Synchronizer {
	return &Synchronizer{
		store:     store,
		api:       api,
		sessionID: sessionID,
	}
}

// Store возвращает клиентское хранилище состояния.
func (s *Synchronizer) Store() *clientstate.Store {
	return s.store
}

// Run применяет события источника к хранилищу до отмены контекста или
// исчерпания источника. Блокирующий вызов.
func (s *Synchronizer) Run(ctx context.Context, source EventSource) error {
	for {
		select {
		case event, ok := <-source.Events():
			if !ok {
				return nil
			}
			// Чужие каналы отфильтрованы подпиской, но проверяем ID
			if event.SessionID == s.sessionID {
				s.store.Apply(event)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Resync заменяет локальное состояние полным серверным снимком —
// выход из любого рассинхрона (пропущенные события, отклоненная операция).
func (s *Synchronizer) Resync(ctx context.Context) error {
	snapshot, err := s.api.GetState(ctx, s.sessionID)
	if err != nil {
		return fmt.Errorf("resync session state: %w", err)
	}
	s.store.ResetFromSnapshot(snapshot)
	return nil
}

// resyncAfterRejection пытается выровнять состояние после отказа
// сервера; исходная ошибка операции важнее ошибки ресинка.
func (s *Synchronizer) resyncAfterRejection(ctx context.Context, opErr error) error {
	_ = s.Resync(ctx)
	return opErr
}

// StartCombat начинает бой и применяет серверный порядок ходов.
func (s *Synchronizer) StartCombat(ctx context.Context) error {
	res, err := s.api.StartCombat(ctx, s.sessionID)
	if err != nil {
		return s.resyncAfterRejection(ctx, err)
	}
	s.store.StartCombat(res.Combatants)
	return nil
}

// EndCombat завершает бой.
func (s *Synchronizer) EndCombat(ctx context.Context) error {
	if _, err := s.api.EndCombat(ctx, s.sessionID); err != nil {
		return s.resyncAfterRejection(ctx, err)
	}
	s.store.EndCombat()
	return nil
}

// AdvanceTurn запрашивает передачу хода и применяет подтвержденные
// сервером ход и раунд.
func (s *Synchronizer) AdvanceTurn(ctx context.Context) error {
	res, err := s.api.AdvanceTurn(ctx, s.sessionID)
	if err != nil {
		return s.resyncAfterRejection(ctx, err)
	}
	s.store.AdvanceTurn(res.CurrentTurnID, res.Round)
	return nil
}

// AddCombatant создает комбатанта и применяет серверную запись.
func (s *Synchronizer) AddCombatant(ctx context.Context, req AddCombatantRequest) (models.Combatant, error) {
	res, err := s.api.AddCombatant(ctx, s.sessionID, req)
	if err != nil {
		return models.Combatant{}, s.resyncAfterRejection(ctx, err)
	}
	s.store.AddCombatant(res.Combatant)
	return res.Combatant, nil
}

// RemoveCombatant оптимистично убирает комбатанта и подтверждает
// удаление на сервере; отказ откатывается ресинком.
func (s *Synchronizer) RemoveCombatant(ctx context.Context, combatantID uuid.UUID) error {
	s.store.RemoveCombatant(combatantID)
	if _, err := s.api.RemoveCombatant(ctx, s.sessionID, combatantID); err != nil {
		return s.resyncAfterRejection(ctx, err)
	}
	return nil
}

// UpdateCombatant оптимистично накладывает изменения и отправляет их
// с ожидаемой версией. Конфликт версий (другой клиент успел раньше)
// откатывается ресинком и возвращается вызывающему как retryable.
func (s *Synchronizer) UpdateCombatant(ctx context.Context, combatantID uuid.UUID, changes models.CombatantUpdate) error {
	current, ok := s.store.State().CombatantByID(combatantID)
	if !ok {
		return models.ErrCombatantNotFound
	}

	s.store.UpdateCombatant(combatantID, changes, current.Version)

	res, err := s.api.UpdateCombatant(ctx, s.sessionID, combatantID, changes, current.Version)
	if err != nil {
		return s.resyncAfterRejection(ctx, err)
	}
	// Подтверждаем серверную версию, чтобы следующая правка не конфликтовала
	s.store.UpdateCombatant(combatantID, models.CombatantUpdate{}, res.Combatant.Version)
	return nil
}

// TakeAction тратит ресурс хода. Предусловие экономики проверяется
// локально до запроса: повторная трата категории отклоняется сразу,
// без обращения к серверу.
func (s *Synchronizer) TakeAction(ctx context.Context, combatantID uuid.UUID, req TakeActionRequest) error {
	if current, ok := s.store.State().CombatantByID(combatantID); ok {
		if _, err := economy.Spend(current.Economy, req.Category); err != nil {
			return err
		}
	}

	res, err := s.api.TakeAction(ctx, s.sessionID, combatantID, req)
	if err != nil {
		return s.resyncAfterRejection(ctx, err)
	}
	s.store.ApplyActionTaken(combatantID, res.Economy)
	return nil
}

// SendChatMessage отправляет сообщение и применяет серверную запись
// (ID и время назначает сервер; эхо broadcast'а дедуплицируется).
func (s *Synchronizer) SendChatMessage(ctx context.Context, body string) (models.ChatMessage, error) {
	res, err := s.api.SendChatMessage(ctx, s.sessionID, body)
	if err != nil {
		return models.ChatMessage{}, err
	}
	s.store.AddChatMessage(res.Message)
	return res.Message, nil
}

// RollDice отправляет бросок и применяет серверный результат.
func (s *Synchronizer) RollDice(ctx context.Context, notation string) (models.DiceRoll, error) {
	res, err := s.api.RollDice(ctx, s.sessionID, notation)
	if err != nil {
		return models.DiceRoll{}, err
	}
	s.store.AddRoll(res.Roll)
	return res.Roll, nil
}

package clientstate

import (
	"mythweaver-server/shared/messaging"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// Store — тонкая обертка над редьюсером, держащая текущее состояние
// одного клиента. Операции ниже — те же переходы, что применяет Reduce
// для событий канала: оптимистичное локальное применение у инициатора
// и эхо broadcast'а проходят один и тот же код, поэтому повторное
// применение безвредно.
//
// Store не потокобезопасен: он рассчитан на владение одним потоком
// (UI-потоком клиента).
type Store struct {
	state State
}

// NewStore создает хранилище с начальным состоянием.
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// State возвращает текущий снимок состояния.
func (s *Store) State() State {
	return s.state
}

// ResetFromSnapshot заменяет состояние полным серверным снимком.
func (s *Store) ResetFromSnapshot(snapshot models.SessionState) {
	s.state = FromSnapshot(snapshot)
}

// Apply применяет событие канала сессии через редьюсер.
func (s *Store) Apply(event messaging.SessionEvent) {
	s.state = Reduce(s.state, event)
}

// StartCombat применяет начало боя локально.
func (s *Store) StartCombat(combatants []models.Combatant) {
	s.state = applyStartCombat(s.state, combatants)
}

// AddCombatant добавляет комбатанта; дубликат по ID — no-op.
func (s *Store) AddCombatant(combatant models.Combatant) {
	s.state = applyAddCombatant(s.state, combatant)
}

// RemoveCombatant убирает комбатанта из живого набора.
func (s *Store) RemoveCombatant(id uuid.UUID) {
	s.state = applyRemoveCombatant(s.state, id)
}

// UpdateCombatant накладывает частичные изменения; отсутствующий ID — no-op.
func (s *Store) UpdateCombatant(id uuid.UUID, changes models.CombatantUpdate, version int) {
	s.state = applyUpdateCombatant(s.state, id, changes, version)
}

// AdvanceTurn выставляет подтвержденные сервером ход и раунд.
func (s *Store) AdvanceTurn(nextID uuid.UUID, round int) {
	s.state = applyAdvanceTurn(s.state, nextID, round)
}

// ApplyActionTaken заменяет экономику комбатанта серверной.
func (s *Store) ApplyActionTaken(combatantID uuid.UUID, econ models.ActionEconomy) {
	s.state = applyActionTaken(s.state, combatantID, econ)
}

// AddChatMessage добавляет сообщение чата с дедупликацией по ID.
func (s *Store) AddChatMessage(msg models.ChatMessage) {
	s.state = applyChatMessage(s.state, msg)
}

// AddRoll добавляет бросок с дедупликацией по ID.
func (s *Store) AddRoll(roll models.DiceRoll) {
	s.state = applyDiceRoll(s.state, roll)
}

// EndCombat завершает бой и очищает живой набор комбатантов.
func (s *Store) EndCombat() {
	s.state = applyEndCombat(s.state)
}

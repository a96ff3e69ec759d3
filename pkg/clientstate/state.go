// Package clientstate реализует клиентское хранилище состояния живой
// сессии. Все мутации проходят через чистый редьюсер (state, event) ->
// state, поэтому переходы тестируются независимо от транспорта.
// Хранилище принадлежит одному клиентскому процессу и рассчитано на
// однопоточный доступ (UI-поток): блокировок нет, согласованность с
// другими клиентами достигается идемпотентными слияниями.
package clientstate

import (
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

const (
	// Лимиты окон истории: старые записи вытесняются первыми,
	// память ограничена даже в многочасовых сессиях.
	chatWindowCap = 100
	rollWindowCap = 50
)

// State — снимок состояния сессии глазами одного клиента.
// Значение неизменяемо: редьюсер возвращает новую копию, слайсы
// никогда не мутируются на месте.
type State struct {
	Session      models.GameSession
	Combatants   []models.Combatant
	Participants []models.Participant
	Chat         []models.ChatMessage
	Rolls        []models.DiceRoll
}

// FromSnapshot строит состояние из полного серверного снимка —
// путь ресинхронизации после пропущенных событий.
func FromSnapshot(snapshot models.SessionState) State {
	return State{
		Session:      snapshot.Session,
		Combatants:   cloneSlice(snapshot.Combatants),
		Participants: cloneSlice(snapshot.Participants),
		Chat:         capTail(cloneSlice(snapshot.Chat), chatWindowCap),
		Rolls:        capTail(cloneSlice(snapshot.Rolls), rollWindowCap),
	}
}

// CombatantByID возвращает комбатанта по ID, если он есть в живом наборе.
func (s State) CombatantByID(id uuid.UUID) (models.Combatant, bool) {
	for _, c := range s.Combatants {
		if c.ID == id {
			return c, true
		}
	}
	return models.Combatant{}, false
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// capTail оставляет не более limit последних элементов.
func capTail[T any](in []T, limit int) []T {
	if len(in) <= limit {
		return in
	}
	return in[len(in)-limit:]
}

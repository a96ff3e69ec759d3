package clientstate

import (
	"encoding/json"
	"sort"

	"mythweaver-server/shared/economy"
	"mythweaver-server/shared/messaging"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// Reduce применяет одно событие канала сессии и возвращает новое
// состояние. Функция чистая и тотальная: неизвестные типы событий и
// неразбираемые полезные нагрузки возвращают состояние без изменений —
// клиент, пропустивший или не понявший событие, выравнивается
// следующим полным снимком.
func Reduce(state State, event messaging.SessionEvent) State {
	switch event.Type {
	case messaging.EventSessionUpdated:
		var p messaging.SessionUpdatedPayload
		if json.Unmarshal(event.Payload, &p) != nil {
			return state
		}
		return applySessionUpdated(state, p.Session)

	case messaging.EventParticipantJoined, messaging.EventParticipantLeft:
		var p messaging.ParticipantPayload
		if json.Unmarshal(event.Payload, &p) != nil {
			return state
		}
		return applyParticipant(state, p.Participant)

	case messaging.EventCombatStarted:
		var p messaging.CombatStartedPayload
		if json.Unmarshal(event.Payload, &p) != nil {
			return state
		}
		return applyStartCombat(state, p.Combatants)

	case messaging.EventCombatantAdded:
		var p messaging.CombatantAddedPayload
		if json.Unmarshal(event.Payload, &p) != nil {
			return state
		}
		return applyAddCombatant(state, p.Combatant)

	case messaging.EventCombatantUpdated:
		var p messaging.CombatantUpdatedPayload
		if json.Unmarshal(event.Payload, &p) != nil {
			return state
		}
		return applyUpdateCombatant(state, p.CombatantID, p.Changes, p.Version)

	case messaging.EventCombatantRemoved:
		var p messaging.CombatantRemovedPayload
		if json.Unmarshal(event.Payload, &p) != nil {
			return state
		}
		return applyRemoveCombatant(state, p.CombatantID)

	case messaging.EventTurnAdvanced:
		var p messaging.TurnAdvancedPayload
		if json.Unmarshal(event.Payload, &p) != nil {
			return state
		}
		return applyAdvanceTurn(state, p.CurrentTurnID, p.Round)

	case messaging.EventActionTaken:
		var p messaging.ActionTakenPayload
		if json.Unmarshal(event.Payload, &p) != nil {
			return state
		}
		return applyActionTaken(state, p.CombatantID, p.Economy)

	case messaging.EventCombatEnded:
		return applyEndCombat(state)

	case messaging.EventChatMessage:
		var p messaging.ChatMessagePayload
		if json.Unmarshal(event.Payload, &p) != nil {
			return state
		}
		return applyChatMessage(state, p.Message)

	case messaging.EventDiceRoll:
		var p messaging.DiceRollPayload
		if json.Unmarshal(event.Payload, &p) != nil {
			return state
		}
		return applyDiceRoll(state, p.Roll)

	case messaging.EventRestCompleted:
		// Статы персонажей живут вне этого снимка: клиент
		// перезапрашивает их сам, состояние сессии не меняется
		return state

	default:
		return state
	}
}

func applySessionUpdated(state State, session models.GameSession) State {
	state.Session = session
	return state
}

// applyParticipant вставляет или заменяет запись участника по ID.
// Один и тот же payload, примененный дважды, дает то же состояние.
func applyParticipant(state State, participant models.Participant) State {
	participants := cloneSlice(state.Participants)
	replaced := false
	for i := range participants {
		if participants[i].ID == participant.ID {
			participants[i] = participant
			replaced = true
			break
		}
	}
	if !replaced {
		participants = append(participants, participant)
	}
	state.Participants = participants
	return state
}

// applyStartCombat сортирует комбатантов по инициативе по убыванию
// (при равенстве сохраняется порядок входа — это наблюдаемая политика
// тай-брейка), выставляет раунд 1 и первый ход, сбрасывает экономику
// только первого комбатанта. Экономика уже известных комбатантов
// сохраняется: слияние, не слепая перезапись.
func applyStartCombat(state State, combatants []models.Combatant) State {
	ordered := cloneSlice(combatants)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Initiative > ordered[j].Initiative
	})

	for i := range ordered {
		if existing, ok := state.CombatantByID(ordered[i].ID); ok {
			ordered[i].Economy = existing.Economy
		}
	}
	if len(ordered) > 0 {
		ordered[0].Economy = economy.Reset(ordered[0].Economy)
		state.Session.CurrentTurnID = &ordered[0].ID
	}

	state.Combatants = ordered
	state.Session.CombatActive = true
	state.Session.Round = 1
	return state
}

// applyAddCombatant игнорирует дубликат по ID: именно это позволяет
// результату операции примениться дважды — оптимистично у инициатора
// и повторно через эхо broadcast'а.
func applyAddCombatant(state State, combatant models.Combatant) State {
	if _, ok := state.CombatantByID(combatant.ID); ok {
		return state
	}
	combatants := cloneSlice(state.Combatants)
	state.Combatants = append(combatants, combatant)
	return state
}

func applyRemoveCombatant(state State, id uuid.UUID) State {
	combatants := make([]models.Combatant, 0, len(state.Combatants))
	for _, c := range state.Combatants {
		if c.ID != id {
			combatants = append(combatants, c)
		}
	}
	state.Combatants = combatants
	return state
}

// applyUpdateCombatant накладывает частичные изменения shallow-merge'ем.
// Отсутствующий ID — no-op: терпит доставку после удаления.
func applyUpdateCombatant(state State, id uuid.UUID, changes models.CombatantUpdate, version int) State {
	combatants := cloneSlice(state.Combatants)
	for i := range combatants {
		if combatants[i].ID == id {
			changes.ApplyTo(&combatants[i])
			if version > combatants[i].Version {
				combatants[i].Version = version
			}
			state.Combatants = combatants
			return state
		}
	}
	return state
}

// applyAdvanceTurn принимает подтвержденные сервером ход и раунд как
// есть: клиент порядок не пересчитывает. Сбрасывается экономика только
// нового текущего комбатанта.
func applyAdvanceTurn(state State, nextID uuid.UUID, round int) State {
	combatants := cloneSlice(state.Combatants)
	for i := range combatants {
		if combatants[i].ID == nextID {
			combatants[i].Economy = economy.Reset(combatants[i].Economy)
			break
		}
	}
	state.Combatants = combatants
	state.Session.CurrentTurnID = &nextID
	state.Session.Round = round
	return state
}

// applyActionTaken заменяет экономику комбатанта итоговой серверной.
// Повторная доставка ставит ту же экономику — естественно идемпотентно.
func applyActionTaken(state State, combatantID uuid.UUID, econ models.ActionEconomy) State {
	combatants := cloneSlice(state.Combatants)
	for i := range combatants {
		if combatants[i].ID == combatantID {
			combatants[i].Economy = econ
			state.Combatants = combatants
			return state
		}
	}
	return state
}

func applyEndCombat(state State) State {
	state.Combatants = nil
	state.Session.CombatActive = false
	state.Session.CurrentTurnID = nil
	state.Session.Round = 0
	return state
}

// applyChatMessage добавляет сообщение с дедупликацией по ID и
// вытеснением старых за пределами окна.
func applyChatMessage(state State, msg models.ChatMessage) State {
	for _, existing := range state.Chat {
		if existing.ID == msg.ID {
			return state
		}
	}
	chat := append(cloneSlice(state.Chat), msg)
	state.Chat = capTail(chat, chatWindowCap)
	return state
}

func applyDiceRoll(state State, roll models.DiceRoll) State {
	for _, existing := range state.Rolls {
		if existing.ID == roll.ID {
			return state
		}
	}
	rolls := append(cloneSlice(state.Rolls), roll)
	state.Rolls = capTail(rolls, rollWindowCap)
	return state
}

package messaging

import (
	"encoding/json"
	"fmt"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// SessionEvent — конверт события канала сессии.
// Payload — типизированная структура ниже, сериализованная в JSON.
type SessionEvent struct {
	Type      string          `json:"type"`
	SessionID uuid.UUID       `json:"session_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewSessionEvent собирает конверт, сериализуя payload.
func NewSessionEvent(eventType string, sessionID uuid.UUID, payload any) (SessionEvent, error) {
	ev := SessionEvent{Type: eventType, SessionID: sessionID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return SessionEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		ev.Payload = raw
	}
	return ev, nil
}

// SessionUpdatedPayload — изменение полей сессии (локация, активность, имя).
type SessionUpdatedPayload struct {
	Session models.GameSession `json:"session"`
}

// ParticipantPayload — вход/выход участника.
type ParticipantPayload struct {
	Participant models.Participant `json:"participant"`
}

// CombatStartedPayload — начало боя: отсортированный порядок, первый ход.
type CombatStartedPayload struct {
	Combatants    []models.Combatant `json:"combatants"`
	CurrentTurnID uuid.UUID          `json:"current_turn_id"`
	Round         int                `json:"round"`
}

// CombatantAddedPayload — новый комбатант в энкаунтере.
type CombatantAddedPayload struct {
	Combatant models.Combatant `json:"combatant"`
}

// CombatantUpdatedPayload — частичные изменения комбатанта.
// Клиент накладывает Changes shallow-merge'ем (см. Combat State Store).
type CombatantUpdatedPayload struct {
	CombatantID uuid.UUID              `json:"combatant_id"`
	Changes     models.CombatantUpdate `json:"changes"`
	Version     int                    `json:"version"`
}

// CombatantRemovedPayload — мягкое удаление комбатанта из живого набора.
type CombatantRemovedPayload struct {
	CombatantID uuid.UUID `json:"combatant_id"`
}

// TurnAdvancedPayload — подтвержденные сервером следующий ход и раунд.
type TurnAdvancedPayload struct {
	CurrentTurnID uuid.UUID `json:"current_turn_id"`
	Round         int       `json:"round"`
}

// ActionTakenPayload — потраченный ресурс хода и итоговая экономика.
type ActionTakenPayload struct {
	CombatantID uuid.UUID            `json:"combatant_id"`
	Action      models.TakenAction   `json:"action"`
	Economy     models.ActionEconomy `json:"economy"`
}

// CombatEndedPayload — завершение боя.
type CombatEndedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
}

// ChatMessagePayload — новое сообщение чата (включая синтезированные).
type ChatMessagePayload struct {
	Message models.ChatMessage `json:"message"`
}

// DiceRollPayload — новый бросок костей.
type DiceRollPayload struct {
	Roll models.DiceRoll `json:"roll"`
}

// RestType определяет тип отдыха.
type RestType string

const (
	RestShort RestType = "short"
	RestLong  RestType = "long"
)

// RestCompletedPayload — завершенный отдых. При длинном отдыхе клиенты
// перезапрашивают статы персонажей; короткий отдых чисто нарративный.
type RestCompletedPayload struct {
	Type RestType `json:"type"`
}

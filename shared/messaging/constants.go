package messaging

import (
	"fmt"

	"github.com/google/uuid"
)

// Имена событий realtime-канала сессии.
// Каждая мутирующая операция оркестратора публикует ровно одно основное
// событие; take-action дополнительно публикует синтезированное chat_message.
const (
	EventSessionUpdated    = "session_updated"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventCombatStarted     = "combat_started"
	EventCombatantAdded    = "combatant_added"
	EventCombatantUpdated  = "combatant_updated"
	EventCombatantRemoved  = "combatant_removed"
	EventTurnAdvanced      = "turn_advanced"
	EventActionTaken       = "action_taken"
	EventCombatEnded       = "combat_ended"
	EventChatMessage       = "chat_message"
	EventDiceRoll          = "dice_roll"
	EventRestCompleted     = "rest_completed"
)

// SessionChannelPattern — шаблон подписки на каналы всех сессий.
const SessionChannelPattern = "session:*"

// SessionChannel возвращает имя pub/sub канала, скоупленного на сессию.
func SessionChannel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s", sessionID)
}

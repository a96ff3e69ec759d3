package handler

import (
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// --- Request DTOs ---

type createSessionRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Location string `json:"location" binding:"max=500"`
}

type updateSessionRequest struct {
	Name     *string `json:"name,omitempty"`
	Location *string `json:"location,omitempty"`
}

type joinSessionRequest struct {
	CharacterID *uuid.UUID `json:"character_id,omitempty"`
}

type addCombatantRequest struct {
	SourceKind models.SourceKind `json:"source_kind" binding:"required"`
	RefID      uuid.UUID         `json:"ref_id" binding:"required"`
	Name       string            `json:"name" binding:"max=100"`
	Initiative int               `json:"initiative"`
	ShowHP     bool              `json:"show_hp"`
}

type updateCombatantRequest struct {
	models.CombatantUpdate
	// Версия, которую клиент видел перед правкой; защита от
	// одновременной перезаписи чужого изменения.
	Version int `json:"version" binding:"required,min=1"`
}

type takeActionRequest struct {
	Name     string                `json:"name" binding:"required,max=100"`
	Category models.ActionCategory `json:"category" binding:"required"`
	Detail   string                `json:"detail" binding:"max=500"`
}

type chatMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

type diceRollRequest struct {
	Notation string `json:"notation" binding:"required,max=20"`
}

type restRequest struct {
	Type string `json:"type" binding:"required,oneof=short long"`
}

// --- Response DTOs ---

// broadcastStatus замешивается в ответы мутирующих операций.
// degraded=true означает: изменение записано, но рассылка события не
// удалась — другие клиенты увидят его после ресинка полным снимком.
type broadcastStatus struct {
	BroadcastDegraded bool `json:"broadcast_degraded,omitempty"`
}

type sessionResponse struct {
	Session models.GameSession `json:"session"`
	broadcastStatus
}

type participantResponse struct {
	Participant models.Participant `json:"participant"`
	broadcastStatus
}

type combatantResponse struct {
	Combatant models.Combatant `json:"combatant"`
	broadcastStatus
}

type statusResponse struct {
	Status string `json:"status"`
	broadcastStatus
}

// Package clientsync связывает клиентское хранилище состояния с
// оркестратором сессий и realtime-каналом: события канала применяются
// через редьюсер, локальные операции уходят HTTP-вызовами с
// оптимистичным применением и ресинком полным снимком при отказе.
package clientsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// APIError — ошибка оркестратора с HTTP-статусом и кодом из тела ответа.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("orchestrator: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsConflict сообщает, является ли ошибка конфликтом версий или
// предусловий (HTTP 409) — такие ошибки разрешаются ресинком и повтором.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

// APIClient — HTTP клиент оркестратора сессий.
type APIClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewAPIClient создает клиент оркестратора.
// baseURL без завершающего слеша, token — JWT для заголовка Authorization.
func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// --- Типы ответов оркестратора ---

type SessionResult struct {
	Session           models.GameSession `json:"session"`
	BroadcastDegraded bool               `json:"broadcast_degraded"`
}

type ParticipantResult struct {
	Participant       models.Participant `json:"participant"`
	BroadcastDegraded bool               `json:"broadcast_degraded"`
}

type CombatantResult struct {
	Combatant         models.Combatant `json:"combatant"`
	BroadcastDegraded bool             `json:"broadcast_degraded"`
}

type CombatStartResult struct {
	Combatants        []models.Combatant `json:"combatants"`
	CurrentTurnID     uuid.UUID          `json:"current_turn_id"`
	Round             int                `json:"round"`
	BroadcastDegraded bool               `json:"broadcast_degraded"`
}

type TurnResult struct {
	CurrentTurnID     uuid.UUID `json:"current_turn_id"`
	Round             int       `json:"round"`
	BroadcastDegraded bool      `json:"broadcast_degraded"`
}

type ActionResult struct {
	Action            models.TakenAction   `json:"action"`
	Economy           models.ActionEconomy `json:"economy"`
	BroadcastDegraded bool                 `json:"broadcast_degraded"`
}

type ChatResult struct {
	Message           models.ChatMessage `json:"message"`
	BroadcastDegraded bool               `json:"broadcast_degraded"`
}

type RollResult struct {
	Roll              models.DiceRoll `json:"roll"`
	BroadcastDegraded bool            `json:"broadcast_degraded"`
}

type StatusResult struct {
	Status            string `json:"status"`
	BroadcastDegraded bool   `json:"broadcast_degraded"`
}

// --- Тела запросов ---

type AddCombatantRequest struct {
	SourceKind models.SourceKind `json:"source_kind"`
	RefID      uuid.UUID         `json:"ref_id"`
	Name       string            `json:"name,omitempty"`
	Initiative int               `json:"initiative"`
	ShowHP     bool              `json:"show_hp"`
}

type TakeActionRequest struct {
	Name     string                `json:"name"`
	Category models.ActionCategory `json:"category"`
	Detail   string                `json:"detail,omitempty"`
}

type updateCombatantBody struct {
	models.CombatantUpdate
	Version int `json:"version"`
}

// do выполняет запрос и декодирует JSON ответа в out (если out != nil).
func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp models.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetState запрашивает полный снимок состояния сессии.
func (c *APIClient) GetState(ctx context.Context, sessionID uuid.UUID) (models.SessionState, error) {
	var state models.SessionState
	err := c.do(ctx, http.MethodGet, "/api/sessions/"+sessionID.String(), nil, &state)
	return state, err
}

// JoinSession входит в сессию, опционально привязывая персонажа.
func (c *APIClient) JoinSession(ctx context.Context, sessionID uuid.UUID, characterID *uuid.UUID) (ParticipantResult, error) {
	var res ParticipantResult
	body := map[string]any{}
	if characterID != nil {
		body["character_id"] = characterID
	}
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID.String()+"/join", body, &res)
	return res, err
}

// LeaveSession помечает участника оффлайн.
func (c *APIClient) LeaveSession(ctx context.Context, sessionID uuid.UUID) (StatusResult, error) {
	var res StatusResult
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID.String()+"/leave", nil, &res)
	return res, err
}

// StartCombat начинает бой в сессии.
func (c *APIClient) StartCombat(ctx context.Context, sessionID uuid.UUID) (CombatStartResult, error) {
	var res CombatStartResult
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID.String()+"/combat/start", nil, &res)
	return res, err
}

// EndCombat завершает бой.
func (c *APIClient) EndCombat(ctx context.Context, sessionID uuid.UUID) (StatusResult, error) {
	var res StatusResult
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID.String()+"/combat/end", nil, &res)
	return res, err
}

// AdvanceTurn передает ход следующему комбатанту (вычисляет сервер).
func (c *APIClient) AdvanceTurn(ctx context.Context, sessionID uuid.UUID) (TurnResult, error) {
	var res TurnResult
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID.String()+"/combat/advance-turn", nil, &res)
	return res, err
}

// AddCombatant добавляет комбатанта из персонажа или шаблона врага.
func (c *APIClient) AddCombatant(ctx context.Context, sessionID uuid.UUID, req AddCombatantRequest) (CombatantResult, error) {
	var res CombatantResult
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID.String()+"/combatants", req, &res)
	return res, err
}

// RemoveCombatant мягко выводит комбатанта из боя.
func (c *APIClient) RemoveCombatant(ctx context.Context, sessionID, combatantID uuid.UUID) (StatusResult, error) {
	var res StatusResult
	err := c.do(ctx, http.MethodDelete, "/api/sessions/"+sessionID.String()+"/combatants/"+combatantID.String(), nil, &res)
	return res, err
}

// UpdateCombatant применяет частичные изменения с проверкой версии.
func (c *APIClient) UpdateCombatant(ctx context.Context, sessionID, combatantID uuid.UUID, changes models.CombatantUpdate, version int) (CombatantResult, error) {
	var res CombatantResult
	body := updateCombatantBody{CombatantUpdate: changes, Version: version}
	err := c.do(ctx, http.MethodPatch, "/api/sessions/"+sessionID.String()+"/combatants/"+combatantID.String(), body, &res)
	return res, err
}

// TakeAction тратит ресурс хода комбатанта.
func (c *APIClient) TakeAction(ctx context.Context, sessionID, combatantID uuid.UUID, req TakeActionRequest) (ActionResult, error) {
	var res ActionResult
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID.String()+"/combatants/"+combatantID.String()+"/actions", req, &res)
	return res, err
}

// SendChatMessage отправляет сообщение в чат сессии.
func (c *APIClient) SendChatMessage(ctx context.Context, sessionID uuid.UUID, body string) (ChatResult, error) {
	var res ChatResult
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID.String()+"/chat", map[string]string{"body": body}, &res)
	return res, err
}

// RollDice отправляет бросок в нотации <count>d<sides>[+|-mod].
func (c *APIClient) RollDice(ctx context.Context, sessionID uuid.UUID, notation string) (RollResult, error) {
	var res RollResult
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID.String()+"/rolls", map[string]string{"notation": notation}, &res)
	return res, err
}

// Rest запускает короткий или длинный отдых.
func (c *APIClient) Rest(ctx context.Context, sessionID uuid.UUID, restType string) (StatusResult, error) {
	var res StatusResult
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+sessionID.String()+"/rest", map[string]string{"type": restType}, &res)
	return res, err
}

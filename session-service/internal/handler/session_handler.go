package handler

import (
	"net/http"

	"mythweaver-server/session-service/internal/service"
	"mythweaver-server/shared/messaging"
	"mythweaver-server/shared/middleware"
	"mythweaver-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler handles HTTP requests of the session orchestrator.
type SessionHandler struct {
	svc *service.SessionService
}

func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// RegisterRoutes вешает маршруты оркестратора. authMiddleware обязателен
// для всего API; chatLimiter дополнительно ограничивает чат и броски.
func (h *SessionHandler) RegisterRoutes(router *gin.Engine, authMiddleware, chatLimiter gin.HandlerFunc) {
	api := router.Group("/api", authMiddleware)

	api.POST("/worlds/:world_id/sessions", h.createSession)

	sessions := api.Group("/sessions/:session_id")
	{
		sessions.GET("", h.getSessionState)
		sessions.PATCH("", h.updateSession)
		sessions.POST("/end", h.endSession)
		sessions.POST("/join", h.joinSession)
		sessions.POST("/leave", h.leaveSession)

		sessions.POST("/combat/start", h.startCombat)
		sessions.POST("/combat/end", h.endCombat)
		sessions.POST("/combat/advance-turn", h.advanceTurn)

		sessions.POST("/combatants", h.addCombatant)
		sessions.PATCH("/combatants/:combatant_id", h.updateCombatant)
		sessions.DELETE("/combatants/:combatant_id", h.removeCombatant)
		sessions.POST("/combatants/:combatant_id/actions", h.takeAction)

		sessions.POST("/chat", chatLimiter, h.sendChatMessage)
		sessions.POST("/rolls", chatLimiter, h.rollDice)
		sessions.POST("/rest", h.rest)
	}
}

// caller извлекает аутентифицированного пользователя из контекста.
func caller(c *gin.Context) (uuid.UUID, string, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Authentication required"})
		return uuid.Nil, "", false
	}
	return userID, middleware.DisplayNameFromContext(c), true
}

func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func (h *SessionHandler) createSession(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	worldID, ok := pathUUID(c, "world_id")
	if !ok {
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()})
		return
	}

	session, err := h.svc.CreateSession(c.Request.Context(), userID, worldID, req.Name, req.Location)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{Session: *session})
}

func (h *SessionHandler) getSessionState(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	state, err := h.svc.GetSessionState(c.Request.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) updateSession(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()})
		return
	}

	session, degraded, err := h.svc.UpdateSession(c.Request.Context(), userID, sessionID, models.SessionUpdate{
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	trackBroadcast(degraded)
	c.JSON(http.StatusOK, sessionResponse{Session: *session, broadcastStatus: broadcastStatus{BroadcastDegraded: degraded}})
}

func (h *SessionHandler) endSession(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	session, degraded, err := h.svc.EndSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	trackBroadcast(degraded)
	c.JSON(http.StatusOK, sessionResponse{Session: *session, broadcastStatus: broadcastStatus{BroadcastDegraded: degraded}})
}

func (h *SessionHandler) joinSession(c *gin.Context) {
	userID, userName, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	var req joinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()})
		return
	}

	participant, degraded, err := h.svc.JoinSession(c.Request.Context(), userID, userName, sessionID, req.CharacterID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	trackBroadcast(degraded)
	c.JSON(http.StatusOK, participantResponse{Participant: *participant, broadcastStatus: broadcastStatus{BroadcastDegraded: degraded}})
}

func (h *SessionHandler) leaveSession(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	degraded, err := h.svc.LeaveSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	trackBroadcast(degraded)
	c.JSON(http.StatusOK, statusResponse{Status: "left", broadcastStatus: broadcastStatus{BroadcastDegraded: degraded}})
}

func (h *SessionHandler) startCombat(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	payload, degraded, err := h.svc.StartCombat(c.Request.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	combatsStartedTotal.Inc()
	trackBroadcast(degraded)
	c.JSON(http.StatusOK, gin.H{
		"combatants":         payload.Combatants,
		"current_turn_id":    payload.CurrentTurnID,
		"round":              payload.Round,
		"broadcast_degraded": degraded,
	})
}

func (h *SessionHandler) endCombat(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	degraded, err := h.svc.EndCombat(c.Request.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	trackBroadcast(degraded)
	c.JSON(http.StatusOK, statusResponse{Status: "combat_ended", broadcastStatus: broadcastStatus{BroadcastDegraded: degraded}})
}

func (h *SessionHandler) advanceTurn(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	payload, degraded, err := h.svc.AdvanceTurn(c.Request.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	turnsAdvancedTotal.Inc()
	trackBroadcast(degraded)
	c.JSON(http.StatusOK, gin.H{
		"current_turn_id":    payload.CurrentTurnID,
		"round":              payload.Round,
		"broadcast_degraded": degraded,
	})
}

func (h *SessionHandler) addCombatant(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	var req addCombatantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()})
		return
	}

	source := models.CombatantSource{Kind: req.SourceKind, RefID: req.RefID}
	combatant, degraded, err := h.svc.AddCombatant(c.Request.Context(), userID, sessionID, source, req.Name, req.Initiative, req.ShowHP)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	trackBroadcast(degraded)
	c.JSON(http.StatusCreated, combatantResponse{Combatant: *combatant, broadcastStatus: broadcastStatus{BroadcastDegraded: degraded}})
}

func (h *SessionHandler) updateCombatant(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}
	combatantID, ok := pathUUID(c, "combatant_id")
	if !ok {
		return
	}

	var req updateCombatantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()})
		return
	}

	combatant, degraded, err := h.svc.UpdateCombatant(c.Request.Context(), userID, sessionID, combatantID, req.CombatantUpdate, req.Version)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	trackBroadcast(degraded)
	c.JSON(http.StatusOK, combatantResponse{Combatant: *combatant, broadcastStatus: broadcastStatus{BroadcastDegraded: degraded}})
}

func (h *SessionHandler) removeCombatant(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}
	combatantID, ok := pathUUID(c, "combatant_id")
	if !ok {
		return
	}

	degraded, err := h.svc.RemoveCombatant(c.Request.Context(), userID, sessionID, combatantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	trackBroadcast(degraded)
	c.JSON(http.StatusOK, statusResponse{Status: "removed", broadcastStatus: broadcastStatus{BroadcastDegraded: degraded}})
}

func (h *SessionHandler) takeAction(c *gin.Context) {
	userID, userName, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}
	combatantID, ok := pathUUID(c, "combatant_id")
	if !ok {
		return
	}

	var req takeActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()})
		return
	}
	if !req.Category.IsValid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Unknown action category"})
		return
	}

	payload, degraded, err := h.svc.TakeAction(c.Request.Context(), userID, userName, sessionID, combatantID, service.ActionRequest{
		Name:     req.Name,
		Category: req.Category,
		Detail:   req.Detail,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	actionsTakenTotal.WithLabelValues(string(req.Category)).Inc()
	trackBroadcast(degraded)
	c.JSON(http.StatusOK, gin.H{
		"action":             payload.Action,
		"economy":            payload.Economy,
		"broadcast_degraded": degraded,
	})
}

func (h *SessionHandler) sendChatMessage(c *gin.Context) {
	userID, userName, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()})
		return
	}

	msg, degraded, err := h.svc.SendChatMessage(c.Request.Context(), userID, userName, sessionID, req.Body)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	trackBroadcast(degraded)
	c.JSON(http.StatusCreated, gin.H{"message": msg, "broadcast_degraded": degraded})
}

func (h *SessionHandler) rollDice(c *gin.Context) {
	userID, userName, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	var req diceRollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()})
		return
	}

	roll, degraded, err := h.svc.RollDice(c.Request.Context(), userID, userName, sessionID, req.Notation)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	diceRolledTotal.Inc()
	trackBroadcast(degraded)
	c.JSON(http.StatusCreated, gin.H{"roll": roll, "broadcast_degraded": degraded})
}

func (h *SessionHandler) rest(c *gin.Context) {
	userID, userName, ok := caller(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	var req restRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()})
		return
	}

	degraded, err := h.svc.Rest(c.Request.Context(), userID, userName, sessionID, messaging.RestType(req.Type))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	trackBroadcast(degraded)
	c.JSON(http.StatusOK, statusResponse{Status: "rest_completed", broadcastStatus: broadcastStatus{BroadcastDegraded: degraded}})
}

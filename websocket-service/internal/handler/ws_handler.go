package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mythweaver-server/shared/models"
	"mythweaver-server/websocket-service/internal/service"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Отправлять пинги клиенту с этим периодом. Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер сообщения, разрешенный от клиента.
	maxMessageSize = 512
)

// WebSocketHandler обрабатывает запросы на подписку к каналу сессии.
type WebSocketHandler struct {
	manager    *ConnectionManager
	authorizer *service.ChannelAuthorizer
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

// NewWebSocketHandler создает новый обработчик WebSocket.
// allowedOrigins — список разрешенных Origin; "*" отключает проверку.
func NewWebSocketHandler(manager *ConnectionManager, authorizer *service.ChannelAuthorizer, allowedOrigins []string, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:    manager,
		authorizer: authorizer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.With().Str("component", "WebSocketHandler").Logger(),
	}
}

// originChecker сверяет Origin запроса со списком разрешенных.
// Запросы без Origin (не из браузера) пропускаются.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// authorizeStatus переводит ошибку авторизации подписки в HTTP статус.
func authorizeStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrSessionNotActive):
		return http.StatusConflict
	default:
		return http.StatusForbidden
	}
}

// ServeWS обрабатывает входящий HTTP запрос GET /ws/sessions/{session_id}.
// Токен передается query-параметром: браузерный WebSocket API не
// позволяет выставить заголовок Authorization.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("session_id"))
	if err != nil {
		h.logger.Warn().Str("raw", r.PathValue("session_id")).Msg("Invalid session_id in path")
		models.SendJSONError(w, "invalid session id", http.StatusBadRequest)
		return
	}

	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		h.logger.Warn().Msg("Missing 'token' query parameter")
		models.SendJSONError(w, "missing token", http.StatusUnauthorized)
		return
	}

	// Проверяем токен, активность сессии и членство в мире до апгрейда
	claims, err := h.authorizer.Authorize(r.Context(), tokenString, sessionID)
	if err != nil {
		h.logger.Warn().Err(err).Str("sessionID", sessionID.String()).Msg("Channel subscription rejected")
		models.SendJSONError(w, err.Error(), authorizeStatus(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("userID", claims.UserID.String()).Msg("Failed to upgrade connection")
		// Не пишем ошибку в http.ResponseWriter, так как upgrader уже это сделал
		return
	}

	h.logger.Info().
		Str("userID", claims.UserID.String()).
		Str("sessionID", sessionID.String()).
		Msg("WebSocket connection established")

	client := &Client{
		UserID:    claims.UserID,
		SessionID: sessionID,
		Conn:      conn,
		send:      make(chan []byte, 256), // Буферизованный канал для отправки
	}

	h.manager.RegisterClient(client)

	clientLogger := h.logger.With().
		Str("userID", claims.UserID.String()).
		Str("sessionID", sessionID.String()).
		Logger()
	go client.writePump(clientLogger)
	go client.readPump(h.manager, clientLogger)
}

// readPump откачивает сообщения от WebSocket соединения. Канал сессии
// односторонний: все, что клиент присылает сам, игнорируется.
func (c *Client) readPump(manager *ConnectionManager, logger zerolog.Logger) {
	defer func() {
		manager.UnregisterClient(c)
		_ = c.Conn.Close() // Закрываем соединение при выходе из readPump
		logger.Info().Msg("readPump finished")
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Msg("WebSocket read error")
			} else {
				logger.Info().Msg("WebSocket connection closed (expected)")
			}
			break
		}
		logger.Warn().Bytes("message", message).Msg("Received unexpected message from client (ignored)")
	}
}

// writePump откачивает сообщения из канала send в WebSocket соединение.
func (c *Client) writePump(logger zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		logger.Info().Msg("writePump finished")
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				logger.Info().Msg("Send channel closed, sending CloseMessage")
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Каждое событие уходит отдельным текстовым фреймом: клиентский
			// редьюсер применяет события строго по одному
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error().Err(err).Msg("Failed to write message")
				return
			}

			// Досылаем накопившуюся очередь за тот же проход
			n := len(c.send)
			for i := 0; i < n; i++ {
				queued := <-c.send
				if err := c.Conn.WriteMessage(websocket.TextMessage, queued); err != nil {
					logger.Error().Err(err).Msg("Failed to write queued message")
					return
				}
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn().Err(err).Msg("Failed to send ping")
				return
			}
		}
	}
}

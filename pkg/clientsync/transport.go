package clientsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"mythweaver-server/shared/messaging"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// EventSource — поток событий канала одной сессии. Канал закрывается,
// когда источник исчерпан (соединение разорвано или Close вызван).
type EventSource interface {
	Events() <-chan messaging.SessionEvent
	Close() error
}

// WSEventSource читает события сессии из WebSocket соединения с
// fan-out сервисом. Нечитаемые кадры пропускаются: клиент, не
// понявший событие, выравнивается следующим полным снимком.
type WSEventSource struct {
	conn   *websocket.Conn
	events chan messaging.SessionEvent
}

var _ EventSource = (*WSEventSource)(nil)

// DialSession подключается к каналу сессии fan-out сервиса.
// baseURL в формате ws://host:port (или wss://), токен уходит
// query-параметром — браузерный WebSocket API не умеет заголовки.
func DialSession(ctx context.Context, baseURL string, sessionID uuid.UUID, token string) (*WSEventSource, error) {
	endpoint := fmt.Sprintf("%s/ws/sessions/%s?token=%s", baseURL, sessionID, url.QueryEscape(token))

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial session channel: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial session channel: %w", err)
	}

	s := &WSEventSource{
		conn:   conn,
		events: make(chan messaging.SessionEvent, 64),
	}
	go s.readLoop()
	return s, nil
}

func (s *WSEventSource) readLoop() {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var event messaging.SessionEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}
		s.events <- event
	}
}

// Events возвращает канал входящих событий сессии.
func (s *WSEventSource) Events() <-chan messaging.SessionEvent {
	return s.events
}

// Close разрывает соединение; канал событий закроется за ним.
func (s *WSEventSource) Close() error {
	return s.conn.Close()
}

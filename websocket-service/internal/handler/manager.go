package handler

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client представляет собой одно WebSocket соединение, подписанное на
// канал конкретной сессии. Один пользователь может держать несколько
// соединений (несколько устройств за столом).
type Client struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Conn      *websocket.Conn
	send      chan []byte // Канал для отправки сообщений этому клиенту
}

// sessionMessage — сообщение, адресованное всем подписчикам одной сессии.
type sessionMessage struct {
	SessionID uuid.UUID
	Data      []byte
}

// ConnectionManager управляет активными WebSocket соединениями,
// сгруппированными по комнатам сессий.
type ConnectionManager struct {
	rooms      map[uuid.UUID]map[*Client]struct{} // Карта sessionID -> подписчики
	register   chan *Client                       // Канал для регистрации нового клиента
	unregister chan *Client                       // Канал для удаления клиента
	broadcast  chan sessionMessage                // Канал для рассылки в комнату сессии
	mu         sync.RWMutex                       // Мьютекс для защиты доступа к rooms
}

// NewConnectionManager создает и запускает новый менеджер соединений.
func NewConnectionManager() *ConnectionManager {
	m := &ConnectionManager{
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan sessionMessage, 64),
	}
	go m.run() // Запускаем цикл управления в отдельной горутине
	return m
}

// run запускает основной цикл менеджера для обработки регистрации,
// дерегистрации и рассылки по комнатам.
func (m *ConnectionManager) run() {
	log.Println("ConnectionManager запущен")
	for {
		select {
		case client := <-m.register:
			log.Printf("Регистрация клиента: UserID=%s SessionID=%s", client.UserID, client.SessionID)
			m.mu.Lock()
			room, ok := m.rooms[client.SessionID]
			if !ok {
				room = make(map[*Client]struct{})
				m.rooms[client.SessionID] = room
			}
			room[client] = struct{}{}
			m.mu.Unlock()

		case client := <-m.unregister:
			m.mu.Lock()
			if room, ok := m.rooms[client.SessionID]; ok {
				if _, member := room[client]; member {
					log.Printf("Дерегистрация клиента: UserID=%s SessionID=%s", client.UserID, client.SessionID)
					delete(room, client)
					close(client.send)
					// Соединение закрывается в readPump/writePump клиента
				}
				if len(room) == 0 {
					delete(m.rooms, client.SessionID)
				}
			}
			m.mu.Unlock()

		case msg := <-m.broadcast:
			m.mu.RLock()
			for client := range m.rooms[msg.SessionID] {
				select {
				case client.send <- msg.Data:
				default:
					// Канал переполнен или клиент отключается: событие для
					// него теряется, клиент догонит состояние полным снимком
					log.Printf("Очередь отправки переполнена: UserID=%s SessionID=%s, событие пропущено", client.UserID, client.SessionID)
				}
			}
			m.mu.RUnlock()
		}
	}
}

// RegisterClient регистрирует нового клиента в комнате его сессии.
func (m *ConnectionManager) RegisterClient(client *Client) {
	m.register <- client
}

// UnregisterClient удаляет клиента из комнаты.
func (m *ConnectionManager) UnregisterClient(client *Client) {
	m.unregister <- client
}

// BroadcastToSession отправляет сообщение всем подписчикам сессии.
// Доставка at-most-once: оффлайн-клиенты и переполненные очереди
// не задерживают остальных.
func (m *ConnectionManager) BroadcastToSession(sessionID uuid.UUID, data []byte) {
	m.broadcast <- sessionMessage{SessionID: sessionID, Data: data}
}

// RoomSize возвращает число подписчиков комнаты сессии.
func (m *ConnectionManager) RoomSize(sessionID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[sessionID])
}

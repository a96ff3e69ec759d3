package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForRoomSize(t *testing.T, m *ConnectionManager, sessionID uuid.UUID, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.RoomSize(sessionID) == want
	}, time.Second, 5*time.Millisecond, "room size never reached %d", want)
}

func newTestClient(sessionID uuid.UUID, buffer int) *Client {
	return &Client{
		UserID:    uuid.New(),
		SessionID: sessionID,
		send:      make(chan []byte, buffer),
	}
}

func receiveOne(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.send:
		return data
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestBroadcastReachesOnlyTheSessionRoom(t *testing.T) {
	m := NewConnectionManager()
	sessionA := uuid.New()
	sessionB := uuid.New()

	clientA1 := newTestClient(sessionA, 4)
	clientA2 := newTestClient(sessionA, 4)
	clientB := newTestClient(sessionB, 4)

	m.RegisterClient(clientA1)
	m.RegisterClient(clientA2)
	m.RegisterClient(clientB)
	waitForRoomSize(t, m, sessionA, 2)
	waitForRoomSize(t, m, sessionB, 1)

	m.BroadcastToSession(sessionA, []byte(`{"type":"turn_advanced"}`))

	assert.Equal(t, `{"type":"turn_advanced"}`, string(receiveOne(t, clientA1)))
	assert.Equal(t, `{"type":"turn_advanced"}`, string(receiveOne(t, clientA2)))

	select {
	case data := <-clientB.send:
		t.Fatalf("client of another session received %q", data)
	case <-time.After(50 * time.Millisecond):
		// Ничего не пришло, как и ожидалось
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	m := NewConnectionManager()
	sessionID := uuid.New()
	client := newTestClient(sessionID, 4)

	m.RegisterClient(client)
	waitForRoomSize(t, m, sessionID, 1)

	m.UnregisterClient(client)
	waitForRoomSize(t, m, sessionID, 0)

	select {
	case _, ok := <-client.send:
		assert.False(t, ok, "send channel must be closed after unregister")
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestSlowClientDoesNotBlockBroadcast(t *testing.T) {
	m := NewConnectionManager()
	sessionID := uuid.New()

	slow := newTestClient(sessionID, 1)
	fast := newTestClient(sessionID, 8)
	m.RegisterClient(slow)
	m.RegisterClient(fast)
	waitForRoomSize(t, m, sessionID, 2)

	// Первая рассылка заполняет буфер медленного клиента, следующие
	// должны пройти мимо него без блокировки всей комнаты
	for i := 0; i < 3; i++ {
		m.BroadcastToSession(sessionID, []byte(`{"type":"dice_roll"}`))
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, `{"type":"dice_roll"}`, string(receiveOne(t, fast)))
	}
	assert.Len(t, slow.send, 1, "slow client keeps only what fit into its buffer")
}

func TestOriginChecker(t *testing.T) {
	requestWithOrigin := func(origin string) *http.Request {
		r, _ := http.NewRequest(http.MethodGet, "/ws/sessions/x", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	t.Run("wildcard allows everything", func(t *testing.T) {
		check := originChecker([]string{"*"})
		assert.True(t, check(requestWithOrigin("https://evil.example")))
	})

	t.Run("explicit list", func(t *testing.T) {
		check := originChecker([]string{"https://app.example.com"})
		assert.True(t, check(requestWithOrigin("https://app.example.com")))
		assert.False(t, check(requestWithOrigin("https://evil.example")))
	})

	t.Run("non-browser clients have no origin", func(t *testing.T) {
		check := originChecker([]string{"https://app.example.com"})
		assert.True(t, check(requestWithOrigin("")))
	})
}

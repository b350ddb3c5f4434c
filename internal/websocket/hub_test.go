package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) Message {
	t.Helper()
	select {
	case raw := <-ch:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestHub_NotifyIsPerUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	alice := NewClient(hub, nil, 1)
	bob := NewClient(hub, nil, 2)
	hub.Register <- alice
	hub.Register <- bob

	hub.Notify(1, "analysis_completed", map[string]int{"score": 80})

	msg := receive(t, alice.Send)
	assert.Equal(t, ActionEvent, msg.Action)
	payload := msg.Payload.(map[string]interface{})
	assert.Equal(t, "analysis_completed", payload["event"])
	assert.Equal(t, float64(80), payload["data"].(map[string]interface{})["score"])

	hub.Unregister <- alice
	_, open := <-alice.Send
	assert.False(t, open)

	hub.Notify(2, "history_cleared", nil)
	assert.Equal(t, "history_cleared", receive(t, bob.Send).Payload.(map[string]interface{})["event"])
	assert.Empty(t, bob.Send)
}

func TestHub_NotifyAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Notify(1, "x", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked after Stop")
	}
}

func TestClient_Pumps(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, 42)
		hub.Register <- client
		go client.WritePump()
		client.ReadPump(func(c *Client, raw []byte) {
			var msg Message
			if json.Unmarshal(raw, &msg) == nil && msg.Action == ActionPing {
				c.Reply(NewPongMessage())
				return
			}
			c.Reply(NewErrorMessage("unknown action"))
		})
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	require.NoError(t, conn.WriteJSON(Message{Action: ActionPing}))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ActionPong, msg.Action)

	hub.Notify(42, "profile_updated", nil)
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ActionEvent, msg.Action)

	require.NoError(t, conn.WriteJSON(Message{Action: "bogus"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ActionError, msg.Action)
}

package websocket

import "github.com/rs/zerolog/log"

type delivery struct {
	userID  int64
	message []byte
}

// Hub tracks connected clients per user and fans notifications out to them.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// A map of user IDs to the set of that user's clients.
	subscriptions map[int64]map[*Client]bool

	deliveries chan delivery
	done       chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[int64]map[*Client]bool),
		deliveries:    make(chan delivery, 64),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.addSubscription(client)
			log.Info().Int64("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Int64("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case d := <-h.deliveries:
			h.sendTo(d.userID, d.message)
		case <-h.done:
			for client := range h.clients {
				if client.conn != nil {
					client.conn.Close()
				}
			}
			return
		}
	}
}

// Stop ends Run and closes every client connection.
func (h *Hub) Stop() {
	close(h.done)
}

// Notify queues an event for every client of userID. It drops the event once
// the hub has stopped.
func (h *Hub) Notify(userID int64, event string, payload interface{}) {
	message := NewEventMessage(event, payload)
	if message == nil {
		return
	}
	select {
	case h.deliveries <- delivery{userID: userID, message: message}:
	case <-h.done:
	}
}

func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// sendTo never blocks; a client whose buffer is full misses the message.
func (h *Hub) sendTo(userID int64, message []byte) {
	for client := range h.subscriptions[userID] {
		select {
		case client.Send <- message:
		default:
			log.Warn().Int64("user_id", userID).Msg("Client send buffer full, dropping notification")
		}
	}
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.UserID] == nil {
		h.subscriptions[client.UserID] = make(map[*Client]bool)
	}
	h.subscriptions[client.UserID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	if subs, ok := h.subscriptions[client.UserID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.UserID)
		}
	}
}

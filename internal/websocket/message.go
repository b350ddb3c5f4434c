package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

const (
	ActionEvent = "event"
	ActionError = "error"
	ActionPing  = "ping"
	ActionPong  = "pong"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// EventPayload wraps a named domain event.
type EventPayload struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

func encode(msg Message) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("action", msg.Action).Msg("Failed to encode websocket message")
		return nil
	}
	return data
}

// NewEventMessage builds an event notification.
func NewEventMessage(event string, data interface{}) []byte {
	return encode(Message{Action: ActionEvent, Payload: EventPayload{Event: event, Data: data}})
}

// NewErrorMessage builds an error reply.
func NewErrorMessage(text string) []byte {
	return encode(Message{Action: ActionError, Payload: map[string]string{"error": text}})
}

// NewPongMessage answers a client ping.
func NewPongMessage() []byte {
	return encode(Message{Action: ActionPong})
}

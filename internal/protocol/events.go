package protocol

import "encoding/json"

// EventType identifies the type of websocket event.
type EventType string

const (
	// Client -> Server
	EventJoinRoom    EventType = "join-room"
	EventSendMessage EventType = "send-message"

	// Server -> Client
	EventMessage EventType = "message"
	EventError   EventType = "error"
)

// Envelope wraps all websocket events with an event field.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoom is sent by the client to register interest in a room. The server
// never acknowledges it.
type JoinRoom struct {
	RoomID string `json:"roomId"`
}

// SendMessage is sent by the client to publish a chat message. AckID
// correlates an optional error reply; a server that accepts the message sends
// nothing back, the message simply reappears on the "message" event.
type SendMessage struct {
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId"`
	Contents string `json:"contents"`
	AckID    string `json:"ackId,omitempty"`
}

// ErrorReply is sent by the server when an emitted event fails. AckID is set
// when the failure concerns a specific send-message emit.
type ErrorReply struct {
	AckID   string `json:"ackId,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// NewEnvelope creates an envelope with the given event and payload.
func NewEnvelope(event EventType, data interface{}) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Event: event,
		Data:  raw,
	}, nil
}

// ParseEnvelope parses a JSON frame into an envelope.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

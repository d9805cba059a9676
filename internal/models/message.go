package models

import "time"

// Message is one chat message within a room. Append-only from the client's
// perspective: messages are never edited or deleted client-side.
type Message struct {
	SenderID  string    `json:"senderId"`
	Contents  string    `json:"contents"`
	ID        string    `json:"_id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InboundMessage is a message as pushed over the real-time channel. It
// carries the room id because the channel delivers every message to every
// subscriber; each consumer filters by room itself.
type InboundMessage struct {
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Contents  string    `json:"contents"`
	ID        string    `json:"_id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AsMessage strips the room tag, yielding the room-local shape.
func (m InboundMessage) AsMessage() Message {
	return Message{
		SenderID:  m.SenderID,
		Contents:  m.Contents,
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

package views

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/HopeAero/chatty-app/internal/models"
)

// Emitter is the outbound half of the transport session the conversation
// depends on.
type Emitter interface {
	SendMessage(roomID, senderID, contents string, ack func(error)) error
}

var (
	// ErrNoRoomSelected is returned when a send is attempted with no room open.
	ErrNoRoomSelected = errors.New("no room selected")
	// ErrEmptyMessage is returned for empty or whitespace-only content.
	ErrEmptyMessage = errors.New("message is empty")
)

// Conversation is the history and composition controller for one open room.
// It is touched by the transport read pump (inbound appends) and the UI
// goroutine, so its state is mutex-protected.
type Conversation struct {
	username string
	emitter  Emitter

	mu       sync.Mutex
	room     *models.Room
	memberID string
	messages []models.Message
}

// NewConversation creates a conversation controller for the signed-in
// username.
func NewConversation(username string, emitter Emitter) *Conversation {
	return &Conversation{username: username, emitter: emitter}
}

// Username returns the signed-in username the controller resolves members
// against.
func (c *Conversation) Username() string {
	return c.username
}

// SetRoom opens a room: it resolves the caller's own member id by matching
// the session username within the member set and seeds the message list from
// the pre-fetched history. When the username matches no member the member id
// stays empty and every own-message comparison evaluates false; messages
// still render, just never as "mine".
func (c *Conversation) SetRoom(room models.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.room = &room
	c.memberID = ""
	if member, ok := room.MemberByUsername(c.username); ok {
		c.memberID = member.UserID
	}
	c.messages = append([]models.Message(nil), room.Messages...)
}

// Room returns the open room, or false when none is selected.
func (c *Conversation) Room() (models.Room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return models.Room{}, false
	}
	return *c.room, true
}

// HandleInbound appends a pushed message when its room id matches the open
// room. Everything else is ignored; the directory's store handles rooms that
// are not open here. Reports whether the message was appended.
func (c *Conversation) HandleInbound(in models.InboundMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil || in.RoomID != c.room.ID {
		return false
	}
	c.messages = append(c.messages, in.AsMessage())
	return true
}

// Messages returns a snapshot of the displayed history in arrival order.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.messages...)
}

// Send emits the composed content to the open room. Empty or whitespace-only
// content and the absence of a selected room are rejected before any emit, so
// the caller keeps its composer untouched on those paths. On success the
// caller clears the composer eagerly; the message shows up only once the
// server echoes it back. A server error reply is logged and nothing else.
func (c *Conversation) Send(contents string) error {
	trimmed := strings.TrimSpace(contents)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	room := c.room
	memberID := c.memberID
	c.mu.Unlock()

	if room == nil {
		return ErrNoRoomSelected
	}

	return c.emitter.SendMessage(room.ID, memberID, trimmed, func(err error) {
		log.Printf("Error sending message: %v", err)
	})
}

// IsOwn reports whether a message was sent by the signed-in user. With an
// unresolved member id this is always false.
func (c *Conversation) IsOwn(msg models.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memberID != "" && msg.SenderID == c.memberID
}

// DisplayKey returns a stable identity for one rendered message: its id when
// the server has assigned one, otherwise a composite of sender, position, and
// timestamp. The composite must not change across re-renders of the same
// data.
func (c *Conversation) DisplayKey(msg models.Message, index int) string {
	if msg.ID != "" {
		return msg.ID
	}
	return fmt.Sprintf("%s-%d-%d", msg.SenderID, index, msg.CreatedAt.UnixMilli())
}

// SenderName resolves the username of a message's sender within the open
// room, for labelling group-chat bubbles.
func (c *Conversation) SenderName(msg models.Message) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return ""
	}
	if member, ok := c.room.MemberByUserID(msg.SenderID); ok {
		return member.Username
	}
	return ""
}

// Title returns the header line for the open room.
func (c *Conversation) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return ""
	}
	return c.room.DisplayName(c.memberID)
}

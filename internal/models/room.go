package models

import (
	"fmt"
	"time"
)

// RoomType discriminates two-party chats from group chats.
type RoomType string

const (
	RoomSingle RoomType = "SINGLE"
	RoomGroup  RoomType = "GROUP"
)

// Room is a conversation as served by the chat backend. The client holds a
// read/append-only projection: rooms are created server-side and arrive via
// fetch, and local copies change only by message append or whole-object
// replace after a detail fetch.
type Room struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name,omitempty"`
	Type        RoomType  `json:"type"`
	Members     []Member  `json:"members"`
	Messages    []Message `json:"messages,omitempty"`
	LastMessage *Message  `json:"lastMessage,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Version     int       `json:"__v"`
}

// Member is a user's participation record within a room. Immutable once
// fetched within a session.
type Member struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	ID       string `json:"_id"`
}

// DisplayName returns the name to show for the room. Group rooms use their
// name, or a synthesized placeholder when the backend stored none. Single
// rooms show the other member's username; when the other member cannot be
// resolved the generic "Chat" label is returned.
func (r Room) DisplayName(currentUserID string) string {
	if r.Type == RoomGroup {
		if r.Name != "" {
			return r.Name
		}
		return fmt.Sprintf("Grupo (%d miembros)", len(r.Members))
	}
	if other, ok := r.OtherMember(currentUserID); ok {
		return other.Username
	}
	return "Chat"
}

// OtherMember returns the first member whose user id differs from
// currentUserID. For single rooms that is the conversation partner.
func (r Room) OtherMember(currentUserID string) (Member, bool) {
	for _, m := range r.Members {
		if m.UserID != currentUserID {
			return m, true
		}
	}
	return Member{}, false
}

// MemberByUsername resolves a member by username. This is how the client
// discovers its own user id inside a room: the backend never tells the client
// its id directly, only the username is stored locally.
func (r Room) MemberByUsername(username string) (Member, bool) {
	for _, m := range r.Members {
		if m.Username == username {
			return m, true
		}
	}
	return Member{}, false
}

// MemberByUserID resolves a member by user id, used to label group-chat
// senders.
func (r Room) MemberByUserID(userID string) (Member, bool) {
	for _, m := range r.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// Package store holds the client's single source of truth for room and
// message state. The transport's message listener applies each inbound
// message here exactly once; views read projections instead of keeping their
// own copies.
package store

import (
	"strings"
	"sync"

	"github.com/HopeAero/chatty-app/internal/models"
)

// RoomStore is a mutex-protected room cache keyed by room id, preserving the
// order rooms were first seen in. It is touched by the transport read pump
// and by the UI goroutine.
type RoomStore struct {
	mu    sync.RWMutex
	order []string
	rooms map[string]*models.Room
}

// NewRoomStore creates an empty store.
func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*models.Room)}
}

// SetRooms replaces the full room list, normalizing missing message arrays to
// empty so later appends need no nil checks.
func (s *RoomStore) SetRooms(rooms []models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	s.rooms = make(map[string]*models.Room, len(rooms))
	for _, room := range rooms {
		r := room
		if r.Messages == nil {
			r.Messages = []models.Message{}
		}
		s.order = append(s.order, r.ID)
		s.rooms[r.ID] = &r
	}
}

// ReplaceRoom swaps in the full detail of one room after a detail fetch.
// Replacing with the same fetch result twice yields the same projection. A
// room not yet in the list is appended.
func (s *RoomStore) ReplaceRoom(room models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room.Messages == nil {
		room.Messages = []models.Message{}
	}
	if _, ok := s.rooms[room.ID]; !ok {
		s.order = append(s.order, room.ID)
	}
	s.rooms[room.ID] = &room
}

// ApplyMessage appends an inbound message to its room and updates the room's
// last-message pointer. A message whose room id matches no held room is
// dropped and false is returned; the store never fabricates a room for an
// unknown id.
func (s *RoomStore) ApplyMessage(in models.InboundMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[in.RoomID]
	if !ok {
		return false
	}

	msg := in.AsMessage()
	room.Messages = append(room.Messages, msg)
	room.LastMessage = &msg
	return true
}

// Room returns a snapshot of one room.
func (s *RoomStore) Room(id string) (models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return models.Room{}, false
	}
	return *room, true
}

// Rooms returns a snapshot of all rooms in insertion order.
func (s *RoomStore) Rooms() []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(func(models.Room) bool { return true })
}

// Filter returns the rooms matching a search term, case-insensitively,
// against member usernames and, for group rooms, the room name. An empty term
// matches everything.
func (s *RoomStore) Filter(term string) []models.Room {
	needle := strings.ToLower(term)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(func(room models.Room) bool {
		for _, m := range room.Members {
			if strings.Contains(strings.ToLower(m.Username), needle) {
				return true
			}
		}
		return room.Type == models.RoomGroup &&
			strings.Contains(strings.ToLower(room.Name), needle)
	})
}

// snapshot copies matching rooms in order. Callers must hold at least the
// read lock.
func (s *RoomStore) snapshot(match func(models.Room) bool) []models.Room {
	out := make([]models.Room, 0, len(s.order))
	for _, id := range s.order {
		room := *s.rooms[id]
		if match(room) {
			out = append(out, room)
		}
	}
	return out
}

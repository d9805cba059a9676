// Package views contains the client's view controllers: the room directory,
// the conversation window, the room-creation flow, and the registration flow.
// Each is a thin, testable state holder over the api client, the transport
// session, and the shared room store.
package views

import (
	"context"
	"fmt"

	"github.com/HopeAero/chatty-app/internal/api"
	"github.com/HopeAero/chatty-app/internal/models"
	"github.com/HopeAero/chatty-app/internal/store"
)

// Directory is the searchable list of the caller's rooms. It reads from the
// shared store, so real-time appends applied there show up without any
// directory-local reconciliation.
type Directory struct {
	api    *api.Client
	store  *store.RoomStore
	search string
}

// NewDirectory creates the directory over the shared store.
func NewDirectory(client *api.Client, st *store.RoomStore) *Directory {
	return &Directory{api: client, store: st}
}

// Load fetches the caller's room list into the store. On failure the store
// keeps its prior contents; the caller logs and moves on.
func (d *Directory) Load(ctx context.Context) error {
	rooms, err := d.api.MyRooms(ctx)
	if err != nil {
		return err
	}
	d.store.SetRooms(rooms)
	return nil
}

// SetSearch updates the client-side filter term.
func (d *Directory) SetSearch(term string) {
	d.search = term
}

// Search returns the current filter term.
func (d *Directory) Search() string {
	return d.search
}

// Visible returns the rooms matching the current filter, in list order.
func (d *Directory) Visible() []models.Room {
	return d.store.Filter(d.search)
}

// Select fetches the full detail of a room, replaces it in the store, and
// returns it for the conversation view. Selecting the same room twice is
// idempotent.
func (d *Directory) Select(ctx context.Context, roomID string) (models.Room, error) {
	room, err := d.api.Room(ctx, roomID)
	if err != nil {
		return models.Room{}, fmt.Errorf("failed to select room: %w", err)
	}
	d.store.ReplaceRoom(*room)
	return *room, nil
}

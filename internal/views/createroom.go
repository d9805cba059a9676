package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HopeAero/chatty-app/internal/api"
	"github.com/HopeAero/chatty-app/internal/models"
)

// Validation failures surfaced by the room-creation flow. All are raised
// before any network call.
var (
	ErrGroupNameRequired = errors.New("group name is required for group chats")
	ErrNoMembersSelected = errors.New("select at least one user")
	ErrSingleTooMany     = errors.New("single chats can only have one other user")
)

// CreateRoomFlow drives the new-chat dialog: it loads the candidate user
// directory, enforces the selection rules, validates the request shape, and
// submits it. Driven from the UI goroutine only.
type CreateRoomFlow struct {
	api *api.Client

	roomType   models.RoomType
	name       string
	myUsername string
	users      []models.User
	selected   []string
}

// NewCreateRoomFlow creates the flow, starting in single-chat mode.
func NewCreateRoomFlow(client *api.Client) *CreateRoomFlow {
	return &CreateRoomFlow{api: client, roomType: models.RoomSingle}
}

// Load fetches the caller's own profile and the candidate user directory.
func (f *CreateRoomFlow) Load(ctx context.Context) error {
	profile, err := f.api.MyProfile(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	users, err := f.api.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	f.myUsername = profile.Username
	f.users = users
	return nil
}

// Users returns the loaded candidate directory.
func (f *CreateRoomFlow) Users() []models.User {
	return f.users
}

// Type returns the room type being created.
func (f *CreateRoomFlow) Type() models.RoomType {
	return f.roomType
}

// SetType switches between single and group mode. The selection is cleared:
// what was valid for one type rarely is for the other.
func (f *CreateRoomFlow) SetType(t models.RoomType) {
	f.roomType = t
	f.selected = nil
}

// SetName sets the group name.
func (f *CreateRoomFlow) SetName(name string) {
	f.name = name
}

// Toggle flips a user's selection. Selecting yourself is ignored. Under
// single mode a new selection replaces the previous one, so at most one other
// member is ever selected.
func (f *CreateRoomFlow) Toggle(username string) {
	if username == f.myUsername {
		return
	}

	for i, sel := range f.selected {
		if sel == username {
			f.selected = append(f.selected[:i], f.selected[i+1:]...)
			return
		}
	}

	if f.roomType == models.RoomSingle {
		f.selected = []string{username}
		return
	}
	f.selected = append(f.selected, username)
}

// Selected returns the usernames currently selected, excluding the caller.
func (f *CreateRoomFlow) Selected() []string {
	return append([]string(nil), f.selected...)
}

// Validate checks the request shape without touching the network: group rooms
// need a non-empty trimmed name, at least one other member must be selected,
// and single rooms permit exactly one other member.
func (f *CreateRoomFlow) Validate() error {
	if f.roomType == models.RoomGroup && strings.TrimSpace(f.name) == "" {
		return ErrGroupNameRequired
	}
	if len(f.selected) == 0 {
		return ErrNoMembersSelected
	}
	if f.roomType == models.RoomSingle && len(f.selected) > 1 {
		return ErrSingleTooMany
	}
	return nil
}

// Submit validates and posts the room-creation request. The caller's own
// username is always injected as a member ahead of the explicit selections,
// so a passing single-room request carries exactly two members. Creation is a
// single atomic request; failures surface as one generic retryable error.
func (f *CreateRoomFlow) Submit(ctx context.Context) (models.Room, error) {
	if err := f.Validate(); err != nil {
		return models.Room{}, err
	}

	req := api.CreateRoomRequest{
		Type:    f.roomType,
		Members: make([]api.MemberRequest, 0, len(f.selected)+1),
	}
	req.Members = append(req.Members, api.MemberRequest{Username: f.myUsername})
	for _, username := range f.selected {
		req.Members = append(req.Members, api.MemberRequest{Username: username})
	}
	if f.roomType == models.RoomGroup {
		req.Name = strings.TrimSpace(f.name)
	}

	room, err := f.api.CreateRoom(ctx, req)
	if err != nil {
		return models.Room{}, fmt.Errorf("error creating chat, please try again: %w", err)
	}

	f.Reset()
	return *room, nil
}

// Reset returns the flow to its initial state.
func (f *CreateRoomFlow) Reset() {
	f.roomType = models.RoomSingle
	f.name = ""
	f.selected = nil
}

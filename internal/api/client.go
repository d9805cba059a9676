// Package api is the HTTP client for the chatty backend's REST surface: room
// listing and creation under /chat, user directory and registration under
// /auth-rest.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/HopeAero/chatty-app/internal/auth"
	"github.com/HopeAero/chatty-app/internal/models"
)

// Client talks to the chatty backend. Every call takes a context so a view
// being torn down can cancel its in-flight fetches.
type Client struct {
	baseURL string
	creds   auth.Credentials
	http    *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, creds auth.Credentials) *Client {
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// MemberRequest names a user to include in a room being created.
type MemberRequest struct {
	Username string `json:"username"`
}

// CreateRoomRequest is the body of POST /chat.
type CreateRoomRequest struct {
	Name    string          `json:"name,omitempty"`
	Type    models.RoomType `json:"type"`
	Members []MemberRequest `json:"members"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MyRooms fetches the caller's room list. Nil message slices are normalized
// to empty so views can append without nil checks.
func (c *Client) MyRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := c.get(ctx, "/chat/my-rooms", &rooms); err != nil {
		return nil, fmt.Errorf("failed to fetch rooms: %w", err)
	}
	for i := range rooms {
		if rooms[i].Messages == nil {
			rooms[i].Messages = []models.Message{}
		}
	}
	return rooms, nil
}

// Room fetches the full detail of one room, message history included.
func (c *Client) Room(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := c.get(ctx, "/chat/room/"+id, &room); err != nil {
		return nil, fmt.Errorf("failed to fetch room %s: %w", id, err)
	}
	if room.Messages == nil {
		room.Messages = []models.Message{}
	}
	return &room, nil
}

// CreateRoom submits a room-creation request. Creation is a single atomic
// request; there is no partial success to roll back.
func (c *Client) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	var room models.Room
	if err := c.post(ctx, "/chat", req, &room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return &room, nil
}

// Users fetches the user directory.
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.get(ctx, "/auth-rest/users", &users); err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, nil
}

// MyProfile fetches the caller's own profile.
func (c *Client) MyProfile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, "/auth-rest/my-profile", &user); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &user, nil
}

// Register creates a new account. It runs before any credentials exist, so
// the request goes out unauthenticated.
func (c *Client) Register(ctx context.Context, username, password string) error {
	if err := c.post(ctx, "/auth-rest/register", registerRequest{Username: username, Password: password}, nil); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	c.creds.Authorize(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Status: resp.StatusCode}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

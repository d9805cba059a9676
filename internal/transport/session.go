// Package transport owns the client's single long-lived websocket connection
// to the chat backend and fans inbound messages out to every subscribed view.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/HopeAero/chatty-app/internal/auth"
	"github.com/HopeAero/chatty-app/internal/models"
	"github.com/HopeAero/chatty-app/internal/protocol"
)

// State tracks the session's connection lifecycle.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ErrNotConnected is returned when an emit is attempted without an open
// connection.
var ErrNotConnected = errors.New("session is not connected")

// MessageHandler receives every inbound chat message pushed by the server.
// Handlers run on the read pump goroutine and must filter by room themselves.
type MessageHandler func(msg models.InboundMessage)

type subscriber struct {
	id int
	fn MessageHandler
}

// Session is the persistent bidirectional channel. One session is shared
// process-wide; any number of views can subscribe to inbound messages, each
// with its own unsubscribe handle, so no view starves another.
type Session struct {
	url    string
	creds  auth.Credentials
	dialer *websocket.Dialer

	mu    sync.RWMutex
	state State
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}

	subMu   sync.Mutex
	nextSub int
	subs    []subscriber
	pending map[string]func(error)
}

// NewSession creates a session for the websocket endpoint at url. The bearer
// token is presented at handshake time.
func NewSession(url string, creds auth.Credentials) *Session {
	return &Session{
		url:     url,
		creds:   creds,
		dialer:  websocket.DefaultDialer,
		pending: make(map[string]func(error)),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsConnected reports whether the session is usable for emits. Views gate
// their subscription setup on this.
func (s *Session) IsConnected() bool {
	return s.State() == Connected
}

// Connect dials the backend and starts the read/write pumps. Connecting an
// already connected session is a no-op. There is no reconnect policy: when
// the connection drops the caller decides whether to dial again.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Disconnected {
		s.mu.Unlock()
		return nil
	}
	s.state = Connecting
	s.mu.Unlock()

	header := http.Header{}
	s.creds.Authorize(header)

	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		s.mu.Lock()
		s.state = Disconnected
		s.mu.Unlock()
		if resp != nil {
			return fmt.Errorf("failed to connect to %s (status %d): %w", s.url, resp.StatusCode, err)
		}
		return fmt.Errorf("failed to connect to %s: %w", s.url, err)
	}

	s.mu.Lock()
	s.state = Connected
	s.conn = conn
	s.send = make(chan []byte, 256)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.writePump(conn, s.send, s.done)
	go s.readPump(conn)

	log.Printf("Connected to %s", s.url)
	return nil
}

// Close tears the connection down and flips the state to disconnected. Safe
// to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == Disconnected {
		s.mu.Unlock()
		return
	}
	s.state = Disconnected
	conn := s.conn
	done := s.done
	s.conn = nil
	s.mu.Unlock()

	if done != nil {
		close(done)
	}
	if conn != nil {
		conn.Close()
	}

	// Pending acks die with the connection: no retry, no replay.
	s.subMu.Lock()
	s.pending = make(map[string]func(error))
	s.subMu.Unlock()

	log.Printf("Disconnected from %s", s.url)
}

// SubscribeToMessages registers a handler for the inbound message event.
// Handlers are invoked in registration order. The returned function removes
// exactly this handler; other subscribers are unaffected.
func (s *Session) SubscribeToMessages(fn MessageHandler) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// JoinRoom notifies the server of interest in a room. Best effort: no
// acknowledgement is awaited.
func (s *Session) JoinRoom(roomID string) error {
	env, err := protocol.NewEnvelope(protocol.EventJoinRoom, protocol.JoinRoom{RoomID: roomID})
	if err != nil {
		return err
	}
	return s.enqueue(env)
}

// SendMessage emits a single send-message event. The optional ack callback is
// invoked only if the server replies with an error for this emit; on that
// path the message is not retried or requeued. The sent message reappears
// only when the server echoes it back on the message event.
func (s *Session) SendMessage(roomID, senderID, contents string, ack func(error)) error {
	payload := protocol.SendMessage{
		RoomID:   roomID,
		SenderID: senderID,
		Contents: contents,
	}
	if ack != nil {
		payload.AckID = uuid.New().String()
	}

	env, err := protocol.NewEnvelope(protocol.EventSendMessage, payload)
	if err != nil {
		return err
	}

	if ack != nil {
		s.subMu.Lock()
		s.pending[payload.AckID] = ack
		s.subMu.Unlock()
	}

	if err := s.enqueue(env); err != nil {
		if ack != nil {
			s.subMu.Lock()
			delete(s.pending, payload.AckID)
			s.subMu.Unlock()
		}
		return err
	}
	return nil
}

func (s *Session) enqueue(env *protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	s.mu.RLock()
	state := s.state
	send := s.send
	done := s.done
	s.mu.RUnlock()

	if state != Connected {
		return ErrNotConnected
	}

	select {
	case send <- data:
		return nil
	case <-done:
		return ErrNotConnected
	}
}

func (s *Session) readPump(conn *websocket.Conn) {
	defer s.Close()

	conn.SetReadLimit(65536)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		s.handleFrame(data)
	}
}

func (s *Session) writePump(conn *websocket.Conn, send chan []byte, done chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data := <-send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *Session) handleFrame(data []byte) {
	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		log.Printf("Failed to parse frame: %v", err)
		return
	}

	switch env.Event {
	case protocol.EventMessage:
		var msg models.InboundMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			log.Printf("Failed to parse message event: %v", err)
			return
		}

		s.subMu.Lock()
		subs := make([]subscriber, len(s.subs))
		copy(subs, s.subs)
		s.subMu.Unlock()

		for _, sub := range subs {
			sub.fn(msg)
		}

	case protocol.EventError:
		var reply protocol.ErrorReply
		if err := json.Unmarshal(env.Data, &reply); err != nil {
			log.Printf("Failed to parse error event: %v", err)
			return
		}

		if reply.AckID != "" {
			s.subMu.Lock()
			ack, ok := s.pending[reply.AckID]
			if ok {
				delete(s.pending, reply.AckID)
			}
			s.subMu.Unlock()
			if ok {
				ack(fmt.Errorf("server rejected message: %s", reply.Message))
				return
			}
		}
		log.Printf("Error from server: [%s] %s", reply.Code, reply.Message)
	}
}

package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HopeAero/chatty-app/internal/auth"
	"github.com/HopeAero/chatty-app/internal/models"
	"github.com/HopeAero/chatty-app/internal/protocol"
)

// wsServer is a minimal stand-in for the backend's websocket endpoint. It
// records the handshake authorization header and every parsed frame, and can
// push events back at the client.
type wsServer struct {
	srv    *httptest.Server
	frames chan *protocol.Envelope
	header chan string

	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()

	s := &wsServer{
		frames: make(chan *protocol.Envelope, 16),
		header: make(chan string, 1),
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case s.header <- r.Header.Get("Authorization"):
		default:
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if env, err := protocol.ParseEnvelope(data); err == nil {
				s.frames <- env
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			return conn
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("server never accepted a connection")
	return nil
}

func (s *wsServer) push(t *testing.T, event protocol.EventType, payload interface{}) {
	t.Helper()
	env, err := protocol.NewEnvelope(event, payload)
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, s.waitConn(t).WriteMessage(websocket.TextMessage, data))
}

func (s *wsServer) nextFrame(t *testing.T) *protocol.Envelope {
	t.Helper()
	select {
	case env := <-s.frames:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return nil
	}
}

func connectedSession(t *testing.T, s *wsServer) *Session {
	t.Helper()
	session := NewSession(s.url(), auth.Credentials{Username: "alice", Token: "tok-123"})
	require.NoError(t, session.Connect(context.Background()))
	t.Cleanup(session.Close)
	return session
}

func waitInbound(t *testing.T, ch chan models.InboundMessage) models.InboundMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an inbound message")
		return models.InboundMessage{}
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newWSServer(t)
	session := NewSession(s.url(), auth.Credentials{Username: "alice", Token: "tok-123"})

	assert.Equal(t, Disconnected, session.State())
	assert.False(t, session.IsConnected())

	require.NoError(t, session.Connect(context.Background()))
	assert.Equal(t, Connected, session.State())
	assert.True(t, session.IsConnected())

	select {
	case header := <-s.header:
		assert.Equal(t, "Bearer tok-123", header, "bearer token is presented at handshake")
	case <-time.After(2 * time.Second):
		t.Fatal("handshake never reached the server")
	}

	// Connecting again is a no-op.
	require.NoError(t, session.Connect(context.Background()))

	session.Close()
	assert.Equal(t, Disconnected, session.State())
	assert.ErrorIs(t, session.JoinRoom("r1"), ErrNotConnected)
}

func TestSessionConnectFailure(t *testing.T) {
	session := NewSession("ws://127.0.0.1:1/ws", auth.Credentials{Token: "tok"})

	err := session.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, Disconnected, session.State())
}

func TestJoinRoomEmits(t *testing.T) {
	s := newWSServer(t)
	session := connectedSession(t, s)

	require.NoError(t, session.JoinRoom("r1"))

	frame := s.nextFrame(t)
	require.Equal(t, protocol.EventJoinRoom, frame.Event)

	var payload protocol.JoinRoom
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	assert.Equal(t, "r1", payload.RoomID)
}

func TestSendMessageWithoutAck(t *testing.T) {
	s := newWSServer(t)
	session := connectedSession(t, s)

	require.NoError(t, session.SendMessage("r1", "u1", "hola", nil))

	frame := s.nextFrame(t)
	require.Equal(t, protocol.EventSendMessage, frame.Event)

	var payload protocol.SendMessage
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	assert.Equal(t, "r1", payload.RoomID)
	assert.Equal(t, "u1", payload.SenderID)
	assert.Equal(t, "hola", payload.Contents)
	assert.Empty(t, payload.AckID, "no ack requested, no ack id on the wire")
}

func TestSendMessageErrorAck(t *testing.T) {
	s := newWSServer(t)
	session := connectedSession(t, s)

	acks := make(chan error, 1)
	require.NoError(t, session.SendMessage("r1", "u1", "hola", func(err error) {
		acks <- err
	}))

	frame := s.nextFrame(t)
	var payload protocol.SendMessage
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	require.NotEmpty(t, payload.AckID)

	s.push(t, protocol.EventError, protocol.ErrorReply{AckID: payload.AckID, Message: "rejected"})

	select {
	case err := <-acks:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rejected")
	case <-time.After(2 * time.Second):
		t.Fatal("ack callback never fired")
	}
}

func TestSubscribeFanOut(t *testing.T) {
	s := newWSServer(t)
	session := connectedSession(t, s)

	var order []string
	var orderMu sync.Mutex
	first := make(chan models.InboundMessage, 4)
	second := make(chan models.InboundMessage, 4)

	unsubFirst := session.SubscribeToMessages(func(msg models.InboundMessage) {
		orderMu.Lock()
		order = append(order, "first")
		orderMu.Unlock()
		first <- msg
	})
	session.SubscribeToMessages(func(msg models.InboundMessage) {
		orderMu.Lock()
		order = append(order, "second")
		orderMu.Unlock()
		second <- msg
	})

	s.push(t, protocol.EventMessage, models.InboundMessage{RoomID: "r1", SenderID: "u2", Contents: "hola", ID: "msg1"})

	got := waitInbound(t, first)
	assert.Equal(t, "msg1", got.ID)
	got = waitInbound(t, second)
	assert.Equal(t, "r1", got.RoomID)

	orderMu.Lock()
	assert.Equal(t, []string{"first", "second"}, order, "handlers run in registration order")
	orderMu.Unlock()

	// Removing one subscriber leaves the other attached.
	unsubFirst()
	s.push(t, protocol.EventMessage, models.InboundMessage{RoomID: "r1", Contents: "dos", ID: "msg2"})

	got = waitInbound(t, second)
	assert.Equal(t, "msg2", got.ID)
	select {
	case msg := <-first:
		t.Errorf("unsubscribed handler still received %+v", msg)
	default:
	}
}

func TestServerCloseDisconnectsSession(t *testing.T) {
	s := newWSServer(t)
	session := connectedSession(t, s)

	s.waitConn(t).Close()

	require.Eventually(t, func() bool {
		return session.State() == Disconnected
	}, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, session.SendMessage("r1", "u1", "hola", nil), ErrNotConnected)
}

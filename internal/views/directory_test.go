package views

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HopeAero/chatty-app/internal/api"
	"github.com/HopeAero/chatty-app/internal/auth"
	"github.com/HopeAero/chatty-app/internal/store"
)

func newRoomsServer(t *testing.T, fail *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/chat/my-rooms", func(w http.ResponseWriter, r *http.Request) {
		if fail != nil && atomic.LoadInt32(fail) != 0 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"_id":"r1","type":"SINGLE","members":[{"userId":"u1","username":"alice","_id":"m1"}]}]`))
	})
	mux.HandleFunc("/chat/room/r1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"_id":"r1","type":"SINGLE","members":[{"userId":"u1","username":"alice","_id":"m1"}],"messages":[{"_id":"msg1","senderId":"u1","contents":"hola"}]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDirectorySearch(t *testing.T) {
	srv := newRoomsServer(t, nil)
	directory := NewDirectory(api.NewClient(srv.URL, auth.Credentials{Username: "alice", Token: "tok"}), store.NewRoomStore())
	require.NoError(t, directory.Load(context.Background()))

	directory.SetSearch("ali")
	visible := directory.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "r1", visible[0].ID)

	directory.SetSearch("bob")
	assert.Empty(t, directory.Visible())
}

func TestDirectoryLoadFailureKeepsPriorState(t *testing.T) {
	var fail int32
	srv := newRoomsServer(t, &fail)
	directory := NewDirectory(api.NewClient(srv.URL, auth.Credentials{Username: "alice", Token: "tok"}), store.NewRoomStore())
	require.NoError(t, directory.Load(context.Background()))
	require.Len(t, directory.Visible(), 1)

	atomic.StoreInt32(&fail, 1)
	require.Error(t, directory.Load(context.Background()))
	assert.Len(t, directory.Visible(), 1, "a failed refresh leaves the prior list untouched")
}

func TestDirectorySelectIsIdempotent(t *testing.T) {
	srv := newRoomsServer(t, nil)
	st := store.NewRoomStore()
	directory := NewDirectory(api.NewClient(srv.URL, auth.Credentials{Username: "alice", Token: "tok"}), st)
	require.NoError(t, directory.Load(context.Background()))

	first, err := directory.Select(context.Background(), "r1")
	require.NoError(t, err)

	second, err := directory.Select(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-selecting the same room yields an identical view")

	held, ok := st.Room("r1")
	require.True(t, ok)
	assert.Len(t, held.Messages, 1)
}

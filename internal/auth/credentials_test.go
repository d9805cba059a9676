package auth

import (
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HopeAero/chatty-app/internal/db"
)

func openTestDB(t *testing.T) *db.ClientDB {
	t.Helper()
	database, err := db.NewClientDB(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestLoadWithoutStoredSession(t *testing.T) {
	database := openTestDB(t)

	_, err := Load(database)
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Load() error = %v, want ErrNotLoggedIn", err)
	}
}

func TestStoreLoadClearRoundTrip(t *testing.T) {
	database := openTestDB(t)

	require.NoError(t, Store(database, Credentials{Username: "alice", Token: "tok-123"}))

	creds, err := Load(database)
	require.NoError(t, err)
	require.Equal(t, "alice", creds.Username)
	require.Equal(t, "tok-123", creds.Token)

	require.NoError(t, Clear(database))
	_, err = Load(database)
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLoadWithPartialSession(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, database.SetPreference("username", "alice"))

	_, err := Load(database)
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestAuthorize(t *testing.T) {
	h := http.Header{}
	Credentials{Username: "alice", Token: "tok-123"}.Authorize(h)
	if got := h.Get("Authorization"); got != "Bearer tok-123" {
		t.Errorf("Authorization = %q", got)
	}

	empty := http.Header{}
	Credentials{}.Authorize(empty)
	if got := empty.Get("Authorization"); got != "" {
		t.Errorf("Authorization = %q, want unset for empty token", got)
	}
}

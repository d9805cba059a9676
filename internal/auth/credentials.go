// Package auth handles the locally stored session identity. The client only
// consumes tokens issued elsewhere; it never validates, refreshes, or manages
// their lifecycle beyond read and store.
package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/HopeAero/chatty-app/internal/db"
)

// Preference keys, mirroring the browser client's localStorage entries.
const (
	keyToken    = "token"
	keyUsername = "username"
)

// ErrNotLoggedIn is returned when no session identity is stored locally. The
// caller is expected to send the user to the login flow.
var ErrNotLoggedIn = errors.New("no stored credentials")

// Credentials is the session identity read at startup.
type Credentials struct {
	Username string
	Token    string
}

// Load reads the stored credentials. Absence of either field yields
// ErrNotLoggedIn.
func Load(database *db.ClientDB) (Credentials, error) {
	token, err := database.GetPreference(keyToken)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read token: %w", err)
	}
	username, err := database.GetPreference(keyUsername)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read username: %w", err)
	}
	if token == "" || username == "" {
		return Credentials{}, ErrNotLoggedIn
	}
	return Credentials{Username: username, Token: token}, nil
}

// Store persists the credentials locally.
func Store(database *db.ClientDB, c Credentials) error {
	if err := database.SetPreference(keyToken, c.Token); err != nil {
		return err
	}
	return database.SetPreference(keyUsername, c.Username)
}

// Clear removes the stored credentials.
func Clear(database *db.ClientDB) error {
	if err := database.DeletePreference(keyToken); err != nil {
		return err
	}
	return database.DeletePreference(keyUsername)
}

// Authorize stamps the bearer token onto an outbound header set. Headers are
// left untouched when no token is held, so pre-login calls (registration) go
// out unauthenticated.
func (c Credentials) Authorize(h http.Header) {
	if c.Token != "" {
		h.Set("Authorization", "Bearer "+c.Token)
	}
}

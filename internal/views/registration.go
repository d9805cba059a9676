package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/HopeAero/chatty-app/internal/api"
)

// ErrPasswordMismatch is raised locally, before any network call, when the
// password and its confirmation differ.
var ErrPasswordMismatch = errors.New("passwords do not match")

// Registration collects credentials and submits them to the auth service.
// Password strength and username availability are the backend's problem; the
// only local check is the confirmation match. Success means the caller sends
// the user to the login flow.
type Registration struct {
	api *api.Client
}

// NewRegistration creates the flow over an unauthenticated api client.
func NewRegistration(client *api.Client) *Registration {
	return &Registration{api: client}
}

// Submit validates the confirmation locally and registers the account.
func (r *Registration) Submit(ctx context.Context, username, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if err := r.api.Register(ctx, username, password); err != nil {
		return fmt.Errorf("error during registration, please try again: %w", err)
	}
	return nil
}

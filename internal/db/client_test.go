package db

import (
	"path/filepath"
	"testing"
)

func TestPreferences(t *testing.T) {
	database, err := NewClientDB(filepath.Join(t.TempDir(), "client.db"))
	if err != nil {
		t.Fatalf("NewClientDB() error: %v", err)
	}
	defer database.Close()

	if value, err := database.GetPreference("missing"); err != nil || value != "" {
		t.Errorf("GetPreference(missing) = %q, %v", value, err)
	}

	if err := database.SetPreference("token", "abc"); err != nil {
		t.Fatalf("SetPreference() error: %v", err)
	}
	if err := database.SetPreference("token", "def"); err != nil {
		t.Fatalf("SetPreference() overwrite error: %v", err)
	}

	value, err := database.GetPreference("token")
	if err != nil || value != "def" {
		t.Errorf("GetPreference(token) = %q, %v, want def", value, err)
	}

	if err := database.DeletePreference("token"); err != nil {
		t.Fatalf("DeletePreference() error: %v", err)
	}
	if value, _ := database.GetPreference("token"); value != "" {
		t.Errorf("GetPreference(token) after delete = %q", value)
	}
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")

	database, err := NewClientDB(path)
	if err != nil {
		t.Fatalf("NewClientDB() error: %v", err)
	}
	if err := database.SetPreference("username", "alice"); err != nil {
		t.Fatalf("SetPreference() error: %v", err)
	}
	database.Close()

	reopened, err := NewClientDB(path)
	if err != nil {
		t.Fatalf("NewClientDB() reopen error: %v", err)
	}
	defer reopened.Close()

	value, err := reopened.GetPreference("username")
	if err != nil || value != "alice" {
		t.Errorf("GetPreference(username) = %q, %v, want alice", value, err)
	}
}

package models

// User is a directory entry from the auth service.
type User struct {
	Username string `json:"username"`
}

package models

import "github.com/google/uuid"

// User is an account row. Only username and avatar matter to the engine;
// everything else belongs to the account surface.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
}

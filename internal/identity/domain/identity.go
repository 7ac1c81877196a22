package domain

import (
	"errors"
	"time"
)

// Identity is the identity provider's record of a user. The ID is opaque and
// immutable once created; every other entity references it by foreign key.
type Identity struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// Validate validates the identity for persistence. Returns an error describing the first validation failure.
func (i *Identity) Validate() error {
	if i.ID == "" {
		return errors.New("id is required")
	}
	if i.Email == "" {
		return errors.New("email is required")
	}
	if i.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}

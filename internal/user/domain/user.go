package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

// User is the minimal identity record the auction core needs. Authentication
// and session management live outside this module; callers arrive with an
// already-resolved user id.
type User struct {
	ID       uuid.UUID
	Email    string
	FullName string
	Avatar   string
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered user. Email is the identity used across
// the registry, presence tracker and message routing.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Message represents a persisted chat message. ChatID is the identity of
// the other participant of the conversation, not an opaque room id.
type Message struct {
	ID        int64
	ChatID    string
	Sender    string
	Content   string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// ListUsers lists all registered users.
	ListUsers(ctx context.Context) ([]*User, error)
}

// MessageStore is the append-only message log.
type MessageStore interface {
	// SaveMessage persists a message and fills in its assigned ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListConversation retrieves the messages exchanged between two
	// identities, in both directions, oldest first. Limit <= 0 means
	// no limit.
	ListConversation(ctx context.Context, a, b string, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}

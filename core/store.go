package core

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned by stores when a session id is unknown.
var ErrSessionNotFound = errors.New("core: session not found")

// ConversationStore persists conversation history across turns, keyed by
// session id. Implementations must serialize writes within a session so the
// stored log stays append-ordered.
type ConversationStore interface {
	// EnsureSession creates the session record if it does not exist.
	EnsureSession(ctx context.Context, sessionID string) error

	// AppendMessage appends one message to the session log.
	AppendMessage(ctx context.Context, sessionID string, msg Message) error

	// History returns up to limit most recent messages in log order. A
	// non-positive limit returns the full log. An unknown session yields an
	// empty history, not an error.
	History(ctx context.Context, sessionID string, limit int) ([]Message, error)

	// DeleteSession removes the session and its log. Deleting an unknown
	// session returns ErrSessionNotFound.
	DeleteSession(ctx context.Context, sessionID string) error
}

package interfaces

import "github.com/nutriguide/nutriguide/internal/domain/entities"

// SessionStore maps an opaque session key to its append-only ordered
// message history. Sessions are created on first contact and live for the
// process lifetime; there is no eviction. Appends for the same key are
// serialized by the implementation.
type SessionStore interface {
	// GetMessages returns a copy of the session's history, empty for an
	// unseen key.
	GetMessages(sessionKey string) []entities.Message

	// Append adds messages to the end of the session's history.
	Append(sessionKey string, messages ...entities.Message)
}

package repositories

import (
	"sync"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/interfaces"
)

// MemorySessionStore keeps each session's message history in process
// memory. Appends are serialized per session key so overlapping requests
// for the same session cannot interleave histories; distinct sessions do
// not contend.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu       sync.Mutex
	messages []entities.Message
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *MemorySessionStore) entry(sessionKey string) *sessionEntry {
	s.mu.RLock()
	entry, ok := s.sessions[sessionKey]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok = s.sessions[sessionKey]; ok {
		return entry
	}
	entry = &sessionEntry{}
	s.sessions[sessionKey] = entry
	return entry
}

// GetMessages returns a copy of the session's ordered history, empty for an
// unseen key.
func (s *MemorySessionStore) GetMessages(sessionKey string) []entities.Message {
	entry := s.entry(sessionKey)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	messages := make([]entities.Message, len(entry.messages))
	copy(messages, entry.messages)
	return messages
}

// Append adds messages to the end of the session's history.
func (s *MemorySessionStore) Append(sessionKey string, messages ...entities.Message) {
	entry := s.entry(sessionKey)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.messages = append(entry.messages, messages...)
}

var _ interfaces.SessionStore = (*MemorySessionStore)(nil)

package pipeline

import (
	"fmt"
	"strings"
	"sync"

	"ai-live-interpreter-service/internal/models"
	"ai-live-interpreter-service/internal/translate"
)

// Store is the append-only conversation log. Messages are appended when a
// block finalizes and mutated in place when the quality result arrives;
// they are never deleted within a session. Thread-safe: HTTP handlers read
// concurrently with the event loop.
type Store struct {
	mu       sync.RWMutex
	messages []models.Message
	index    map[string]int // message id -> position
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Append adds a message to the log.
func (s *Store) Append(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
}

// Upgrade applies a quality result to the message in place: the quality
// translation supersedes the fast one and the coaching fields are attached.
// Returns the upgraded message and whether the id was found.
func (s *Store) Upgrade(id string, result translate.QualityResult) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.index[id]
	if !ok {
		return models.Message{}, false
	}
	m := &s.messages[pos]
	m.QualityTranslation = result.Translation
	m.IsQualityTranslated = true
	m.Analysis = result.Analysis
	m.Strategy = result.Strategy
	m.AnswerTranslation = result.AnswerTranslation
	m.LatencyMs = result.LatencyMs
	return *m, true
}

// Get returns the message with the given id.
func (s *Store) Get(id string) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[id]
	if !ok {
		return models.Message{}, false
	}
	return s.messages[pos], true
}

// Messages returns a copy of the log in append order.
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// RecentContext renders the last n turns as grounding context for the
// quality backend.
func (s *Store) RecentContext(n int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.messages) - n
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, len(s.messages)-start)
	for _, m := range s.messages[start:] {
		parts = append(parts, fmt.Sprintf("%s: %s", m.Role, m.Text))
	}
	return strings.Join(parts, "\n")
}

// Reset clears the log for a new session.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.index = make(map[string]int)
}

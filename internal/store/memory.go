package store

import (
	"context"
	"sync"
	"time"

	"github.com/orvn/orvi/backend/internal/model/chat"
	"github.com/orvn/orvi/backend/internal/model/newsletter"
)

// Memory keeps the message log and subscriber list in process memory. It
// trades the durability contract away, so it only backs tests.
type Memory struct {
	mu          sync.RWMutex
	nextID      int64
	messages    map[string][]chat.Message
	subscribers map[string]newsletter.Subscriber
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		messages:    make(map[string][]chat.Message),
		subscribers: make(map[string]newsletter.Subscriber),
	}
}

// Append records one turn. Sessions exist implicitly once referenced.
func (m *Memory) Append(_ context.Context, sessionID, role, text string) (chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	msg := chat.Message{
		ID:        m.nextID,
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	m.messages[sessionID] = append(m.messages[sessionID], msg)
	return msg, nil
}

// ReadRecent returns up to limit most recent messages oldest-first. An
// unknown session is an empty history, not an error.
func (m *Memory) ReadRecent(_ context.Context, sessionID string, limit int) ([]chat.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.messages[sessionID]
	if limit <= 0 || len(history) == 0 {
		return []chat.Message{}, nil
	}

	start := 0
	if len(history) > limit {
		start = len(history) - limit
	}

	copied := make([]chat.Message, len(history)-start)
	copy(copied, history[start:])
	return copied, nil
}

// AddSubscriber records a signup, rejecting duplicates.
func (m *Memory) AddSubscriber(_ context.Context, email string) (newsletter.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscribers[email]; ok {
		return newsletter.Subscriber{}, ErrAlreadySubscribed
	}

	m.nextID++
	sub := newsletter.Subscriber{ID: m.nextID, Email: email, CreatedAt: time.Now().UTC()}
	m.subscribers[email] = sub
	return sub, nil
}

package store

import (
	"context"
	"errors"

	"github.com/orvn/orvi/backend/internal/model/chat"
	"github.com/orvn/orvi/backend/internal/model/newsletter"
)

var (
	// ErrStoreUnavailable reports that the persistence layer could not be
	// reached. Appends never fail silently.
	ErrStoreUnavailable = errors.New("message store unavailable")

	// ErrAlreadySubscribed reports a duplicate newsletter signup.
	ErrAlreadySubscribed = errors.New("already subscribed")
)

// MessageStore is the append-only, session-scoped message log. An append is
// durable before the call returns. ReadRecent returns the most recent limit
// messages oldest-first; an unknown session yields an empty slice, not an
// error.
type MessageStore interface {
	Append(ctx context.Context, sessionID, role, text string) (chat.Message, error)
	ReadRecent(ctx context.Context, sessionID string, limit int) ([]chat.Message, error)
}

// SubscriberStore persists newsletter signups.
type SubscriberStore interface {
	AddSubscriber(ctx context.Context, email string) (newsletter.Subscriber, error)
}

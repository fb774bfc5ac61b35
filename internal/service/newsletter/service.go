package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/orvn/orvi/backend/internal/store"
)

// ErrEmailRequired rejects a subscribe request with no email.
var ErrEmailRequired = errors.New("email is required")

// Mailer delivers the welcome email. Nil disables sending.
type Mailer interface {
	SendWelcome(ctx context.Context, email string) error
}

// Service handles newsletter signups: uniqueness check, insert, welcome mail.
type Service struct {
	subscribers store.SubscriberStore
	mailer      Mailer
}

// NewService wires the signup flow.
func NewService(subscribers store.SubscriberStore, mailer Mailer) *Service {
	return &Service{subscribers: subscribers, mailer: mailer}
}

// Subscribe records the email and sends the welcome mail. A duplicate email
// surfaces as store.ErrAlreadySubscribed. A mail failure surfaces as an error
// but does not remove the already-persisted subscriber row.
func (s *Service) Subscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}

	if _, err := s.subscribers.AddSubscriber(ctx, email); err != nil {
		return err
	}

	if s.mailer == nil {
		slog.Warn("mail disabled, skipping welcome email", "email", email)
		return nil
	}

	if err := s.mailer.SendWelcome(ctx, email); err != nil {
		return fmt.Errorf("welcome mail: %w", err)
	}
	return nil
}

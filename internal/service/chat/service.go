package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/orvn/orvi/backend/internal/model/chat"
	"github.com/orvn/orvi/backend/internal/store"
)

var (
	// ErrEmptyMessage rejects a blank submission before any side effect.
	ErrEmptyMessage = errors.New("message is required")

	// ErrResponderUnavailable reports that no completion service was
	// configured at bootstrap.
	ErrResponderUnavailable = errors.New("completion service not configured")
)

// Responder generates a reply for one context window. The production
// implementation is the ai.Service; tests inject fakes.
type Responder interface {
	Respond(ctx context.Context, history []chat.Message, userText string) (string, error)
}

// Service runs the exchange flow: validate, resolve the session, persist the
// user turn, call the completion service, persist the reply.
//
// Session identifiers are trusted verbatim: any caller-supplied string keys a
// conversation, with no ownership check. Server-issued IDs are random UUIDs,
// so honest clients get unguessable keys, but a caller who knows an ID can
// read and extend that conversation.
type Service struct {
	store     store.MessageStore
	responder Responder
	window    int
}

// NewService wires the orchestrator. window caps how many stored turns feed
// the context window of each exchange.
func NewService(messages store.MessageStore, responder Responder, window int) *Service {
	return &Service{
		store:     messages,
		responder: responder,
		window:    window,
	}
}

// HandleExchange executes one full exchange and returns the session ID and
// generated reply.
//
// The two appends are deliberately independent: a failure after the user turn
// is persisted leaves the log reading "asked but not answered" rather than
// rolling the question back. There is no retry at this layer.
func (s *Service) HandleExchange(ctx context.Context, sessionID, userText string) (chat.Exchange, error) {
	sessionID, history, err := s.PrepareExchange(ctx, sessionID, userText)
	if err != nil {
		return chat.Exchange{}, err
	}

	if s.responder == nil {
		return chat.Exchange{}, ErrResponderUnavailable
	}

	reply, err := s.responder.Respond(ctx, history, userText)
	if err != nil {
		return chat.Exchange{}, err
	}

	if err := s.CompleteExchange(ctx, sessionID, reply); err != nil {
		return chat.Exchange{}, err
	}

	return chat.Exchange{SessionID: sessionID, Reply: reply}, nil
}

// PrepareExchange validates the submission, resolves the session identifier,
// snapshots the pre-append history for the context window, and persists the
// user turn. The history never contains the new text, so the window always
// ends with it exactly once.
func (s *Service) PrepareExchange(ctx context.Context, sessionID, userText string) (string, []chat.Message, error) {
	if strings.TrimSpace(userText) == "" {
		return "", nil, ErrEmptyMessage
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	history, err := s.store.ReadRecent(ctx, sessionID, s.window)
	if err != nil {
		return "", nil, err
	}

	if _, err := s.store.Append(ctx, sessionID, chat.RoleUser, userText); err != nil {
		return "", nil, err
	}

	return sessionID, history, nil
}

// CompleteExchange persists the assistant turn that closes an exchange.
func (s *Service) CompleteExchange(ctx context.Context, sessionID, reply string) error {
	_, err := s.store.Append(ctx, sessionID, chat.RoleAssistant, reply)
	return err
}

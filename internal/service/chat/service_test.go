package chat_test

import (
	"context"
	"errors"
	"testing"

	chatModel "github.com/orvn/orvi/backend/internal/model/chat"
	chat "github.com/orvn/orvi/backend/internal/service/chat"
	"github.com/orvn/orvi/backend/internal/store"
)

type fakeResponder struct {
	reply   string
	err     error
	calls   int
	history []chatModel.Message
	text    string
}

func (f *fakeResponder) Respond(_ context.Context, history []chatModel.Message, userText string) (string, error) {
	f.calls++
	f.history = history
	f.text = userText
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestHandleExchangePersistsBothTurnsInOrder(t *testing.T) {
	messages := store.NewMemory()
	responder := &fakeResponder{reply: "Hi! Want to hear about our roles?"}
	svc := chat.NewService(messages, responder, 10)

	result, err := svc.HandleExchange(context.Background(), "", "Hello")
	if err != nil {
		t.Fatalf("HandleExchange err: %v", err)
	}

	if result.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
	if result.Reply != "Hi! Want to hear about our roles?" {
		t.Fatalf("unexpected reply: %q", result.Reply)
	}

	stored, err := messages.ReadRecent(context.Background(), result.SessionID, 10)
	if err != nil {
		t.Fatalf("ReadRecent err: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored turns, got %d", len(stored))
	}
	if stored[0].Role != chatModel.RoleUser || stored[0].Text != "Hello" {
		t.Fatalf("unexpected user turn: %+v", stored[0])
	}
	if stored[1].Role != chatModel.RoleAssistant || stored[1].Text != result.Reply {
		t.Fatalf("unexpected assistant turn: %+v", stored[1])
	}
}

func TestHandleExchangeRejectsBlankMessage(t *testing.T) {
	messages := store.NewMemory()
	responder := &fakeResponder{reply: "unused"}
	svc := chat.NewService(messages, responder, 10)

	_, err := svc.HandleExchange(context.Background(), "s1", "   ")
	if !errors.Is(err, chat.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	if responder.calls != 0 {
		t.Fatal("responder must not be called for a blank message")
	}
	stored, _ := messages.ReadRecent(context.Background(), "s1", 10)
	if len(stored) != 0 {
		t.Fatalf("expected no writes, got %d", len(stored))
	}
}

func TestHandleExchangeReusesSuppliedSessionID(t *testing.T) {
	messages := store.NewMemory()
	responder := &fakeResponder{reply: "ok"}
	svc := chat.NewService(messages, responder, 10)

	result, err := svc.HandleExchange(context.Background(), "my-session", "Hello")
	if err != nil {
		t.Fatalf("HandleExchange err: %v", err)
	}
	if result.SessionID != "my-session" {
		t.Fatalf("expected supplied session id to be reused, got %q", result.SessionID)
	}
}

func TestHandleExchangeWindowEndsWithNewText(t *testing.T) {
	messages := store.NewMemory()
	responder := &fakeResponder{reply: "ok"}
	svc := chat.NewService(messages, responder, 3)

	ctx := context.Background()
	for _, text := range []string{"first", "second", "third"} {
		if _, err := svc.HandleExchange(ctx, "s1", text); err != nil {
			t.Fatalf("HandleExchange err: %v", err)
		}
	}

	// The pre-append history handed to the responder never contains the new
	// text, so the assembled window ends with it exactly once.
	if responder.text != "third" {
		t.Fatalf("expected newest text %q, got %q", "third", responder.text)
	}
	if len(responder.history) != 3 {
		t.Fatalf("expected history capped at window 3, got %d", len(responder.history))
	}
	for _, msg := range responder.history {
		if msg.Text == "third" {
			t.Fatal("history must not already contain the new user text")
		}
	}
}

func TestHandleExchangeUpstreamFailureKeepsUserTurn(t *testing.T) {
	messages := store.NewMemory()
	responder := &fakeResponder{err: errors.New("model exploded")}
	svc := chat.NewService(messages, responder, 10)

	_, err := svc.HandleExchange(context.Background(), "s1", "Hello")
	if err == nil {
		t.Fatal("expected upstream failure to propagate")
	}

	stored, _ := messages.ReadRecent(context.Background(), "s1", 10)
	if len(stored) != 1 {
		t.Fatalf("expected only the user turn persisted, got %d turns", len(stored))
	}
	if stored[0].Role != chatModel.RoleUser {
		t.Fatalf("expected user turn, got %+v", stored[0])
	}
}

func TestHandleExchangeDuplicateSubmissionsAreIndependent(t *testing.T) {
	messages := store.NewMemory()
	responder := &fakeResponder{reply: "ok"}
	svc := chat.NewService(messages, responder, 10)

	ctx := context.Background()
	if _, err := svc.HandleExchange(ctx, "s1", "same text"); err != nil {
		t.Fatalf("HandleExchange err: %v", err)
	}
	if _, err := svc.HandleExchange(ctx, "s1", "same text"); err != nil {
		t.Fatalf("HandleExchange err: %v", err)
	}

	stored, _ := messages.ReadRecent(ctx, "s1", 10)
	if len(stored) != 4 {
		t.Fatalf("expected 4 turns from two independent exchanges, got %d", len(stored))
	}
}

type failingStore struct{}

func (failingStore) Append(context.Context, string, string, string) (chatModel.Message, error) {
	return chatModel.Message{}, store.ErrStoreUnavailable
}

func (failingStore) ReadRecent(context.Context, string, int) ([]chatModel.Message, error) {
	return nil, store.ErrStoreUnavailable
}

func TestHandleExchangeStoreFailureSkipsResponder(t *testing.T) {
	responder := &fakeResponder{reply: "unused"}
	svc := chat.NewService(failingStore{}, responder, 10)

	_, err := svc.HandleExchange(context.Background(), "s1", "Hello")
	if !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	if responder.calls != 0 {
		t.Fatal("responder must not be called when the store is down")
	}
}

func TestHandleExchangeNoResponderConfigured(t *testing.T) {
	messages := store.NewMemory()
	svc := chat.NewService(messages, nil, 10)

	_, err := svc.HandleExchange(context.Background(), "s1", "Hello")
	if !errors.Is(err, chat.ErrResponderUnavailable) {
		t.Fatalf("expected ErrResponderUnavailable, got %v", err)
	}
}

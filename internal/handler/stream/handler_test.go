package stream

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/orvn/orvi/backend/internal/model/chat"
	chatService "github.com/orvn/orvi/backend/internal/service/chat"
	"github.com/orvn/orvi/backend/internal/store"
)

type fakeStreamer struct {
	chunks []*schema.Message
	err    error
}

func (f *fakeStreamer) RespondStream(_ context.Context, _ []chat.Message, _ string) (*schema.StreamReader[*schema.Message], error) {
	if f.err != nil {
		return nil, f.err
	}
	return schema.StreamReaderFromArray(f.chunks), nil
}

func TestHandleStreamRequestSendsDeltasAndPersistsBothTurns(t *testing.T) {
	messages := store.NewMemory()
	svc := chatService.NewService(messages, nil, 10)
	streamer := &fakeStreamer{chunks: []*schema.Message{
		schema.AssistantMessage("Hi ", nil),
		schema.AssistantMessage("there!", nil),
	}}
	h := New(streamer, svc)

	resp := httptest.NewRecorder()
	err := h.HandleStreamRequest(context.Background(), resp, "s1", "Hello")
	if err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %q", ct)
	}

	body := resp.Body.String()
	for _, frame := range []string{
		`"event":"start"`,
		`"event":"delta","content":"Hi ","sessionId":"s1"`,
		`"event":"delta","content":"there!","sessionId":"s1"`,
		`"content":"Hi there!"`,
		`"event":"end"`,
	} {
		if !strings.Contains(body, frame) {
			t.Fatalf("missing frame %s in body:\n%s", frame, body)
		}
	}

	stored, err := messages.ReadRecent(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("ReadRecent err: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 persisted turns, got %d", len(stored))
	}
	if stored[0].Role != chat.RoleUser || stored[0].Text != "Hello" {
		t.Fatalf("unexpected user turn: %+v", stored[0])
	}
	if stored[1].Role != chat.RoleAssistant || stored[1].Text != "Hi there!" {
		t.Fatalf("unexpected assistant turn: %+v", stored[1])
	}
}

func TestHandleStreamRequestUpstreamFailureKeepsUserTurn(t *testing.T) {
	messages := store.NewMemory()
	svc := chatService.NewService(messages, nil, 10)
	h := New(&fakeStreamer{err: errors.New("upstream down")}, svc)

	resp := httptest.NewRecorder()
	err := h.HandleStreamRequest(context.Background(), resp, "s1", "Hello")
	if err == nil {
		t.Fatal("expected upstream failure to propagate")
	}

	if !strings.Contains(resp.Body.String(), `"event":"error"`) {
		t.Fatalf("expected an error frame, got:\n%s", resp.Body.String())
	}

	stored, _ := messages.ReadRecent(context.Background(), "s1", 10)
	if len(stored) != 1 {
		t.Fatalf("expected only the user turn persisted, got %d", len(stored))
	}
}

func TestHandleStreamRequestRejectsBlankMessage(t *testing.T) {
	messages := store.NewMemory()
	svc := chatService.NewService(messages, nil, 10)
	h := New(&fakeStreamer{}, svc)

	resp := httptest.NewRecorder()
	err := h.HandleStreamRequest(context.Background(), resp, "s1", "   ")
	if !errors.Is(err, chatService.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	stored, _ := messages.ReadRecent(context.Background(), "s1", 10)
	if len(stored) != 0 {
		t.Fatalf("expected no writes, got %d", len(stored))
	}
}

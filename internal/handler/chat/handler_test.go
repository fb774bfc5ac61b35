package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"

	chatModel "github.com/orvn/orvi/backend/internal/model/chat"
	"github.com/orvn/orvi/backend/internal/service/ai"
	chatService "github.com/orvn/orvi/backend/internal/service/chat"
)

type fakeExchanger struct {
	result chatModel.Exchange
	err    error
	calls  int
}

func (f *fakeExchanger) HandleExchange(_ context.Context, sessionID, userText string) (chatModel.Exchange, error) {
	f.calls++
	if f.err != nil {
		return chatModel.Exchange{}, f.err
	}
	return f.result, nil
}

func setupRouter(exchanger Exchanger) *chi.Mux {
	handler := New(exchanger, otel.Tracer("test"), otel.Meter("test"))
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func postChat(t *testing.T, r *chi.Mux, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatSuccess(t *testing.T) {
	fake := &fakeExchanger{result: chatModel.Exchange{SessionID: "abc", Reply: "hello!"}}
	r := setupRouter(fake)

	resp := postChat(t, r, []byte(`{"message":"Hello"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		SessionID string `json:"sessionId"`
		Reply     string `json:"reply"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.SessionID != "abc" || body.Reply != "hello!" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestChatMissingMessage(t *testing.T) {
	fake := &fakeExchanger{err: chatService.ErrEmptyMessage}
	r := setupRouter(fake)

	resp := postChat(t, r, []byte(`{}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["message"] != "Message is required" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestChatInvalidJSONBody(t *testing.T) {
	fake := &fakeExchanger{}
	r := setupRouter(fake)

	resp := postChat(t, r, []byte(`{not json`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if fake.calls != 0 {
		t.Fatal("exchange must not run for an unparseable body")
	}
}

func TestChatUpstreamFailureIsGeneric(t *testing.T) {
	fake := &fakeExchanger{err: ai.ErrUpstreamTimeout}
	r := setupRouter(fake)

	resp := postChat(t, r, []byte(`{"message":"Hello"}`))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	// Upstream detail never leaks to the client.
	if body["message"] != "Server error" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestClassifyFailure(t *testing.T) {
	if got := classifyFailure(ai.ErrUpstreamTimeout); got != "upstream_timeout" {
		t.Fatalf("expected upstream_timeout, got %s", got)
	}
	if got := classifyFailure(errors.New("anything else")); got != "internal" {
		t.Fatalf("expected internal, got %s", got)
	}
}

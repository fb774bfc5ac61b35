package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/orvn/orvi/backend/internal/model/chat"
	"github.com/orvn/orvi/backend/internal/service/ai"
	chatService "github.com/orvn/orvi/backend/internal/service/chat"
	"github.com/orvn/orvi/backend/internal/store"
	"github.com/orvn/orvi/backend/pkg/utils"
)

// Exchanger runs one exchange. Satisfied by the chat service; faked in tests.
type Exchanger interface {
	HandleExchange(ctx context.Context, sessionID, userText string) (chat.Exchange, error)
}

// Handler serves the JSON chat endpoint.
type Handler struct {
	chatSvc   Exchanger
	tracer    trace.Tracer
	exchanges metric.Int64Counter
	failures  metric.Int64Counter
}

// New creates the chat handler with its instrumentation.
func New(chatSvc Exchanger, tracer trace.Tracer, meter metric.Meter) *Handler {
	exchanges, err := meter.Int64Counter("chat.exchanges",
		metric.WithDescription("completed chat exchanges"))
	if err != nil {
		slog.Error("failed to create exchanges counter", "error", err)
	}
	failures, err := meter.Int64Counter("chat.failures",
		metric.WithDescription("failed chat exchanges by reason"))
	if err != nil {
		slog.Error("failed to create failures counter", "error", err)
	}

	return &Handler{
		chatSvc:   chatSvc,
		tracer:    tracer,
		exchanges: exchanges,
		failures:  failures,
	}
}

// RegisterRoutes mounts the chat endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleExchange)
}

func (h *Handler) handleExchange(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message   string `json:"message"`
		SessionID string `json:"sessionId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "Message is required")
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "chat.exchange")
	defer span.End()

	result, err := h.chatSvc.HandleExchange(ctx, payload.SessionID, payload.Message)
	if err != nil {
		if errors.Is(err, chatService.ErrEmptyMessage) {
			utils.RespondMessage(w, http.StatusBadRequest, "Message is required")
			return
		}

		reason := classifyFailure(err)
		slog.Error("chat exchange failed", "reason", reason, "error", err)
		h.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))

		// Internal detail stays in logs and traces; the client always sees
		// the same generic body.
		utils.RespondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.exchanges.Add(ctx, 1)
	utils.RespondJSON(w, http.StatusOK, result)
}

func classifyFailure(err error) string {
	switch {
	case errors.Is(err, store.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ai.ErrUpstreamTimeout):
		return "upstream_timeout"
	case errors.Is(err, ai.ErrUpstreamError):
		return "upstream_error"
	default:
		return "internal"
	}
}

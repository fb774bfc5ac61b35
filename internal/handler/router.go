package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	chatHandler "github.com/orvn/orvi/backend/internal/handler/chat"
	newsletterHandler "github.com/orvn/orvi/backend/internal/handler/newsletter"
	streamHandler "github.com/orvn/orvi/backend/internal/handler/stream"
	middlewarePkg "github.com/orvn/orvi/backend/internal/middleware"
	chatService "github.com/orvn/orvi/backend/internal/service/chat"
	newsletterService "github.com/orvn/orvi/backend/internal/service/newsletter"
	"github.com/orvn/orvi/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. streamer may be nil when the
// completion service is not configured; the stream endpoint then answers 503
// while the rest of the API stays up.
func NewRouter(
	chatSvc *chatService.Service,
	newsSvc *newsletterService.Service,
	streamer streamHandler.Streamer,
	tracer trace.Tracer,
	meter metric.Meter,
	corsOrigin string,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middlewarePkg.CORS(corsOrigin))

	chatH := chatHandler.New(chatSvc, tracer, meter)
	newsH := newsletterHandler.New(newsSvc)

	var streamH *streamHandler.Handler
	if streamer != nil {
		streamH = streamHandler.New(streamer, chatSvc)
	}

	r.Route("/api", func(api chi.Router) {
		chatH.RegisterRoutes(api)
		newsH.RegisterRoutes(api)

		api.Get("/chat/stream", func(w http.ResponseWriter, r *http.Request) {
			if streamH == nil {
				utils.RespondMessage(w, http.StatusServiceUnavailable, "Streaming unavailable")
				return
			}

			message := r.URL.Query().Get("message")
			if message == "" {
				utils.RespondMessage(w, http.StatusBadRequest, "Message is required")
				return
			}
			sessionID := r.URL.Query().Get("sessionId")

			if err := streamH.HandleStreamRequest(r.Context(), w, sessionID, message); err != nil {
				slog.Error("stream request failed", "error", err)
			}
		})
	})

	return r
}

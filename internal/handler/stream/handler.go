package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cloudwego/eino/schema"

	"github.com/orvn/orvi/backend/internal/model/chat"
	chatService "github.com/orvn/orvi/backend/internal/service/chat"
	"github.com/orvn/orvi/backend/pkg/utils"
)

// Streamer opens a streaming completion for one context window. Satisfied by
// the ai service; faked in tests via schema.StreamReaderFromArray.
type Streamer interface {
	RespondStream(ctx context.Context, history []chat.Message, userText string) (*schema.StreamReader[*schema.Message], error)
}

// Handler streams reply deltas over Server-Sent Events. It persists the same
// two turns as the JSON endpoint: the user turn before the upstream call, the
// assistant turn after the full reply has been assembled.
type Handler struct {
	streamer Streamer
	chatSvc  *chatService.Service
}

// New creates the stream handler.
func New(streamer Streamer, chatSvc *chatService.Service) *Handler {
	return &Handler{streamer: streamer, chatSvc: chatSvc}
}

// Response is one SSE frame.
type Response struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest runs one streamed exchange.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	sessionID, history, err := h.chatSvc.PrepareExchange(ctx, sessionID, userMessage)
	if err != nil {
		h.sendError(w, flusher, "failed to start exchange")
		return err
	}

	h.send(w, flusher, Response{Event: "start", SessionID: sessionID})

	stream, err := h.streamer.RespondStream(ctx, history, userMessage)
	if err != nil {
		h.sendError(w, flusher, "reply generation failed")
		return err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			h.sendError(w, flusher, "reply generation failed")
			return recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.send(w, flusher, Response{Event: "delta", SessionID: sessionID, Content: chunk.Content})
		}
	}

	reply, err := schema.ConcatMessages(chunks)
	if err != nil {
		h.sendError(w, flusher, "reply generation failed")
		return err
	}

	h.send(w, flusher, Response{Event: "message", SessionID: sessionID, Content: reply.Content})

	// The client already has the reply at this point; a persistence failure
	// is logged but does not retract the stream.
	if err := h.chatSvc.CompleteExchange(ctx, sessionID, reply.Content); err != nil {
		slog.Error("failed to persist assistant turn", "session", sessionID, "error", err)
	}

	h.send(w, flusher, Response{Event: "end", SessionID: sessionID, Finished: true})
	return nil
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, response Response) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, msg string) {
	h.send(w, flusher, Response{Event: "error", Error: msg})
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/orvn/orvi/backend/internal/config"
	"github.com/orvn/orvi/backend/internal/model/chat"
	"github.com/orvn/orvi/backend/internal/model/persona"
)

var (
	// ErrUpstreamTimeout reports that the completion service did not answer
	// within the configured budget.
	ErrUpstreamTimeout = errors.New("completion service timed out")

	// ErrUpstreamError reports a transport or non-success failure from the
	// completion service.
	ErrUpstreamError = errors.New("completion service failed")
)

// Service is the boundary to the external completion service. One instance
// is constructed at bootstrap and injected where needed; nothing here is
// package-global, so tests can substitute a fake.
type Service struct {
	chatModel    model.ChatModel
	timeout      time.Duration
	window       int
	systemPrompt string
	chain        compose.Runnable[map[string]any, *schema.Message]
	streaming    bool
}

// NewService compiles the prompt-template + chat-model chain. The persona
// preamble comes from ORVI_SYSTEM_PROMPT when set and the built-in persona
// otherwise; either way it is constant for the life of the process.
func NewService(ctx context.Context, aiCfg config.AIConfig, chatCfg config.ChatConfig) (*Service, error) {
	chatModel, err := aiCfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	systemPrompt := chatCfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = SystemPrompt(persona.Default())
	}

	return &Service{
		chatModel:    chatModel,
		timeout:      aiCfg.Timeout,
		window:       chatCfg.HistoryWindow,
		systemPrompt: systemPrompt,
		chain:        runnable,
		streaming:    aiCfg.Stream,
	}, nil
}

// StreamingEnabled reports whether SSE delta streaming is configured.
func (s *Service) StreamingEnabled() bool {
	return s.streaming
}

// Respond sends one context window upstream and returns the generated text.
// The call is bounded by the configured timeout; there is no retry and no
// caching, every call is a fresh round trip.
func (s *Service) Respond(ctx context.Context, history []chat.Message, userText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.chain.Invoke(ctx, s.buildChainInput(history, userText))
	if err != nil {
		return "", classifyUpstream(ctx, err)
	}
	return response.Content, nil
}

// RespondStream opens a streaming completion for the same context window.
// The caller owns the reader and its lifetime; the timeout bounds the whole
// stream, not just the first byte.
func (s *Service) RespondStream(ctx context.Context, history []chat.Message, userText string) (*schema.StreamReader[*schema.Message], error) {
	if !s.streaming {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(history, userText))
	if err != nil {
		return nil, classifyUpstream(ctx, err)
	}
	return stream, nil
}

func (s *Service) buildChainInput(history []chat.Message, userText string) map[string]any {
	return map[string]any{
		"system":  s.systemPrompt,
		"history": BuildHistory(history, s.window),
		"query":   userText,
	}
}

// classifyUpstream folds chain failures into the two sentinel categories the
// orchestrator distinguishes. Deadline expiry, whether noticed by the chain
// or by our own context, counts as a timeout.
func classifyUpstream(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamError, err)
}

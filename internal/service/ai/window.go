package ai

import (
	"github.com/cloudwego/eino/schema"

	"github.com/orvn/orvi/backend/internal/model/chat"
)

// BuildHistory converts the most recent limit stored turns into completion
// messages, preserving chronological order. Fewer than limit turns means all
// of them; there is no padding. Unknown roles are skipped rather than sent
// upstream.
func BuildHistory(messages []chat.Message, limit int) []*schema.Message {
	if len(messages) == 0 || limit <= 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > limit {
		startIdx = len(messages) - limit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Text))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}

	return history
}

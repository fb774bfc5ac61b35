package chat

import "time"

// Roles stored in the message log. The completion service uses the same
// vocabulary, so the stored role maps straight onto the upstream one.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one immutable turn of a conversation. Messages are only created
// by the exchange flow and never mutated afterwards; order within a session
// is CreatedAt ascending with insertion order breaking ties.
type Message struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

package ai

import (
	"fmt"
	"strings"

	"github.com/orvn/orvi/backend/internal/model/persona"
)

// SystemPrompt renders the persona preamble sent as the first entry of every
// context window. The output depends only on the persona value, so with the
// default persona it is identical across all sessions and exchanges.
func SystemPrompt(p persona.Persona) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, the friendly chatbot of %s.\n", p.Name, p.Product)
	fmt.Fprintf(&b, "Your job is %s.\n\n", p.Mission)

	b.WriteString("Voice and behavior rules:\n")
	for _, rule := range p.VoiceRules {
		b.WriteString("- ")
		b.WriteString(rule)
		b.WriteString("\n")
	}

	if p.OpeningLine != "" {
		fmt.Fprintf(&b, "\nGreeting reference: %s\n", p.OpeningLine)
	}

	return b.String()
}

package chat

import (
	"fmt"
)

const (
	ChatRoleUser   = "user"      // Prompt
	ChatRoleAgent  = "assistant" // Model
	ChatRoleSystem = "system"    // Instructions
)

// ChatMessage is a single message sent to or returned by a model.
// The shape matches the chat APIs of both Ollama and Anthropic.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse is a model's reply to a list of messages
type ChatResponse struct {
	Message      string `json:"message"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
}

// Prompt builds a single-turn conversation. An empty system prompt is left out.
func Prompt(system, user string) []ChatMessage {
	msgs := make([]ChatMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, ChatMessage{Role: ChatRoleSystem, Content: system})
	}
	return append(msgs, ChatMessage{Role: ChatRoleUser, Content: user})
}

// Validate checks that messages can be sent to a model
func Validate(messages []ChatMessage) error {
	if len(messages) == 0 {
		return fmt.Errorf("at least one message is required")
	}
	for i, m := range messages {
		switch m.Role {
		case ChatRoleUser, ChatRoleAgent, ChatRoleSystem:
		default:
			return fmt.Errorf("message %d has unknown role %q", i, m.Role)
		}
		if m.Content == "" {
			return fmt.Errorf("message %d is empty", i)
		}
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jwebster45206/mystery-engine/pkg/chat"
)

func TestNewLLMService(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		cfg     LLMConfig
		wantErr bool
	}{
		{"anthropic", LLMConfig{Provider: "anthropic", AnthropicAPIKey: "key", ModelName: "m"}, false},
		{"anthropic without key", LLMConfig{Provider: "anthropic"}, true},
		{"ollama", LLMConfig{Provider: "Ollama", OllamaURL: "http://localhost:11434"}, false},
		{"ollama without url", LLMConfig{Provider: "ollama"}, true},
		{"mock", LLMConfig{Provider: "mock"}, false},
		{"unknown", LLMConfig{Provider: "venice"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewLLMService(tt.cfg, log)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if svc == nil {
				t.Error("Expected a service")
			}
		})
	}
}

func TestPromptGenerator_Generate(t *testing.T) {
	mock := NewMockLLMAPI()
	mock.SetChatResponse("You notice the lamp was lit.")
	gen := NewPromptGenerator(mock, "")

	text, err := gen.Generate(context.Background(), "narrate this")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "You notice the lamp was lit." {
		t.Errorf("Unexpected text %q", text)
	}

	_, calls, _ := mock.GetCalls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 call, got %d", len(calls))
	}
	msgs := calls[0].Messages
	if len(msgs) != 2 || msgs[0].Role != chat.ChatRoleSystem || msgs[0].Content != detectiveSystemPrompt {
		t.Errorf("Expected default system prompt, got %+v", msgs)
	}
	if msgs[1].Content != "narrate this" {
		t.Errorf("Expected prompt as user message, got %q", msgs[1].Content)
	}
}

func TestPromptGenerator_GenerateError(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockLLMAPI()
	mock.SetChatError(boom)

	_, err := NewPromptGenerator(mock, "custom").Generate(context.Background(), "x")
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped error, got %v", err)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/mystery-engine/pkg/chat"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel prepares the model on startup
	InitModel(ctx context.Context, modelName string) error

	// IsModelReady checks if the specified model is ready for use
	IsModelReady(ctx context.Context, modelName string) (bool, error)

	// Chat generates a response to a list of messages
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
}

// LLMConfig selects and configures a provider
type LLMConfig struct {
	Provider        string
	ModelName       string
	AnthropicAPIKey string
	OllamaURL       string
}

// NewLLMService builds the provider named in cfg
func NewLLMService(cfg LLMConfig, logger *slog.Logger) (LLMService, error) {
	switch strings.ToLower(cfg.Provider) {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required when using anthropic provider")
		}
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, logger), nil
	case "ollama":
		if cfg.OllamaURL == "" {
			return nil, fmt.Errorf("ollama URL is required when using ollama provider")
		}
		return NewOllamaService(cfg.OllamaURL, cfg.ModelName, logger), nil
	case "mock":
		return NewMockLLMAPI(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q (supported: anthropic, ollama, mock)", cfg.Provider)
	}
}

const detectiveSystemPrompt = "You assist a detective game. Follow the requested output format exactly."

// PromptGenerator turns single prompts into chat calls, so an LLMService can
// back the lie detector
type PromptGenerator struct {
	llm    LLMService
	system string
}

// NewPromptGenerator wraps llm. An empty system prompt uses the default one.
func NewPromptGenerator(llm LLMService, system string) *PromptGenerator {
	if system == "" {
		system = detectiveSystemPrompt
	}
	return &PromptGenerator{llm: llm, system: system}
}

// Generate sends prompt as a single user turn and returns the reply text
func (g *PromptGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.llm.Chat(ctx, chat.Prompt(g.system, prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	return resp.Message, nil
}

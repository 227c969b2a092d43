package services

import (
	"context"
	"strings"
	"sync"

	"github.com/jwebster45206/mystery-engine/pkg/chat"
)

// mockJudgement is returned to contradiction checks when no ChatFunc is set
const mockJudgement = `{"contradict": false, "severity": "none", "explanation": "The mock model sees no conflict."}`

// MockLLMAPI is a mock implementation of LLMService for testing and for
// running the engine without a model
type MockLLMAPI struct {
	InitModelFunc    func(ctx context.Context, modelName string) error
	ChatFunc         func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
	IsModelReadyFunc func(ctx context.Context, modelName string) (bool, error)

	// Track calls for testing
	InitModelCalls    []string
	ChatCalls         []ChatCall
	IsModelReadyCalls []string

	mu sync.Mutex // protects all fields above
}

type ChatCall struct {
	Messages []chat.ChatMessage
}

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{}
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)
	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// Chat mocks response generation. Without a ChatFunc, prompts asking for a
// JSON verdict get a "no contradiction" verdict and anything else gets a
// fixed reply.
func (m *MockLLMAPI) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChatCalls = append(m.ChatCalls, ChatCall{Messages: messages})
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}

	if n := len(messages); n > 0 && strings.Contains(messages[n-1].Content, "JSON object") {
		return &chat.ChatResponse{Message: mockJudgement}, nil
	}
	return &chat.ChatResponse{Message: "Mock response"}, nil
}

// IsModelReady mocks model readiness check
func (m *MockLLMAPI) IsModelReady(ctx context.Context, modelName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.IsModelReadyCalls = append(m.IsModelReadyCalls, modelName)
	if m.IsModelReadyFunc != nil {
		return m.IsModelReadyFunc(ctx, modelName)
	}
	return true, nil
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = nil
	m.ChatCalls = nil
	m.IsModelReadyCalls = nil
}

// SetInitModelError sets up the mock to return an error on InitModel
func (m *MockLLMAPI) SetInitModelError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelFunc = func(ctx context.Context, modelName string) error {
		return err
	}
}

// SetChatError sets up the mock to return an error on Chat
func (m *MockLLMAPI) SetChatError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return nil, err
	}
}

// SetChatResponse sets up the mock to always reply with message
func (m *MockLLMAPI) SetChatResponse(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{Message: message}, nil
	}
}

// SetModelNotReady sets up the mock to return false for IsModelReady
func (m *MockLLMAPI) SetModelNotReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IsModelReadyFunc = func(ctx context.Context, modelName string) (bool, error) {
		return false, nil
	}
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMAPI) GetCalls() ([]string, []ChatCall, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	initCalls := append([]string(nil), m.InitModelCalls...)
	chatCalls := append([]ChatCall(nil), m.ChatCalls...)
	readyCalls := append([]string(nil), m.IsModelReadyCalls...)
	return initCalls, chatCalls, readyCalls
}

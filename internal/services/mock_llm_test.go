package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/jwebster45206/mystery-engine/pkg/chat"
)

func TestMockLLMService(t *testing.T) {
	mockService := NewMockLLMAPI()

	if err := mockService.InitModel(context.Background(), "test-model"); err != nil {
		t.Errorf("InitModel failed: %v", err)
	}

	response, err := mockService.Chat(context.Background(), chat.Prompt("", "Hello"))
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if response.Message != "Mock response" {
		t.Errorf("Expected 'Mock response', got '%s'", response.Message)
	}

	response, err = mockService.Chat(context.Background(), chat.Prompt("", "Respond with only a JSON object."))
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if response.Message != mockJudgement {
		t.Errorf("Expected a judgement for a JSON prompt, got '%s'", response.Message)
	}

	initCalls, chatCalls, _ := mockService.GetCalls()
	if len(initCalls) != 1 || initCalls[0] != "test-model" {
		t.Errorf("Unexpected InitModel calls %v", initCalls)
	}
	if len(chatCalls) != 2 {
		t.Errorf("Expected 2 Chat calls, got %d", len(chatCalls))
	}

	mockService.Reset()
	if _, chatCalls, _ := mockService.GetCalls(); len(chatCalls) != 0 {
		t.Errorf("Expected calls cleared after Reset, got %d", len(chatCalls))
	}
}

func TestMockLLMService_ErrorHandling(t *testing.T) {
	mockService := NewMockLLMAPI()

	expectedErr := fmt.Errorf("initialization failed")
	mockService.SetInitModelError(expectedErr)
	if err := mockService.InitModel(context.Background(), "test-model"); err != expectedErr {
		t.Errorf("Expected error '%v', got '%v'", expectedErr, err)
	}

	mockService.SetChatError(expectedErr)
	if _, err := mockService.Chat(context.Background(), chat.Prompt("", "hi")); err != expectedErr {
		t.Errorf("Expected error '%v', got '%v'", expectedErr, err)
	}

	mockService.SetModelNotReady()
	if ready, _ := mockService.IsModelReady(context.Background(), "test-model"); ready {
		t.Error("Expected model not ready")
	}
}

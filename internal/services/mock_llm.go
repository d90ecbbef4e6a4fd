package services

import (
	"context"
	"sync"

	"github.com/gamedev-tw/npc-engine/pkg/chat"
)

// MockLLMAPI is a mock implementation of LLMService for testing
type MockLLMAPI struct {
	InitModelFunc  func(ctx context.Context, modelName string) error
	ChatFunc       func(ctx context.Context, model string, messages []chat.Message, opts *chat.Options) (*chat.Response, error)
	ListModelsFunc func(ctx context.Context) ([]string, error)
	PingFunc       func(ctx context.Context) error

	// Track calls for testing
	InitModelCalls []string
	ChatCalls      []ChatCall

	mu sync.Mutex // protects all fields above
}

// ChatCall records the arguments of one Chat invocation
type ChatCall struct {
	Model    string
	Messages []chat.Message
	Options  *chat.Options
}

var _ LLMService = (*MockLLMAPI)(nil)

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls: make([]string, 0),
		ChatCalls:      make([]ChatCall, 0),
	}
}

func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)
	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

func (m *MockLLMAPI) Chat(ctx context.Context, model string, messages []chat.Message, opts *chat.Options) (*chat.Response, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{Model: model, Messages: messages, Options: opts})
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, model, messages, opts)
	}
	return &chat.Response{Content: "", Model: model}, nil
}

func (m *MockLLMAPI) ListModels(ctx context.Context) ([]string, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return []string{"mock-model"}, nil
}

func (m *MockLLMAPI) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// LastChatCall returns the most recent Chat invocation, or nil
func (m *MockLLMAPI) LastChatCall() *ChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ChatCalls) == 0 {
		return nil
	}
	call := m.ChatCalls[len(m.ChatCalls)-1]
	return &call
}

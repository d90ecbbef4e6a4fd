package services

import (
	"context"

	"github.com/gamedev-tw/npc-engine/pkg/chat"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel readies the named model on startup (pulling it if needed)
	InitModel(ctx context.Context, modelName string) error

	// Chat generates a single non-streamed chat completion. model selects
	// the model per call; empty means the service default.
	Chat(ctx context.Context, model string, messages []chat.Message, opts *chat.Options) (*chat.Response, error)

	// ListModels returns the models the backend has available
	ListModels(ctx context.Context) ([]string, error)

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error
}

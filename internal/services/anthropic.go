package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gamedev-tw/npc-engine/pkg/chat"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicMaxTokens = 1024
)

// AnthropicService implements LLMService for Anthropic Claude
type AnthropicService struct {
	apiKey     string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ LLMService = (*AnthropicService)(nil)

type anthropicChatRequest struct {
	Model         string         `json:"model"`
	MaxTokens     int            `json:"max_tokens"`
	Temperature   *float64       `json:"temperature,omitempty"`
	Messages      []chat.Message `json:"messages"`
	System        string         `json:"system,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	TopP          *float64       `json:"top_p,omitempty"`
	TopK          *int           `json:"top_k,omitempty"`
	StopSequences []string       `json:"stop_sequences,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicChatResponse struct {
	ID         string                  `json:"id"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAnthropicService(apiKey string, modelName string, logger *slog.Logger) *AnthropicService {
	return &AnthropicService{
		apiKey:    apiKey,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// InitModel is a no-op; the hosted API needs no warm-up
func (a *AnthropicService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// splitChatMessages extracts and combines all system messages into a single
// system prompt and returns the remaining non-system messages
func (a *AnthropicService) splitChatMessages(messages []chat.Message) (string, []chat.Message) {
	var systemParts []string
	var nonSystemMessages []chat.Message

	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			systemParts = append(systemParts, msg.Content)
		} else {
			nonSystemMessages = append(nonSystemMessages, msg)
		}
	}

	return strings.Join(systemParts, "\n\n"), nonSystemMessages
}

// Chat generates a chat response using Anthropic Claude
func (a *AnthropicService) Chat(ctx context.Context, model string, messages []chat.Message, opts *chat.Options) (*chat.Response, error) {
	if model == "" {
		model = a.modelName
	}

	systemPrompt, conversationMessages := a.splitChatMessages(messages)
	if len(conversationMessages) == 0 {
		// The messages API requires at least one user turn
		conversationMessages = []chat.Message{chat.UserMessage("Proceed.")}
	}

	anthropicReq := anthropicChatRequest{
		Model:     model,
		MaxTokens: DefaultAnthropicMaxTokens,
		Messages:  conversationMessages,
		System:    systemPrompt,
		Stream:    false,
	}
	if opts != nil {
		anthropicReq.Temperature = opts.Temperature
		anthropicReq.TopP = opts.TopP
		anthropicReq.TopK = opts.TopK
		anthropicReq.StopSequences = opts.Stop
	}

	reqBody, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", anthropicBaseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var anthropicResp anthropicChatResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || anthropicResp.Error != nil {
		errMsg := "unknown error"
		if anthropicResp.Error != nil {
			errMsg = anthropicResp.Error.Message
		}
		a.logger.Error("Anthropic API returned error",
			"status_code", resp.StatusCode,
			"error", errMsg)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, errMsg)
	}

	var sb strings.Builder
	for _, block := range anthropicResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &chat.Response{
		Content:    sb.String(),
		Model:      anthropicResp.Model,
		CreatedAt:  time.Now().UTC(),
		DoneReason: anthropicResp.StopReason,
	}, nil
}

// ListModels returns the configured model; the messages API has no cheap
// listing endpoint worth polling
func (a *AnthropicService) ListModels(ctx context.Context) ([]string, error) {
	return []string{a.modelName}, nil
}

// Ping verifies the API key is present; reachability is checked lazily on
// the first chat call
func (a *AnthropicService) Ping(ctx context.Context) error {
	if a.apiKey == "" {
		return fmt.Errorf("anthropic api key is not set")
	}
	return nil
}

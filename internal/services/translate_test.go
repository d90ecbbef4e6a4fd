package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedev-tw/npc-engine/pkg/chat"
)

func TestTranslator_Translate(t *testing.T) {
	mock := NewMockLLMAPI()
	mock.ChatFunc = func(ctx context.Context, model string, messages []chat.Message, opts *chat.Options) (*chat.Response, error) {
		return &chat.Response{Content: "  キッチンへ向かう  "}, nil
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	tr := NewTranslator(mock, "test-model", logger)

	out, err := tr.Translate(context.Background(), "Heading to the kitchen", "ja")
	require.NoError(t, err)
	assert.Equal(t, "キッチンへ向かう", out)

	call := mock.LastChatCall()
	require.NotNil(t, call)
	assert.Equal(t, "test-model", call.Model)
	// The BCP 47 tag is expanded to a language name in the prompt.
	assert.Contains(t, call.Messages[0].Content, "Japanese")
	assert.Equal(t, "Heading to the kitchen", call.Messages[1].Content)
}

func TestTranslator_PlainLanguageName(t *testing.T) {
	mock := NewMockLLMAPI()
	mock.ChatFunc = func(ctx context.Context, model string, messages []chat.Message, opts *chat.Options) (*chat.Response, error) {
		return &chat.Response{Content: "Bonjour"}, nil
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	tr := NewTranslator(mock, "m", logger)

	// An unparsable tag is treated as a language name, never rejected.
	_, err := tr.Translate(context.Background(), "Hello", "Quebec French")
	require.NoError(t, err)
	assert.Contains(t, mock.LastChatCall().Messages[0].Content, "Quebec French")
}

func TestTranslator_Errors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	t.Run("empty text passes through without a call", func(t *testing.T) {
		mock := NewMockLLMAPI()
		tr := NewTranslator(mock, "m", logger)
		out, err := tr.Translate(context.Background(), "  ", "ja")
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Nil(t, mock.LastChatCall())
	})

	t.Run("empty target", func(t *testing.T) {
		tr := NewTranslator(NewMockLLMAPI(), "m", logger)
		_, err := tr.Translate(context.Background(), "hi", "")
		assert.Error(t, err)
	})

	t.Run("llm failure surfaces", func(t *testing.T) {
		mock := NewMockLLMAPI()
		mock.ChatFunc = func(context.Context, string, []chat.Message, *chat.Options) (*chat.Response, error) {
			return nil, assert.AnError
		}
		tr := NewTranslator(mock, "m", logger)
		_, err := tr.Translate(context.Background(), "hi", "ja")
		assert.Error(t, err)
	})

	t.Run("empty completion is an error", func(t *testing.T) {
		mock := NewMockLLMAPI()
		mock.ChatFunc = func(context.Context, string, []chat.Message, *chat.Options) (*chat.Response, error) {
			return &chat.Response{Content: "   "}, nil
		}
		tr := NewTranslator(mock, "m", logger)
		_, err := tr.Translate(context.Background(), "hi", "ja")
		assert.Error(t, err)
	})
}

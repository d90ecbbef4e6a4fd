package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/gamedev-tw/npc-engine/pkg/chat"
	"github.com/gamedev-tw/npc-engine/pkg/prompts"
)

// Translator turns NPC action text into the player's language with a
// one-shot LLM call.
type Translator struct {
	llm    LLMService
	model  string
	logger *slog.Logger
}

func NewTranslator(llm LLMService, model string, logger *slog.Logger) *Translator {
	return &Translator{llm: llm, model: model, logger: logger}
}

// resolveLanguage accepts either a BCP 47 tag ("ja", "pt-BR") or a plain
// English language name ("Japanese") and returns the display name to put in
// the prompt.
func resolveLanguage(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("target language is required")
	}
	if tag, err := language.Parse(target); err == nil {
		return display.English.Tags().Name(tag), nil
	}
	// Not a tag; assume it is already an English language name.
	return target, nil
}

// Translate returns text rendered in the target language. Empty input is
// passed through as empty output without a model call. The LLM output is
// used verbatim apart from whitespace trimming; any API failure surfaces as
// an error rather than falling back to the untranslated text.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	langName, err := resolveLanguage(targetLanguage)
	if err != nil {
		return "", err
	}

	messages := prompts.TranslationMessages(text, langName)
	resp, err := t.llm.Chat(ctx, t.model, messages, &chat.Options{
		Temperature: chat.Float64(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("translation call failed: %w", err)
	}

	out := strings.TrimSpace(resp.Content)
	if out == "" {
		return "", fmt.Errorf("translation returned empty output")
	}
	t.logger.Debug("Translated text", "target", langName, "in_len", len(text), "out_len", len(out))
	return out, nil
}

package prompts

import (
	"fmt"

	"github.com/gamedev-tw/npc-engine/pkg/chat"
)

// TranslationMessages builds the message pair for a one-shot translation
// call. The system message pins the model to translation-only output so the
// response can be used verbatim.
func TranslationMessages(text, targetLanguage string) []chat.Message {
	system := fmt.Sprintf(
		"You are a translation engine. Translate the user's text into %s. "+
			"Respond with ONLY the translated text: no quotes, no notes, no explanations.",
		targetLanguage)
	return []chat.Message{
		chat.SystemMessage(system),
		chat.UserMessage(text),
	}
}

// Package textfilter normalizes names and tags coming from the game client
// or the LLM before they are shown in prompts and action summaries.
package textfilter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.AmericanEnglish)

// DisplayName turns an identifier like "living_room" or "npc_roommate" into
// a human-readable name ("Living Room", "Npc Roommate"). Already-readable
// names pass through with their spacing preserved.
func DisplayName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return titleCaser.String(s)
}

// NormalizeTag lowercases a free-form tag and strips the quote and bracket
// noise LLMs wrap around single-word answers.
func NormalizeTag(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'[]`)
	return strings.ToLower(strings.TrimSpace(s))
}

// Package engine makes movement decisions: it prompts the LLM, parses its
// answer, enforces world rules, and falls back to a local planner when the
// answer is unusable.
package engine

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gamedev-tw/npc-engine/pkg/npc"
	"github.com/gamedev-tw/npc-engine/pkg/spatial"
	"github.com/gamedev-tw/npc-engine/pkg/textfilter"
)

// Defaults used when a field cannot be recovered from the LLM response.
const (
	DefaultReasoning = "LLM did not provide clear reasoning or response was unparsable."
	DefaultAction    = "No specific action determined by LLM."
	DefaultEmotion   = "no_change"
)

// ParsedDecision is the structured form of an LLM movement answer. Every
// field is always populated; TargetOK reports whether usable coordinates
// were recovered.
type ParsedDecision struct {
	Reasoning    string
	ChosenAction string
	EmotionTag   string
	Drivers      map[string]bool
	Target       npc.Position
	TargetOK     bool
}

var (
	reCodeFence  = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	reChatHeader = regexp.MustCompile(`<\|start_header_id\|>.*?<\|end_header_id\|>`)
	reChatEOT    = regexp.MustCompile(`<\|eot_id\|>`)

	// Field extractors run against the raw, uncleaned response so that a
	// single malformed line never costs the other fields. Each value is
	// bounded by the next known key or end of text.
	reReasoning = regexp.MustCompile(`(?is)\breasoning:\s*\|?\s*(.+?)(?:\n\s*(?:chosen_action|target_coordinates|resulting_emotion_tag|priority_analysis)\s*:|$)`)
	reAction    = regexp.MustCompile(`(?i)\bchosen_action:[ \t]*(.+)`)
	reTarget    = regexp.MustCompile(`(?i)\btarget_coordinates:[ \t]*(.+)`)
	reEmotion   = regexp.MustCompile(`(?i)\bresulting_emotion_tag:[ \t]*(.+)`)
)

var driverRegexps = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(npc.DriverFlags))
	for _, flag := range npc.DriverFlags {
		out[flag] = regexp.MustCompile(`(?i)\b` + flag + `\s*:\s*([A-Za-z"']+)`)
	}
	return out
}()

// ParseDecision recovers a movement decision from raw LLM output. It is a
// total function: no input produces an error, only defaulted fields. The
// strict YAML tier runs on a cleaned copy; whatever it misses is retried
// with per-field regexes against the original text.
func ParseDecision(raw string) ParsedDecision {
	parsed := ParsedDecision{
		Reasoning:    DefaultReasoning,
		ChosenAction: DefaultAction,
		EmotionTag:   DefaultEmotion,
		Drivers:      make(map[string]bool, len(npc.DriverFlags)),
	}
	for _, flag := range npc.DriverFlags {
		parsed.Drivers[flag] = false
	}
	if strings.TrimSpace(raw) == "" {
		return parsed
	}

	gotReasoning, gotAction, gotEmotion := parsed.fromYAML(cleanResponse(raw))

	if !gotReasoning {
		if m := reReasoning.FindStringSubmatch(raw); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				parsed.Reasoning = stripQuotes(v)
			}
		}
	}
	if !gotAction {
		if m := reAction.FindStringSubmatch(raw); m != nil {
			if v := stripQuotes(strings.TrimSpace(m[1])); v != "" {
				parsed.ChosenAction = v
			}
		}
	}
	if !gotEmotion {
		if m := reEmotion.FindStringSubmatch(raw); m != nil {
			if v := textfilter.NormalizeTag(m[1]); v != "" {
				parsed.EmotionTag = v
			}
		}
	}
	if !parsed.TargetOK {
		if m := reTarget.FindStringSubmatch(raw); m != nil {
			if x, y, ok := spatial.ParseCoordinates(m[1]); ok {
				parsed.Target = npc.Position{X: x, Y: y}
				parsed.TargetOK = true
			}
		}
	}
	for _, flag := range npc.DriverFlags {
		if parsed.Drivers[flag] {
			continue
		}
		if m := driverRegexps[flag].FindStringSubmatch(raw); m != nil {
			parsed.Drivers[flag] = isYes(textfilter.NormalizeTag(m[1]))
		}
	}

	return parsed
}

// fromYAML fills fields the strict tier can decode and reports which of the
// text fields it recovered.
func (p *ParsedDecision) fromYAML(cleaned string) (gotReasoning, gotAction, gotEmotion bool) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(cleaned), &doc); err != nil || len(doc) == 0 {
		return false, false, false
	}

	if v, ok := yamlString(doc["reasoning"]); ok {
		p.Reasoning = v
		gotReasoning = true
	}
	if v, ok := yamlString(doc["chosen_action"]); ok {
		p.ChosenAction = stripQuotes(v)
		gotAction = true
	}
	if v, ok := yamlString(doc["resulting_emotion_tag"]); ok {
		if tag := textfilter.NormalizeTag(v); tag != "" {
			p.EmotionTag = tag
			gotEmotion = true
		}
	}

	switch tc := doc["target_coordinates"].(type) {
	case string:
		if x, y, ok := spatial.ParseCoordinates(tc); ok {
			p.Target = npc.Position{X: x, Y: y}
			p.TargetOK = true
		}
	case map[string]interface{}:
		x, okX := yamlFloat(tc["x"])
		y, okY := yamlFloat(tc["y"])
		if okX && okY {
			p.Target = npc.Position{X: x, Y: y}
			p.TargetOK = true
		}
	}

	if analysis, ok := doc["priority_analysis"].(map[string]interface{}); ok {
		for _, flag := range npc.DriverFlags {
			if raw, present := analysis[flag]; present {
				p.Drivers[flag] = yamlYes(raw)
			}
		}
	}
	return gotReasoning, gotAction, gotEmotion
}

// cleanResponse strips the wrappers chat models put around YAML answers:
// code fences, llama chat markers, and document separators at the edges.
// Interior `---` lines are kept; a reasoning block may legitimately
// contain one.
func cleanResponse(raw string) string {
	s := reChatHeader.ReplaceAllString(raw, "")
	s = reChatEOT.ReplaceAllString(s, "")
	s = reCodeFence.ReplaceAllString(s, "")
	return strings.TrimSpace(trimDocMarkers(s))
}

// trimDocMarkers drops `---` separator lines (and blank lines around them)
// from the start and end of the response only.
func trimDocMarkers(s string) string {
	isSeparator := func(line string) bool {
		t := strings.TrimSpace(line)
		return t == "" || t == "---"
	}
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && isSeparator(lines[start]) {
		start++
	}
	for end > start && isSeparator(lines[end-1]) {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

func isYes(tag string) bool {
	switch tag {
	case "yes", "true", "y":
		return true
	}
	return false
}

func yamlYes(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return isYes(textfilter.NormalizeTag(t))
	}
	return false
}

func yamlString(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

func yamlFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(t), "%f", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

const wellFormedResponse = "```yaml" + `
priority_analysis:
  dialogue_driven: No
  schedule_driven: Yes
  emotion_driven: No
  memory_driven: No
  social_interaction_considered: No
  access_rules_consideration: Yes
  exploration_driven: No
reasoning: |
  Breakfast time, so I should head to the kitchen.
chosen_action: "Going to make breakfast"
target_coordinates: "x=3.5, y=7.0"
resulting_emotion_tag: "content"
` + "```"

func TestParseDecision_WellFormedYAML(t *testing.T) {
	p := ParseDecision(wellFormedResponse)

	assert.Equal(t, "Breakfast time, so I should head to the kitchen.", strings.TrimSpace(p.Reasoning))
	assert.Equal(t, "Going to make breakfast", p.ChosenAction)
	assert.Equal(t, "content", p.EmotionTag)
	assert.True(t, p.TargetOK)
	assert.Equal(t, 3.5, p.Target.X)
	assert.Equal(t, 7.0, p.Target.Y)
	assert.True(t, p.Drivers[npc.DriverSchedule])
	assert.True(t, p.Drivers[npc.DriverAccessRules])
	assert.False(t, p.Drivers[npc.DriverDialogue])
	assert.False(t, p.Drivers[npc.DriverExploration])
}

func TestParseDecision_ChatMarkersAndDocSeparators(t *testing.T) {
	raw := "<|start_header_id|>assistant<|end_header_id|>\n---\n" +
		"reasoning: Time to stretch my legs.\n" +
		"chosen_action: \"Taking a walk\"\n" +
		"target_coordinates: \"x=1.0, y=2.0\"\n" +
		"resulting_emotion_tag: relaxed\n" +
		"---\n<|eot_id|>"

	p := ParseDecision(raw)
	assert.Equal(t, "Time to stretch my legs.", p.Reasoning)
	assert.Equal(t, "Taking a walk", p.ChosenAction)
	assert.Equal(t, "relaxed", p.EmotionTag)
	assert.True(t, p.TargetOK)
}

func TestParseDecision_InteriorSeparatorLineKept(t *testing.T) {
	raw := "---\n" +
		"reasoning: |\n" +
		"  Weighing two options.\n" +
		"  ---\n" +
		"  The kitchen wins.\n" +
		"chosen_action: \"Going to the kitchen\"\n" +
		"target_coordinates: \"x=3.0, y=7.0\"\n" +
		"resulting_emotion_tag: content\n" +
		"---\n"

	p := ParseDecision(raw)
	// Only the edge separators are stripped; the one inside the reasoning
	// block survives.
	assert.Contains(t, p.Reasoning, "---")
	assert.Contains(t, p.Reasoning, "The kitchen wins.")
	assert.Equal(t, "Going to the kitchen", p.ChosenAction)
	assert.True(t, p.TargetOK)
}

func TestParseDecision_RegexRecoversFromBrokenYAML(t *testing.T) {
	// Unbalanced quote makes this invalid YAML; every field still parses.
	raw := `priority_analysis:
  schedule_driven: Yes
reasoning: I want to check "the balcony
chosen_action: 'Checking the balcony'
target_coordinates: x=9.5, y=0.5
resulting_emotion_tag: [curious]`

	p := ParseDecision(raw)
	assert.Contains(t, p.Reasoning, "balcony")
	assert.Equal(t, "Checking the balcony", p.ChosenAction)
	assert.Equal(t, "curious", p.EmotionTag)
	assert.True(t, p.TargetOK)
	assert.Equal(t, 9.5, p.Target.X)
	assert.True(t, p.Drivers[npc.DriverSchedule])
}

func TestParseDecision_TargetAsYAMLMap(t *testing.T) {
	raw := `reasoning: ok
chosen_action: move
target_coordinates:
  x: 4.5
  y: 2
resulting_emotion_tag: no_change`

	p := ParseDecision(raw)
	assert.True(t, p.TargetOK)
	assert.Equal(t, 4.5, p.Target.X)
	assert.Equal(t, 2.0, p.Target.Y)
}

func TestParseDecision_TotalFunction(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t  ",
		"complete nonsense with no structure at all",
		"reasoning:",
		"target_coordinates: somewhere nice",
		"{{{{: ::: []",
		strings.Repeat("a: b\n", 1000),
		"chosen_action: \"\"",
	}
	for _, raw := range inputs {
		p := ParseDecision(raw)
		// Defaults always hold when a field is unrecoverable.
		assert.NotEmpty(t, p.Reasoning)
		assert.NotEmpty(t, p.ChosenAction)
		assert.NotEmpty(t, p.EmotionTag)
		assert.Len(t, p.Drivers, len(npc.DriverFlags))
	}

	p := ParseDecision("no structure here")
	assert.Equal(t, DefaultReasoning, p.Reasoning)
	assert.Equal(t, DefaultAction, p.ChosenAction)
	assert.Equal(t, DefaultEmotion, p.EmotionTag)
	assert.False(t, p.TargetOK)
}

func TestParseDecision_BooleanDriverValues(t *testing.T) {
	raw := `priority_analysis:
  emotion_driven: true
  social_interaction_considered: false
reasoning: feeling it
chosen_action: act
target_coordinates: "x=1, y=1"
resulting_emotion_tag: happy`

	p := ParseDecision(raw)
	assert.True(t, p.Drivers[npc.DriverEmotion])
	assert.False(t, p.Drivers[npc.DriverSocial])
}

func TestParseDecision_ReasoningBoundedByNextKey(t *testing.T) {
	raw := "reasoning: short thought\nchosen_action: do a thing\nresulting_emotion_tag: calm"
	p := ParseDecision(raw)
	assert.Equal(t, "short thought", p.Reasoning)
	assert.NotContains(t, p.Reasoning, "chosen_action")
}

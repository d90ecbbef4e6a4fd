// Package prompts builds the instruction blocks sent to the LLM. The
// movement prompt establishes the YAML answer schema that the decision
// parser consumes; the two must stay in sync.
package prompts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gamedev-tw/npc-engine/pkg/npc"
	"github.com/gamedev-tw/npc-engine/pkg/textfilter"
)

// List caps keep the prompt short; the LLM only needs the closest context.
const (
	maxNearbyEntities  = 2
	maxLandmarks       = 3
	maxLocationHistory = 2
	maxLongTermEntries = 3
)

// MovementBuilder assembles the system prompt for one movement decision
// using a fluent interface.
type MovementBuilder struct {
	req             *npc.MovementRequest
	record          *npc.MemoryRecord
	memories        []npc.LongTermMemory
	boundaryBuffer  float64
	visitThreshold  float64
	revisitInterval time.Duration
}

// NewMovementBuilder creates a builder with the movement tunables the prompt
// has to state (boundary buffer and revisit rule).
func NewMovementBuilder(boundaryBuffer, visitThreshold float64, revisitInterval time.Duration) *MovementBuilder {
	return &MovementBuilder{
		boundaryBuffer:  boundaryBuffer,
		visitThreshold:  visitThreshold,
		revisitInterval: revisitInterval,
	}
}

// WithRequest sets the per-request game-world context.
func (b *MovementBuilder) WithRequest(req *npc.MovementRequest) *MovementBuilder {
	b.req = req
	return b
}

// WithMemory sets the NPC's memory record.
func (b *MovementBuilder) WithMemory(record *npc.MemoryRecord) *MovementBuilder {
	b.record = record
	return b
}

// WithLongTermMemories sets the recent long-term memories to surface.
func (b *MovementBuilder) WithLongTermMemories(memories []npc.LongTermMemory) *MovementBuilder {
	b.memories = memories
	return b
}

// Build constructs the final system prompt.
func (b *MovementBuilder) Build() (string, error) {
	if b.req == nil {
		return "", fmt.Errorf("movement request is required")
	}
	if b.record == nil {
		return "", fmt.Errorf("memory record is required")
	}

	var sb strings.Builder

	name := b.req.Name
	if name == "" {
		name = b.record.Name
	}
	fmt.Fprintf(&sb, "You are '%s' (ID: %s) in a shared apartment.\n", name, b.req.NPCID)
	fmt.Fprintf(&sb, "Personality: %q\n", truncate(b.record.Personality, 200))

	b.writeTime(&sb)
	b.writeEmotion(&sb)
	b.writeSchedule(&sb)
	b.writePositionAndBounds(&sb)
	b.writeLocationHistory(&sb)
	b.writeRevisitRule(&sb)
	b.writeNearbyEntities(&sb)
	b.writeLandmarks(&sb)
	b.writeLongTermMemories(&sb)

	if b.req.DialogueSummary != "" {
		fmt.Fprintf(&sb, "\nContext from recent dialogue: %q\n", truncate(b.req.DialogueSummary, 200))
	}
	if b.req.PlayerRequest != nil {
		fmt.Fprintf(&sb, "Player request: go near (%.0f, %.0f). Consider if reasonable and rule-abiding.\n",
			b.req.PlayerRequest.X, b.req.PlayerRequest.Y)
	}

	sb.WriteString(socialSection)
	b.writeAccessRules(&sb)
	sb.WriteString(outputContract)

	return sb.String(), nil
}

func (b *MovementBuilder) writeTime(sb *strings.Builder) {
	gt := b.req.GameTime
	dayInfo := ""
	if gt.DayOfWeek != "" {
		dayInfo = " on " + gt.DayOfWeek
	}
	clock := "unknown time"
	if !gt.Timestamp.IsZero() {
		clock = gt.Timestamp.UTC().Format("15:04 MST")
	}
	fmt.Fprintf(sb, "Time: %s%s (%s).\n", gt.TimeOfDay, dayInfo, clock)
}

func (b *MovementBuilder) writeEmotion(sb *strings.Builder) {
	es := b.record.EmotionalState
	fmt.Fprintf(sb, "Emotion: '%s' (intensity %.1f/1.0).", es.PrimaryEmotion, es.Intensity)
	if len(es.MoodTags) > 0 {
		fmt.Fprintf(sb, " Moods: %s.", strings.Join(es.MoodTags, ", "))
	}
	sb.WriteString("\n")
}

func (b *MovementBuilder) writeSchedule(sb *strings.Builder) {
	rules := b.record.ScheduleRules
	if len(rules) == 0 {
		sb.WriteString("No specific schedule obligations currently.\n")
		return
	}
	sb.WriteString("\n--- Current Schedule ---\n")
	rule := rules[0]
	kind := "Preferred"
	if rule.IsMandatory {
		kind = "MANDATORY"
	}
	fmt.Fprintf(sb, "- %s '%s': %q", kind, rule.TimePeriodTag, truncate(rule.ActivityDesc, 80))
	if rule.TargetLocationName != "" {
		fmt.Fprintf(sb, " at/near '%s'", rule.TargetLocationName)
	}
	if rule.TargetPosition != nil {
		fmt.Fprintf(sb, " (%.0f, %.0f)", rule.TargetPosition.X, rule.TargetPosition.Y)
	}
	sb.WriteString(".\n")
	if len(rules) > 1 {
		fmt.Fprintf(sb, "- (...and %d more rules.)\n", len(rules)-1)
	}
}

func (b *MovementBuilder) writePositionAndBounds(sb *strings.Builder) {
	pos := b.req.CurrentPosition
	bd := b.req.Boundary
	fmt.Fprintf(sb, "\nCurrent position: (%.1f, %.1f). Bounds: X(%.0f to %.0f), Y(%.0f to %.0f). Edge buffer: %.1f.\n",
		pos.X, pos.Y, bd.MinX, bd.MaxX, bd.MinY, bd.MaxY, b.boundaryBuffer)
}

func (b *MovementBuilder) writeLocationHistory(sb *strings.Builder) {
	history := b.record.LocationHistory
	if len(history) == 0 {
		sb.WriteString("No recent location visits noted.\n")
		return
	}
	sb.WriteString("\n--- Recent Location Visits (Newest First) ---\n")
	now := b.req.GameTime.Timestamp
	shown := 0
	for i := len(history) - 1; i >= 0 && shown < maxLocationHistory; i-- {
		entry := history[i]
		fmt.Fprintf(sb, "- Visited (%.0f, %.0f) %s.\n", entry.X, entry.Y, timeAgo(now, entry.VisitedAt))
		shown++
	}
	if len(history) > maxLocationHistory {
		sb.WriteString("- (...and more prior visits.)\n")
	}
}

func (b *MovementBuilder) writeRevisitRule(sb *strings.Builder) {
	fmt.Fprintf(sb, "REVISIT RULE: AVOID targets within %.1f units of spots visited in the last ~%d min "+
		"UNLESS there is a compelling reason (schedule, player request, strong emotion, or a specific social goal).\n",
		b.visitThreshold, int(b.revisitInterval.Minutes()))
}

func (b *MovementBuilder) writeNearbyEntities(sb *strings.Builder) {
	entities := b.req.NearbyEntities
	if len(entities) == 0 {
		sb.WriteString("No other characters nearby.\n")
		return
	}
	pos := b.req.CurrentPosition
	sorted := make([]npc.Entity, len(entities))
	copy(sorted, entities)
	sort.Slice(sorted, func(i, j int) bool {
		return pos.DistanceTo(sorted[i].Pos()) < pos.DistanceTo(sorted[j].Pos())
	})

	sb.WriteString("\n--- Nearby Characters (Closest First) ---\n")
	for i, e := range sorted {
		if i >= maxNearbyEntities {
			fmt.Fprintf(sb, "- (...and %d other(s) further away.)\n", len(sorted)-maxNearbyEntities)
			break
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		significance := ""
		if e.IsSignificant {
			significance = ", important to you"
		}
		fmt.Fprintf(sb, "- '%s' (%s%s) at (%.0f, %.0f), dist %.0f.\n",
			name, e.EntityType, significance, e.X, e.Y, pos.DistanceTo(e.Pos()))
	}
}

func (b *MovementBuilder) writeLandmarks(sb *strings.Builder) {
	landmarks := b.req.Landmarks
	if len(landmarks) == 0 {
		sb.WriteString("No significant landmarks detected nearby.\n")
		return
	}
	pos := b.req.CurrentPosition
	sorted := make([]npc.Landmark, len(landmarks))
	copy(sorted, landmarks)
	sort.Slice(sorted, func(i, j int) bool {
		return pos.DistanceTo(sorted[i].Position) < pos.DistanceTo(sorted[j].Position)
	})

	sb.WriteString("\n--- Nearby Landmarks (Closest First) ---\n")
	for i, lm := range sorted {
		if i >= maxLandmarks {
			fmt.Fprintf(sb, "- (...and %d other landmarks further away.)\n", len(sorted)-maxLandmarks)
			break
		}
		typeInfo := ""
		if lm.TypeTag != "" {
			typeInfo = " (" + textfilter.DisplayName(lm.TypeTag) + ")"
		}
		ownerInfo := ""
		if lm.OwnerID != "" {
			if strings.EqualFold(lm.OwnerID, b.req.NPCID) {
				ownerInfo = " (your room)"
			} else {
				ownerInfo = " (owner: " + lm.OwnerID + ")"
			}
		}
		fmt.Fprintf(sb, "- '%s'%s%s at (%.0f, %.0f), dist %.0f.", lm.Name, typeInfo, ownerInfo,
			lm.Position.X, lm.Position.Y, pos.DistanceTo(lm.Position))
		if len(lm.Notes) > 0 {
			fmt.Fprintf(sb, " Status: %s.", strings.Join(lm.Notes, "; "))
		}
		sb.WriteString("\n")
	}
}

func (b *MovementBuilder) writeLongTermMemories(sb *strings.Builder) {
	if len(b.memories) == 0 {
		sb.WriteString("No specific long-term memories seem immediately relevant.\n")
		return
	}
	sb.WriteString("\n--- Relevant Long-Term Memories ---\n")
	for i, mem := range b.memories {
		if i >= maxLongTermEntries {
			fmt.Fprintf(sb, "  (...and %d more.)\n", len(b.memories)-maxLongTermEntries)
			break
		}
		fmt.Fprintf(sb, "- (%s) %q\n", mem.TypeTag, truncate(mem.Content, 100))
	}
}

func (b *MovementBuilder) writeAccessRules(sb *strings.Builder) {
	fmt.Fprintf(sb, `
--- Apartment Access Rules (CRITICAL - MUST BE FOLLOWED) ---
1. Toilet ('bathroom' type): enter only if its status is NOT occupied by someone else. If occupied and you need it, your action should be to wait near it, targeting a valid waiting spot.
2. Private room ('bedroom' type): if NOT your room (owner_id != %s), enter only while the owner is present. Your own room is free to enter.
3. No physical doors. Movement is via clear passages.
4. Avoid targeting coordinates on top of furniture. Aim for clear floor space.
`, b.req.NPCID)
}

const socialSection = `
--- Social Considerations ---
- You are a resident in a shared apartment. Being social is natural.
- If in a common area (e.g. 'Living Room', 'Kitchen') and a known character nearby does not seem busy, consider a short conversation.
- If choosing to interact socially: 'chosen_action' should state this, 'target_coordinates' should be near that character while respecting personal space, and 'social_interaction_considered' should be Yes.
`

const outputContract = `
--- YOUR TASK: Decide Action & Target (Strict YAML Output) ---
Based on ALL info, your personality, state, and rules:
1. Analyze primary drivers and constraints.
2. Reason briefly and resolve conflicts (access and revisit rules are high priority).
3. Choose a concise, in-character action.
4. Choose precise target coordinates within bounds, respecting ALL rules.
5. Give your likely resulting emotion, or 'no_change'.

Respond ONLY with the YAML structure below. NO extra text before or after. Correct YAML indentation is CRUCIAL.
` + "```yaml" + `
priority_analysis:
  dialogue_driven: Yes/No
  schedule_driven: Yes/No
  emotion_driven: Yes/No
  memory_driven: Yes/No
  social_interaction_considered: Yes/No
  access_rules_consideration: Yes/No
  exploration_driven: Yes/No
reasoning: |
  [Your concise reasoning here. Max 1-2 sentences.]
chosen_action: "[Your short, in-character action phrase here]"
target_coordinates: "x=<float_value>, y=<float_value>"
resulting_emotion_tag: "[Your new primary emotion tag or 'no_change']"
` + "```"

func timeAgo(now, then time.Time) string {
	if now.IsZero() || then.IsZero() {
		return "at an unknown time"
	}
	diff := now.Sub(then)
	if diff < 0 {
		diff = 0
	}
	switch {
	case diff < 2*time.Minute:
		return "moments ago"
	case diff < 2*time.Hour:
		return fmt.Sprintf("~%d min ago", int(diff.Minutes()))
	default:
		return "earlier"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

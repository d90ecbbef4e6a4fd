package npc

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// DefaultPersonality is used when an NPC has no persisted record yet.
const DefaultPersonality = "A typical apartment resident, trying to coexist with roommates. " +
	"Generally follows routines and values personal space but can be social in common areas."

const maxLongTermMemoryContentLen = 512

// EmotionalState is the NPC's current emotion. It is only replaced through
// MemoryRecord.SetEmotion so the change time and reason stay consistent.
type EmotionalState struct {
	PrimaryEmotion string    `json:"primary_emotion"`
	Intensity      float64   `json:"intensity"` // 0.0 to 1.0
	MoodTags       []string  `json:"mood_tags,omitempty"`
	LastChangedAt  time.Time `json:"last_changed_at"`
	Reason         string    `json:"reason,omitempty"`
}

// NeutralEmotionalState returns the default state for a fresh record.
func NeutralEmotionalState() EmotionalState {
	return EmotionalState{
		PrimaryEmotion: "neutral",
		Intensity:      0.5,
		LastChangedAt:  time.Now().UTC(),
	}
}

// ScheduleRule is a read-only scheduling hint. Rule selection against the
// current game time happens in prompt construction, not in the engine.
type ScheduleRule struct {
	ID                 string    `json:"rule_id"`
	TimePeriodTag      string    `json:"time_period_tag"` // e.g. "morning_kitchen_routine"
	ActivityDesc       string    `json:"activity_description"`
	TargetLocationName string    `json:"target_location_name,omitempty"`
	TargetPosition     *Position `json:"target_position,omitempty"`
	IsMandatory        bool      `json:"is_mandatory"`
	OverrideConditions []string  `json:"override_conditions,omitempty"`
}

// NewScheduleRule creates a rule with a generated id.
func NewScheduleRule(periodTag, activity string) ScheduleRule {
	return ScheduleRule{
		ID:            "sched_" + uuid.New().String()[:6],
		TimePeriodTag: periodTag,
		ActivityDesc:  activity,
		IsMandatory:   true,
	}
}

// VisitedLocation is one entry in the short-term location history.
type VisitedLocation struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	VisitedAt time.Time `json:"visited_at"`
}

// LongTermMemory is one durable event memory. IDs are ULIDs so entries sort
// by creation time.
type LongTermMemory struct {
	ID            string    `json:"memory_id"`
	CreatedAt     time.Time `json:"created_at"`
	Content       string    `json:"content"`
	TypeTag       string    `json:"type_tag"` // e.g. "dialogue_summary", "shared_event"
	Keywords      []string  `json:"keywords,omitempty"`
	RelatedNPCIDs []string  `json:"related_npc_ids,omitempty"`
}

// MemoryRecord is the persistent aggregate for one NPC. NPCID is set at
// creation and never changes.
type MemoryRecord struct {
	NPCID             string            `json:"npc_id"`
	Name              string            `json:"name,omitempty"`
	Personality       string            `json:"personality_description"`
	LastSavedAt       time.Time         `json:"last_saved_at"`
	LastKnownGameTime *GameTime         `json:"last_known_game_time,omitempty"`
	LastKnownPosition *Position         `json:"last_known_position,omitempty"`
	EmotionalState    EmotionalState    `json:"current_emotional_state"`
	ScheduleRules     []ScheduleRule    `json:"active_schedule_rules,omitempty"`
	LocationHistory   []VisitedLocation `json:"short_term_location_history,omitempty"`
	LongTermMemories  []LongTermMemory  `json:"long_term_event_memories,omitempty"`
}

// NewMemoryRecord builds a default record for an NPC with no persisted state.
func NewMemoryRecord(npcID string) *MemoryRecord {
	return &MemoryRecord{
		NPCID:          npcID,
		Name:           npcID,
		Personality:    DefaultPersonality,
		LastSavedAt:    time.Now().UTC(),
		EmotionalState: NeutralEmotionalState(),
	}
}

// Validate rejects records without an NPC id.
func (m *MemoryRecord) Validate() error {
	if m.NPCID == "" {
		return fmt.Errorf("memory record: npc_id is required")
	}
	return nil
}

// RecordVisit appends a visit to the short-term history, dropping the oldest
// entries once maxEntries is exceeded.
func (m *MemoryRecord) RecordVisit(x, y float64, at time.Time, maxEntries int) {
	m.LocationHistory = append(m.LocationHistory, VisitedLocation{X: x, Y: y, VisitedAt: at})
	if maxEntries > 0 && len(m.LocationHistory) > maxEntries {
		m.LocationHistory = m.LocationHistory[len(m.LocationHistory)-maxEntries:]
	}
}

// SetEmotion replaces the emotional state, stamping the change time.
// Mood tags carry over when none are supplied.
func (m *MemoryRecord) SetEmotion(primary string, intensity float64, reason string, moodTags []string) {
	if moodTags == nil {
		moodTags = m.EmotionalState.MoodTags
	}
	m.EmotionalState = EmotionalState{
		PrimaryEmotion: primary,
		Intensity:      intensity,
		MoodTags:       moodTags,
		LastChangedAt:  time.Now().UTC(),
		Reason:         reason,
	}
}

// AddLongTermMemory appends an entry, evicting the oldest once maxEntries is
// exceeded. Content longer than the storage bound is truncated.
func (m *MemoryRecord) AddLongTermMemory(content, typeTag string, keywords, relatedIDs []string, maxEntries int) LongTermMemory {
	if len(content) > maxLongTermMemoryContentLen {
		content = content[:maxLongTermMemoryContentLen]
	}
	entry := LongTermMemory{
		ID:            "ltm_" + ulid.Make().String(),
		CreatedAt:     time.Now().UTC(),
		Content:       content,
		TypeTag:       typeTag,
		Keywords:      keywords,
		RelatedNPCIDs: relatedIDs,
	}
	m.LongTermMemories = append(m.LongTermMemories, entry)
	if maxEntries > 0 && len(m.LongTermMemories) > maxEntries {
		m.LongTermMemories = m.LongTermMemories[len(m.LongTermMemories)-maxEntries:]
	}
	return entry
}

// RecentLongTermMemories returns up to limit entries, newest first.
func (m *MemoryRecord) RecentLongTermMemories(limit int) []LongTermMemory {
	if limit <= 0 || len(m.LongTermMemories) == 0 {
		return nil
	}
	out := make([]LongTermMemory, 0, limit)
	for i := len(m.LongTermMemories) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.LongTermMemories[i])
	}
	return out
}

package npc

import "fmt"

// Decision driver flags self-reported by the LLM (plus exploration, which the
// engine sets itself when the fallback planner chooses the target).
const (
	DriverDialogue    = "dialogue_driven"
	DriverSchedule    = "schedule_driven"
	DriverEmotion     = "emotion_driven"
	DriverMemory      = "memory_driven"
	DriverSocial      = "social_interaction_considered"
	DriverAccessRules = "access_rules_consideration"
	DriverExploration = "exploration_driven"
)

// DriverFlags lists every known decision driver, in prompt order.
var DriverFlags = []string{
	DriverDialogue,
	DriverSchedule,
	DriverEmotion,
	DriverMemory,
	DriverSocial,
	DriverAccessRules,
	DriverExploration,
}

// MovementRequest is the full game-world context for one movement decision.
type MovementRequest struct {
	NPCID           string        `json:"npc_id"`
	Name            string        `json:"name,omitempty"`
	ModelOverride   string        `json:"model_override,omitempty"`
	CurrentPosition Position      `json:"current_npc_position"`
	GameTime        GameTime      `json:"current_game_time"`
	NearbyEntities  []Entity      `json:"nearby_entities,omitempty"`
	Landmarks       []Landmark    `json:"visible_landmarks,omitempty"`
	Boundary        SceneBoundary `json:"scene_boundaries"`
	DialogueSummary string        `json:"recent_dialogue_summary,omitempty"`
	PlayerRequest   *Position     `json:"explicit_player_movement_request,omitempty"`
}

// Validate checks the request fields the engine cannot degrade around.
func (r *MovementRequest) Validate() error {
	if r.NPCID == "" {
		return fmt.Errorf("movement request: npc_id is required")
	}
	if err := r.Boundary.Validate(); err != nil {
		return fmt.Errorf("movement request: %w", err)
	}
	return nil
}

// MovementDecision is the engine's output: a destination plus the reasoning
// trail that produced it.
type MovementDecision struct {
	NPCID            string          `json:"npc_id"`
	Name             string          `json:"name,omitempty"`
	Reasoning        string          `json:"llm_full_reasoning_text"`
	ChosenAction     string          `json:"chosen_action_summary"`
	Target           Position        `json:"target_destination"`
	Drivers          map[string]bool `json:"primary_decision_drivers"`
	EmotionalState   *EmotionalState `json:"updated_emotional_state,omitempty"`
	ProcessingTimeMS float64         `json:"processing_time_ms"`
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedev-tw/npc-engine/internal/memory"
	"github.com/gamedev-tw/npc-engine/internal/services"
	"github.com/gamedev-tw/npc-engine/internal/storage"
	"github.com/gamedev-tw/npc-engine/pkg/chat"
	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

type engineFixture struct {
	engine  *Engine
	llm     *services.MockLLMAPI
	backend *storage.MockStorage
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	backend := storage.NewMockStorage()
	registry := memory.NewRegistry(backend, memory.Limits{
		MaxLocations:    15,
		MaxLongTerm:     50,
		VisitThreshold:  1.5,
		RevisitInterval: 5 * time.Minute,
	}, logger)
	llm := services.NewMockLLMAPI()
	explorer := NewExplorer(ExploreConfig{
		MinSearchDistance: 2.0,
		MaxSearchDistance: 15.0,
		BoundaryBuffer:    0.5,
	}, rand.New(rand.NewSource(42)), logger)
	cfg := Config{
		ModelName:       "test-model",
		NumCtx:          4096,
		BoundaryBuffer:  0.5,
		VisitThreshold:  1.5,
		RevisitInterval: 5 * time.Minute,
	}
	return &engineFixture{
		engine:  New(cfg, llm, registry, explorer, logger),
		llm:     llm,
		backend: backend,
	}
}

func yamlResponse(action, coords, emotion string) string {
	return fmt.Sprintf("```yaml\nreasoning: |\n  Decided.\nchosen_action: %q\ntarget_coordinates: %q\nresulting_emotion_tag: %q\n```", action, coords, emotion)
}

func (f *engineFixture) respondWith(content string) {
	f.llm.ChatFunc = func(context.Context, string, []chat.Message, *chat.Options) (*chat.Response, error) {
		return &chat.Response{Content: content}, nil
	}
}

func decisionRequest() *npc.MovementRequest {
	return &npc.MovementRequest{
		NPCID:           "npc_yui",
		Name:            "Yui",
		CurrentPosition: npc.Position{X: 2, Y: 5},
		GameTime: npc.GameTime{
			Timestamp: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
			TimeOfDay: "morning",
		},
		Boundary: npc.SceneBoundary{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10},
	}
}

func TestDecide_HappyPath(t *testing.T) {
	f := newFixture(t)
	f.respondWith(yamlResponse("Going to the kitchen", "x=6.0, y=6.0", "content"))

	decision, err := f.engine.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)

	assert.Equal(t, "npc_yui", decision.NPCID)
	assert.Equal(t, "Yui", decision.Name)
	assert.Equal(t, "Going to the kitchen", decision.ChosenAction)
	assert.Equal(t, npc.Position{X: 6, Y: 6}, decision.Target)
	require.NotNil(t, decision.EmotionalState)
	assert.Equal(t, "content", decision.EmotionalState.PrimaryEmotion)
	assert.Contains(t, decision.EmotionalState.Reason, "Movement Decision:")
	assert.GreaterOrEqual(t, decision.ProcessingTimeMS, 0.0)

	// The decision was persisted: visit history and emotion survive.
	saved, err := f.backend.LoadMemory(context.Background(), "npc_yui")
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Len(t, saved.LocationHistory, 1)
	assert.Equal(t, 6.0, saved.LocationHistory[0].X)
	require.NotNil(t, saved.LastKnownPosition)
	assert.Equal(t, 2.0, saved.LastKnownPosition.X)

	// Model and sampling options reached the LLM.
	call := f.llm.LastChatCall()
	require.NotNil(t, call)
	assert.Equal(t, "test-model", call.Model)
	require.NotNil(t, call.Options)
	assert.Equal(t, 0.65, *call.Options.Temperature)
	assert.Equal(t, 45, *call.Options.TopK)
	assert.Equal(t, 0.92, *call.Options.TopP)
	assert.Equal(t, 4096, *call.Options.NumCtx)
}

func TestDecide_SentinelEmotionKeepsState(t *testing.T) {
	f := newFixture(t)
	f.respondWith(yamlResponse("Wandering", "x=6.0, y=6.0", "no_change"))

	decision, err := f.engine.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)
	require.NotNil(t, decision.EmotionalState)
	assert.Equal(t, "neutral", decision.EmotionalState.PrimaryEmotion)
	assert.NotContains(t, decision.EmotionalState.Reason, "Movement Decision:")
}

func TestDecide_SpacedNoChangeTagKeepsState(t *testing.T) {
	f := newFixture(t)
	f.respondWith(yamlResponse("Wandering", "x=6.0, y=6.0", "No change"))

	decision, err := f.engine.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)
	require.NotNil(t, decision.EmotionalState)
	// The spaced variant is still the sentinel, never a new primary emotion.
	assert.Equal(t, "neutral", decision.EmotionalState.PrimaryEmotion)
	assert.NotContains(t, decision.EmotionalState.Reason, "Movement Decision:")
}

func TestIsEmotionSentinel(t *testing.T) {
	for tag, want := range map[string]bool{
		"no_change":             true,
		"No change":             true,
		"  NO CHANGE  ":         true,
		"neutral emotion state": true,
		"same":                  true,
		"happy":                 false,
		"nonchalant":            false,
	} {
		assert.Equal(t, want, isEmotionSentinel(tag), "tag %q", tag)
	}
}

func TestDecide_UnchangedEmotionNotRestamped(t *testing.T) {
	f := newFixture(t)
	record := npc.NewMemoryRecord("npc_yui")
	record.SetEmotion("happy", 0.8, "won at cards earlier", nil)
	require.NoError(t, f.backend.SaveMemory(context.Background(), record))

	f.respondWith(yamlResponse("Humming in the hallway", "x=6.0, y=6.0", "happy"))

	decision, err := f.engine.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)
	require.NotNil(t, decision.EmotionalState)
	assert.Equal(t, "happy", decision.EmotionalState.PrimaryEmotion)
	// Same emotion tag keeps the original change reason.
	assert.Equal(t, "won at cards earlier", decision.EmotionalState.Reason)
}

func TestDecide_OutOfBoundsTargetClamped(t *testing.T) {
	f := newFixture(t)
	f.respondWith(yamlResponse("Leaving the apartment", "x=15.0, y=-3.0", "no_change"))

	decision, err := f.engine.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)
	assert.Equal(t, npc.Position{X: 9.5, Y: 0.5}, decision.Target)
	assert.Contains(t, decision.ChosenAction, "adjusted to stay within bounds")
}

func TestDecide_OccupiedBathroomRedirect(t *testing.T) {
	f := newFixture(t)
	f.respondWith(yamlResponse("Going to the bathroom", "x=5.0, y=5.0", "no_change"))

	req := decisionRequest()
	req.Landmarks = []npc.Landmark{{
		Name:      "WC",
		TypeTag:   npc.LandmarkBathroom,
		Position:  npc.Position{X: 5, Y: 5},
		Notes:     []string{npc.StatusNoteOccupied + " by npc_ken"},
		Entrances: []npc.Position{{X: 4, Y: 5}, {X: 6, Y: 5}},
	}}

	decision, err := f.engine.Decide(context.Background(), req)
	require.NoError(t, err)
	// Nearest entrance to the NPC at (2, 5) is (4, 5).
	assert.Equal(t, npc.Position{X: 4, Y: 5}, decision.Target)
	assert.Contains(t, decision.ChosenAction, "wait near WC")
	assert.Contains(t, decision.ChosenAction, "occupied")
}

func TestDecide_OccupiedBathroomWithoutEntrancesKeepsTarget(t *testing.T) {
	f := newFixture(t)
	f.respondWith(yamlResponse("Going to the toilet", "x=5.0, y=5.0", "no_change"))

	req := decisionRequest()
	req.Landmarks = []npc.Landmark{{
		Name:     "WC",
		TypeTag:  npc.LandmarkBathroom,
		Position: npc.Position{X: 5, Y: 5},
		Notes:    []string{npc.StatusNoteOccupied + " by npc_ken"},
	}}

	decision, err := f.engine.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, npc.Position{X: 5, Y: 5}, decision.Target)
}

func TestDecide_VacantBathroomNotRedirected(t *testing.T) {
	f := newFixture(t)
	f.respondWith(yamlResponse("Going to the bathroom", "x=5.0, y=5.0", "no_change"))

	req := decisionRequest()
	req.Landmarks = []npc.Landmark{{
		Name:      "WC",
		TypeTag:   npc.LandmarkBathroom,
		Position:  npc.Position{X: 5, Y: 5},
		Entrances: []npc.Position{{X: 4, Y: 5}},
	}}

	decision, err := f.engine.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, npc.Position{X: 5, Y: 5}, decision.Target)
	assert.NotContains(t, decision.ChosenAction, "wait near")
}

func TestDecide_LLMFailureFallsBackToExploration(t *testing.T) {
	f := newFixture(t)
	f.llm.ChatFunc = func(context.Context, string, []chat.Message, *chat.Options) (*chat.Response, error) {
		return nil, assert.AnError
	}

	req := decisionRequest()
	decision, err := f.engine.Decide(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, decision.Drivers[npc.DriverExploration])
	assert.Contains(t, decision.ChosenAction, "Fallback exploration towards")
	assert.Equal(t, DefaultReasoning, decision.Reasoning)
	assert.GreaterOrEqual(t, decision.Target.X, req.Boundary.MinX)
	assert.LessOrEqual(t, decision.Target.X, req.Boundary.MaxX)
	assert.GreaterOrEqual(t, decision.Target.Y, req.Boundary.MinY)
	assert.LessOrEqual(t, decision.Target.Y, req.Boundary.MaxY)
}

func TestDecide_UnparsableResponseFallsBack(t *testing.T) {
	f := newFixture(t)
	f.respondWith("I think I shall simply wander about the apartment today.")

	decision, err := f.engine.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)
	assert.True(t, decision.Drivers[npc.DriverExploration])
	assert.Contains(t, decision.ChosenAction, "Fallback exploration towards")
}

func TestDecide_ModelOverride(t *testing.T) {
	f := newFixture(t)
	f.respondWith(yamlResponse("ok", "x=1, y=1", "no_change"))

	req := decisionRequest()
	req.ModelOverride = "bigger-model"
	_, err := f.engine.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "bigger-model", f.llm.LastChatCall().Model)
}

func TestDecide_InvalidRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Decide(context.Background(), &npc.MovementRequest{
		Boundary: npc.SceneBoundary{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10},
	})
	assert.Error(t, err)

	_, err = f.engine.Decide(context.Background(), &npc.MovementRequest{
		NPCID:    "npc_yui",
		Boundary: npc.SceneBoundary{MinX: 10, MaxX: 0, MinY: 0, MaxY: 10},
	})
	assert.Error(t, err)
}

func TestDecide_StorageFailureStillDecides(t *testing.T) {
	f := newFixture(t)
	f.backend.LoadErr = assert.AnError
	f.backend.SaveErr = assert.AnError
	f.respondWith(yamlResponse("Going to the kitchen", "x=6.0, y=6.0", "content"))

	decision, err := f.engine.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)
	assert.Equal(t, npc.Position{X: 6, Y: 6}, decision.Target)
}

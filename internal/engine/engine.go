package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gamedev-tw/npc-engine/internal/memory"
	"github.com/gamedev-tw/npc-engine/internal/services"
	"github.com/gamedev-tw/npc-engine/pkg/chat"
	"github.com/gamedev-tw/npc-engine/pkg/npc"
	"github.com/gamedev-tw/npc-engine/pkg/prompts"
	"github.com/gamedev-tw/npc-engine/pkg/spatial"
)

// Sampling for movement decisions: warm enough to vary, cool enough to keep
// the YAML contract intact.
const (
	decisionTemperature = 0.65
	decisionTopK        = 45
	decisionTopP        = 0.92
)

// A target further than this from any landmark is treated as open floor.
const landmarkAssociationRadius = 2.0

// Clamp adjustments below this distance are noise and not worth surfacing.
const clampAnnotationThreshold = 0.1

// Emotion tags that mean "leave the emotional state alone".
var emotionSentinels = map[string]struct{}{
	"no_change": {},
	"same":      {},
	"n/a":       {},
	"none":      {},
	"neutral":   {},
}

// isEmotionSentinel reports whether a tag means "keep the current emotion".
// Models phrase the sentinel loosely ("No change", "neutral emotion state"),
// so whitespace collapses to underscores and the common phrasings are
// substring-matched rather than looked up verbatim.
func isEmotionSentinel(tag string) bool {
	normalized := strings.Join(strings.Fields(strings.ToLower(tag)), "_")
	if _, ok := emotionSentinels[normalized]; ok {
		return true
	}
	return strings.Contains(normalized, "no_change") ||
		strings.Contains(normalized, "neutral_emotion")
}

// Config carries the engine tunables taken from service configuration.
type Config struct {
	ModelName       string
	NumCtx          int
	BoundaryBuffer  float64
	VisitThreshold  float64
	RevisitInterval time.Duration
}

// Engine produces movement decisions for NPCs.
type Engine struct {
	cfg      Config
	llm      services.LLMService
	registry *memory.Registry
	explorer *Explorer
	logger   *slog.Logger
}

func New(cfg Config, llm services.LLMService, registry *memory.Registry, explorer *Explorer, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		llm:      llm,
		registry: registry,
		explorer: explorer,
		logger:   logger,
	}
}

// Decide runs the full decision pipeline for one request. It returns an
// error only for invalid requests; LLM, parsing, and persistence trouble
// all degrade to a fallback decision instead.
func (e *Engine) Decide(ctx context.Context, req *npc.MovementRequest) (*npc.MovementDecision, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := e.logger.With("npc_id", req.NPCID)

	store := e.registry.ForNPC(req.NPCID)
	record, err := store.Snapshot(ctx)
	if err != nil {
		// Storage being down must not freeze NPCs; decide from a blank record.
		log.Error("Failed to load memory, deciding without it", "error", err)
		record = *npc.NewMemoryRecord(req.NPCID)
	}
	if req.Name != "" {
		record.Name = req.Name
	}

	ref := req.GameTime.Timestamp
	if ref.IsZero() {
		ref = time.Now().UTC()
	}
	recentlyVisited := func(x, y float64) bool {
		visited, rvErr := store.WasRecentlyVisited(ctx, x, y, ref)
		return rvErr == nil && visited
	}

	parsed := e.askLLM(ctx, req, &record, log)

	var target npc.Position
	var action, reasoning string
	if parsed.TargetOK {
		target, action = e.enforceWorldRules(req, parsed, log)
		reasoning = parsed.Reasoning
	} else {
		target = e.explorer.PlanTarget(req, recentlyVisited)
		action = fmt.Sprintf("Fallback exploration towards (%.1f, %.1f).", target.X, target.Y)
		reasoning = parsed.Reasoning
		parsed.Drivers[npc.DriverExploration] = true
		log.Info("Using fallback exploration target", "x", target.X, "y", target.Y)
	}

	emotionalState := e.applyDecisionEffects(ctx, store, &record, req, target, action, parsed, ref, log)

	decision := &npc.MovementDecision{
		NPCID:            req.NPCID,
		Name:             record.Name,
		Reasoning:        reasoning,
		ChosenAction:     action,
		Target:           target,
		Drivers:          parsed.Drivers,
		EmotionalState:   emotionalState,
		ProcessingTimeMS: float64(time.Since(start).Microseconds()) / 1000.0,
	}
	log.Info("Movement decision made",
		"action", decision.ChosenAction,
		"x", target.X, "y", target.Y,
		"processing_ms", decision.ProcessingTimeMS)
	return decision, nil
}

// askLLM builds the prompt, calls the model, and parses whatever comes back.
// Any failure on the way returns a fully defaulted ParsedDecision.
func (e *Engine) askLLM(ctx context.Context, req *npc.MovementRequest, record *npc.MemoryRecord, log *slog.Logger) ParsedDecision {
	prompt, err := prompts.NewMovementBuilder(e.cfg.BoundaryBuffer, e.cfg.VisitThreshold, e.cfg.RevisitInterval).
		WithRequest(req).
		WithMemory(record).
		WithLongTermMemories(record.RecentLongTermMemories(3)).
		Build()
	if err != nil {
		log.Error("Failed to build movement prompt", "error", err)
		return ParseDecision("")
	}

	model := req.ModelOverride
	if model == "" {
		model = e.cfg.ModelName
	}
	opts := &chat.Options{
		Temperature: chat.Float64(decisionTemperature),
		TopK:        chat.Int(decisionTopK),
		TopP:        chat.Float64(decisionTopP),
	}
	if e.cfg.NumCtx > 0 {
		opts.NumCtx = chat.Int(e.cfg.NumCtx)
	}

	resp, err := e.llm.Chat(ctx, model, []chat.Message{chat.SystemMessage(prompt)}, opts)
	if err != nil {
		log.Warn("LLM call failed, falling back", "error", err, "model", model)
		return ParseDecision("")
	}
	return ParseDecision(resp.Content)
}

// enforceWorldRules turns the LLM's proposed target into a legal one:
// occupied-bathroom redirection first, then boundary clamping.
func (e *Engine) enforceWorldRules(req *npc.MovementRequest, parsed ParsedDecision, log *slog.Logger) (npc.Position, string) {
	target := parsed.Target
	action := parsed.ChosenAction

	if lm := e.associateLandmark(req, target, action); lm != nil &&
		lm.TypeTag == npc.LandmarkBathroom && lm.OccupiedByOther(req.NPCID) {
		if entrance, ok := lm.NearestEntrance(req.CurrentPosition); ok {
			// Wait close to the door rather than inside; half the usual
			// buffer keeps the waiting spot snug against the wall.
			x, y := spatial.ClampToBounds(entrance.X, entrance.Y, req.Boundary, e.cfg.BoundaryBuffer*0.5)
			target = npc.Position{X: x, Y: y}
			action = fmt.Sprintf("Heading to wait near %s (it is occupied).", lm.Name)
			parsed.Drivers[npc.DriverAccessRules] = true
			log.Info("Redirected away from occupied bathroom", "landmark", lm.Name)
		} else {
			log.Warn("Occupied bathroom has no entrances, keeping target", "landmark", lm.Name)
		}
	}

	x, y := spatial.ClampToBounds(target.X, target.Y, req.Boundary, e.cfg.BoundaryBuffer)
	clamped := npc.Position{X: x, Y: y}
	if target.DistanceTo(clamped) > clampAnnotationThreshold {
		action += " (adjusted to stay within bounds)"
		log.Debug("Clamped out-of-bounds target",
			"from_x", target.X, "from_y", target.Y, "to_x", clamped.X, "to_y", clamped.Y)
	}
	return clamped, action
}

// associateLandmark finds the landmark the target refers to: proximity
// first, then bathroom keywords in the action text.
func (e *Engine) associateLandmark(req *npc.MovementRequest, target npc.Position, action string) *npc.Landmark {
	var nearest *npc.Landmark
	nearestDist := landmarkAssociationRadius
	for i := range req.Landmarks {
		lm := &req.Landmarks[i]
		if d := target.DistanceTo(lm.Position); d <= nearestDist {
			nearest = lm
			nearestDist = d
		}
	}
	if nearest != nil {
		return nearest
	}

	lower := strings.ToLower(action)
	if strings.Contains(lower, "bathroom") || strings.Contains(lower, "toilet") {
		for i := range req.Landmarks {
			if req.Landmarks[i].TypeTag == npc.LandmarkBathroom {
				return &req.Landmarks[i]
			}
		}
	}
	return nil
}

// applyDecisionEffects writes the decision back into memory: emotion change,
// visit history, last-known state, and a save that survives client
// disconnects. Persistence failures are logged, never propagated.
func (e *Engine) applyDecisionEffects(ctx context.Context, store *memory.Store, record *npc.MemoryRecord,
	req *npc.MovementRequest, target npc.Position, action string, parsed ParsedDecision,
	ref time.Time, log *slog.Logger) *npc.EmotionalState {

	if !isEmotionSentinel(parsed.EmotionTag) &&
		!strings.EqualFold(parsed.EmotionTag, record.EmotionalState.PrimaryEmotion) {
		reason := "Movement Decision: " + action
		if err := store.SetEmotion(ctx, parsed.EmotionTag, record.EmotionalState.Intensity, reason, nil); err != nil {
			log.Error("Failed to update emotion", "error", err)
		}
	}
	if err := store.RecordVisit(ctx, target.X, target.Y, ref); err != nil {
		log.Error("Failed to record visit", "error", err)
	}
	if err := store.TouchLastKnown(ctx, req.CurrentPosition, req.GameTime); err != nil {
		log.Error("Failed to update last-known state", "error", err)
	}

	// Detach from the request context so a dropped connection cannot abort
	// the save mid-write.
	if err := store.Save(context.WithoutCancel(ctx), false); err != nil {
		log.Error("Failed to persist memory after decision", "error", err)
	}

	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		return nil
	}
	state := snapshot.EmotionalState
	return &state
}

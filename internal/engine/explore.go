package engine

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/gamedev-tw/npc-engine/pkg/npc"
	"github.com/gamedev-tw/npc-engine/pkg/spatial"
)

// Scoring constants for fallback exploration candidates.
const (
	landmarkBaseScore   = 50.0
	socialAreaBonus     = 20.0
	ownRoomBonus        = 15.0
	randomRayBaseScore  = 30.0
	numRandomRays       = 10
	recentVisitPenalty  = -300.0
	freshLocationBonus  = 100.0
	crowdPenaltyPerHead = -25.0
	crowdRadius         = 2.0
	scoreJitter         = 15.0
)

// ExploreConfig carries the search-distance tunables.
type ExploreConfig struct {
	MinSearchDistance float64
	MaxSearchDistance float64
	BoundaryBuffer    float64
}

// Explorer is the local movement planner used when the LLM gives no usable
// target. It is deliberately simple: score a handful of candidate points
// and take the best one.
type Explorer struct {
	cfg    ExploreConfig
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewExplorer creates a planner with its own random source. Tests inject a
// seeded source for determinism.
func NewExplorer(cfg ExploreConfig, rng *rand.Rand, logger *slog.Logger) *Explorer {
	return &Explorer{cfg: cfg, rng: rng, logger: logger}
}

type candidate struct {
	pos   npc.Position
	score float64
}

// PlanTarget picks an exploration destination for the NPC. recentlyVisited
// reports whether a point falls inside the revisit window; it may be nil.
// PlanTarget always returns an in-bounds position.
func (e *Explorer) PlanTarget(req *npc.MovementRequest, recentlyVisited func(x, y float64) bool) npc.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := req.CurrentPosition
	bounds := req.Boundary
	minDist := e.cfg.MinSearchDistance
	maxDist := e.cfg.MaxSearchDistance

	var candidates []candidate

	// Accessible landmarks at a reasonable travel distance.
	for _, lm := range req.Landmarks {
		if !lm.AccessibleTo(req.NPCID) {
			continue
		}
		dist := current.DistanceTo(lm.Position)
		if dist < 0.5*minDist || dist > 0.7*maxDist {
			continue
		}
		score := landmarkBaseScore
		if lm.IsSocialArea() {
			score += socialAreaBonus
		}
		if lm.IsOwnRoom(req.NPCID) {
			score += ownRoomBonus
		}
		candidates = append(candidates, candidate{pos: lm.Position, score: score})
	}

	// Random rays fill in when landmarks are sparse or all nearby. The band
	// can invert when min and max sit close together (0.7*min > 0.5*max);
	// collapse it to a point rather than let a negative span shrink rays
	// below the minimum.
	rayLo := 0.7 * minDist
	rayHi := math.Max(rayLo, 0.5*maxDist)
	for i := 0; i < numRandomRays; i++ {
		angle := e.rng.Float64() * 2 * math.Pi
		dist := rayLo + e.rng.Float64()*(rayHi-rayLo)
		pos := npc.Position{
			X: current.X + dist*math.Cos(angle),
			Y: current.Y + dist*math.Sin(angle),
		}
		candidates = append(candidates, candidate{pos: pos, score: randomRayBaseScore})
	}

	best := candidate{score: math.Inf(-1)}
	for _, c := range candidates {
		x, y := spatial.ClampToBounds(c.pos.X, c.pos.Y, bounds, e.cfg.BoundaryBuffer)
		c.pos = npc.Position{X: x, Y: y}

		// Clamping can collapse a candidate onto the NPC; too-close targets
		// are not worth walking to.
		if current.DistanceTo(c.pos) < 0.3*minDist {
			continue
		}

		if recentlyVisited != nil && recentlyVisited(c.pos.X, c.pos.Y) {
			c.score += recentVisitPenalty
		} else {
			c.score += freshLocationBonus
		}
		for _, entity := range req.NearbyEntities {
			if c.pos.DistanceTo(entity.Pos()) < crowdRadius {
				c.score += crowdPenaltyPerHead
			}
		}
		c.score += (e.rng.Float64()*2 - 1) * scoreJitter

		if c.score > best.score {
			best = c
		}
	}

	if math.IsInf(best.score, -1) {
		pos := e.emergencyPoint(bounds)
		e.logger.Warn("No viable exploration candidate, using emergency point",
			"npc_id", req.NPCID, "x", pos.X, "y", pos.Y)
		return pos
	}
	return best.pos
}

// emergencyPoint is the last resort: a uniform random point inside the
// buffered boundary, degrading to the midpoint when the scene is too small
// to leave any room.
func (e *Explorer) emergencyPoint(bounds npc.SceneBoundary) npc.Position {
	buffer := e.cfg.BoundaryBuffer
	loX, hiX := bounds.MinX+buffer, bounds.MaxX-buffer
	loY, hiY := bounds.MinY+buffer, bounds.MaxY-buffer

	var pos npc.Position
	if hiX > loX {
		pos.X = loX + e.rng.Float64()*(hiX-loX)
	} else {
		pos.X = (bounds.MinX + bounds.MaxX) / 2
	}
	if hiY > loY {
		pos.Y = loY + e.rng.Float64()*(hiY-loY)
	} else {
		pos.Y = (bounds.MinY + bounds.MaxY) / 2
	}
	return pos
}

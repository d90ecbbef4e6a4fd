package npc

import (
	"fmt"
	"math"
)

// Position is a point in the scene's 2D coordinate space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to another position.
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

func (p Position) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

// SceneBoundary describes the traversable rectangle of the current scene.
type SceneBoundary struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// Validate rejects inverted boundaries.
func (b SceneBoundary) Validate() error {
	if b.MaxX < b.MinX {
		return fmt.Errorf("scene boundary: max_x (%.2f) must be >= min_x (%.2f)", b.MaxX, b.MinX)
	}
	if b.MaxY < b.MinY {
		return fmt.Errorf("scene boundary: max_y (%.2f) must be >= min_y (%.2f)", b.MaxY, b.MinY)
	}
	return nil
}

// Contains reports whether the point lies inside the boundary (inclusive).
func (b SceneBoundary) Contains(p Position) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

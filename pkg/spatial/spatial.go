// Package spatial holds the pure geometry and text-extraction helpers used
// by the movement decision engine.
package spatial

import (
	"regexp"
	"strconv"

	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

// ClampToBounds returns the nearest point inside the boundary shrunk by
// buffer on every side. When an axis is too narrow for the buffer the usable
// range degrades toward the axis midpoint instead of inverting, so the result
// always lies within the raw boundary.
func ClampToBounds(x, y float64, b npc.SceneBoundary, buffer float64) (float64, float64) {
	minX, maxX := shrink(b.MinX, b.MaxX, buffer)
	minY, maxY := shrink(b.MinY, b.MaxY, buffer)
	return clamp(x, minX, maxX), clamp(y, minY, maxY)
}

// shrink pulls both ends of [low, high] inward by buffer, collapsing to the
// midpoint when the range is narrower than twice the buffer.
func shrink(low, high, buffer float64) (float64, float64) {
	if buffer <= 0 || high-low <= 0 {
		return low, high
	}
	if high-low < 2*buffer {
		mid := (low + high) / 2
		return mid, mid
	}
	return low + buffer, high - buffer
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

const num = `[+-]?\d*\.?\d+`

var (
	// x=12.3, y=45.6 (also "x: 12.3; y: 45.6", either order)
	reKeyValXY = regexp.MustCompile(`(?i)x\s*[:=]\s*(` + num + `)\s*[,;]?\s*y\s*[:=]\s*(` + num + `)`)
	reKeyValYX = regexp.MustCompile(`(?i)y\s*[:=]\s*(` + num + `)\s*[,;]?\s*x\s*[:=]\s*(` + num + `)`)

	// {"x": 12.3, "y": 45.6} with single or double quotes
	reJSONObj = regexp.MustCompile(`(?i)\{\s*['"]x['"]\s*:\s*(` + num + `)\s*,\s*['"]y['"]\s*:\s*(` + num + `)\s*\}`)

	// (12.3, 45.6), [12.3, 45.6], or bare 12.3,45.6
	reTupleCSV = regexp.MustCompile(`[\(\[]?\s*(` + num + `)\s*[,;]\s*(` + num + `)\s*[\)\]]?`)
)

// ParseCoordinates extracts an (x, y) pair from free text. It accepts
// key-value form in either order, a simple JSON object, and tuple/CSV form
// with optional brackets. Returns ok=false when no pair can be found.
func ParseCoordinates(text string) (x, y float64, ok bool) {
	if text == "" {
		return 0, 0, false
	}

	if m := reKeyValXY.FindStringSubmatch(text); m != nil {
		return parsePair(m[1], m[2])
	}
	if m := reKeyValYX.FindStringSubmatch(text); m != nil {
		return parsePair(m[2], m[1])
	}
	if m := reJSONObj.FindStringSubmatch(text); m != nil {
		return parsePair(m[1], m[2])
	}
	if m := reTupleCSV.FindStringSubmatch(text); m != nil {
		return parsePair(m[1], m[2])
	}
	return 0, 0, false
}

func parsePair(xs, ys string) (float64, float64, bool) {
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

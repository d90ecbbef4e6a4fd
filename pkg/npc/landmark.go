package npc

import "strings"

// Landmark type tags the engine gives special treatment.
const (
	LandmarkBathroom = "bathroom"
	LandmarkBedroom  = "bedroom"
)

// Status note markers supplied by the game client.
const (
	StatusNoteOccupied     = "occupancy_occupied"
	StatusNoteOwnerPresent = "owner_presence_present"
)

// socialLandmarkTypes are common areas where lingering is encouraged.
var socialLandmarkTypes = map[string]bool{
	"living_room": true,
	"kitchen":     true,
	"dining_room": true,
}

// Landmark is a named point of interest visible to the deciding NPC.
// StatusNotes encode dynamic occupancy and ownership state, e.g.
// "occupancy_occupied_by_npc_a" or "owner_presence_absent".
type Landmark struct {
	Name      string     `json:"landmark_name"`
	Position  Position   `json:"position"`
	TypeTag   string     `json:"landmark_type_tag,omitempty"`
	OwnerID   string     `json:"owner_id,omitempty"`
	Notes     []string   `json:"current_status_notes,omitempty"`
	Entrances []Position `json:"entrance_positions,omitempty"`
}

// OccupiedByOther reports whether a status note marks the landmark occupied
// by someone other than npcID.
func (l Landmark) OccupiedByOther(npcID string) bool {
	id := strings.ToLower(npcID)
	for _, note := range l.Notes {
		n := strings.ToLower(note)
		if strings.Contains(n, StatusNoteOccupied) && !strings.Contains(n, id) {
			return true
		}
	}
	return false
}

// ownerPresent reports whether a status note marks the owner as present.
func (l Landmark) ownerPresent() bool {
	for _, note := range l.Notes {
		if strings.Contains(strings.ToLower(note), StatusNoteOwnerPresent) {
			return true
		}
	}
	return false
}

// AccessibleTo applies the apartment access rules: bathrooms are off limits
// while occupied by someone else, and another resident's bedroom may only be
// entered while its owner is present. Everything else is open.
func (l Landmark) AccessibleTo(npcID string) bool {
	switch l.TypeTag {
	case LandmarkBathroom:
		return !l.OccupiedByOther(npcID)
	case LandmarkBedroom:
		if l.OwnerID != "" && !strings.EqualFold(l.OwnerID, npcID) {
			return l.ownerPresent()
		}
	}
	return true
}

// IsSocialArea reports whether the landmark is a common social space.
func (l Landmark) IsSocialArea() bool {
	return socialLandmarkTypes[l.TypeTag]
}

// IsOwnRoom reports whether the landmark is npcID's own private room.
func (l Landmark) IsOwnRoom(npcID string) bool {
	return l.TypeTag == LandmarkBedroom && l.OwnerID != "" && strings.EqualFold(l.OwnerID, npcID)
}

// NearestEntrance returns the entrance closest to from, or false when the
// landmark has no entrances defined.
func (l Landmark) NearestEntrance(from Position) (Position, bool) {
	if len(l.Entrances) == 0 {
		return Position{}, false
	}
	best := l.Entrances[0]
	bestDist := from.DistanceTo(best)
	for _, e := range l.Entrances[1:] {
		if d := from.DistanceTo(e); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, true
}

// Entity is another character near the deciding NPC.
type Entity struct {
	ID            string  `json:"npc_id"`
	Name          string  `json:"name,omitempty"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	EntityType    string  `json:"entity_type,omitempty"` // "player", "npc_roommate", ...
	IsSignificant bool    `json:"is_significant_to_npc,omitempty"`
}

// Position returns the entity's location as a Position.
func (e Entity) Pos() Position {
	return Position{X: e.X, Y: e.Y}
}

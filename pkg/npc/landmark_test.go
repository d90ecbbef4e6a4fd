package npc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLandmark_AccessibleTo(t *testing.T) {
	tests := []struct {
		name     string
		landmark Landmark
		npcID    string
		want     bool
	}{
		{
			name:     "free bathroom",
			landmark: Landmark{Name: "WC", TypeTag: LandmarkBathroom},
			npcID:    "alice",
			want:     true,
		},
		{
			name: "bathroom occupied by other",
			landmark: Landmark{
				Name: "WC", TypeTag: LandmarkBathroom,
				Notes: []string{"occupancy_occupied_by_bob"},
			},
			npcID: "alice",
			want:  false,
		},
		{
			name: "bathroom occupied by self",
			landmark: Landmark{
				Name: "WC", TypeTag: LandmarkBathroom,
				Notes: []string{"occupancy_occupied_by_alice"},
			},
			npcID: "alice",
			want:  true,
		},
		{
			name: "own bedroom",
			landmark: Landmark{
				Name: "Alice's Room", TypeTag: LandmarkBedroom, OwnerID: "alice",
			},
			npcID: "alice",
			want:  true,
		},
		{
			name: "foreign bedroom with absent owner",
			landmark: Landmark{
				Name: "Bob's Room", TypeTag: LandmarkBedroom, OwnerID: "bob",
				Notes: []string{"owner_presence_absent"},
			},
			npcID: "alice",
			want:  false,
		},
		{
			name: "foreign bedroom with present owner",
			landmark: Landmark{
				Name: "Bob's Room", TypeTag: LandmarkBedroom, OwnerID: "bob",
				Notes: []string{"owner_presence_present"},
			},
			npcID: "alice",
			want:  true,
		},
		{
			name:     "common area is always open",
			landmark: Landmark{Name: "Living Room", TypeTag: "living_room"},
			npcID:    "alice",
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.landmark.AccessibleTo(tt.npcID))
		})
	}
}

func TestLandmark_NearestEntrance(t *testing.T) {
	lm := Landmark{
		Name:     "WC",
		Position: Position{X: 5, Y: 5},
		Entrances: []Position{
			{X: 4, Y: 5},
			{X: 6, Y: 5},
		},
	}

	got, ok := lm.NearestEntrance(Position{X: 0, Y: 0})
	assert.True(t, ok)
	assert.Equal(t, Position{X: 4, Y: 5}, got)

	got, ok = lm.NearestEntrance(Position{X: 10, Y: 5})
	assert.True(t, ok)
	assert.Equal(t, Position{X: 6, Y: 5}, got)

	_, ok = Landmark{Name: "Sofa"}.NearestEntrance(Position{})
	assert.False(t, ok)
}

func TestLandmark_Categories(t *testing.T) {
	assert.True(t, Landmark{TypeTag: "kitchen"}.IsSocialArea())
	assert.False(t, Landmark{TypeTag: LandmarkBathroom}.IsSocialArea())

	own := Landmark{TypeTag: LandmarkBedroom, OwnerID: "Alice"}
	assert.True(t, own.IsOwnRoom("alice"))
	assert.False(t, own.IsOwnRoom("bob"))
}

func TestSceneBoundary_Validate(t *testing.T) {
	assert.NoError(t, SceneBoundary{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}.Validate())
	assert.NoError(t, SceneBoundary{}.Validate(), "zero-area boundary is legal")
	assert.Error(t, SceneBoundary{MinX: 10, MaxX: 0, MinY: 0, MaxY: 10}.Validate())
	assert.Error(t, SceneBoundary{MinX: 0, MaxX: 10, MinY: 10, MaxY: 0}.Validate())
}

func TestMovementRequest_Validate(t *testing.T) {
	req := &MovementRequest{
		NPCID:    "alice",
		Boundary: SceneBoundary{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10},
	}
	assert.NoError(t, req.Validate())

	assert.Error(t, (&MovementRequest{Boundary: req.Boundary}).Validate())
	assert.Error(t, (&MovementRequest{NPCID: "alice", Boundary: SceneBoundary{MinX: 5, MaxX: 0}}).Validate())
}

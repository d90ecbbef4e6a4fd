package npc

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewMemoryRecord_Defaults(t *testing.T) {
	m := NewMemoryRecord("alice")

	assert.Equal(t, "alice", m.NPCID)
	assert.Equal(t, "alice", m.Name)
	assert.Equal(t, DefaultPersonality, m.Personality)
	assert.Equal(t, "neutral", m.EmotionalState.PrimaryEmotion)
	assert.InDelta(t, 0.5, m.EmotionalState.Intensity, 0.001)
	assert.NoError(t, m.Validate())
}

func TestMemoryRecord_Validate(t *testing.T) {
	m := &MemoryRecord{}
	assert.Error(t, m.Validate())
}

func TestRecordVisit_BoundedHistory(t *testing.T) {
	const maxEntries = 15
	m := NewMemoryRecord("alice")
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < maxEntries+5; i++ {
		m.RecordVisit(float64(i), float64(i), base.Add(time.Duration(i)*time.Minute), maxEntries)
	}

	if len(m.LocationHistory) != maxEntries {
		t.Fatalf("expected %d entries, got %d", maxEntries, len(m.LocationHistory))
	}
	// Oldest entries were dropped: the first remaining visit is entry 5.
	assert.Equal(t, 5.0, m.LocationHistory[0].X)
	assert.Equal(t, 19.0, m.LocationHistory[maxEntries-1].X)
}

func TestAddLongTermMemory_FIFOEviction(t *testing.T) {
	const maxEntries = 3
	m := NewMemoryRecord("alice")

	for i := 0; i < 5; i++ {
		m.AddLongTermMemory(fmt.Sprintf("event %d", i), "generic_observation", nil, nil, maxEntries)
	}

	if len(m.LongTermMemories) != maxEntries {
		t.Fatalf("expected %d entries, got %d", maxEntries, len(m.LongTermMemories))
	}
	assert.Equal(t, "event 2", m.LongTermMemories[0].Content)
	assert.Equal(t, "event 4", m.LongTermMemories[2].Content)
}

func TestAddLongTermMemory_TruncatesContent(t *testing.T) {
	m := NewMemoryRecord("alice")
	long := make([]byte, 2*maxLongTermMemoryContentLen)
	for i := range long {
		long[i] = 'x'
	}

	entry := m.AddLongTermMemory(string(long), "generic_observation", nil, nil, 10)
	assert.Len(t, entry.Content, maxLongTermMemoryContentLen)
}

func TestRecentLongTermMemories_NewestFirst(t *testing.T) {
	m := NewMemoryRecord("alice")
	for i := 0; i < 4; i++ {
		m.AddLongTermMemory(fmt.Sprintf("event %d", i), "generic_observation", nil, nil, 10)
	}

	recent := m.RecentLongTermMemories(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	assert.Equal(t, "event 3", recent[0].Content)
	assert.Equal(t, "event 2", recent[1].Content)

	assert.Nil(t, m.RecentLongTermMemories(0))
}

func TestSetEmotion(t *testing.T) {
	m := NewMemoryRecord("alice")
	m.EmotionalState.MoodTags = []string{"calm"}

	m.SetEmotion("curious", 0.5, "saw something odd", nil)

	assert.Equal(t, "curious", m.EmotionalState.PrimaryEmotion)
	assert.Equal(t, "saw something odd", m.EmotionalState.Reason)
	assert.Equal(t, []string{"calm"}, m.EmotionalState.MoodTags, "mood tags carry over when none supplied")
	assert.False(t, m.EmotionalState.LastChangedAt.IsZero())

	m.SetEmotion("happy", 0.8, "good chat", []string{"energetic"})
	assert.Equal(t, []string{"energetic"}, m.EmotionalState.MoodTags)
}

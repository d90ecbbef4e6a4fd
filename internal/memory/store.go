// Package memory is the in-process cache over persistent NPC memory. Each
// NPC gets one Store that owns its record; the engine mutates through the
// Store so dirty tracking and persistence stay in one place.
package memory

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gamedev-tw/npc-engine/internal/storage"
	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

// Limits are the record-size and recency tunables, taken from config.
type Limits struct {
	MaxLocations    int
	MaxLongTerm     int
	VisitThreshold  float64
	RevisitInterval time.Duration
}

// Store owns the memory record of a single NPC. All access goes through the
// mutex; the record pointer never escapes unclamped (Snapshot copies).
type Store struct {
	npcID   string
	backend storage.Storage
	logger  *slog.Logger
	limits  Limits

	mu     sync.Mutex
	record *npc.MemoryRecord
	loaded bool
	dirty  bool
}

func newStore(npcID string, backend storage.Storage, limits Limits, logger *slog.Logger) *Store {
	return &Store{
		npcID:   npcID,
		backend: backend,
		limits:  limits,
		logger:  logger.With("npc_id", npcID),
	}
}

// load ensures the record is populated, reading from storage on first use
// and falling back to a fresh default record when nothing is stored.
func (s *Store) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	record, err := s.backend.LoadMemory(ctx, s.npcID)
	if err != nil {
		return err
	}
	if record == nil {
		record = npc.NewMemoryRecord(s.npcID)
		s.dirty = true
		s.logger.Info("Created default memory record")
	}
	s.record = record
	s.loaded = true
	return nil
}

// cached returns a copy of the record only if it is already loaded, with no
// storage access and no side effects.
func (s *Store) cached() (npc.MemoryRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return npc.MemoryRecord{}, false
	}
	return *s.record, true
}

// Snapshot returns a copy of the current record, loading it if needed.
// The copy shares slice backing arrays; callers treat it as read-only.
func (s *Store) Snapshot(ctx context.Context) (npc.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return npc.MemoryRecord{}, err
	}
	return *s.record, nil
}

// RecordVisit appends a visited location to the short-term history.
func (s *Store) RecordVisit(ctx context.Context, x, y float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	s.record.RecordVisit(x, y, at, s.limits.MaxLocations)
	s.dirty = true
	return nil
}

// SetEmotion replaces the emotional state.
func (s *Store) SetEmotion(ctx context.Context, primary string, intensity float64, reason string, moodTags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	s.record.SetEmotion(primary, intensity, reason, moodTags)
	s.dirty = true
	return nil
}

// AddLongTermMemory appends a durable event memory.
func (s *Store) AddLongTermMemory(ctx context.Context, content, typeTag string, keywords, relatedIDs []string) (npc.LongTermMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return npc.LongTermMemory{}, err
	}
	entry := s.record.AddLongTermMemory(content, typeTag, keywords, relatedIDs, s.limits.MaxLongTerm)
	s.dirty = true
	return entry, nil
}

// TouchLastKnown updates the last observed position and game time.
func (s *Store) TouchLastKnown(ctx context.Context, pos npc.Position, gt npc.GameTime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	s.record.LastKnownPosition = &pos
	s.record.LastKnownGameTime = &gt
	s.dirty = true
	return nil
}

// SetPersonality replaces the personality description.
func (s *Store) SetPersonality(ctx context.Context, personality string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	s.record.Personality = personality
	s.dirty = true
	return nil
}

// WasRecentlyVisited reports whether (x, y) lies within the visit threshold
// of a location visited less than the revisit interval before ref. Visits
// stamped after ref (clock skew from the game client) do not count.
func (s *Store) WasRecentlyVisited(ctx context.Context, x, y float64, ref time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return false, err
	}
	for _, visit := range s.record.LocationHistory {
		if math.Hypot(visit.X-x, visit.Y-y) >= s.limits.VisitThreshold {
			continue
		}
		elapsed := ref.Sub(visit.VisitedAt)
		if elapsed >= 0 && elapsed < s.limits.RevisitInterval {
			return true, nil
		}
	}
	return false, nil
}

// Save persists the record when it is dirty, or unconditionally when force
// is set. Failures are logged and returned; callers on the decision path
// ignore the error so persistence trouble never blocks movement.
func (s *Store) Save(ctx context.Context, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded || (!s.dirty && !force) {
		return nil
	}
	if err := s.backend.SaveMemory(ctx, s.record); err != nil {
		s.logger.Error("Failed to save memory record", "error", err)
		return err
	}
	s.dirty = false
	return nil
}

// Clear deletes the persisted record and drops the cached one.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.DeleteMemory(ctx, s.npcID); err != nil {
		return err
	}
	s.record = nil
	s.loaded = false
	s.dirty = false
	return nil
}

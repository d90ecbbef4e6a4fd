package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gamedev-tw/npc-engine/internal/storage"
	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

// Registry hands out one Store per NPC id and drives bulk persistence.
type Registry struct {
	backend storage.Storage
	limits  Limits
	logger  *slog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(backend storage.Storage, limits Limits, logger *slog.Logger) *Registry {
	return &Registry{
		backend: backend,
		limits:  limits,
		logger:  logger,
		stores:  make(map[string]*Store),
	}
}

// ForNPC returns the Store for npcID, creating it on first use.
func (r *Registry) ForNPC(npcID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[npcID]
	if !ok {
		store = newStore(npcID, r.backend, r.limits, r.logger)
		r.stores[npcID] = store
	}
	return store
}

// PeekMemory returns the current record without creating one: the cached
// store's view when an NPC is already active, otherwise whatever storage
// holds. Returns (nil, nil) when the NPC has no record anywhere.
func (r *Registry) PeekMemory(ctx context.Context, npcID string) (*npc.MemoryRecord, error) {
	r.mu.Lock()
	store := r.stores[npcID]
	r.mu.Unlock()

	if store != nil {
		if record, ok := store.cached(); ok {
			return &record, nil
		}
	}
	return r.backend.LoadMemory(ctx, npcID)
}

// SaveAll flushes every dirty store. Individual failures are logged by the
// store; SaveAll reports how many saves failed.
func (r *Registry) SaveAll(ctx context.Context) int {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	failed := 0
	for _, s := range stores {
		if err := s.Save(ctx, false); err != nil {
			failed++
		}
	}
	if failed > 0 {
		r.logger.Warn("Some memory stores failed to save", "failed", failed, "total", len(stores))
	}
	return failed
}

// Remove clears an NPC's persisted memory and forgets its store.
func (r *Registry) Remove(ctx context.Context, npcID string) error {
	r.mu.Lock()
	store, ok := r.stores[npcID]
	delete(r.stores, npcID)
	r.mu.Unlock()

	if !ok {
		store = newStore(npcID, r.backend, r.limits, r.logger)
	}
	return store.Clear(ctx)
}

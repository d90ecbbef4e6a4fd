// Package storage persists NPC memory records. Two backends are provided:
// Redis for networked deployments and SQLite for single-host ones.
package storage

import (
	"context"

	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

// Storage is the persistence interface for NPC memory.
//
// LoadMemory returns (nil, nil) when no record exists for the NPC, and also
// when a stored record cannot be decoded: a corrupt blob is logged and
// treated as absent so a single bad row never wedges the decision loop.
type Storage interface {
	LoadMemory(ctx context.Context, npcID string) (*npc.MemoryRecord, error)
	SaveMemory(ctx context.Context, record *npc.MemoryRecord) error

	// DeleteMemory removes a record. Deleting an absent record is not an error.
	DeleteMemory(ctx context.Context, npcID string) error

	// ListNPCs returns the ids of every NPC with a stored record.
	ListNPCs(ctx context.Context) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}

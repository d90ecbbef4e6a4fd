package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

// MockStorage is an in-memory Storage for tests. Optional error fields let
// tests force failures per operation.
type MockStorage struct {
	mu      sync.Mutex
	records map[string]*npc.MemoryRecord

	LoadErr   error
	SaveErr   error
	DeleteErr error
	PingErr   error

	SaveCalls int
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{records: make(map[string]*npc.MemoryRecord)}
}

func (m *MockStorage) LoadMemory(_ context.Context, npcID string) (*npc.MemoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	record, ok := m.records[npcID]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (m *MockStorage) SaveMemory(_ context.Context, record *npc.MemoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	clone := *record
	m.records[record.NPCID] = &clone
	return nil
}

func (m *MockStorage) DeleteMemory(_ context.Context, npcID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.records, npcID)
	return nil
}

func (m *MockStorage) ListNPCs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockStorage) Ping(context.Context) error { return m.PingErr }
func (m *MockStorage) Close() error               { return nil }

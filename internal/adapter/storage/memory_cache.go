package storage

import (
	"context"
	"maps"
	"sync"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

// MemoryCache keeps snapshots and idempotency keys in process memory. It is
// used when no Redis is configured; nothing survives a restart.
type MemoryCache struct {
	mu        sync.Mutex
	keys      map[string]struct{}
	snapshots map[string]domain.Snapshot
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		keys:      make(map[string]struct{}),
		snapshots: make(map[string]domain.Snapshot),
	}
}

func (m *MemoryCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *MemoryCache) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.keys, key)
	return nil
}

func (m *MemoryCache) SaveSnapshot(ctx context.Context, machineID string, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[machineID] = copySnapshot(snap)
	return nil
}

func (m *MemoryCache) LoadSnapshot(ctx context.Context, machineID string) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.snapshots[machineID]
	if !ok {
		return nil, nil
	}
	out := copySnapshot(snap)
	return &out, nil
}

func copySnapshot(snap domain.Snapshot) domain.Snapshot {
	snap.Products = maps.Clone(snap.Products)
	snap.Coins = maps.Clone(snap.Coins)
	return snap
}

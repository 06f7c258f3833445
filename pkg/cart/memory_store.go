package cart

import (
	"context"
	"sync"
)

// MemoryStore keeps guest cart snapshots in process memory. Suitable for
// tests and single-process apps; snapshots vanish on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]Snapshot)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.carts[sessionID]
	if !ok {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return snap.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.carts[sessionID] = snap.Clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.carts, sessionID)
	return nil
}

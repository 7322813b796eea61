package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	data    []byte
	savedAt time.Time
}

// MemoryStore keeps snapshots in process memory. Used in tests and in the
// direct run mode where durability across restarts is not needed.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Load(ctx context.Context, jobID string) (*Snapshot, error) {
	s.mu.RLock()
	entry, ok := s.entries[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var snap Snapshot
	if err := json.Unmarshal(entry.data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for job %s: %w", jobID, err)
	}
	return &snap, nil
}

func (s *MemoryStore) Save(ctx context.Context, jobID string, snap *Snapshot) error {
	// Snapshots round-trip through JSON so that callers cannot mutate stored
	// state through shared maps, matching the file and Postgres backends.
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for job %s: %w", jobID, err)
	}

	s.mu.Lock()
	s.entries[jobID] = memoryEntry{data: data, savedAt: time.Now()}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*Snapshot, error) {
	s.mu.RLock()
	type keyed struct {
		id      string
		savedAt time.Time
	}
	keys := make([]keyed, 0, len(s.entries))
	for id, entry := range s.entries {
		keys = append(keys, keyed{id: id, savedAt: entry.savedAt})
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].savedAt.After(keys[j].savedAt) })

	snaps := make([]*Snapshot, 0, len(keys))
	for _, k := range keys {
		if limit > 0 && len(snaps) >= limit {
			break
		}
		snap, err := s.Load(ctx, k.id)
		if err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

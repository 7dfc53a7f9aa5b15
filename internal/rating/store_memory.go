package rating

import (
	"context"
	"sync"

	id "sglgb/pkg/domain"
	"sglgb/pkg/platform/sentinel"
)

// InMemorySnapshotStore keeps rating snapshots in memory.
type InMemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[id.AssessmentID]Snapshot
}

// NewInMemorySnapshotStore constructs an empty snapshot store.
func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{snapshots: make(map[id.AssessmentID]Snapshot)}
}

// Save upserts the snapshot for an assessment.
func (s *InMemorySnapshotStore) Save(_ context.Context, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.AssessmentID] = snapshot
	return nil
}

// Get returns the snapshot for an assessment.
func (s *InMemorySnapshotStore) Get(_ context.Context, assessmentID id.AssessmentID) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[assessmentID]
	if !ok {
		return Snapshot{}, sentinel.ErrNotFound
	}
	return snapshot, nil
}

// InMemoryBBIStore serves seeded institution groupings.
type InMemoryBBIStore struct {
	mu   sync.RWMutex
	defs []BBIDefinition
}

// NewInMemoryBBIStore constructs the store from seed definitions.
func NewInMemoryBBIStore(defs []BBIDefinition) *InMemoryBBIStore {
	return &InMemoryBBIStore{defs: defs}
}

// List returns every institution grouping.
func (s *InMemoryBBIStore) List(_ context.Context) ([]BBIDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BBIDefinition, len(s.defs))
	copy(out, s.defs)
	return out, nil
}

package deadline

import (
	"context"
	"sync"

	id "sglgb/pkg/domain"
)

// InMemoryExtensionStore keeps the append-only extension audit trail in
// memory.
type InMemoryExtensionStore struct {
	mu         sync.RWMutex
	extensions map[id.AssessmentID][]Extension
}

// NewInMemoryExtensionStore constructs an empty extension store.
func NewInMemoryExtensionStore() *InMemoryExtensionStore {
	return &InMemoryExtensionStore{
		extensions: make(map[id.AssessmentID][]Extension),
	}
}

// Append records one extension. Entries are never updated or removed.
func (s *InMemoryExtensionStore) Append(_ context.Context, ext Extension) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extensions[ext.AssessmentID] = append(s.extensions[ext.AssessmentID], ext)
	return nil
}

// ListByAssessment returns the ordered extension history for one assessment.
func (s *InMemoryExtensionStore) ListByAssessment(_ context.Context, assessmentID id.AssessmentID) ([]Extension, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.extensions[assessmentID]
	out := make([]Extension, len(history))
	copy(out, history)
	return out, nil
}

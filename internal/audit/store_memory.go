package audit

import (
	"context"
	"sync"

	id "sglgb/pkg/domain"
)

// InMemoryStore keeps the audit trail in memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewInMemoryStore constructs an empty audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append records one event. Entries are never updated or removed.
func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByAssessment returns the ordered trail for one assessment.
func (s *InMemoryStore) ListByAssessment(_ context.Context, assessmentID id.AssessmentID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.AssessmentID == assessmentID {
			out = append(out, event)
		}
	}
	return out, nil
}

// Package store holds indicator definitions. Definitions are reference data
// seeded at startup, so an in-memory read-only store is the single
// implementation.
package store

import (
	"context"
	"sync"

	"sglgb/internal/indicator"
	"sglgb/internal/indicator/models"
	id "sglgb/pkg/domain"
	"sglgb/pkg/platform/sentinel"
)

// InMemory serves indicator definitions from a validated tree.
type InMemory struct {
	mu   sync.RWMutex
	tree *indicator.Tree
}

// NewInMemory builds the store from seed definitions, validating the
// hierarchy in the process.
func NewInMemory(defs []*models.Definition) (*InMemory, error) {
	tree, err := indicator.NewTree(defs)
	if err != nil {
		return nil, err
	}
	return &InMemory{tree: tree}, nil
}

// ByID returns one definition.
func (s *InMemory) ByID(_ context.Context, defID id.IndicatorID) (*models.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.tree.Get(defID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return def, nil
}

// ByArea returns every definition in a governance area, ordered by id.
func (s *InMemory) ByArea(_ context.Context, areaID id.AreaID) ([]*models.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.ByArea(areaID), nil
}

// Tree exposes the validated hierarchy for traversal.
func (s *InMemory) Tree() *indicator.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

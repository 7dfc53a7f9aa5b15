// Package store persists assessment aggregates, responses, and evidence.
// The in-memory implementations back tests and single-node development; the
// PostgreSQL implementations are the production path. Both enforce the same
// contract: FindByID returns copies, Update is compare-and-swap on version.
package store

import (
	"context"
	"sync"
	"time"

	"sglgb/internal/assessment/models"
	id "sglgb/pkg/domain"
	"sglgb/pkg/platform/sentinel"
)

// InMemoryAssessments keeps aggregates in a map guarded by a RWMutex.
type InMemoryAssessments struct {
	mu   sync.RWMutex
	data map[id.AssessmentID]*models.Assessment
}

// NewInMemoryAssessments constructs an empty assessment store.
func NewInMemoryAssessments() *InMemoryAssessments {
	return &InMemoryAssessments{data: make(map[id.AssessmentID]*models.Assessment)}
}

// Create stores a new aggregate; sentinel.ErrConflict if the id exists.
func (s *InMemoryAssessments) Create(_ context.Context, a *models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[a.ID]; exists {
		return sentinel.ErrConflict
	}
	s.data[a.ID] = copyAssessment(a)
	return nil
}

// FindByID returns a copy of the aggregate.
func (s *InMemoryAssessments) FindByID(_ context.Context, assessmentID id.AssessmentID) (*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.data[assessmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyAssessment(a), nil
}

// Update persists the aggregate when the stored version matches, bumping the
// version on success. A stale caller gets sentinel.ErrConflict.
func (s *InMemoryAssessments) Update(_ context.Context, a *models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data[a.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != a.Version {
		return sentinel.ErrConflict
	}
	next := copyAssessment(a)
	next.Version = a.Version + 1
	s.data[a.ID] = next
	a.Version = next.Version
	return nil
}

// copyAssessment deep-copies the aggregate so callers cannot mutate stored
// state outside Update.
func copyAssessment(a *models.Assessment) *models.Assessment {
	out := *a
	out.Areas = make(map[id.AreaID]*models.AreaRecord, len(a.Areas))
	for areaID, rec := range a.Areas {
		recCopy := *rec
		recCopy.SubmittedAt = copyTime(rec.SubmittedAt)
		recCopy.ApprovedAt = copyTime(rec.ApprovedAt)
		recCopy.ReworkRequestedAt = copyTime(rec.ReworkRequestedAt)
		recCopy.ResubmittedAt = copyTime(rec.ResubmittedAt)
		if rec.ReviewerID != nil {
			reviewerID := *rec.ReviewerID
			recCopy.ReviewerID = &reviewerID
		}
		out.Areas[areaID] = &recCopy
	}
	out.CalibratedAreas = make(map[id.AreaID]bool, len(a.CalibratedAreas))
	for areaID, calibrated := range a.CalibratedAreas {
		out.CalibratedAreas[areaID] = calibrated
	}
	out.ApprovedSnapshot = append([]id.IndicatorID(nil), a.ApprovedSnapshot...)
	out.Deadlines.Submission = copyTime(a.Deadlines.Submission)
	out.Deadlines.Rework = copyTime(a.Deadlines.Rework)
	out.Deadlines.Calibration = copyTime(a.Deadlines.Calibration)
	if a.ApprovedBy != nil {
		approvedBy := *a.ApprovedBy
		out.ApprovedBy = &approvedBy
	}
	out.ApprovedAt = copyTime(a.ApprovedAt)
	return &out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// InMemoryResponses keeps responses keyed by (assessment, indicator).
type InMemoryResponses struct {
	mu   sync.RWMutex
	data map[id.ResponseID]*models.Response
}

// NewInMemoryResponses constructs an empty response store.
func NewInMemoryResponses() *InMemoryResponses {
	return &InMemoryResponses{data: make(map[id.ResponseID]*models.Response)}
}

// Save inserts or replaces a response.
func (s *InMemoryResponses) Save(_ context.Context, r *models.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[r.ID] = copyResponse(r)
	return nil
}

// FindByIndicator returns the response for one indicator of an assessment.
func (s *InMemoryResponses) FindByIndicator(_ context.Context, assessmentID id.AssessmentID, indicatorID id.IndicatorID) (*models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.data {
		if r.AssessmentID == assessmentID && r.IndicatorID == indicatorID {
			return copyResponse(r), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// ListByAssessment returns every response of an assessment.
func (s *InMemoryResponses) ListByAssessment(_ context.Context, assessmentID id.AssessmentID) ([]*models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Response
	for _, r := range s.data {
		if r.AssessmentID == assessmentID {
			out = append(out, copyResponse(r))
		}
	}
	return out, nil
}

func copyResponse(r *models.Response) *models.Response {
	out := *r
	out.Values = make(map[id.FieldSpecID]string, len(r.Values))
	for fieldID, value := range r.Values {
		out.Values[fieldID] = value
	}
	return &out
}

// InMemoryEvidence keeps evidence references, soft-deleted rows included.
type InMemoryEvidence struct {
	mu   sync.RWMutex
	data map[id.EvidenceID]*models.EvidenceFile
}

// NewInMemoryEvidence constructs an empty evidence store.
func NewInMemoryEvidence() *InMemoryEvidence {
	return &InMemoryEvidence{data: make(map[id.EvidenceID]*models.EvidenceFile)}
}

// Add stores a new evidence reference.
func (s *InMemoryEvidence) Add(_ context.Context, e *models.EvidenceFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[e.ID]; exists {
		return sentinel.ErrConflict
	}
	s.data[e.ID] = copyEvidence(e)
	return nil
}

// FindByID returns one evidence reference, soft-deleted or not.
func (s *InMemoryEvidence) FindByID(_ context.Context, evidenceID id.EvidenceID) (*models.EvidenceFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[evidenceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyEvidence(e), nil
}

// Update replaces a stored evidence reference.
func (s *InMemoryEvidence) Update(_ context.Context, e *models.EvidenceFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[e.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.data[e.ID] = copyEvidence(e)
	return nil
}

// ListByResponse returns every evidence row of a response, including
// soft-deleted ones; callers filter on Live.
func (s *InMemoryEvidence) ListByResponse(_ context.Context, responseID id.ResponseID) ([]*models.EvidenceFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.EvidenceFile
	for _, e := range s.data {
		if e.ResponseID == responseID {
			out = append(out, copyEvidence(e))
		}
	}
	return out, nil
}

func copyEvidence(e *models.EvidenceFile) *models.EvidenceFile {
	out := *e
	out.DeletedAt = copyTime(e.DeletedAt)
	return &out
}

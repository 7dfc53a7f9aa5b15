package rating

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	asmodels "sglgb/internal/assessment/models"
	inmodels "sglgb/internal/indicator/models"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
)

// DefinitionSource serves the indicator definitions for a governance area.
type DefinitionSource interface {
	ByArea(ctx context.Context, areaID id.AreaID) ([]*inmodels.Definition, error)
}

// ResponseSource serves the final responses of an assessment.
type ResponseSource interface {
	ListByAssessment(ctx context.Context, assessmentID id.AssessmentID) ([]*asmodels.Response, error)
}

// BBISource serves the institution groupings to rate.
type BBISource interface {
	List(ctx context.Context) ([]BBIDefinition, error)
}

// SnapshotStore persists derived rating snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Get(ctx context.Context, assessmentID id.AssessmentID) (Snapshot, error)
}

// Service produces the durable rating snapshot for a completed assessment.
type Service struct {
	engine      *Engine
	definitions DefinitionSource
	responses   ResponseSource
	bbis        BBISource
	snapshots   SnapshotStore
	logger      *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a rating Service.
func New(definitions DefinitionSource, responses ResponseSource, bbis BBISource, snapshots SnapshotStore, opts ...Option) (*Service, error) {
	if definitions == nil {
		return nil, fmt.Errorf("definition source is required")
	}
	if responses == nil {
		return nil, fmt.Errorf("response source is required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	s := &Service{
		engine:      NewEngine(),
		definitions: definitions,
		responses:   responses,
		bbis:        bbis,
		snapshots:   snapshots,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Compute derives the full rating snapshot for an assessment and persists it.
// Idempotent: recomputing over unchanged responses overwrites the snapshot
// with identical content.
func (s *Service) Compute(ctx context.Context, a *asmodels.Assessment) (Snapshot, error) {
	responses, err := s.responses.ListByAssessment(ctx, a.ID)
	if err != nil {
		return Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load responses for rating")
	}

	outcomes := make(map[id.IndicatorID]asmodels.Outcome, len(responses))
	for _, r := range responses {
		outcomes[r.IndicatorID] = r.Outcome
	}

	areaIDs := make([]id.AreaID, 0, len(a.Areas))
	for areaID := range a.Areas {
		areaIDs = append(areaIDs, areaID)
	}
	sort.Slice(areaIDs, func(i, j int) bool { return areaIDs[i] < areaIDs[j] })

	profiling := make(map[id.IndicatorID]bool)
	areas := make([]AreaCompliance, 0, len(areaIDs))
	for _, areaID := range areaIDs {
		defs, err := s.definitions.ByArea(ctx, areaID)
		if err != nil {
			return Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load indicator definitions")
		}
		for _, def := range defs {
			if def.Profiling {
				profiling[def.ID] = true
			}
		}
		areas = append(areas, s.engine.ClassifyArea(areaID, defs, outcomes))
	}

	snapshot := Snapshot{
		AssessmentID:  a.ID,
		OverallPassed: s.engine.ClassifyOverall(areas),
		Areas:         areas,
	}
	if a.ApprovedAt != nil {
		snapshot.ComputedAt = *a.ApprovedAt
	}

	if s.bbis != nil {
		defs, err := s.bbis.List(ctx)
		if err != nil {
			return Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load BBI definitions")
		}
		for _, def := range defs {
			snapshot.BBIResults = append(snapshot.BBIResults, s.engine.AggregateBBI(def, outcomes, profiling))
		}
	}

	if err := s.snapshots.Save(ctx, snapshot); err != nil {
		return Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save rating snapshot")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "rating snapshot computed",
			"assessment_id", a.ID.String(),
			"overall_passed", snapshot.OverallPassed,
			"bbi_count", len(snapshot.BBIResults),
		)
	}
	return snapshot, nil
}

// Get returns the stored snapshot for an assessment.
func (s *Service) Get(ctx context.Context, assessmentID id.AssessmentID) (Snapshot, error) {
	snapshot, err := s.snapshots.Get(ctx, assessmentID)
	if err != nil {
		return Snapshot{}, dErrors.Wrap(err, dErrors.CodeNotFound, "rating snapshot not found")
	}
	return snapshot, nil
}

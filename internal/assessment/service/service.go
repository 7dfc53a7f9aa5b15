// Package service implements the assessment workflow state machine. Every
// operation follows the same discipline: acquire the per-assessment lock,
// load current state, run every guard (transition legality, round limits,
// deadlines, completeness), apply the mutation, persist with a version check,
// then emit audit and metrics. On any guard failure nothing changes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"sglgb/internal/assessment/models"
	"sglgb/internal/audit"
	"sglgb/internal/deadline"
	inmodels "sglgb/internal/indicator/models"
	"sglgb/internal/platform/metrics"
	"sglgb/internal/rating"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
	"sglgb/pkg/platform/sentinel"
	"sglgb/pkg/requestcontext"
)

// AssessmentStore persists the aggregate root.
type AssessmentStore interface {
	Create(ctx context.Context, a *models.Assessment) error
	FindByID(ctx context.Context, assessmentID id.AssessmentID) (*models.Assessment, error)
	// Update persists the aggregate only when the stored version matches
	// a.Version; it increments the version on success and returns
	// sentinel.ErrConflict on a stale write.
	Update(ctx context.Context, a *models.Assessment) error
}

// ResponseStore persists indicator responses.
type ResponseStore interface {
	Save(ctx context.Context, r *models.Response) error
	FindByIndicator(ctx context.Context, assessmentID id.AssessmentID, indicatorID id.IndicatorID) (*models.Response, error)
	ListByAssessment(ctx context.Context, assessmentID id.AssessmentID) ([]*models.Response, error)
}

// EvidenceStore persists evidence file references.
type EvidenceStore interface {
	Add(ctx context.Context, e *models.EvidenceFile) error
	FindByID(ctx context.Context, evidenceID id.EvidenceID) (*models.EvidenceFile, error)
	Update(ctx context.Context, e *models.EvidenceFile) error
	ListByResponse(ctx context.Context, responseID id.ResponseID) ([]*models.EvidenceFile, error)
}

// DefinitionSource serves indicator definitions.
type DefinitionSource interface {
	ByID(ctx context.Context, indicatorID id.IndicatorID) (*inmodels.Definition, error)
	ByArea(ctx context.Context, areaID id.AreaID) ([]*inmodels.Definition, error)
}

// RatingComputer produces the one-time rating snapshot at completion.
type RatingComputer interface {
	Compute(ctx context.Context, a *models.Assessment) (rating.Snapshot, error)
}

// AuditPublisher records committed transitions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ExtensionStore appends deadline extension audit entries.
type ExtensionStore interface {
	Append(ctx context.Context, ext deadline.Extension) error
}

// Locker serializes operations per assessment. Release is returned on
// acquisition so a held lock always spans exactly one operation.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// Service is the workflow state machine over assessment aggregates.
type Service struct {
	assessments AssessmentStore
	responses   ResponseStore
	evidence    EvidenceStore
	definitions DefinitionSource

	deadlines  *deadline.Manager
	window     deadline.Window
	extensions ExtensionStore

	maxRecalibrations int

	ratings        RatingComputer
	locker         Locker
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAuditPublisher sets the audit sink.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLocker replaces the default in-process locker (use the Redis locker
// when running more than one instance).
func WithLocker(locker Locker) Option {
	return func(s *Service) { s.locker = locker }
}

// WithRatingComputer sets the snapshot producer run at completion.
func WithRatingComputer(computer RatingComputer) Option {
	return func(s *Service) { s.ratings = computer }
}

// WithExtensionStore sets the deadline extension audit store.
func WithExtensionStore(store ExtensionStore) Option {
	return func(s *Service) { s.extensions = store }
}

// New constructs the workflow service.
func New(assessments AssessmentStore, responses ResponseStore, evidence EvidenceStore, definitions DefinitionSource, window deadline.Window, maxRecalibrations int, opts ...Option) (*Service, error) {
	if assessments == nil {
		return nil, fmt.Errorf("assessment store is required")
	}
	if responses == nil {
		return nil, fmt.Errorf("response store is required")
	}
	if evidence == nil {
		return nil, fmt.Errorf("evidence store is required")
	}
	if definitions == nil {
		return nil, fmt.Errorf("definition source is required")
	}
	if maxRecalibrations <= 0 {
		return nil, fmt.Errorf("max recalibrations must be positive")
	}
	s := &Service{
		assessments:       assessments,
		responses:         responses,
		evidence:          evidence,
		definitions:       definitions,
		deadlines:         deadline.NewManager(),
		window:            window,
		maxRecalibrations: maxRecalibrations,
		locker:            newInProcessLocker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// lock acquires the per-assessment mutex.
func (s *Service) lock(ctx context.Context, assessmentID id.AssessmentID) (func(), error) {
	release, err := s.locker.Acquire(ctx, "assessment:"+assessmentID.String())
	if err != nil {
		if dErrors.Is(err, sentinel.ErrLocked) {
			return nil, dErrors.New(dErrors.CodeConflict, "assessment is being modified by another operation")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire assessment lock")
	}
	return release, nil
}

// load fetches the aggregate, translating store sentinels.
func (s *Service) load(ctx context.Context, assessmentID id.AssessmentID) (*models.Assessment, error) {
	a, err := s.assessments.FindByID(ctx, assessmentID)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "assessment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load assessment")
	}
	return a, nil
}

// persist writes the aggregate back, translating a stale version into a
// conflict the caller can retry.
func (s *Service) persist(ctx context.Context, a *models.Assessment) error {
	if err := s.assessments.Update(ctx, a); err != nil {
		if dErrors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "assessment was modified concurrently; retry")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist assessment")
	}
	return nil
}

// areaResponses returns the responses belonging to one governance area.
func (s *Service) areaResponses(ctx context.Context, a *models.Assessment, areaID id.AreaID) ([]*models.Response, error) {
	defs, err := s.definitions.ByArea(ctx, areaID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load indicator definitions")
	}
	inArea := make(map[id.IndicatorID]bool, len(defs))
	for _, def := range defs {
		inArea[def.ID] = true
	}
	all, err := s.responses.ListByAssessment(ctx, a.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load responses")
	}
	var out []*models.Response
	for _, r := range all {
		if inArea[r.IndicatorID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// logAudit emits an audit event after a committed transition; failures are
// logged, never propagated (the transition has already committed).
func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if event.ActorID.IsNil() {
		event.ActorID = requestcontext.ActorID(ctx)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event.Action),
			"assessment_id", event.AssessmentID.String(),
			"area_id", event.AreaID.String(),
			"actor_id", event.ActorID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err)
	}
}

func (s *Service) countDenial(err error) {
	if s.metrics != nil && err != nil {
		s.metrics.GuardDenials.WithLabelValues(string(dErrors.GetCode(err))).Inc()
	}
}

// inProcessLocker is the single-instance default: a map of per-key mutex
// acquisition flags.
type inProcessLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newInProcessLocker() *inProcessLocker {
	return &inProcessLocker{held: make(map[string]bool)}
}

func (l *inProcessLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, sentinel.ErrLocked
	}
	l.held[key] = true
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}
	return release, nil
}

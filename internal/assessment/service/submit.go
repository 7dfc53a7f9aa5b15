package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sglgb/internal/assessment/models"
	"sglgb/internal/audit"
	"sglgb/internal/deadline"
	"sglgb/internal/indicator"
	inmodels "sglgb/internal/indicator/models"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
	"sglgb/pkg/platform/sentinel"
	"sglgb/pkg/requestcontext"
)

// IncompleteSubmissionError reports which indicators block an area submission
// and which field specs each one is missing.
type IncompleteSubmissionError struct {
	AreaID     id.AreaID
	Incomplete map[id.IndicatorID][]id.FieldSpecID
}

func (e *IncompleteSubmissionError) Error() string {
	ids := make([]id.IndicatorID, 0, len(e.Incomplete))
	for indicatorID := range e.Incomplete {
		ids = append(ids, indicatorID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return fmt.Sprintf("area %d has %d incomplete indicators: %v", e.AreaID, len(ids), ids)
}

// CreateAssessment opens a draft covering the given governance areas and
// starts the submission clock.
func (s *Service) CreateAssessment(ctx context.Context, submitterID id.UserID, areaIDs []id.AreaID) (*models.Assessment, error) {
	now := requestcontext.Now(ctx)
	a, err := models.NewAssessment(id.NewAssessmentID(), submitterID, areaIDs, now)
	if err != nil {
		return nil, err
	}

	submissionDeadline, err := s.deadlines.Compute(s.window, deadline.PhaseSubmission, now)
	if err != nil {
		return nil, err
	}
	a.Deadlines.Set(deadline.PhaseSubmission, submissionDeadline)

	if err := s.assessments.Create(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create assessment")
	}

	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		AssessmentID: a.ID,
		ActorID:      submitterID,
		Action:       audit.ActionAssessmentCreated,
	})
	return a, nil
}

// SaveResponse records the submitter's scalar values for one indicator and
// recomputes completeness. The response row is created on first write.
func (s *Service) SaveResponse(ctx context.Context, assessmentID id.AssessmentID, indicatorID id.IndicatorID, values map[id.FieldSpecID]string) (*models.Response, error) {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	def, rec, err := s.indicatorArea(ctx, a, indicatorID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := s.guardEditable(a, rec, now); err != nil {
		s.countDenial(err)
		return nil, err
	}

	r, err := s.findOrOpenResponse(ctx, a, indicatorID, now)
	if err != nil {
		return nil, err
	}

	r.Values = make(map[id.FieldSpecID]string, len(values))
	for fieldID, value := range values {
		r.Values[fieldID] = value
	}
	if rec.Status == models.AreaRework {
		r.Reworked = true
	}
	r.UpdatedAt = now

	if err := s.recomputeCompleteness(ctx, def, r); err != nil {
		return nil, err
	}
	if err := s.responses.Save(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save response")
	}
	return r, nil
}

// AttachEvidence registers an uploaded means of verification against an
// evidence field and recomputes completeness.
func (s *Service) AttachEvidence(ctx context.Context, assessmentID id.AssessmentID, indicatorID id.IndicatorID, fieldSpecID id.FieldSpecID, reference string) (*models.EvidenceFile, error) {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	def, rec, err := s.indicatorArea(ctx, a, indicatorID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := s.guardEditable(a, rec, now); err != nil {
		s.countDenial(err)
		return nil, err
	}
	if reference == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "evidence reference is required")
	}
	if !isEvidenceField(def, fieldSpecID) {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"field %d of indicator %d does not accept evidence", fieldSpecID, indicatorID)
	}

	r, err := s.findOrOpenResponse(ctx, a, indicatorID, now)
	if err != nil {
		return nil, err
	}

	e := &models.EvidenceFile{
		ID:          id.NewEvidenceID(),
		ResponseID:  r.ID,
		FieldSpecID: fieldSpecID,
		Reference:   reference,
		UploadedAt:  now,
	}
	if err := s.evidence.Add(ctx, e); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store evidence")
	}

	if rec.Status == models.AreaRework {
		r.Reworked = true
	}
	r.UpdatedAt = now
	if err := s.recomputeCompleteness(ctx, def, r); err != nil {
		return nil, err
	}
	if err := s.responses.Save(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save response")
	}
	return e, nil
}

// RemoveEvidence soft-deletes an evidence reference and recomputes
// completeness; the row is kept for the audit trail.
func (s *Service) RemoveEvidence(ctx context.Context, assessmentID id.AssessmentID, evidenceID id.EvidenceID) error {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return err
	}
	e, err := s.evidence.FindByID(ctx, evidenceID)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "evidence not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence")
	}
	r, err := s.responseByID(ctx, a, e.ResponseID)
	if err != nil {
		return err
	}
	def, rec, err := s.indicatorArea(ctx, a, r.IndicatorID)
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	if err := s.guardEditable(a, rec, now); err != nil {
		s.countDenial(err)
		return err
	}

	e.SoftDelete(now)
	if err := s.evidence.Update(ctx, e); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove evidence")
	}

	r.UpdatedAt = now
	if err := s.recomputeCompleteness(ctx, def, r); err != nil {
		return err
	}
	if err := s.responses.Save(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save response")
	}
	return nil
}

// SubmitArea submits a draft area for assessor review. Every non-excluded
// indicator in the area must be complete; otherwise the operation fails with
// an IncompleteSubmissionError listing the gaps and nothing changes.
func (s *Service) SubmitArea(ctx context.Context, assessmentID id.AssessmentID, areaID id.AreaID) error {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx)

	if err := a.CanSubmitArea(areaID); err != nil {
		s.countDenial(err)
		return err
	}
	if err := s.guardPhaseOpen(a, deadline.PhaseSubmission, now); err != nil {
		s.countDenial(err)
		return err
	}
	if err := s.checkAreaComplete(ctx, a, areaID); err != nil {
		s.countDenial(err)
		return err
	}

	a.ApplySubmitArea(areaID, now)
	if err := s.persist(ctx, a); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.AreasSubmitted.Inc()
	}
	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		AssessmentID: a.ID,
		AreaID:       areaID,
		Action:       audit.ActionAreaSubmitted,
	})
	return nil
}

// ResubmitArea returns a reworked area to the review queue. Completeness is
// re-verified and the correction deadline must still be open.
func (s *Service) ResubmitArea(ctx context.Context, assessmentID id.AssessmentID, areaID id.AreaID) error {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx)

	if err := a.CanResubmitArea(areaID); err != nil {
		s.countDenial(err)
		return err
	}
	if err := s.guardPhaseOpen(a, s.correctionPhase(a, areaID), now); err != nil {
		s.countDenial(err)
		return err
	}
	if err := s.checkAreaComplete(ctx, a, areaID); err != nil {
		s.countDenial(err)
		return err
	}

	responses, err := s.areaResponses(ctx, a, areaID)
	if err != nil {
		return err
	}
	for _, r := range responses {
		if !r.Reworked {
			continue
		}
		r.Resubmitted = true
		r.UpdatedAt = now
		if err := s.responses.Save(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark response resubmitted")
		}
	}

	a.ApplyResubmitArea(areaID, now)
	if err := s.persist(ctx, a); err != nil {
		return err
	}

	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		AssessmentID: a.ID,
		AreaID:       areaID,
		Action:       audit.ActionAreaResubmitted,
	})
	return nil
}

// indicatorArea resolves an indicator's definition and the area record it
// belongs to on this assessment.
func (s *Service) indicatorArea(ctx context.Context, a *models.Assessment, indicatorID id.IndicatorID) (*inmodels.Definition, *models.AreaRecord, error) {
	def, err := s.definitions.ByID(ctx, indicatorID)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.Newf(dErrors.CodeNotFound, "indicator %d not found", indicatorID)
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load indicator definition")
	}
	rec, err := a.Area(def.AreaID)
	if err != nil {
		return nil, nil, err
	}
	return def, rec, nil
}

// guardEditable rejects submitter writes unless the area is open for editing
// (draft or rework) and the governing deadline has not locked.
func (s *Service) guardEditable(a *models.Assessment, rec *models.AreaRecord, now time.Time) error {
	if a.GlobalStatus.Terminal() {
		return dErrors.New(dErrors.CodeInvalidTransition, "assessment is completed; no further operations are allowed")
	}
	var phase deadline.Phase
	switch rec.Status {
	case models.AreaDraft:
		phase = deadline.PhaseSubmission
	case models.AreaRework:
		phase = s.correctionPhase(a, rec.AreaID)
	default:
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"area %d is not editable in status %q", rec.AreaID, rec.Status)
	}
	return s.guardPhaseOpen(a, phase, now)
}

// correctionPhase resolves which deadline governs a reopened area: the
// calibration clock when the validator or admin tier sent it back, the rework
// clock otherwise.
func (s *Service) correctionPhase(a *models.Assessment, areaID id.AreaID) deadline.Phase {
	if a.CalibratedAreas[areaID] || a.RecalibrationCount > 0 {
		return deadline.PhaseCalibration
	}
	return deadline.PhaseRework
}

// guardPhaseOpen rejects the operation when the phase deadline plus grace has
// passed.
func (s *Service) guardPhaseOpen(a *models.Assessment, phase deadline.Phase, now time.Time) error {
	if s.deadlines.IsLocked(&a.Deadlines, s.window, phase, now) {
		return dErrors.Newf(dErrors.CodeDeadlineLocked,
			"the %s deadline has passed; request an extension to continue", phase)
	}
	return nil
}

// findOrOpenResponse returns the existing response for an indicator or opens
// a fresh one.
func (s *Service) findOrOpenResponse(ctx context.Context, a *models.Assessment, indicatorID id.IndicatorID, now time.Time) (*models.Response, error) {
	r, err := s.responses.FindByIndicator(ctx, a.ID, indicatorID)
	if err == nil {
		return r, nil
	}
	if !dErrors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load response")
	}
	return models.NewResponse(id.NewResponseID(), a.ID, indicatorID, now)
}

// responseByID resolves a response within one assessment by its id.
func (s *Service) responseByID(ctx context.Context, a *models.Assessment, responseID id.ResponseID) (*models.Response, error) {
	all, err := s.responses.ListByAssessment(ctx, a.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load responses")
	}
	for _, r := range all {
		if r.ID == responseID {
			return r, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "response not found")
}

// collectValues assembles the engine's view of one response: scalar values
// plus live evidence counts per field spec.
func (s *Service) collectValues(ctx context.Context, r *models.Response) (indicator.Values, error) {
	counts := make(map[id.FieldSpecID]int)
	files, err := s.evidence.ListByResponse(ctx, r.ID)
	if err != nil {
		return indicator.Values{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence")
	}
	for _, e := range files {
		if e.Live() {
			counts[e.FieldSpecID]++
		}
	}
	return indicator.Values{Scalars: r.Values, Evidence: counts}, nil
}

// recomputeCompleteness re-derives the completeness flag after any write.
func (s *Service) recomputeCompleteness(ctx context.Context, def *inmodels.Definition, r *models.Response) error {
	vals, err := s.collectValues(ctx, r)
	if err != nil {
		return err
	}
	result, err := indicator.Evaluate(def, vals)
	if err != nil {
		return err
	}
	r.Complete = result.Complete
	return nil
}

// checkAreaComplete verifies every non-excluded indicator in the area against
// the completeness engine, over current stored state.
func (s *Service) checkAreaComplete(ctx context.Context, a *models.Assessment, areaID id.AreaID) error {
	defs, err := s.definitions.ByArea(ctx, areaID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load indicator definitions")
	}
	incomplete := make(map[id.IndicatorID][]id.FieldSpecID)
	for _, def := range defs {
		if def.Excluded {
			continue
		}
		vals := indicator.Values{}
		r, err := s.responses.FindByIndicator(ctx, a.ID, def.ID)
		switch {
		case err == nil:
			if vals, err = s.collectValues(ctx, r); err != nil {
				return err
			}
		case dErrors.Is(err, sentinel.ErrNotFound):
			// No response yet; evaluate against empty values.
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load response")
		}
		result, err := indicator.Evaluate(def, vals)
		if err != nil {
			return err
		}
		if !result.Complete {
			incomplete[def.ID] = result.Unmet
		}
	}
	if len(incomplete) > 0 {
		return dErrors.Wrap(
			&IncompleteSubmissionError{AreaID: areaID, Incomplete: incomplete},
			dErrors.CodeIncompleteSubmission,
			"area has incomplete indicators",
		)
	}
	return nil
}

func isEvidenceField(def *inmodels.Definition, fieldSpecID id.FieldSpecID) bool {
	for _, f := range def.Fields {
		if f.ID == fieldSpecID {
			return f.ItemType == inmodels.ItemEvidence
		}
	}
	return false
}

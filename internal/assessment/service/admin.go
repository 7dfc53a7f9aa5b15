package service

import (
	"context"
	"sort"
	"time"

	"sglgb/internal/assessment/models"
	"sglgb/internal/assessment/rounds"
	"sglgb/internal/audit"
	"sglgb/internal/deadline"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
	"sglgb/pkg/requestcontext"
)

// RequestCalibration reopens one approved area from the validator tier. Each
// area can be calibrated at most once per cycle.
func (s *Service) RequestCalibration(ctx context.Context, assessmentID id.AssessmentID, areaID id.AreaID, comments string) error {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return err
	}
	if comments == "" {
		return dErrors.New(dErrors.CodeValidation, "calibration comments are required")
	}
	if err := a.CanRequestCalibration(areaID); err != nil {
		s.countDenial(err)
		return err
	}
	if err := rounds.AllowCalibration(a, areaID); err != nil {
		s.countDenial(err)
		return err
	}

	now := requestcontext.Now(ctx)
	calibrationDeadline, err := s.deadlines.Compute(s.window, deadline.PhaseCalibration, now)
	if err != nil {
		return err
	}

	a.ApplyRequestCalibration(areaID, comments, calibrationDeadline, now)
	if err := s.persist(ctx, a); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.CalibrationsRequested.Inc()
	}
	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		AssessmentID: a.ID,
		AreaID:       areaID,
		Action:       audit.ActionCalibrationRequested,
		Reason:       comments,
	})
	return nil
}

// AdvanceToAdminApproval hands a fully validated assessment to the final
// approver.
func (s *Service) AdvanceToAdminApproval(ctx context.Context, assessmentID id.AssessmentID) error {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return err
	}
	if err := a.CanAdvanceToAdminApproval(); err != nil {
		s.countDenial(err)
		return err
	}

	a.ApplyAdvanceToAdminApproval(requestcontext.Now(ctx))
	if err := s.persist(ctx, a); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "assessment advanced to admin approval",
			"assessment_id", a.ID.String())
	}
	return nil
}

// RequestRecalibration reopens indicators from the admin tier. Targets must
// belong to the approved snapshot and the configured cap bounds the number of
// rounds.
func (s *Service) RequestRecalibration(ctx context.Context, assessmentID id.AssessmentID, targets []id.IndicatorID, comments string) error {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return err
	}
	if comments == "" {
		return dErrors.New(dErrors.CodeValidation, "recalibration comments are required")
	}
	if err := a.CanRequestRecalibration(); err != nil {
		s.countDenial(err)
		return err
	}
	if err := rounds.AllowRecalibration(a, s.maxRecalibrations, targets); err != nil {
		s.countDenial(err)
		return err
	}

	areaIDs, err := s.targetAreas(ctx, targets)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	calibrationDeadline, err := s.deadlines.Compute(s.window, deadline.PhaseCalibration, now)
	if err != nil {
		return err
	}

	a.ApplyRequestRecalibration(areaIDs, comments, calibrationDeadline, now)
	if err := s.persist(ctx, a); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecalibrationsRequested.Inc()
	}
	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		AssessmentID: a.ID,
		Action:       audit.ActionRecalibrationRequested,
		Reason:       comments,
		IndicatorIDs: targets,
	})
	return nil
}

// ApproveAssessment records the terminal sign-off and triggers the one-time
// rating computation. The transition commits first; a rating failure is
// logged and retried out of band, never rolled back into the workflow.
func (s *Service) ApproveAssessment(ctx context.Context, assessmentID id.AssessmentID, comments string) error {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return err
	}
	if err := a.CanApproveAssessment(); err != nil {
		s.countDenial(err)
		return err
	}

	now := requestcontext.Now(ctx)
	a.ApplyApproveAssessment(requestcontext.ActorID(ctx), comments, now)
	if err := s.persist(ctx, a); err != nil {
		return err
	}

	if s.ratings != nil {
		if _, err := s.ratings.Compute(ctx, a); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "rating computation failed",
				"assessment_id", a.ID.String(), "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.AssessmentsCompleted.Inc()
	}
	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		AssessmentID: a.ID,
		Action:       audit.ActionAssessmentApproved,
		Reason:       comments,
	})
	return nil
}

// ExtendDeadline moves a phase deadline forward. Extensions are additive
// only; a locked assessment unlocks as soon as the extension lands.
func (s *Service) ExtendDeadline(ctx context.Context, assessmentID id.AssessmentID, phase deadline.Phase, additionalDays int, reason string) (deadline.Extension, error) {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return deadline.Extension{}, err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return deadline.Extension{}, err
	}
	if a.GlobalStatus.Terminal() {
		err := dErrors.New(dErrors.CodeInvalidTransition, "assessment is completed; deadlines are final")
		s.countDenial(err)
		return deadline.Extension{}, err
	}

	now := requestcontext.Now(ctx)
	ext, err := s.deadlines.Extend(&a.Deadlines, a.ID, phase, additionalDays, reason, requestcontext.ActorID(ctx), now)
	if err != nil {
		s.countDenial(err)
		return deadline.Extension{}, err
	}
	if err := s.persist(ctx, a); err != nil {
		return deadline.Extension{}, err
	}
	if s.extensions != nil {
		if err := s.extensions.Append(ctx, ext); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to record deadline extension",
				"assessment_id", a.ID.String(), "error", err)
		}
	}

	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		AssessmentID: a.ID,
		Action:       audit.ActionDeadlineExtended,
		Reason:       reason,
	})
	return ext, nil
}

// GetAssessment returns the aggregate with deadline lock state refreshed for
// the caller's clock. Only the phase governing the current editing state is
// consulted; an assessment with nothing left to edit never reads locked.
func (s *Service) GetAssessment(ctx context.Context, assessmentID id.AssessmentID) (*models.Assessment, error) {
	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	a.Deadlines.Locked = s.editingLocked(a, requestcontext.Now(ctx))
	return a, nil
}

// editingLocked reports whether the deadline of the phase that governs the
// assessment's open editing work has passed, grace included. Past the editing
// tiers (validation onwards) no phase applies.
func (s *Service) editingLocked(a *models.Assessment, now time.Time) bool {
	for areaID, rec := range a.Areas {
		switch rec.Status {
		case models.AreaDraft:
			if s.deadlines.IsLocked(&a.Deadlines, s.window, deadline.PhaseSubmission, now) {
				return true
			}
		case models.AreaRework:
			if s.deadlines.IsLocked(&a.Deadlines, s.window, s.correctionPhase(a, areaID), now) {
				return true
			}
		}
	}
	return false
}

// ListResponses returns every response of an assessment ordered by indicator.
func (s *Service) ListResponses(ctx context.Context, assessmentID id.AssessmentID) ([]*models.Response, error) {
	if _, err := s.load(ctx, assessmentID); err != nil {
		return nil, err
	}
	responses, err := s.responses.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load responses")
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].IndicatorID < responses[j].IndicatorID })
	return responses, nil
}

// targetAreas maps recalibration targets onto the distinct governance areas
// they belong to, in ascending order.
func (s *Service) targetAreas(ctx context.Context, targets []id.IndicatorID) ([]id.AreaID, error) {
	seen := make(map[id.AreaID]bool)
	var out []id.AreaID
	for _, indicatorID := range targets {
		def, err := s.definitions.ByID(ctx, indicatorID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load indicator definition")
		}
		if !seen[def.AreaID] {
			seen[def.AreaID] = true
			out = append(out, def.AreaID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

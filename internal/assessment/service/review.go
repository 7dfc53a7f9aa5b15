package service

import (
	"context"
	"sort"

	"sglgb/internal/assessment/models"
	"sglgb/internal/assessment/rounds"
	"sglgb/internal/audit"
	"sglgb/internal/deadline"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
	"sglgb/pkg/platform/sentinel"
	"sglgb/pkg/requestcontext"
)

// StartReview claims a submitted area for the acting assessor.
func (s *Service) StartReview(ctx context.Context, assessmentID id.AssessmentID, areaID id.AreaID) error {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return err
	}
	if err := a.CanStartReview(areaID); err != nil {
		s.countDenial(err)
		return err
	}

	now := requestcontext.Now(ctx)
	a.ApplyStartReview(areaID, requestcontext.ActorID(ctx), now)
	if err := s.persist(ctx, a); err != nil {
		return err
	}

	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		AssessmentID: a.ID,
		AreaID:       areaID,
		Action:       audit.ActionReviewStarted,
	})
	return nil
}

// RecordOutcome records the assessor's verdict on one indicator. Verdicts are
// only legal while the area sits in the review pipeline.
func (s *Service) RecordOutcome(ctx context.Context, assessmentID id.AssessmentID, indicatorID id.IndicatorID, outcome models.Outcome) error {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return err
	}
	_, rec, err := s.indicatorArea(ctx, a, indicatorID)
	if err != nil {
		return err
	}
	if rec.Status != models.AreaSubmitted && rec.Status != models.AreaInReview {
		err := dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot record an outcome while area %d is %q", rec.AreaID, rec.Status)
		s.countDenial(err)
		return err
	}

	r, err := s.responses.FindByIndicator(ctx, assessmentID, indicatorID)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "indicator %d has no recorded response", indicatorID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load response")
	}
	if err := r.SetOutcome(outcome, requestcontext.Now(ctx)); err != nil {
		return err
	}
	if err := s.responses.Save(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save outcome")
	}
	return nil
}

// RequestRework sends an area back to the submitter for its single correction
// round. Every indicator needs a verdict first and at least one must have
// failed; a second rework is never granted.
func (s *Service) RequestRework(ctx context.Context, assessmentID id.AssessmentID, areaID id.AreaID, comments string) error {
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
		return dErrors.New(dErrors.CodeValidation, "rework comments are required")
	}
	if err := a.CanRequestRework(areaID); err != nil {
		s.countDenial(err)
		return err
	}
	responses, err := s.areaResponses(ctx, a, areaID)
	if err != nil {
		return err
	}
	if err := rounds.AllowRework(a, responses); err != nil {
		s.countDenial(err)
		return err
	}

	now := requestcontext.Now(ctx)
	reworkDeadline, err := s.deadlines.Compute(s.window, deadline.PhaseRework, now)
	if err != nil {
		return err
	}

	a.ApplyRequestRework(areaID, comments, reworkDeadline, now)
	if err := s.persist(ctx, a); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ReworksRequested.Inc()
	}
	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		AssessmentID: a.ID,
		AreaID:       areaID,
		Action:       audit.ActionReworkRequested,
		Reason:       comments,
	})
	return nil
}

// ApproveArea closes the assessor tier for one area. When the last area is
// approved the assessment advances to the validator tier and the approved
// indicator set is snapshotted for later recalibration targeting.
func (s *Service) ApproveArea(ctx context.Context, assessmentID id.AssessmentID, areaID id.AreaID) error {
	release, err := s.lock(ctx, assessmentID)
	if err != nil {
		return err
	}
	defer release()

	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return err
	}
	if err := a.CanApproveArea(areaID); err != nil {
		s.countDenial(err)
		return err
	}
	responses, err := s.areaResponses(ctx, a, areaID)
	if err != nil {
		return err
	}
	if err := rounds.AllowApproveArea(a, responses); err != nil {
		s.countDenial(err)
		return err
	}

	snapshot := make([]id.IndicatorID, 0, len(responses))
	for _, r := range responses {
		snapshot = append(snapshot, r.IndicatorID)
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i] < snapshot[j] })

	now := requestcontext.Now(ctx)
	a.ApplyApproveArea(areaID, snapshot, now)
	if err := s.persist(ctx, a); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.AreasApproved.Inc()
	}
	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		AssessmentID: a.ID,
		AreaID:       areaID,
		Action:       audit.ActionAreaApproved,
	})
	return nil
}

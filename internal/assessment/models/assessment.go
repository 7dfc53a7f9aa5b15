package models

import (
	"time"

	"sglgb/internal/deadline"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
)

// AreaRecord is the per-governance-area status record inside the aggregate.
type AreaRecord struct {
	AreaID            id.AreaID
	Status            AreaStatus
	SubmittedAt       *time.Time
	ApprovedAt        *time.Time
	ReworkRequestedAt *time.Time
	ReworkComments    string
	ResubmittedAt     *time.Time
	ReviewerID        *id.UserID
}

// Assessment is the aggregate root for one barangay self-assessment cycle.
//
// Invariants:
//   - ReworkCount never exceeds 1 for the lifetime of the assessment
//   - GlobalStatus is derivable from the area statuses up to the
//     post-approval tail (validation, admin approval, completion)
//   - Once GlobalStatus is completed, no mutation is legal
//   - An area may be calibrated at most once per cycle
//   - RecalibrationCount never exceeds the configured cap
type Assessment struct {
	ID          id.AssessmentID
	SubmitterID id.UserID

	GlobalStatus GlobalStatus
	Areas        map[id.AreaID]*AreaRecord

	// ReworkCount is 0 or 1: the assessor tier gets exactly one correction
	// round.
	ReworkCount int
	// CalibratedAreas records which areas the validator has already sent
	// back this cycle.
	CalibratedAreas map[id.AreaID]bool
	// RecalibrationCount tracks admin-tier correction rounds against the
	// configured cap. Lifetime of the aggregate; never reset.
	RecalibrationCount int

	// ApprovedSnapshot lists the indicator ids that were part of the state
	// the admin saw; recalibration may only target these.
	ApprovedSnapshot []id.IndicatorID

	Deadlines deadline.Deadlines

	ApprovedBy       *id.UserID
	ApprovedAt       *time.Time
	ApprovalComments string

	// Version supports compare-and-swap persistence so concurrent
	// operations against the same assessment cannot interleave.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAssessment opens a draft assessment covering the given governance areas.
func NewAssessment(assessmentID id.AssessmentID, submitterID id.UserID, areaIDs []id.AreaID, now time.Time) (*Assessment, error) {
	if assessmentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "assessment id is required")
	}
	if submitterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submitter id is required")
	}
	if len(areaIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "assessment needs at least one governance area")
	}
	areas := make(map[id.AreaID]*AreaRecord, len(areaIDs))
	for _, areaID := range areaIDs {
		if _, dup := areas[areaID]; dup {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "duplicate governance area %d", areaID)
		}
		areas[areaID] = &AreaRecord{AreaID: areaID, Status: AreaDraft}
	}
	return &Assessment{
		ID:              assessmentID,
		SubmitterID:     submitterID,
		GlobalStatus:    GlobalDraft,
		Areas:           areas,
		CalibratedAreas: make(map[id.AreaID]bool),
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Area returns the record for a governance area.
func (a *Assessment) Area(areaID id.AreaID) (*AreaRecord, error) {
	rec, ok := a.Areas[areaID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "governance area %d is not part of this assessment", areaID)
	}
	return rec, nil
}

// AllAreasApproved reports whether every governance area has been approved.
func (a *Assessment) AllAreasApproved() bool {
	for _, rec := range a.Areas {
		if rec.Status != AreaApproved {
			return false
		}
	}
	return true
}

// guardNotTerminal rejects any mutation after completion.
func (a *Assessment) guardNotTerminal() error {
	if a.GlobalStatus.Terminal() {
		return dErrors.New(dErrors.CodeInvalidTransition, "assessment is completed; no further operations are allowed")
	}
	return nil
}

// CanSubmitArea checks the transition guard for a first submission.
func (a *Assessment) CanSubmitArea(areaID id.AreaID) error {
	if err := a.guardNotTerminal(); err != nil {
		return err
	}
	rec, err := a.Area(areaID)
	if err != nil {
		return err
	}
	if rec.Status != AreaDraft {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"area %d cannot be submitted from status %q", areaID, rec.Status)
	}
	return nil
}

// ApplySubmitArea records a first submission and refreshes the global status.
func (a *Assessment) ApplySubmitArea(areaID id.AreaID, now time.Time) {
	rec := a.Areas[areaID]
	rec.Status = AreaSubmitted
	rec.SubmittedAt = &now
	a.refreshGlobal(now)
}

// CanStartReview checks that a reviewer may claim the area.
func (a *Assessment) CanStartReview(areaID id.AreaID) error {
	if err := a.guardNotTerminal(); err != nil {
		return err
	}
	rec, err := a.Area(areaID)
	if err != nil {
		return err
	}
	if rec.Status != AreaSubmitted {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"area %d cannot enter review from status %q", areaID, rec.Status)
	}
	return nil
}

// ApplyStartReview claims the area for a reviewer.
func (a *Assessment) ApplyStartReview(areaID id.AreaID, reviewerID id.UserID, now time.Time) {
	rec := a.Areas[areaID]
	rec.Status = AreaInReview
	rec.ReviewerID = &reviewerID
	a.refreshGlobal(now)
}

// CanRequestRework checks the area-side transition guard; the round limiter
// enforces the count and outcome preconditions separately.
func (a *Assessment) CanRequestRework(areaID id.AreaID) error {
	if err := a.guardNotTerminal(); err != nil {
		return err
	}
	rec, err := a.Area(areaID)
	if err != nil {
		return err
	}
	if !rec.Status.CanTransitionTo(AreaRework) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"area %d cannot enter rework from status %q", areaID, rec.Status)
	}
	return nil
}

// ApplyRequestRework sends the area back to the submitter and consumes the
// single rework round.
func (a *Assessment) ApplyRequestRework(areaID id.AreaID, comments string, reworkDeadline time.Time, now time.Time) {
	rec := a.Areas[areaID]
	rec.Status = AreaRework
	rec.ReworkRequestedAt = &now
	rec.ReworkComments = comments
	a.ReworkCount++
	a.Deadlines.Set(deadline.PhaseRework, reworkDeadline)
	a.refreshGlobal(now)
}

// CanResubmitArea checks that the submitter may resubmit after rework.
func (a *Assessment) CanResubmitArea(areaID id.AreaID) error {
	if err := a.guardNotTerminal(); err != nil {
		return err
	}
	rec, err := a.Area(areaID)
	if err != nil {
		return err
	}
	if rec.Status != AreaRework {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"area %d cannot be resubmitted from status %q", areaID, rec.Status)
	}
	return nil
}

// ApplyResubmitArea records the resubmission.
func (a *Assessment) ApplyResubmitArea(areaID id.AreaID, now time.Time) {
	rec := a.Areas[areaID]
	rec.Status = AreaSubmitted
	rec.ResubmittedAt = &now
	a.refreshGlobal(now)
}

// CanApproveArea checks the area-side transition guard; outcome completeness
// is the round limiter's concern.
func (a *Assessment) CanApproveArea(areaID id.AreaID) error {
	if err := a.guardNotTerminal(); err != nil {
		return err
	}
	rec, err := a.Area(areaID)
	if err != nil {
		return err
	}
	if !rec.Status.CanTransitionTo(AreaApproved) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"area %d cannot be approved from status %q", areaID, rec.Status)
	}
	return nil
}

// ApplyApproveArea approves the area and, when it is the last one, moves the
// assessment to the validator tier. Re-approval after calibration keeps the
// snapshot duplicate-free.
func (a *Assessment) ApplyApproveArea(areaID id.AreaID, snapshot []id.IndicatorID, now time.Time) {
	rec := a.Areas[areaID]
	rec.Status = AreaApproved
	rec.ApprovedAt = &now
	seen := make(map[id.IndicatorID]bool, len(a.ApprovedSnapshot))
	for _, indicatorID := range a.ApprovedSnapshot {
		seen[indicatorID] = true
	}
	for _, indicatorID := range snapshot {
		if !seen[indicatorID] {
			seen[indicatorID] = true
			a.ApprovedSnapshot = append(a.ApprovedSnapshot, indicatorID)
		}
	}
	a.refreshGlobal(now)
}

// CanRequestCalibration checks the validator-tier guard shape; the round
// limiter enforces the once-per-area rule.
func (a *Assessment) CanRequestCalibration(areaID id.AreaID) error {
	if err := a.guardNotTerminal(); err != nil {
		return err
	}
	if a.GlobalStatus != GlobalAwaitingFinalValidation {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"calibration requires the validator tier; assessment is %q", a.GlobalStatus)
	}
	if _, err := a.Area(areaID); err != nil {
		return err
	}
	return nil
}

// ApplyRequestCalibration reopens one area from the validator tier.
func (a *Assessment) ApplyRequestCalibration(areaID id.AreaID, comments string, calibrationDeadline time.Time, now time.Time) {
	rec := a.Areas[areaID]
	rec.Status = AreaRework
	rec.ReworkRequestedAt = &now
	rec.ReworkComments = comments
	a.CalibratedAreas[areaID] = true
	a.Deadlines.Set(deadline.PhaseCalibration, calibrationDeadline)
	a.refreshGlobal(now)
}

// CanAdvanceToAdminApproval checks that the validator tier has cleared.
func (a *Assessment) CanAdvanceToAdminApproval() error {
	if err := a.guardNotTerminal(); err != nil {
		return err
	}
	if a.GlobalStatus != GlobalAwaitingFinalValidation {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot advance to admin approval from %q", a.GlobalStatus)
	}
	if !a.AllAreasApproved() {
		return dErrors.New(dErrors.CodeInvalidTransition, "all areas must be approved before admin approval")
	}
	return nil
}

// ApplyAdvanceToAdminApproval hands the assessment to the final approver.
func (a *Assessment) ApplyAdvanceToAdminApproval(now time.Time) {
	a.GlobalStatus = GlobalAwaitingAdminApproval
	a.UpdatedAt = now
}

// CanRequestRecalibration checks the admin-tier guard shape; the round
// limiter enforces the cap and snapshot membership.
func (a *Assessment) CanRequestRecalibration() error {
	if err := a.guardNotTerminal(); err != nil {
		return err
	}
	if a.GlobalStatus != GlobalAwaitingAdminApproval {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"recalibration requires admin approval tier; assessment is %q", a.GlobalStatus)
	}
	return nil
}

// ApplyRequestRecalibration reopens the targeted areas from the admin tier.
func (a *Assessment) ApplyRequestRecalibration(areaIDs []id.AreaID, comments string, calibrationDeadline time.Time, now time.Time) {
	for _, areaID := range areaIDs {
		rec := a.Areas[areaID]
		rec.Status = AreaRework
		rec.ReworkRequestedAt = &now
		rec.ReworkComments = comments
	}
	a.RecalibrationCount++
	a.Deadlines.Set(deadline.PhaseCalibration, calibrationDeadline)
	a.refreshGlobal(now)
}

// CanApproveAssessment checks the final sign-off guard.
func (a *Assessment) CanApproveAssessment() error {
	if err := a.guardNotTerminal(); err != nil {
		return err
	}
	if a.GlobalStatus != GlobalAwaitingAdminApproval {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"final approval is only legal from awaiting_admin_approval; assessment is %q", a.GlobalStatus)
	}
	return nil
}

// ApplyApproveAssessment records the terminal sign-off.
func (a *Assessment) ApplyApproveAssessment(approver id.UserID, comments string, now time.Time) {
	a.GlobalStatus = GlobalCompleted
	a.ApprovedBy = &approver
	a.ApprovedAt = &now
	a.ApprovalComments = comments
	a.UpdatedAt = now
}

// refreshGlobal recomputes the derivable part of the global status. The
// post-approval tail is not touched when the assessment has already advanced
// past the validator tier and no area has been reopened.
func (a *Assessment) refreshGlobal(now time.Time) {
	derived := DeriveGlobal(a.Areas)
	if a.GlobalStatus == GlobalAwaitingAdminApproval && derived == GlobalAwaitingFinalValidation {
		// All areas still approved; stay at the admin tier.
		a.UpdatedAt = now
		return
	}
	a.GlobalStatus = derived
	a.UpdatedAt = now
}

package models

import (
	"time"

	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
)

// Response links one assessment to one indicator definition and carries the
// submitter's recorded values, the derived completeness flag, and the
// reviewer's outcome. Responses are created when the submitter first opens an
// indicator and are superseded, never deleted.
type Response struct {
	ID           id.ResponseID
	AssessmentID id.AssessmentID
	IndicatorID  id.IndicatorID

	// Values holds the scalar entries (value, date, count fields) keyed by
	// field spec. Evidence lives in EvidenceFile rows.
	Values map[id.FieldSpecID]string

	// Complete is the completeness engine's output. It is recomputed on
	// every write and is never set by an actor.
	Complete bool

	// Outcome is set only by reviewers.
	Outcome Outcome

	// Reworked marks a response whose area went through the rework round.
	Reworked bool
	// Resubmitted marks a response that came back after rework, for
	// downstream audit.
	Resubmitted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewResponse opens a response for one indicator.
func NewResponse(responseID id.ResponseID, assessmentID id.AssessmentID, indicatorID id.IndicatorID, now time.Time) (*Response, error) {
	if responseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "response id is required")
	}
	if assessmentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "assessment id is required")
	}
	if indicatorID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "indicator id is required")
	}
	return &Response{
		ID:           responseID,
		AssessmentID: assessmentID,
		IndicatorID:  indicatorID,
		Values:       make(map[id.FieldSpecID]string),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// SetOutcome records a reviewer verdict.
func (r *Response) SetOutcome(outcome Outcome, now time.Time) error {
	if !outcome.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid validation outcome %q", outcome)
	}
	r.Outcome = outcome
	r.UpdatedAt = now
	return nil
}

// EvidenceFile is a reference to one uploaded means of verification, tied to
// the field spec it satisfies. Soft-deletable: removal keeps the row.
type EvidenceFile struct {
	ID          id.EvidenceID
	ResponseID  id.ResponseID
	FieldSpecID id.FieldSpecID
	// Reference is the storage key; the core never touches file content.
	Reference  string
	UploadedAt time.Time
	DeletedAt  *time.Time
}

// Live reports whether the evidence still counts toward completeness.
func (e *EvidenceFile) Live() bool {
	return e.DeletedAt == nil
}

// SoftDelete marks the evidence removed without dropping the row.
func (e *EvidenceFile) SoftDelete(now time.Time) {
	if e.DeletedAt == nil {
		e.DeletedAt = &now
	}
}

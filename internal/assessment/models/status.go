package models

import id "sglgb/pkg/domain"

// GlobalStatus is the assessment's lifecycle state.
type GlobalStatus string

const (
	GlobalDraft                   GlobalStatus = "draft"
	GlobalSubmitted               GlobalStatus = "submitted"
	GlobalInReview                GlobalStatus = "in_review"
	GlobalRework                  GlobalStatus = "rework"
	GlobalAwaitingFinalValidation GlobalStatus = "awaiting_final_validation"
	GlobalAwaitingAdminApproval   GlobalStatus = "awaiting_admin_approval"
	GlobalCompleted               GlobalStatus = "completed"
)

// Terminal reports whether no further workflow operation is legal.
func (s GlobalStatus) Terminal() bool {
	return s == GlobalCompleted
}

// AreaStatus is the per-governance-area state, a smaller parallel machine.
type AreaStatus string

const (
	AreaDraft     AreaStatus = "draft"
	AreaSubmitted AreaStatus = "submitted"
	AreaInReview  AreaStatus = "in_review"
	AreaRework    AreaStatus = "rework"
	AreaApproved  AreaStatus = "approved"
)

// CanTransitionTo enumerates the legal per-area moves.
func (s AreaStatus) CanTransitionTo(next AreaStatus) bool {
	switch s {
	case AreaDraft:
		return next == AreaSubmitted
	case AreaSubmitted:
		// Approval straight from submitted covers reviewers who record
		// outcomes without an explicit claim.
		return next == AreaInReview || next == AreaRework || next == AreaApproved
	case AreaInReview:
		return next == AreaRework || next == AreaApproved
	case AreaRework:
		return next == AreaSubmitted
	case AreaApproved:
		return false
	}
	return false
}

// Outcome is a reviewer's validation verdict for one indicator response.
type Outcome string

const (
	// OutcomeUnset marks a response not yet reviewed.
	OutcomeUnset       Outcome = ""
	OutcomePass        Outcome = "pass"
	OutcomeFail        Outcome = "fail"
	OutcomeConditional Outcome = "conditional"
)

// Valid reports whether the outcome is a reviewable verdict.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePass, OutcomeFail, OutcomeConditional:
		return true
	}
	return false
}

// DeriveGlobal computes the global status implied by the per-area statuses.
// Precedence: any rework beats any review beats any submission. The
// post-approval states (validation, admin approval, completed) are tracked on
// the aggregate since they depend on calibration and sign-off, not on area
// statuses alone. A first area submission yields Submitted, not InReview:
// review starts when a reviewer claims an area, otherwise Submitted would be
// unreachable.
func DeriveGlobal(areas map[id.AreaID]*AreaRecord) GlobalStatus {
	if len(areas) == 0 {
		return GlobalDraft
	}
	allApproved := true
	anyRework := false
	anyInReview := false
	anySubmitted := false
	for _, rec := range areas {
		switch rec.Status {
		case AreaRework:
			anyRework = true
		case AreaInReview:
			anyInReview = true
		case AreaSubmitted:
			anySubmitted = true
		}
		if rec.Status != AreaApproved {
			allApproved = false
		}
	}
	switch {
	case allApproved:
		return GlobalAwaitingFinalValidation
	case anyRework:
		return GlobalRework
	case anyInReview:
		return GlobalInReview
	case anySubmitted:
		return GlobalSubmitted
	}
	return GlobalDraft
}

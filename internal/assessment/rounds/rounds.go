// Package rounds enforces the correction-round invariants: one assessor-tier
// rework, one validator-tier calibration per area, and a capped number of
// admin-tier recalibrations. Every guard is a pure function over the
// aggregate; the workflow service runs them before any mutation.
package rounds

import (
	"sglgb/internal/assessment/models"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
)

// outcomesResolved reports whether every response carries a reviewer verdict.
func outcomesResolved(responses []*models.Response) bool {
	for _, r := range responses {
		if r.Outcome == models.OutcomeUnset {
			return false
		}
	}
	return true
}

// anyFailed reports whether at least one response failed validation.
func anyFailed(responses []*models.Response) bool {
	for _, r := range responses {
		if r.Outcome == models.OutcomeFail {
			return true
		}
	}
	return false
}

// AllowRework permits the assessor-tier correction round: only once per
// assessment, only after every indicator in the area has a verdict, and only
// when at least one verdict is a failure.
func AllowRework(a *models.Assessment, responses []*models.Response) error {
	if a.ReworkCount >= 1 {
		return dErrors.New(dErrors.CodeRoundLimitExceeded,
			"the single rework round has already been consumed")
	}
	if !outcomesResolved(responses) {
		return dErrors.New(dErrors.CodeUnresolvedReview,
			"every indicator needs a validation outcome before rework can be requested")
	}
	if !anyFailed(responses) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"rework requires at least one failed indicator")
	}
	return nil
}

// AllowApproveArea permits area approval: every response must carry a
// verdict, and a failing verdict is only acceptable once the area has been
// through its one rework round. A surviving failure after rework is the
// area's final, non-escalatable result at the assessor tier.
func AllowApproveArea(a *models.Assessment, responses []*models.Response) error {
	if !outcomesResolved(responses) {
		return dErrors.New(dErrors.CodeUnresolvedReview,
			"every indicator needs a validation outcome before approval")
	}
	if anyFailed(responses) && a.ReworkCount == 0 {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"a first-pass submission with failed indicators must go through rework before approval")
	}
	return nil
}

// AllowCalibration permits the validator-tier round: once per governance area
// per cycle.
func AllowCalibration(a *models.Assessment, areaID id.AreaID) error {
	if a.CalibratedAreas[areaID] {
		return dErrors.Newf(dErrors.CodeRoundLimitExceeded,
			"area %d has already been calibrated this cycle", areaID)
	}
	return nil
}

// AllowRecalibration permits the admin-tier round: bounded by the configured
// cap, and only for indicators that were part of the approved snapshot the
// admin reviewed.
func AllowRecalibration(a *models.Assessment, maxRecalibrations int, targets []id.IndicatorID) error {
	if a.RecalibrationCount >= maxRecalibrations {
		return dErrors.Newf(dErrors.CodeRoundLimitExceeded,
			"recalibration cap of %d has been reached", maxRecalibrations)
	}
	if len(targets) == 0 {
		return dErrors.New(dErrors.CodeValidation, "recalibration requires at least one target indicator")
	}
	snapshot := make(map[id.IndicatorID]bool, len(a.ApprovedSnapshot))
	for _, indicatorID := range a.ApprovedSnapshot {
		snapshot[indicatorID] = true
	}
	for _, target := range targets {
		if !snapshot[target] {
			return dErrors.Newf(dErrors.CodeInvalidInput,
				"indicator %d is not part of the approved snapshot", target)
		}
	}
	return nil
}

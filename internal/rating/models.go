// Package rating derives compliance classifications and BBI functionality
// ratings from final indicator outcomes. Results are recomputable snapshots:
// re-running against the same inputs always produces the same outputs.
package rating

import (
	"time"

	id "sglgb/pkg/domain"
)

// Tier is the four-level institution functionality rating.
type Tier string

const (
	TierHighlyFunctional     Tier = "highly_functional"
	TierModeratelyFunctional Tier = "moderately_functional"
	TierLowFunctional        Tier = "low_functional"
	TierNonFunctional        Tier = "non_functional"
)

// TierFor maps a compliance percentage to its tier by fixed thresholds.
func TierFor(percentage float64) Tier {
	switch {
	case percentage >= 75:
		return TierHighlyFunctional
	case percentage >= 50:
		return TierModeratelyFunctional
	case percentage > 0:
		return TierLowFunctional
	}
	return TierNonFunctional
}

// AreaCompliance is the per-governance-area classification.
type AreaCompliance struct {
	AreaID id.AreaID
	Passed bool
	// FailedIndicators lists the indicators that blocked the area, for
	// review feedback.
	FailedIndicators []id.IndicatorID
}

// BBIDefinition groups the sub-indicators belonging to one barangay-based
// institution.
type BBIDefinition struct {
	ID              id.BBIID
	Name            string
	InstitutionCode string
	SubIndicators   []id.IndicatorID
}

// BBIResult is the derived functionality rating for one institution.
type BBIResult struct {
	BBIID       id.BBIID
	Percentage  float64
	PassedCount int
	TotalCount  int
	Tier        Tier
}

// Snapshot is the durable rating produced once when an assessment completes.
// It is regenerable at will and never hand-edited.
type Snapshot struct {
	AssessmentID  id.AssessmentID
	OverallPassed bool
	Areas         []AreaCompliance
	BBIResults    []BBIResult
	ComputedAt    time.Time
}

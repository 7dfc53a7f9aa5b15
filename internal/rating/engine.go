package rating

import (
	"sort"

	asmodels "sglgb/internal/assessment/models"
	inmodels "sglgb/internal/indicator/models"
	id "sglgb/pkg/domain"
)

// Engine rolls indicator-level outcomes up into area, overall, and
// institution-level ratings. Evaluation is pure; the service layer persists
// the resulting snapshot.
type Engine struct{}

// NewEngine constructs an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// countsTowardCompliance reports whether the indicator participates in the
// area pass policy. Profiling and explicitly excluded indicators do not.
func countsTowardCompliance(def *inmodels.Definition) bool {
	return !def.Profiling && !def.Excluded
}

// passing reports whether an outcome satisfies the area pass policy.
// Conditional passes count.
func passing(outcome asmodels.Outcome) bool {
	return outcome == asmodels.OutcomePass || outcome == asmodels.OutcomeConditional
}

// ClassifyArea computes the pass/fail classification for one governance area.
// defs must be the area's indicator definitions; outcomes maps indicator id
// to the reviewer's final verdict.
func (e *Engine) ClassifyArea(areaID id.AreaID, defs []*inmodels.Definition, outcomes map[id.IndicatorID]asmodels.Outcome) AreaCompliance {
	result := AreaCompliance{AreaID: areaID, Passed: true}
	for _, def := range defs {
		if !countsTowardCompliance(def) {
			continue
		}
		if !passing(outcomes[def.ID]) {
			result.Passed = false
			result.FailedIndicators = append(result.FailedIndicators, def.ID)
		}
	}
	sort.Slice(result.FailedIndicators, func(i, j int) bool {
		return result.FailedIndicators[i] < result.FailedIndicators[j]
	})
	return result
}

// ClassifyOverall reports whether every governance area passed.
func (e *Engine) ClassifyOverall(areas []AreaCompliance) bool {
	for _, area := range areas {
		if !area.Passed {
			return false
		}
	}
	return len(areas) > 0
}

// AggregateBBI computes the compliance percentage and functionality tier for
// one institution grouping. Profiling-only sub-indicators are excluded from
// the total; a grouping with no countable sub-indicators rates 0%.
func (e *Engine) AggregateBBI(def BBIDefinition, outcomes map[id.IndicatorID]asmodels.Outcome, profiling map[id.IndicatorID]bool) BBIResult {
	result := BBIResult{BBIID: def.ID}
	for _, subID := range def.SubIndicators {
		if profiling[subID] {
			continue
		}
		result.TotalCount++
		if outcomes[subID] == asmodels.OutcomePass {
			result.PassedCount++
		}
	}
	if result.TotalCount > 0 {
		result.Percentage = 100 * float64(result.PassedCount) / float64(result.TotalCount)
	}
	result.Tier = TierFor(result.Percentage)
	return result
}

// Package indicator holds the indicator hierarchy and the completeness rule
// engine. Completeness is a pure function of (definition, recorded values);
// no actor can set the flag directly and re-evaluation of unchanged inputs
// always yields the same result.
package indicator

import (
	"strings"

	"sglgb/internal/indicator/models"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
)

// Values is the submitter's recorded state for one indicator response.
// Scalars holds value/date/count entries keyed by field spec; Evidence holds
// the number of live (not soft-deleted) evidence references per field spec.
type Values struct {
	Scalars  map[id.FieldSpecID]string
	Evidence map[id.FieldSpecID]int
}

// Present reports whether the field has a usable value: at least one live
// evidence reference for evidence fields, a non-blank scalar otherwise.
func (v Values) Present(f models.FieldSpec) bool {
	if f.ItemType == models.ItemEvidence {
		return v.Evidence[f.ID] > 0
	}
	return strings.TrimSpace(v.Scalars[f.ID]) != ""
}

// Result is the engine's output: the completeness flag plus the unmet field
// spec ids for diagnostics.
type Result struct {
	Complete bool
	Unmet    []id.FieldSpecID
}

// Evaluate runs the definition's completeness rule against the recorded
// values. Separator and info fields never participate. Unknown rules fail
// loudly instead of defaulting to complete.
func Evaluate(def *models.Definition, vals Values) (Result, error) {
	fields := def.EvaluableFields()
	switch def.Rule {
	case models.RuleAllItemsRequired:
		return evalAllItems(fields, vals), nil
	case models.RuleAnyItemRequired:
		return evalAnyItem(fields, vals), nil
	case models.RuleOrLogicAtLeastOneGroup, models.RuleAnyOptionGroupRequired:
		// Identical evaluation; the second tag exists for definitions whose
		// groups have differing field counts.
		return evalAnyGroup(fields, vals), nil
	case models.RuleSharedPlusOrLogic:
		return evalSharedPlusOr(fields, vals), nil
	}
	return Result{}, dErrors.Newf(dErrors.CodeInvariantViolation,
		"indicator %d has unknown completeness rule %q", def.ID, def.Rule)
}

// evalAllItems: every required field must be present.
func evalAllItems(fields []models.FieldSpec, vals Values) Result {
	var unmet []id.FieldSpecID
	for _, f := range fields {
		if f.Required && !vals.Present(f) {
			unmet = append(unmet, f.ID)
		}
	}
	return Result{Complete: len(unmet) == 0, Unmet: unmet}
}

// evalAnyItem: at least one field, required or not, must be present.
func evalAnyItem(fields []models.FieldSpec, vals Values) Result {
	for _, f := range fields {
		if vals.Present(f) {
			return Result{Complete: true}
		}
	}
	unmet := make([]id.FieldSpecID, 0, len(fields))
	for _, f := range fields {
		unmet = append(unmet, f.ID)
	}
	return Result{Complete: false, Unmet: unmet}
}

// group holds one OR-branch: the fields sharing a group label, in order.
type group struct {
	label  string
	fields []models.FieldSpec
}

// partition splits fields by group label, preserving first-appearance order.
// Fields with no label belong to no group and are dropped.
func partition(fields []models.FieldSpec) []group {
	var groups []group
	index := make(map[string]int)
	for _, f := range fields {
		if f.Group == "" {
			continue
		}
		i, ok := index[f.Group]
		if !ok {
			i = len(groups)
			index[f.Group] = i
			groups = append(groups, group{label: f.Group})
		}
		groups[i].fields = append(groups[i].fields, f)
	}
	return groups
}

// missing returns the group's absent field ids.
func (g group) missing(vals Values) []id.FieldSpecID {
	var out []id.FieldSpecID
	for _, f := range g.fields {
		if !vals.Present(f) {
			out = append(out, f.ID)
		}
	}
	return out
}

// evalAnyGroup: complete iff at least one entire group is satisfied. When
// incomplete, the diagnostics report the closest-to-complete group so the
// submitter sees the shortest path to completeness.
func evalAnyGroup(fields []models.FieldSpec, vals Values) Result {
	groups := partition(fields)
	if len(groups) == 0 {
		// Ungrouped fields cannot stand in for a group, so a group rule over
		// an indicator with no grouped fields can never be satisfied; surface
		// every evaluable field as unmet.
		unmet := make([]id.FieldSpecID, 0, len(fields))
		for _, f := range fields {
			unmet = append(unmet, f.ID)
		}
		return Result{Complete: false, Unmet: unmet}
	}
	var best []id.FieldSpecID
	for _, g := range groups {
		miss := g.missing(vals)
		if len(miss) == 0 {
			return Result{Complete: true}
		}
		if best == nil || len(miss) < len(best) {
			best = miss
		}
	}
	return Result{Complete: false, Unmet: best}
}

// evalSharedPlusOr: every "shared" field must be present AND at least one of
// the remaining named groups must be fully satisfied.
func evalSharedPlusOr(fields []models.FieldSpec, vals Values) Result {
	var shared, rest []models.FieldSpec
	for _, f := range fields {
		if f.Group == models.SharedGroup {
			shared = append(shared, f)
		} else {
			rest = append(rest, f)
		}
	}

	var unmet []id.FieldSpecID
	for _, f := range shared {
		if !vals.Present(f) {
			unmet = append(unmet, f.ID)
		}
	}

	// Only enforce the OR side when named non-shared groups exist; a
	// definition with shared fields alone reduces to AllItemsRequired over
	// the shared set.
	if groups := partition(rest); len(groups) > 0 {
		var best []id.FieldSpecID
		satisfied := false
		for _, g := range groups {
			miss := g.missing(vals)
			if len(miss) == 0 {
				satisfied = true
				break
			}
			if best == nil || len(miss) < len(best) {
				best = miss
			}
		}
		if !satisfied {
			unmet = append(unmet, best...)
		}
	}
	return Result{Complete: len(unmet) == 0, Unmet: unmet}
}

package models

import (
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
)

// ItemType tags what kind of value a field spec records.
type ItemType string

const (
	ItemEvidence  ItemType = "evidence"
	ItemValue     ItemType = "value"
	ItemDate      ItemType = "date"
	ItemCount     ItemType = "count"
	ItemSeparator ItemType = "separator"
	ItemInfo      ItemType = "info"
)

// Evaluable reports whether the item participates in completeness evaluation.
// Separators and info labels are layout only.
func (t ItemType) Evaluable() bool {
	switch t {
	case ItemEvidence, ItemValue, ItemDate, ItemCount:
		return true
	}
	return false
}

// Rule is the closed set of completeness rules. Dispatch is exhaustive; an
// unknown rule is an evaluation error, never a silent pass.
type Rule string

const (
	RuleAllItemsRequired       Rule = "all_items_required"
	RuleAnyItemRequired        Rule = "any_item_required"
	RuleOrLogicAtLeastOneGroup Rule = "or_logic_at_least_one_group"
	RuleSharedPlusOrLogic      Rule = "shared_plus_or_logic"
	RuleAnyOptionGroupRequired Rule = "any_option_group_required"
)

// Valid reports whether the rule is a member of the closed set.
func (r Rule) Valid() bool {
	switch r {
	case RuleAllItemsRequired, RuleAnyItemRequired, RuleOrLogicAtLeastOneGroup,
		RuleSharedPlusOrLogic, RuleAnyOptionGroupRequired:
		return true
	}
	return false
}

// SharedGroup is the reserved group label whose fields must all be satisfied
// under RuleSharedPlusOrLogic.
const SharedGroup = "shared"

// FieldSpec is one entry in an indicator's ordered field list.
type FieldSpec struct {
	ID       id.FieldSpecID
	Label    string
	ItemType ItemType
	Required bool
	// Group partitions fields for OR-style rules. Empty means the field
	// belongs to no group and cannot satisfy a group rule on its own.
	Group string
}

// MaxDepth is the deepest indicator nesting the hierarchy supports.
const MaxDepth = 4

// Definition describes one indicator node: where it sits in the hierarchy,
// which governance area it belongs to, how its completeness is judged, and
// the fields the submitter must record.
type Definition struct {
	ID       id.IndicatorID
	Code     string
	ParentID *id.IndicatorID
	AreaID   id.AreaID
	Rule     Rule
	Fields   []FieldSpec
	// Profiling indicators collect context only; they are excluded from
	// compliance classification and BBI totals.
	Profiling bool
	// Excluded indicators are skipped by the area pass policy for this cycle.
	Excluded bool
}

// NewDefinition validates the invariants a definition must hold before it can
// enter the tree.
func NewDefinition(defID id.IndicatorID, code string, areaID id.AreaID, rule Rule, fields []FieldSpec) (*Definition, error) {
	if defID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "indicator id must be positive")
	}
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "indicator code cannot be empty")
	}
	if !rule.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown completeness rule %q", rule)
	}
	seen := make(map[id.FieldSpecID]bool, len(fields))
	for _, f := range fields {
		if seen[f.ID] {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "duplicate field spec id %d", f.ID)
		}
		seen[f.ID] = true
	}
	return &Definition{ID: defID, Code: code, AreaID: areaID, Rule: rule, Fields: fields}, nil
}

// EvaluableFields returns the fields that participate in completeness
// evaluation, preserving order.
func (d *Definition) EvaluableFields() []FieldSpec {
	out := make([]FieldSpec, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f.ItemType.Evaluable() {
			out = append(out, f)
		}
	}
	return out
}

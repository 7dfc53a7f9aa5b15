package indicator

import (
	"testing"

	"sglgb/internal/indicator/models"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"

	"github.com/stretchr/testify/suite"
)

type EngineSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func evidenceField(fieldID id.FieldSpecID, required bool) models.FieldSpec {
	return models.FieldSpec{ID: fieldID, ItemType: models.ItemEvidence, Required: required}
}

func groupedField(fieldID id.FieldSpecID, group string) models.FieldSpec {
	return models.FieldSpec{ID: fieldID, ItemType: models.ItemEvidence, Group: group}
}

func withEvidence(fieldIDs ...id.FieldSpecID) Values {
	counts := make(map[id.FieldSpecID]int, len(fieldIDs))
	for _, fieldID := range fieldIDs {
		counts[fieldID]++
	}
	return Values{Evidence: counts}
}

func (s *EngineSuite) TestAllItemsRequired() {
	def := &models.Definition{
		ID: 1, Code: "1.1", Rule: models.RuleAllItemsRequired,
		Fields: []models.FieldSpec{
			evidenceField(10, true),
			{ID: 11, ItemType: models.ItemDate, Required: true},
			{ID: 12, ItemType: models.ItemValue, Required: false},
			{ID: 13, ItemType: models.ItemSeparator, Required: true},
		},
	}

	s.Run("complete when every required field present", func() {
		vals := Values{
			Scalars:  map[id.FieldSpecID]string{11: "2024-03-01"},
			Evidence: map[id.FieldSpecID]int{10: 1},
		}
		result, err := Evaluate(def, vals)
		s.Require().NoError(err)
		s.True(result.Complete)
		s.Empty(result.Unmet)
	})

	s.Run("incomplete lists missing required fields only", func() {
		result, err := Evaluate(def, withEvidence(10))
		s.Require().NoError(err)
		s.False(result.Complete)
		s.Equal([]id.FieldSpecID{11}, result.Unmet)
	})

	s.Run("blank scalar does not count as present", func() {
		vals := Values{
			Scalars:  map[id.FieldSpecID]string{11: "   "},
			Evidence: map[id.FieldSpecID]int{10: 1},
		}
		result, err := Evaluate(def, vals)
		s.Require().NoError(err)
		s.False(result.Complete)
	})

	s.Run("separator fields never participate", func() {
		vals := Values{
			Scalars:  map[id.FieldSpecID]string{11: "2024-03-01"},
			Evidence: map[id.FieldSpecID]int{10: 1},
		}
		result, err := Evaluate(def, vals)
		s.Require().NoError(err)
		s.True(result.Complete)
	})
}

func (s *EngineSuite) TestAnyItemRequired() {
	def := &models.Definition{
		ID: 2, Code: "1.2", Rule: models.RuleAnyItemRequired,
		Fields: []models.FieldSpec{
			evidenceField(20, true),
			evidenceField(21, false),
		},
	}

	s.Run("one present field satisfies the rule", func() {
		result, err := Evaluate(def, withEvidence(21))
		s.Require().NoError(err)
		s.True(result.Complete)
	})

	s.Run("nothing present reports every field", func() {
		result, err := Evaluate(def, Values{})
		s.Require().NoError(err)
		s.False(result.Complete)
		s.ElementsMatch([]id.FieldSpecID{20, 21}, result.Unmet)
	})
}

func (s *EngineSuite) TestOrLogicAtLeastOneGroup() {
	// Option A needs two documents, option B needs one.
	def := &models.Definition{
		ID: 3, Code: "2.1", Rule: models.RuleOrLogicAtLeastOneGroup,
		Fields: []models.FieldSpec{
			groupedField(30, "a"),
			groupedField(31, "a"),
			groupedField(32, "b"),
		},
	}

	s.Run("fully satisfied group completes", func() {
		result, err := Evaluate(def, withEvidence(30, 31))
		s.Require().NoError(err)
		s.True(result.Complete)
	})

	s.Run("single-field group alone completes", func() {
		result, err := Evaluate(def, withEvidence(32))
		s.Require().NoError(err)
		s.True(result.Complete)
	})

	s.Run("partial group does not complete", func() {
		result, err := Evaluate(def, withEvidence(30))
		s.Require().NoError(err)
		s.False(result.Complete)
	})

	s.Run("diagnostics report the closest group", func() {
		result, err := Evaluate(def, withEvidence(30))
		s.Require().NoError(err)
		s.Equal([]id.FieldSpecID{31}, result.Unmet)
	})
}

func (s *EngineSuite) TestGroupRulesIgnoreUngroupedFields() {
	// A group rule over a definition with no grouped fields can never be
	// satisfied; filled ungrouped fields must not stand in for a group.
	for _, rule := range []models.Rule{models.RuleOrLogicAtLeastOneGroup, models.RuleAnyOptionGroupRequired} {
		s.Run(string(rule), func() {
			def := &models.Definition{
				ID: 10, Code: "2.9", Rule: rule,
				Fields: []models.FieldSpec{
					evidenceField(100, true),
					{ID: 101, ItemType: models.ItemValue, Required: true},
				},
			}
			vals := Values{
				Scalars:  map[id.FieldSpecID]string{101: "filled in"},
				Evidence: map[id.FieldSpecID]int{100: 1},
			}
			result, err := Evaluate(def, vals)
			s.Require().NoError(err)
			s.False(result.Complete)
			s.ElementsMatch([]id.FieldSpecID{100, 101}, result.Unmet)
		})
	}

	s.Run("ungrouped fields beside real groups stay inert", func() {
		def := &models.Definition{
			ID: 11, Code: "2.10", Rule: models.RuleOrLogicAtLeastOneGroup,
			Fields: []models.FieldSpec{
				evidenceField(110, true),
				groupedField(111, "a"),
			},
		}
		result, err := Evaluate(def, withEvidence(110))
		s.Require().NoError(err)
		s.False(result.Complete)
		s.Equal([]id.FieldSpecID{111}, result.Unmet)
	})
}

func (s *EngineSuite) TestAnyOptionGroupRequired() {
	// Groups of different sizes: three appointment documents or a single
	// continuing certification.
	def := &models.Definition{
		ID: 4, Code: "3.1", Rule: models.RuleAnyOptionGroupRequired,
		Fields: []models.FieldSpec{
			groupedField(40, "appointed"),
			groupedField(41, "appointed"),
			groupedField(42, "appointed"),
			groupedField(43, "continuing"),
		},
	}

	s.Run("large group satisfied", func() {
		result, err := Evaluate(def, withEvidence(40, 41, 42))
		s.Require().NoError(err)
		s.True(result.Complete)
	})

	s.Run("small group satisfied", func() {
		result, err := Evaluate(def, withEvidence(43))
		s.Require().NoError(err)
		s.True(result.Complete)
	})

	s.Run("two of three in the large group is not enough", func() {
		result, err := Evaluate(def, withEvidence(40, 41))
		s.Require().NoError(err)
		s.False(result.Complete)
		s.Equal([]id.FieldSpecID{42}, result.Unmet)
	})
}

func (s *EngineSuite) TestSharedPlusOrLogic() {
	// The evacuation plan is always required; the center is either owned or
	// designated (the latter needs two documents).
	def := &models.Definition{
		ID: 5, Code: "2.2", Rule: models.RuleSharedPlusOrLogic,
		Fields: []models.FieldSpec{
			groupedField(50, models.SharedGroup),
			groupedField(51, "owned"),
			groupedField(52, "designated"),
			groupedField(53, "designated"),
		},
	}

	s.Run("shared plus one full group completes", func() {
		result, err := Evaluate(def, withEvidence(50, 51))
		s.Require().NoError(err)
		s.True(result.Complete)

		result, err = Evaluate(def, withEvidence(50, 52, 53))
		s.Require().NoError(err)
		s.True(result.Complete)
	})

	s.Run("group satisfied without shared field fails", func() {
		result, err := Evaluate(def, withEvidence(51))
		s.Require().NoError(err)
		s.False(result.Complete)
		s.Contains(result.Unmet, id.FieldSpecID(50))
	})

	s.Run("shared present without any full group fails", func() {
		result, err := Evaluate(def, withEvidence(50, 52))
		s.Require().NoError(err)
		s.False(result.Complete)
		s.Equal([]id.FieldSpecID{53}, result.Unmet)
	})

	s.Run("shared fields alone reduce to all items required", func() {
		sharedOnly := &models.Definition{
			ID: 6, Code: "2.3", Rule: models.RuleSharedPlusOrLogic,
			Fields: []models.FieldSpec{groupedField(60, models.SharedGroup)},
		}
		result, err := Evaluate(sharedOnly, withEvidence(60))
		s.Require().NoError(err)
		s.True(result.Complete)
	})
}

func (s *EngineSuite) TestEvaluationIsDeterministic() {
	def := &models.Definition{
		ID: 7, Code: "9.9", Rule: models.RuleOrLogicAtLeastOneGroup,
		Fields: []models.FieldSpec{
			groupedField(70, "a"),
			groupedField(71, "b"),
			groupedField(72, "b"),
		},
	}
	vals := withEvidence(71)

	first, err := Evaluate(def, vals)
	s.Require().NoError(err)
	for range 10 {
		again, err := Evaluate(def, vals)
		s.Require().NoError(err)
		s.Equal(first, again)
	}
}

func (s *EngineSuite) TestUnknownRuleFailsLoudly() {
	def := &models.Definition{
		ID: 8, Code: "x", Rule: models.Rule("made_up"),
		Fields: []models.FieldSpec{evidenceField(80, true)},
	}
	_, err := Evaluate(def, Values{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *EngineSuite) TestSoftDeletedEvidenceDoesNotCount() {
	def := &models.Definition{
		ID: 9, Code: "1.3", Rule: models.RuleAllItemsRequired,
		Fields: []models.FieldSpec{evidenceField(90, true)},
	}
	// A zero live count models an upload that was soft-deleted.
	result, err := Evaluate(def, Values{Evidence: map[id.FieldSpecID]int{90: 0}})
	s.Require().NoError(err)
	s.False(result.Complete)
}

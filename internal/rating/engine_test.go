package rating

import (
	"testing"

	asmodels "sglgb/internal/assessment/models"
	inmodels "sglgb/internal/indicator/models"
	id "sglgb/pkg/domain"

	"github.com/stretchr/testify/suite"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func (s *EngineSuite) SetupTest() {
	s.engine = NewEngine()
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) TestTierFor() {
	cases := []struct {
		percentage float64
		tier       Tier
	}{
		{100, TierHighlyFunctional},
		{75, TierHighlyFunctional},
		{74.99, TierModeratelyFunctional},
		{50, TierModeratelyFunctional},
		{49.99, TierLowFunctional},
		{0.01, TierLowFunctional},
		{0, TierNonFunctional},
	}
	for _, tc := range cases {
		s.Equal(tc.tier, TierFor(tc.percentage), "percentage %v", tc.percentage)
	}
}

func indicatorDef(defID id.IndicatorID, profiling bool) *inmodels.Definition {
	return &inmodels.Definition{
		ID: defID, Code: defID.String(), AreaID: 1,
		Rule: inmodels.RuleAllItemsRequired, Profiling: profiling,
	}
}

func (s *EngineSuite) TestClassifyArea() {
	defs := []*inmodels.Definition{
		indicatorDef(100, false),
		indicatorDef(101, false),
		indicatorDef(102, true),
	}

	s.Run("passes when every counting indicator passed", func() {
		result := s.engine.ClassifyArea(1, defs, map[id.IndicatorID]asmodels.Outcome{
			100: asmodels.OutcomePass,
			101: asmodels.OutcomeConditional,
		})
		s.True(result.Passed)
		s.Empty(result.FailedIndicators)
	})

	s.Run("profiling indicators never block the area", func() {
		result := s.engine.ClassifyArea(1, defs, map[id.IndicatorID]asmodels.Outcome{
			100: asmodels.OutcomePass,
			101: asmodels.OutcomePass,
			102: asmodels.OutcomeFail,
		})
		s.True(result.Passed)
	})

	s.Run("excluded indicators never block the area", func() {
		excluded := indicatorDef(103, false)
		excluded.Excluded = true
		result := s.engine.ClassifyArea(1, append(defs, excluded), map[id.IndicatorID]asmodels.Outcome{
			100: asmodels.OutcomePass,
			101: asmodels.OutcomePass,
		})
		s.True(result.Passed)
	})

	s.Run("failures are listed in order", func() {
		result := s.engine.ClassifyArea(1, defs, map[id.IndicatorID]asmodels.Outcome{
			101: asmodels.OutcomeFail,
		})
		s.False(result.Passed)
		s.Equal([]id.IndicatorID{100, 101}, result.FailedIndicators)
	})
}

func (s *EngineSuite) TestClassifyOverall() {
	s.True(s.engine.ClassifyOverall([]AreaCompliance{
		{AreaID: 1, Passed: true},
		{AreaID: 2, Passed: true},
	}))
	s.False(s.engine.ClassifyOverall([]AreaCompliance{
		{AreaID: 1, Passed: true},
		{AreaID: 2, Passed: false},
	}))
	s.False(s.engine.ClassifyOverall(nil))
}

func (s *EngineSuite) TestAggregateBBI() {
	def := BBIDefinition{
		ID: 1, Name: "BDRRMC", InstitutionCode: "BDRRMC",
		SubIndicators: []id.IndicatorID{200, 201, 202, 203},
	}

	s.Run("three of four passing rates highly functional", func() {
		result := s.engine.AggregateBBI(def, map[id.IndicatorID]asmodels.Outcome{
			200: asmodels.OutcomePass,
			201: asmodels.OutcomePass,
			202: asmodels.OutcomePass,
			203: asmodels.OutcomeFail,
		}, nil)
		s.Equal(3, result.PassedCount)
		s.Equal(4, result.TotalCount)
		s.InDelta(75.0, result.Percentage, 0.001)
		s.Equal(TierHighlyFunctional, result.Tier)
	})

	s.Run("half passing rates moderately functional", func() {
		result := s.engine.AggregateBBI(def, map[id.IndicatorID]asmodels.Outcome{
			200: asmodels.OutcomePass,
			201: asmodels.OutcomePass,
		}, nil)
		s.InDelta(50.0, result.Percentage, 0.001)
		s.Equal(TierModeratelyFunctional, result.Tier)
	})

	s.Run("conditional outcomes do not count as BBI passes", func() {
		result := s.engine.AggregateBBI(def, map[id.IndicatorID]asmodels.Outcome{
			200: asmodels.OutcomeConditional,
			201: asmodels.OutcomeConditional,
			202: asmodels.OutcomeConditional,
			203: asmodels.OutcomeConditional,
		}, nil)
		s.Equal(0, result.PassedCount)
		s.Equal(TierNonFunctional, result.Tier)
	})

	s.Run("profiling sub-indicators shrink the total", func() {
		result := s.engine.AggregateBBI(def, map[id.IndicatorID]asmodels.Outcome{
			200: asmodels.OutcomePass,
		}, map[id.IndicatorID]bool{202: true, 203: true})
		s.Equal(2, result.TotalCount)
		s.InDelta(50.0, result.Percentage, 0.001)
	})

	s.Run("nothing countable rates non-functional", func() {
		empty := BBIDefinition{ID: 2, SubIndicators: []id.IndicatorID{300}}
		result := s.engine.AggregateBBI(empty, nil, map[id.IndicatorID]bool{300: true})
		s.Equal(0, result.TotalCount)
		s.Equal(TierNonFunctional, result.Tier)
	})
}

package rounds

import (
	"testing"
	"time"

	"sglgb/internal/assessment/models"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type RoundsSuite struct {
	suite.Suite
	assessment *models.Assessment
}

func (s *RoundsSuite) SetupTest() {
	a, err := models.NewAssessment(
		id.AssessmentID(uuid.New()), id.UserID(uuid.New()),
		[]id.AreaID{1, 2}, time.Now(),
	)
	s.Require().NoError(err)
	s.assessment = a
}

func TestRoundsSuite(t *testing.T) {
	suite.Run(t, new(RoundsSuite))
}

func response(indicatorID id.IndicatorID, outcome models.Outcome) *models.Response {
	return &models.Response{IndicatorID: indicatorID, Outcome: outcome}
}

func (s *RoundsSuite) TestAllowRework() {
	s.Run("permits the first rework when a verdict failed", func() {
		err := AllowRework(s.assessment, []*models.Response{
			response(100, models.OutcomePass),
			response(101, models.OutcomeFail),
		})
		s.Require().NoError(err)
	})

	s.Run("second rework exceeds the round limit", func() {
		s.assessment.ReworkCount = 1
		err := AllowRework(s.assessment, []*models.Response{
			response(100, models.OutcomeFail),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRoundLimitExceeded))
	})

	s.Run("unresolved verdicts block rework", func() {
		err := AllowRework(s.assessment, []*models.Response{
			response(100, models.OutcomeFail),
			response(101, models.OutcomeUnset),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnresolvedReview))
	})

	s.Run("all passing verdicts leave nothing to rework", func() {
		err := AllowRework(s.assessment, []*models.Response{
			response(100, models.OutcomePass),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *RoundsSuite) TestAllowApproveArea() {
	s.Run("permits approval once every verdict is in", func() {
		err := AllowApproveArea(s.assessment, []*models.Response{
			response(100, models.OutcomePass),
			response(101, models.OutcomeConditional),
		})
		s.Require().NoError(err)
	})

	s.Run("unresolved verdicts block approval", func() {
		err := AllowApproveArea(s.assessment, []*models.Response{
			response(100, models.OutcomeUnset),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnresolvedReview))
	})

	s.Run("first-pass failure must go through rework first", func() {
		err := AllowApproveArea(s.assessment, []*models.Response{
			response(100, models.OutcomeFail),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("a failure surviving rework is approvable as final", func() {
		s.assessment.ReworkCount = 1
		err := AllowApproveArea(s.assessment, []*models.Response{
			response(100, models.OutcomeFail),
		})
		s.Require().NoError(err)
	})
}

func (s *RoundsSuite) TestAllowCalibration() {
	s.Run("first calibration of an area is allowed", func() {
		s.Require().NoError(AllowCalibration(s.assessment, 1))
	})

	s.Run("a second calibration of the same area is not", func() {
		s.assessment.CalibratedAreas[1] = true
		err := AllowCalibration(s.assessment, 1)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRoundLimitExceeded))
	})

	s.Run("other areas remain calibratable", func() {
		s.assessment.CalibratedAreas[1] = true
		s.Require().NoError(AllowCalibration(s.assessment, 2))
	})
}

func (s *RoundsSuite) TestAllowRecalibration() {
	const maxRounds = 3
	s.assessment.ApprovedSnapshot = []id.IndicatorID{100, 101, 200}

	s.Run("targets inside the snapshot are allowed", func() {
		s.Require().NoError(AllowRecalibration(s.assessment, maxRounds, []id.IndicatorID{100, 200}))
	})

	s.Run("empty target list is rejected", func() {
		err := AllowRecalibration(s.assessment, maxRounds, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("targets outside the snapshot are rejected", func() {
		err := AllowRecalibration(s.assessment, maxRounds, []id.IndicatorID{999})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("the cap bounds repeat rounds", func() {
		s.assessment.RecalibrationCount = maxRounds
		err := AllowRecalibration(s.assessment, maxRounds, []id.IndicatorID{100})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRoundLimitExceeded))
	})
}

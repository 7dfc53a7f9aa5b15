package deadline

import (
	"testing"
	"time"

	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type ManagerSuite struct {
	suite.Suite
	manager *Manager
	window  Window
	start   time.Time
}

func (s *ManagerSuite) SetupTest() {
	s.manager = NewManager()
	s.window = Window{
		CycleYear:       2024,
		SubmissionDays:  30,
		ReworkDays:      7,
		CalibrationDays: 5,
		GraceDays:       3,
	}
	s.start = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) TestCompute() {
	s.Run("adds the configured day count per phase", func() {
		submission, err := s.manager.Compute(s.window, PhaseSubmission, s.start)
		s.Require().NoError(err)
		s.Equal(s.start.AddDate(0, 0, 30), submission)

		rework, err := s.manager.Compute(s.window, PhaseRework, s.start)
		s.Require().NoError(err)
		s.Equal(s.start.AddDate(0, 0, 7), rework)
	})

	s.Run("rejects unknown phases", func() {
		_, err := s.manager.Compute(s.window, Phase("vacation"), s.start)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ManagerSuite) TestIsLocked() {
	deadlineAt := s.start.AddDate(0, 0, 7)
	d := &Deadlines{}
	d.Set(PhaseRework, deadlineAt)

	s.Run("open before the deadline", func() {
		s.False(s.manager.IsLocked(d, s.window, PhaseRework, deadlineAt.Add(-time.Hour)))
	})

	s.Run("still open during the grace period", func() {
		s.False(s.manager.IsLocked(d, s.window, PhaseRework, deadlineAt.AddDate(0, 0, 2)))
	})

	s.Run("locked once grace expires", func() {
		s.True(s.manager.IsLocked(d, s.window, PhaseRework, deadlineAt.AddDate(0, 0, 3).Add(time.Minute)))
	})

	s.Run("a phase with no deadline never locks", func() {
		s.False(s.manager.IsLocked(d, s.window, PhaseCalibration, deadlineAt.AddDate(1, 0, 0)))
	})
}

func (s *ManagerSuite) TestExtend() {
	assessmentID := id.AssessmentID(uuid.New())
	actorID := id.UserID(uuid.New())

	s.Run("moves the deadline forward and unlocks", func() {
		original := s.start.AddDate(0, 0, 7)
		d := &Deadlines{Locked: true}
		d.Set(PhaseRework, original)

		ext, err := s.manager.Extend(d, assessmentID, PhaseRework, 5, "regional holiday", actorID, s.start)
		s.Require().NoError(err)

		s.Equal(original.AddDate(0, 0, 5), *d.Get(PhaseRework))
		s.False(d.Locked)
		s.Equal(original, ext.OriginalDeadline)
		s.Equal(original.AddDate(0, 0, 5), ext.NewDeadline)
		s.Equal(5, ext.AdditionalDays)
		s.Equal("regional holiday", ext.Reason)
		s.Equal(actorID, ext.ActorID)
	})

	s.Run("a previously locked phase reopens after extension", func() {
		original := s.start
		d := &Deadlines{}
		d.Set(PhaseSubmission, original)
		lateCheck := original.AddDate(0, 0, s.window.GraceDays).Add(time.Hour)
		s.Require().True(s.manager.IsLocked(d, s.window, PhaseSubmission, lateCheck))

		_, err := s.manager.Extend(d, assessmentID, PhaseSubmission, 10, "typhoon recovery", actorID, lateCheck)
		s.Require().NoError(err)
		s.False(s.manager.IsLocked(d, s.window, PhaseSubmission, lateCheck))
	})

	s.Run("extensions are additive only", func() {
		d := &Deadlines{}
		d.Set(PhaseRework, s.start)
		_, err := s.manager.Extend(d, assessmentID, PhaseRework, 0, "no-op", actorID, s.start)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.manager.Extend(d, assessmentID, PhaseRework, -2, "rollback", actorID, s.start)
		s.Require().Error(err)
	})

	s.Run("requires a reason", func() {
		d := &Deadlines{}
		d.Set(PhaseRework, s.start)
		_, err := s.manager.Extend(d, assessmentID, PhaseRework, 3, "", actorID, s.start)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("cannot extend a deadline that was never set", func() {
		_, err := s.manager.Extend(&Deadlines{}, assessmentID, PhaseCalibration, 3, "why not", actorID, s.start)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

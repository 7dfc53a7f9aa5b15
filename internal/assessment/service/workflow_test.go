package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"sglgb/internal/assessment/models"
	assessmentstore "sglgb/internal/assessment/store"
	"sglgb/internal/audit"
	"sglgb/internal/deadline"
	inmodels "sglgb/internal/indicator/models"
	indicatorstore "sglgb/internal/indicator/store"
	"sglgb/internal/rating"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
	"sglgb/pkg/requestcontext"

	"github.com/stretchr/testify/suite"
)

// Test catalog: two governance areas small enough to drive by hand.
//
//	area 1: indicator 100 (all items: evidence 1001 + value 1002)
//	        indicator 101 (any item: evidence 1011 or 1012)
//	area 2: indicator 200 (or-logic: group a = 2001, group b = 2002)
func testCatalog() []*inmodels.Definition {
	return []*inmodels.Definition{
		{
			ID: 100, Code: "1.1", AreaID: 1, Rule: inmodels.RuleAllItemsRequired,
			Fields: []inmodels.FieldSpec{
				{ID: 1001, ItemType: inmodels.ItemEvidence, Required: true},
				{ID: 1002, ItemType: inmodels.ItemValue, Required: true},
			},
		},
		{
			ID: 101, Code: "1.2", AreaID: 1, Rule: inmodels.RuleAnyItemRequired,
			Fields: []inmodels.FieldSpec{
				{ID: 1011, ItemType: inmodels.ItemEvidence},
				{ID: 1012, ItemType: inmodels.ItemEvidence},
			},
		},
		{
			ID: 200, Code: "2.1", AreaID: 2, Rule: inmodels.RuleOrLogicAtLeastOneGroup,
			Fields: []inmodels.FieldSpec{
				{ID: 2001, ItemType: inmodels.ItemEvidence, Group: "a"},
				{ID: 2002, ItemType: inmodels.ItemEvidence, Group: "b"},
			},
		},
	}
}

type WorkflowSuite struct {
	suite.Suite

	svc        *Service
	responses  *assessmentstore.InMemoryResponses
	auditStore *audit.InMemoryStore
	snapshots  *rating.InMemorySnapshotStore
	extensions *deadline.InMemoryExtensionStore

	submitterID id.UserID
	assessorID  id.UserID
	adminID     id.UserID

	start time.Time
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	s.buildService(2)
}

// buildService wires the workflow over in-memory stores with the given
// recalibration cap.
func (s *WorkflowSuite) buildService(maxRecalibrations int) {
	indicators, err := indicatorstore.NewInMemory(testCatalog())
	s.Require().NoError(err)

	assessments := assessmentstore.NewInMemoryAssessments()
	s.responses = assessmentstore.NewInMemoryResponses()
	evidence := assessmentstore.NewInMemoryEvidence()
	s.auditStore = audit.NewInMemoryStore()
	s.snapshots = rating.NewInMemorySnapshotStore()
	s.extensions = deadline.NewInMemoryExtensionStore()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bbis := rating.NewInMemoryBBIStore([]rating.BBIDefinition{
		{ID: 1, Name: "BDRRMC", InstitutionCode: "BDRRMC", SubIndicators: []id.IndicatorID{100, 101}},
	})
	ratingSvc, err := rating.New(indicators, s.responses, bbis, s.snapshots, rating.WithLogger(logger))
	s.Require().NoError(err)

	window := deadline.Window{
		CycleYear:       2024,
		SubmissionDays:  30,
		ReworkDays:      7,
		CalibrationDays: 5,
		GraceDays:       3,
	}
	s.svc, err = New(assessments, s.responses, evidence, indicators, window, maxRecalibrations,
		WithLogger(logger),
		WithAuditPublisher(audit.NewPublisher(s.auditStore, nil)),
		WithRatingComputer(ratingSvc),
		WithExtensionStore(s.extensions),
	)
	s.Require().NoError(err)

	s.submitterID = id.NewUserID()
	s.assessorID = id.NewUserID()
	s.adminID = id.NewUserID()
	s.start = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
}

// ctxAs builds a request context for an actor at a fixed instant.
func (s *WorkflowSuite) ctxAs(actorID id.UserID, at time.Time) context.Context {
	ctx := requestcontext.WithActorID(context.Background(), actorID)
	return requestcontext.WithTime(ctx, at)
}

// fillArea1 records complete responses for both area 1 indicators.
func (s *WorkflowSuite) fillArea1(ctx context.Context, assessmentID id.AssessmentID) {
	_, err := s.svc.SaveResponse(ctx, assessmentID, 100, map[id.FieldSpecID]string{1002: "50000"})
	s.Require().NoError(err)
	_, err = s.svc.AttachEvidence(ctx, assessmentID, 100, 1001, "s3://bucket/appropriation.pdf")
	s.Require().NoError(err)
	_, err = s.svc.AttachEvidence(ctx, assessmentID, 101, 1011, "s3://bucket/disclosure-board.jpg")
	s.Require().NoError(err)
}

// fillArea2 records a complete response for the single area 2 indicator.
func (s *WorkflowSuite) fillArea2(ctx context.Context, assessmentID id.AssessmentID) {
	_, err := s.svc.AttachEvidence(ctx, assessmentID, 200, 2001, "s3://bucket/bdrrm-plan.pdf")
	s.Require().NoError(err)
}

func (s *WorkflowSuite) TestFullLifecycle() {
	submitCtx := s.ctxAs(s.submitterID, s.start)

	a, err := s.svc.CreateAssessment(submitCtx, s.submitterID, []id.AreaID{1, 2})
	s.Require().NoError(err)
	s.Equal(models.GlobalDraft, a.GlobalStatus)
	s.Require().NotNil(a.Deadlines.Submission)
	s.Equal(s.start.AddDate(0, 0, 30), *a.Deadlines.Submission)

	// Submitting an empty area fails atomically with the full gap list.
	err = s.svc.SubmitArea(submitCtx, a.ID, 1)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeIncompleteSubmission))
	var incomplete *IncompleteSubmissionError
	s.Require().True(errors.As(err, &incomplete))
	s.Contains(incomplete.Incomplete, id.IndicatorID(100))
	s.Contains(incomplete.Incomplete, id.IndicatorID(101))

	loaded, err := s.svc.GetAssessment(submitCtx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.GlobalDraft, loaded.GlobalStatus)

	// Fill and submit both areas.
	s.fillArea1(submitCtx, a.ID)
	s.fillArea2(submitCtx, a.ID)

	r, err := s.responses.FindByIndicator(submitCtx, a.ID, 100)
	s.Require().NoError(err)
	s.True(r.Complete)

	s.Require().NoError(s.svc.SubmitArea(submitCtx, a.ID, 1))
	s.Require().NoError(s.svc.SubmitArea(submitCtx, a.ID, 2))

	loaded, err = s.svc.GetAssessment(submitCtx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.GlobalSubmitted, loaded.GlobalStatus)

	// A submitted area cannot be submitted again or edited.
	err = s.svc.SubmitArea(submitCtx, a.ID, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	_, err = s.svc.SaveResponse(submitCtx, a.ID, 100, map[id.FieldSpecID]string{1002: "1"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	// Assessor reviews area 1, fails one indicator, and sends it back.
	reviewCtx := s.ctxAs(s.assessorID, s.start.AddDate(0, 0, 10))
	s.Require().NoError(s.svc.StartReview(reviewCtx, a.ID, 1))

	loaded, err = s.svc.GetAssessment(reviewCtx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.GlobalInReview, loaded.GlobalStatus)
	s.Equal(&s.assessorID, loaded.Areas[1].ReviewerID)

	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 100, models.OutcomePass))
	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 101, models.OutcomeFail))
	s.Require().NoError(s.svc.RequestRework(reviewCtx, a.ID, 1, "disclosure photo is illegible"))

	loaded, err = s.svc.GetAssessment(reviewCtx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.GlobalRework, loaded.GlobalStatus)
	s.Equal(1, loaded.ReworkCount)
	s.Require().NotNil(loaded.Deadlines.Rework)

	// Submitter corrects and resubmits within the rework window.
	fixCtx := s.ctxAs(s.submitterID, s.start.AddDate(0, 0, 12))
	_, err = s.svc.AttachEvidence(fixCtx, a.ID, 101, 1012, "s3://bucket/disclosure-board-v2.jpg")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.ResubmitArea(fixCtx, a.ID, 1))

	r, err = s.responses.FindByIndicator(fixCtx, a.ID, 101)
	s.Require().NoError(err)
	s.True(r.Reworked)
	s.True(r.Resubmitted)

	// Second-pass review approves both areas; area 2 goes straight from
	// submitted to approved without an explicit claim.
	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 101, models.OutcomePass))
	s.Require().NoError(s.svc.ApproveArea(reviewCtx, a.ID, 1))
	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 200, models.OutcomePass))
	s.Require().NoError(s.svc.ApproveArea(reviewCtx, a.ID, 2))

	loaded, err = s.svc.GetAssessment(reviewCtx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.GlobalAwaitingFinalValidation, loaded.GlobalStatus)
	s.ElementsMatch([]id.IndicatorID{100, 101, 200}, loaded.ApprovedSnapshot)

	// Validator calibrates area 2 once; the submitter corrects and the
	// assessor re-approves.
	validateCtx := s.ctxAs(s.adminID, s.start.AddDate(0, 0, 15))
	s.Require().NoError(s.svc.RequestCalibration(validateCtx, a.ID, 2, "verify against the city DRRM plan"))

	loaded, err = s.svc.GetAssessment(validateCtx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.AreaRework, loaded.Areas[2].Status)
	s.Require().NotNil(loaded.Deadlines.Calibration)

	calFixCtx := s.ctxAs(s.submitterID, s.start.AddDate(0, 0, 16))
	s.Require().NoError(s.svc.ResubmitArea(calFixCtx, a.ID, 2))
	s.Require().NoError(s.svc.ApproveArea(reviewCtx, a.ID, 2))

	// The same area cannot be calibrated twice in one cycle.
	err = s.svc.RequestCalibration(validateCtx, a.ID, 2, "one more look")
	s.True(dErrors.HasCode(err, dErrors.CodeRoundLimitExceeded))

	s.Require().NoError(s.svc.AdvanceToAdminApproval(validateCtx, a.ID))

	// Admin recalibrates one snapshot indicator, then signs off.
	adminCtx := s.ctxAs(s.adminID, s.start.AddDate(0, 0, 18))
	s.Require().NoError(s.svc.RequestRecalibration(adminCtx, a.ID, []id.IndicatorID{200}, "evidence mismatch"))

	recalFixCtx := s.ctxAs(s.submitterID, s.start.AddDate(0, 0, 19))
	s.Require().NoError(s.svc.ResubmitArea(recalFixCtx, a.ID, 2))
	s.Require().NoError(s.svc.ApproveArea(reviewCtx, a.ID, 2))
	s.Require().NoError(s.svc.AdvanceToAdminApproval(validateCtx, a.ID))

	signOffAt := s.start.AddDate(0, 0, 20)
	signOffCtx := s.ctxAs(s.adminID, signOffAt)
	s.Require().NoError(s.svc.ApproveAssessment(signOffCtx, a.ID, "compliant"))

	loaded, err = s.svc.GetAssessment(signOffCtx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.GlobalCompleted, loaded.GlobalStatus)
	s.Equal(&s.adminID, loaded.ApprovedBy)
	s.Equal(1, loaded.RecalibrationCount)

	// Completion is terminal for every operation.
	err = s.svc.SubmitArea(signOffCtx, a.ID, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	err = s.svc.RequestRework(reviewCtx, a.ID, 1, "too late")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	_, err = s.svc.ExtendDeadline(signOffCtx, a.ID, deadline.PhaseSubmission, 5, "too late")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	// Completion produced the one-time rating snapshot.
	snapshot, err := s.snapshots.Get(signOffCtx, a.ID)
	s.Require().NoError(err)
	s.True(snapshot.OverallPassed)
	s.Equal(signOffAt, snapshot.ComputedAt)
	s.Require().Len(snapshot.BBIResults, 1)
	s.Equal(rating.TierHighlyFunctional, snapshot.BBIResults[0].Tier)

	// The audit trail recorded the whole journey in order.
	trail, err := s.auditStore.ListByAssessment(signOffCtx, a.ID)
	s.Require().NoError(err)
	var actions []audit.Action
	for _, event := range trail {
		actions = append(actions, event.Action)
	}
	s.Equal([]audit.Action{
		audit.ActionAssessmentCreated,
		audit.ActionAreaSubmitted,
		audit.ActionAreaSubmitted,
		audit.ActionReviewStarted,
		audit.ActionReworkRequested,
		audit.ActionAreaResubmitted,
		audit.ActionAreaApproved,
		audit.ActionAreaApproved,
		audit.ActionCalibrationRequested,
		audit.ActionAreaResubmitted,
		audit.ActionAreaApproved,
		audit.ActionRecalibrationRequested,
		audit.ActionAreaResubmitted,
		audit.ActionAreaApproved,
		audit.ActionAssessmentApproved,
	}, actions)
}

func (s *WorkflowSuite) TestReworkRoundLimit() {
	submitCtx := s.ctxAs(s.submitterID, s.start)
	a, err := s.svc.CreateAssessment(submitCtx, s.submitterID, []id.AreaID{1})
	s.Require().NoError(err)

	s.fillArea1(submitCtx, a.ID)
	s.Require().NoError(s.svc.SubmitArea(submitCtx, a.ID, 1))

	reviewCtx := s.ctxAs(s.assessorID, s.start.AddDate(0, 0, 1))
	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 100, models.OutcomePass))
	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 101, models.OutcomeFail))

	// Rework before every verdict is in is a different denial; clear it first.
	s.Require().NoError(s.svc.RequestRework(reviewCtx, a.ID, 1, "first round"))

	fixCtx := s.ctxAs(s.submitterID, s.start.AddDate(0, 0, 2))
	s.Require().NoError(s.svc.ResubmitArea(fixCtx, a.ID, 1))

	// The indicator failed again; the single round is spent.
	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 101, models.OutcomeFail))
	err = s.svc.RequestRework(reviewCtx, a.ID, 1, "second round")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRoundLimitExceeded))

	// The surviving failure is final at this tier; approval proceeds.
	s.Require().NoError(s.svc.ApproveArea(reviewCtx, a.ID, 1))
}

func (s *WorkflowSuite) TestUnresolvedReviewBlocks() {
	submitCtx := s.ctxAs(s.submitterID, s.start)
	a, err := s.svc.CreateAssessment(submitCtx, s.submitterID, []id.AreaID{1})
	s.Require().NoError(err)
	s.fillArea1(submitCtx, a.ID)
	s.Require().NoError(s.svc.SubmitArea(submitCtx, a.ID, 1))

	reviewCtx := s.ctxAs(s.assessorID, s.start.AddDate(0, 0, 1))
	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 100, models.OutcomePass))

	err = s.svc.ApproveArea(reviewCtx, a.ID, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeUnresolvedReview))
	err = s.svc.RequestRework(reviewCtx, a.ID, 1, "incomplete review")
	s.True(dErrors.HasCode(err, dErrors.CodeUnresolvedReview))
}

func (s *WorkflowSuite) TestDeadlineLockAndExtension() {
	submitCtx := s.ctxAs(s.submitterID, s.start)
	a, err := s.svc.CreateAssessment(submitCtx, s.submitterID, []id.AreaID{1})
	s.Require().NoError(err)
	s.fillArea1(submitCtx, a.ID)

	// 30-day window, 3-day grace: day 34 is locked.
	lateCtx := s.ctxAs(s.submitterID, s.start.AddDate(0, 0, 34))
	err = s.svc.SubmitArea(lateCtx, a.ID, 1)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDeadlineLocked))
	_, err = s.svc.SaveResponse(lateCtx, a.ID, 100, map[id.FieldSpecID]string{1002: "1"})
	s.True(dErrors.HasCode(err, dErrors.CodeDeadlineLocked))

	// An extension reopens the same instant.
	ext, err := s.svc.ExtendDeadline(lateCtx, a.ID, deadline.PhaseSubmission, 10, "typhoon recovery")
	s.Require().NoError(err)
	s.Equal(10, ext.AdditionalDays)
	s.Require().NoError(s.svc.SubmitArea(lateCtx, a.ID, 1))

	recorded, err := s.extensions.ListByAssessment(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Require().Len(recorded, 1)
	s.Equal("typhoon recovery", recorded[0].Reason)
}

func (s *WorkflowSuite) TestLockReflectsGoverningPhase() {
	submitCtx := s.ctxAs(s.submitterID, s.start)
	a, err := s.svc.CreateAssessment(submitCtx, s.submitterID, []id.AreaID{1})
	s.Require().NoError(err)
	s.fillArea1(submitCtx, a.ID)

	// Past the submission window plus grace, the open draft reads locked.
	lateCtx := s.ctxAs(s.submitterID, s.start.AddDate(0, 0, 34))
	loaded, err := s.svc.GetAssessment(lateCtx, a.ID)
	s.Require().NoError(err)
	s.True(loaded.Deadlines.Locked)

	// Once everything is approved, the stale submission deadline governs
	// nothing; the same late clock reads unlocked.
	s.Require().NoError(s.svc.SubmitArea(submitCtx, a.ID, 1))
	reviewCtx := s.ctxAs(s.assessorID, s.start.AddDate(0, 0, 1))
	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 100, models.OutcomePass))
	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 101, models.OutcomePass))
	s.Require().NoError(s.svc.ApproveArea(reviewCtx, a.ID, 1))

	loaded, err = s.svc.GetAssessment(lateCtx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.GlobalAwaitingFinalValidation, loaded.GlobalStatus)
	s.False(loaded.Deadlines.Locked)

	// A calibrated area answers to the calibration window, not the long
	// expired submission one.
	validateCtx := s.ctxAs(s.adminID, s.start.AddDate(0, 0, 2))
	s.Require().NoError(s.svc.RequestCalibration(validateCtx, a.ID, 1, "recheck the postings count"))

	loaded, err = s.svc.GetAssessment(validateCtx, a.ID)
	s.Require().NoError(err)
	s.False(loaded.Deadlines.Locked)

	// Calibration runs 5 days from day 2 with 3 days grace: day 11 is locked.
	loaded, err = s.svc.GetAssessment(s.ctxAs(s.submitterID, s.start.AddDate(0, 0, 11)), a.ID)
	s.Require().NoError(err)
	s.True(loaded.Deadlines.Locked)
}

func (s *WorkflowSuite) TestRecalibrationGuards() {
	s.buildService(1)

	submitCtx := s.ctxAs(s.submitterID, s.start)
	a, err := s.svc.CreateAssessment(submitCtx, s.submitterID, []id.AreaID{1})
	s.Require().NoError(err)
	s.fillArea1(submitCtx, a.ID)
	s.Require().NoError(s.svc.SubmitArea(submitCtx, a.ID, 1))

	reviewCtx := s.ctxAs(s.assessorID, s.start.AddDate(0, 0, 1))
	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 100, models.OutcomePass))
	s.Require().NoError(s.svc.RecordOutcome(reviewCtx, a.ID, 101, models.OutcomePass))
	s.Require().NoError(s.svc.ApproveArea(reviewCtx, a.ID, 1))

	adminCtx := s.ctxAs(s.adminID, s.start.AddDate(0, 0, 2))

	// Recalibration is an admin-tier operation only.
	err = s.svc.RequestRecalibration(adminCtx, a.ID, []id.IndicatorID{100}, "early")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	s.Require().NoError(s.svc.AdvanceToAdminApproval(adminCtx, a.ID))

	// Targets must come from the approved snapshot.
	err = s.svc.RequestRecalibration(adminCtx, a.ID, []id.IndicatorID{999}, "stray target")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	s.Require().NoError(s.svc.RequestRecalibration(adminCtx, a.ID, []id.IndicatorID{100}, "recheck budget"))

	fixCtx := s.ctxAs(s.submitterID, s.start.AddDate(0, 0, 3))
	s.Require().NoError(s.svc.ResubmitArea(fixCtx, a.ID, 1))
	s.Require().NoError(s.svc.ApproveArea(reviewCtx, a.ID, 1))
	s.Require().NoError(s.svc.AdvanceToAdminApproval(adminCtx, a.ID))

	// The cap of one round is spent.
	err = s.svc.RequestRecalibration(adminCtx, a.ID, []id.IndicatorID{100}, "again")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRoundLimitExceeded))
}

func (s *WorkflowSuite) TestEvidenceSoftDelete() {
	submitCtx := s.ctxAs(s.submitterID, s.start)
	a, err := s.svc.CreateAssessment(submitCtx, s.submitterID, []id.AreaID{1})
	s.Require().NoError(err)

	first, err := s.svc.AttachEvidence(submitCtx, a.ID, 101, 1011, "s3://bucket/photo.jpg")
	s.Require().NoError(err)

	r, err := s.responses.FindByIndicator(submitCtx, a.ID, 101)
	s.Require().NoError(err)
	s.True(r.Complete)

	second, err := s.svc.AttachEvidence(submitCtx, a.ID, 101, 1012, "s3://bucket/extra.jpg")
	s.Require().NoError(err)

	// Completeness survives losing one of two uploads.
	s.Require().NoError(s.svc.RemoveEvidence(submitCtx, a.ID, second.ID))
	r, err = s.responses.FindByIndicator(submitCtx, a.ID, 101)
	s.Require().NoError(err)
	s.True(r.Complete)

	// Removing the last live upload flips completeness off; the rows remain.
	s.Require().NoError(s.svc.RemoveEvidence(submitCtx, a.ID, first.ID))
	r, err = s.responses.FindByIndicator(submitCtx, a.ID, 101)
	s.Require().NoError(err)
	s.False(r.Complete)

	// A fresh upload restores completeness.
	_, err = s.svc.AttachEvidence(submitCtx, a.ID, 101, 1011, "s3://bucket/photo-v2.jpg")
	s.Require().NoError(err)
	r, err = s.responses.FindByIndicator(submitCtx, a.ID, 101)
	s.Require().NoError(err)
	s.True(r.Complete)
}

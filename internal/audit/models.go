package audit

import (
	"time"

	id "sglgb/pkg/domain"
)

// Event is emitted from workflow logic after a transition commits. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp    time.Time
	AssessmentID id.AssessmentID
	AreaID       id.AreaID
	ActorID      id.UserID
	Action       Action
	Reason       string
	IndicatorIDs []id.IndicatorID
}

// Action names the committed workflow transitions worth auditing.
type Action string

const (
	ActionAssessmentCreated      Action = "assessment_created"
	ActionAreaSubmitted          Action = "area_submitted"
	ActionReviewStarted          Action = "review_started"
	ActionReworkRequested        Action = "rework_requested"
	ActionAreaResubmitted        Action = "area_resubmitted"
	ActionAreaApproved           Action = "area_approved"
	ActionCalibrationRequested   Action = "calibration_requested"
	ActionRecalibrationRequested Action = "recalibration_requested"
	ActionAssessmentApproved     Action = "assessment_approved"
	ActionDeadlineExtended       Action = "deadline_extended"
)

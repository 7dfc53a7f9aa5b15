// Package deadline computes, checks, and extends per-phase deadlines.
// The active Window configuration is passed into every call; nothing here
// reads ambient state, so two calls with the same inputs always agree.
package deadline

import (
	"time"

	id "sglgb/pkg/domain"
)

// Phase names the workflow phase a deadline applies to.
type Phase string

const (
	PhaseSubmission  Phase = "submission"
	PhaseRework      Phase = "rework"
	PhaseCalibration Phase = "calibration"
)

// Valid reports whether the phase is known.
func (p Phase) Valid() bool {
	switch p {
	case PhaseSubmission, PhaseRework, PhaseCalibration:
		return true
	}
	return false
}

// Window is the per-cycle deadline configuration. It is immutable once an
// assessment has consumed it; only Extension records move a deadline.
type Window struct {
	CycleYear       int
	SubmissionDays  int
	ReworkDays      int
	CalibrationDays int
	// GraceDays is the extra time after a deadline before the assessment
	// locks.
	GraceDays int
}

// Days returns the window length for a phase.
func (w Window) Days(phase Phase) int {
	switch phase {
	case PhaseSubmission:
		return w.SubmissionDays
	case PhaseRework:
		return w.ReworkDays
	case PhaseCalibration:
		return w.CalibrationDays
	}
	return 0
}

// Deadlines is the per-assessment deadline state embedded in the aggregate.
type Deadlines struct {
	Submission  *time.Time
	Rework      *time.Time
	Calibration *time.Time
	Locked      bool
}

// Get returns the stored deadline for a phase, if set.
func (d *Deadlines) Get(phase Phase) *time.Time {
	switch phase {
	case PhaseSubmission:
		return d.Submission
	case PhaseRework:
		return d.Rework
	case PhaseCalibration:
		return d.Calibration
	}
	return nil
}

// Set stores the deadline for a phase.
func (d *Deadlines) Set(phase Phase, t time.Time) {
	switch phase {
	case PhaseSubmission:
		d.Submission = &t
	case PhaseRework:
		d.Rework = &t
	case PhaseCalibration:
		d.Calibration = &t
	}
}

// Extension is one append-only audit entry recording a deadline move.
// Extensions are strictly additive; no deadline is ever shortened.
type Extension struct {
	AssessmentID     id.AssessmentID
	Phase            Phase
	OriginalDeadline time.Time
	NewDeadline      time.Time
	AdditionalDays   int
	Reason           string
	ActorID          id.UserID
	CreatedAt        time.Time
}

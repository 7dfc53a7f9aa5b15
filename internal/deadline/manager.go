package deadline

import (
	"time"

	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
)

// Manager performs all deadline arithmetic. It is stateless: the caller
// supplies the window, the assessment's deadline record, and the instant to
// evaluate against.
type Manager struct{}

// NewManager constructs a Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Compute returns the absolute deadline for a phase: reference plus the
// window's configured day count.
func (m *Manager) Compute(w Window, phase Phase, reference time.Time) (time.Time, error) {
	if !phase.Valid() {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown deadline phase %q", phase)
	}
	days := w.Days(phase)
	if days <= 0 {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput, "window has no length for phase %q", phase)
	}
	return reference.AddDate(0, 0, days), nil
}

// IsLocked reports whether the phase deadline (plus grace) has passed at now.
// A phase with no stored deadline never locks.
func (m *Manager) IsLocked(d *Deadlines, w Window, phase Phase, now time.Time) bool {
	deadline := d.Get(phase)
	if deadline == nil {
		return false
	}
	graceEnd := deadline.AddDate(0, 0, w.GraceDays)
	return now.After(graceEnd)
}

// Extend moves a phase deadline forward by additionalDays and returns the
// append-only audit record. The stored deadline must exist; extensions are
// additive only. A locked assessment unlocks immediately.
func (m *Manager) Extend(d *Deadlines, assessmentID id.AssessmentID, phase Phase, additionalDays int, reason string, actor id.UserID, now time.Time) (Extension, error) {
	if !phase.Valid() {
		return Extension{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown deadline phase %q", phase)
	}
	if additionalDays <= 0 {
		return Extension{}, dErrors.New(dErrors.CodeValidation, "additional days must be positive")
	}
	if reason == "" {
		return Extension{}, dErrors.New(dErrors.CodeValidation, "extension reason is required")
	}
	current := d.Get(phase)
	if current == nil {
		return Extension{}, dErrors.Newf(dErrors.CodeInvalidInput, "no %s deadline exists to extend", phase)
	}

	original := *current
	next := original.AddDate(0, 0, additionalDays)
	d.Set(phase, next)
	d.Locked = false

	return Extension{
		AssessmentID:     assessmentID,
		Phase:            phase,
		OriginalDeadline: original,
		NewDeadline:      next,
		AdditionalDays:   additionalDays,
		Reason:           reason,
		ActorID:          actor,
		CreatedAt:        now,
	}, nil
}

package audit

import (
	"context"
	"time"

	id "sglgb/pkg/domain"
)

// Store is the append-only persistence for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAssessment(ctx context.Context, assessmentID id.AssessmentID) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// store for persistence so tests can swap sinks easily. Workflow events are
// fail-open: the transition has already committed when Emit runs, so a sink
// failure must not invalidate it.
type Publisher struct {
	store Store
	relay chan<- Event
}

// NewPublisher constructs a Publisher. relay may be nil when no external
// sink is configured.
func NewPublisher(store Store, relay chan<- Event) *Publisher {
	return &Publisher{store: store, relay: relay}
}

// Emit persists the event and hands it to the relay if one is attached.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.relay != nil {
		// Non-blocking: a slow external sink never holds up the caller.
		select {
		case p.relay <- event:
		default:
		}
	}
	return nil
}

// List returns the audit trail for one assessment.
func (p *Publisher) List(ctx context.Context, assessmentID id.AssessmentID) ([]Event, error) {
	return p.store.ListByAssessment(ctx, assessmentID)
}

package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "sglgb/pkg/domain"
)

// PostgresStore persists the audit trail in PostgreSQL. Append-only; there
// are no update or delete paths.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append records one event.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	indicatorIDs := make([]int64, len(event.IndicatorIDs))
	for i, indicatorID := range event.IndicatorIDs {
		indicatorIDs[i] = int64(indicatorID)
	}
	query := `
		INSERT INTO audit_events (occurred_at, assessment_id, area_id, actor_id, action, reason, indicator_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp, uuid.UUID(event.AssessmentID), int32(event.AreaID),
		uuid.UUID(event.ActorID), string(event.Action), event.Reason, pq.Array(indicatorIDs),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByAssessment returns the ordered trail for one assessment.
func (s *PostgresStore) ListByAssessment(ctx context.Context, assessmentID id.AssessmentID) ([]Event, error) {
	query := `
		SELECT occurred_at, area_id, actor_id, action, reason, indicator_ids
		FROM audit_events
		WHERE assessment_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(assessmentID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		event := Event{AssessmentID: assessmentID}
		var (
			areaID       int32
			actorID      uuid.UUID
			action       string
			indicatorIDs pq.Int64Array
		)
		if err := rows.Scan(&event.Timestamp, &areaID, &actorID, &action, &event.Reason, &indicatorIDs); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.AreaID = id.AreaID(areaID)
		event.ActorID = id.UserID(actorID)
		event.Action = Action(action)
		for _, indicatorID := range indicatorIDs {
			event.IndicatorIDs = append(event.IndicatorIDs, id.IndicatorID(indicatorID))
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}

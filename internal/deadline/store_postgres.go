package deadline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "sglgb/pkg/domain"
)

// PostgresExtensionStore persists the extension audit trail in PostgreSQL.
// The table is append-only; there are no update or delete paths.
type PostgresExtensionStore struct {
	db *sql.DB
}

// NewPostgresExtensionStore constructs a PostgreSQL-backed extension store.
func NewPostgresExtensionStore(db *sql.DB) *PostgresExtensionStore {
	return &PostgresExtensionStore{db: db}
}

// Append records one extension.
func (s *PostgresExtensionStore) Append(ctx context.Context, ext Extension) error {
	query := `
		INSERT INTO deadline_extensions
			(assessment_id, phase, original_deadline, new_deadline, additional_days, reason, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(ext.AssessmentID), string(ext.Phase), ext.OriginalDeadline, ext.NewDeadline,
		ext.AdditionalDays, ext.Reason, uuid.UUID(ext.ActorID), ext.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append deadline extension: %w", err)
	}
	return nil
}

// ListByAssessment returns the ordered extension history for one assessment.
func (s *PostgresExtensionStore) ListByAssessment(ctx context.Context, assessmentID id.AssessmentID) ([]Extension, error) {
	query := `
		SELECT phase, original_deadline, new_deadline, additional_days, reason, actor_id, created_at
		FROM deadline_extensions
		WHERE assessment_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(assessmentID))
	if err != nil {
		return nil, fmt.Errorf("list deadline extensions: %w", err)
	}
	defer rows.Close()

	var out []Extension
	for rows.Next() {
		ext := Extension{AssessmentID: assessmentID}
		var phase string
		var actorID uuid.UUID
		if err := rows.Scan(&phase, &ext.OriginalDeadline, &ext.NewDeadline,
			&ext.AdditionalDays, &ext.Reason, &actorID, &ext.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deadline extension: %w", err)
		}
		ext.Phase = Phase(phase)
		ext.ActorID = id.UserID(actorID)
		out = append(out, ext)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deadline extensions: %w", err)
	}
	return out, nil
}

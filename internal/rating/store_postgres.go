package rating

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "sglgb/pkg/domain"
	"sglgb/pkg/platform/sentinel"
)

// PostgresSnapshotStore persists rating snapshots in PostgreSQL. The table is
// derived data: downstream reporting reads it, the core may regenerate it at
// will.
type PostgresSnapshotStore struct {
	db *sql.DB
}

// NewPostgresSnapshotStore constructs a PostgreSQL-backed snapshot store.
func NewPostgresSnapshotStore(db *sql.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

// Save upserts the snapshot for an assessment.
func (s *PostgresSnapshotStore) Save(ctx context.Context, snapshot Snapshot) error {
	areas, err := json.Marshal(snapshot.Areas)
	if err != nil {
		return fmt.Errorf("marshal area compliance: %w", err)
	}
	bbis, err := json.Marshal(snapshot.BBIResults)
	if err != nil {
		return fmt.Errorf("marshal bbi results: %w", err)
	}
	query := `
		INSERT INTO rating_snapshots (assessment_id, overall_passed, areas, bbi_results, computed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (assessment_id) DO UPDATE SET
			overall_passed = EXCLUDED.overall_passed,
			areas = EXCLUDED.areas,
			bbi_results = EXCLUDED.bbi_results,
			computed_at = EXCLUDED.computed_at
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(snapshot.AssessmentID), snapshot.OverallPassed, areas, bbis, snapshot.ComputedAt)
	if err != nil {
		return fmt.Errorf("save rating snapshot: %w", err)
	}
	return nil
}

// Get returns the snapshot for an assessment.
func (s *PostgresSnapshotStore) Get(ctx context.Context, assessmentID id.AssessmentID) (Snapshot, error) {
	query := `
		SELECT overall_passed, areas, bbi_results, computed_at
		FROM rating_snapshots
		WHERE assessment_id = $1
	`
	snapshot := Snapshot{AssessmentID: assessmentID}
	var areas, bbis []byte
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(assessmentID)).
		Scan(&snapshot.OverallPassed, &areas, &bbis, &snapshot.ComputedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, sentinel.ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("get rating snapshot: %w", err)
	}
	if err := json.Unmarshal(areas, &snapshot.Areas); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal area compliance: %w", err)
	}
	if err := json.Unmarshal(bbis, &snapshot.BBIResults); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal bbi results: %w", err)
	}
	return snapshot, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sglgb/internal/assessment/models"
	id "sglgb/pkg/domain"
	"sglgb/pkg/platform/sentinel"
)

// PostgresAssessments persists aggregates across the assessments and
// assessment_areas tables. Writes are transactional; Update is guarded by the
// version column.
type PostgresAssessments struct {
	db *sql.DB
}

// NewPostgresAssessments constructs a PostgreSQL-backed assessment store.
func NewPostgresAssessments(db *sql.DB) *PostgresAssessments {
	return &PostgresAssessments{db: db}
}

// Create inserts the aggregate and its area rows.
func (s *PostgresAssessments) Create(ctx context.Context, a *models.Assessment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create assessment: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO assessments (
			id, submitter_id, global_status, rework_count, recalibration_count,
			calibrated_areas, approved_snapshot,
			submission_deadline, rework_deadline, calibration_deadline, locked,
			approved_by, approved_at, approval_comments,
			version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = tx.ExecContext(ctx, query,
		uuid.UUID(a.ID), uuid.UUID(a.SubmitterID), string(a.GlobalStatus),
		a.ReworkCount, a.RecalibrationCount,
		pq.Array(calibratedAreaIDs(a)), pq.Array(snapshotIDs(a)),
		a.Deadlines.Submission, a.Deadlines.Rework, a.Deadlines.Calibration, a.Deadlines.Locked,
		nullUserID(a.ApprovedBy), a.ApprovedAt, a.ApprovalComments,
		a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert assessment: %w", err)
	}

	for _, rec := range a.Areas {
		if err := upsertArea(ctx, tx, a.ID, rec); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create assessment: %w", err)
	}
	return nil
}

// FindByID loads the aggregate and its area rows.
func (s *PostgresAssessments) FindByID(ctx context.Context, assessmentID id.AssessmentID) (*models.Assessment, error) {
	query := `
		SELECT id, submitter_id, global_status, rework_count, recalibration_count,
		       calibrated_areas, approved_snapshot,
		       submission_deadline, rework_deadline, calibration_deadline, locked,
		       approved_by, approved_at, approval_comments,
		       version, created_at, updated_at
		FROM assessments
		WHERE id = $1
	`
	a := &models.Assessment{
		Areas:           make(map[id.AreaID]*models.AreaRecord),
		CalibratedAreas: make(map[id.AreaID]bool),
	}
	var (
		assessmentUUID  uuid.UUID
		submitterUUID   uuid.UUID
		globalStatus    string
		calibratedAreas pq.Int32Array
		snapshot        pq.Int64Array
		approvedBy      uuid.NullUUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(assessmentID)).Scan(
		&assessmentUUID, &submitterUUID, &globalStatus, &a.ReworkCount, &a.RecalibrationCount,
		&calibratedAreas, &snapshot,
		&a.Deadlines.Submission, &a.Deadlines.Rework, &a.Deadlines.Calibration, &a.Deadlines.Locked,
		&approvedBy, &a.ApprovedAt, &a.ApprovalComments,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select assessment: %w", err)
	}

	a.ID = id.AssessmentID(assessmentUUID)
	a.SubmitterID = id.UserID(submitterUUID)
	a.GlobalStatus = models.GlobalStatus(globalStatus)
	for _, areaID := range calibratedAreas {
		a.CalibratedAreas[id.AreaID(areaID)] = true
	}
	for _, indicatorID := range snapshot {
		a.ApprovedSnapshot = append(a.ApprovedSnapshot, id.IndicatorID(indicatorID))
	}
	if approvedBy.Valid {
		approver := id.UserID(approvedBy.UUID)
		a.ApprovedBy = &approver
	}

	if err := s.loadAreas(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresAssessments) loadAreas(ctx context.Context, a *models.Assessment) error {
	query := `
		SELECT area_id, status, submitted_at, approved_at,
		       rework_requested_at, rework_comments, resubmitted_at, reviewer_id
		FROM assessment_areas
		WHERE assessment_id = $1
		ORDER BY area_id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(a.ID))
	if err != nil {
		return fmt.Errorf("select assessment areas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec := &models.AreaRecord{}
		var (
			areaID     int32
			status     string
			reviewerID uuid.NullUUID
		)
		if err := rows.Scan(&areaID, &status, &rec.SubmittedAt, &rec.ApprovedAt,
			&rec.ReworkRequestedAt, &rec.ReworkComments, &rec.ResubmittedAt, &reviewerID); err != nil {
			return fmt.Errorf("scan assessment area: %w", err)
		}
		rec.AreaID = id.AreaID(areaID)
		rec.Status = models.AreaStatus(status)
		if reviewerID.Valid {
			reviewer := id.UserID(reviewerID.UUID)
			rec.ReviewerID = &reviewer
		}
		a.Areas[rec.AreaID] = rec
	}
	return rows.Err()
}

// Update writes the aggregate back under the version guard and bumps the
// version on success.
func (s *PostgresAssessments) Update(ctx context.Context, a *models.Assessment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update assessment: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE assessments SET
			global_status = $2, rework_count = $3, recalibration_count = $4,
			calibrated_areas = $5, approved_snapshot = $6,
			submission_deadline = $7, rework_deadline = $8, calibration_deadline = $9, locked = $10,
			approved_by = $11, approved_at = $12, approval_comments = $13,
			version = version + 1, updated_at = $14
		WHERE id = $1 AND version = $15
	`
	result, err := tx.ExecContext(ctx, query,
		uuid.UUID(a.ID), string(a.GlobalStatus), a.ReworkCount, a.RecalibrationCount,
		pq.Array(calibratedAreaIDs(a)), pq.Array(snapshotIDs(a)),
		a.Deadlines.Submission, a.Deadlines.Rework, a.Deadlines.Calibration, a.Deadlines.Locked,
		nullUserID(a.ApprovedBy), a.ApprovedAt, a.ApprovalComments,
		a.UpdatedAt, a.Version,
	)
	if err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assessment rows affected: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or the version is stale; distinguish.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM assessments WHERE id = $1)`, uuid.UUID(a.ID),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check assessment exists: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}

	for _, rec := range a.Areas {
		if err := upsertArea(ctx, tx, a.ID, rec); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update assessment: %w", err)
	}
	a.Version++
	return nil
}

func upsertArea(ctx context.Context, tx *sql.Tx, assessmentID id.AssessmentID, rec *models.AreaRecord) error {
	query := `
		INSERT INTO assessment_areas (
			assessment_id, area_id, status, submitted_at, approved_at,
			rework_requested_at, rework_comments, resubmitted_at, reviewer_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (assessment_id, area_id) DO UPDATE SET
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at,
			approved_at = EXCLUDED.approved_at,
			rework_requested_at = EXCLUDED.rework_requested_at,
			rework_comments = EXCLUDED.rework_comments,
			resubmitted_at = EXCLUDED.resubmitted_at,
			reviewer_id = EXCLUDED.reviewer_id
	`
	_, err := tx.ExecContext(ctx, query,
		uuid.UUID(assessmentID), int32(rec.AreaID), string(rec.Status),
		rec.SubmittedAt, rec.ApprovedAt,
		rec.ReworkRequestedAt, rec.ReworkComments, rec.ResubmittedAt,
		nullUserID(rec.ReviewerID),
	)
	if err != nil {
		return fmt.Errorf("upsert assessment area: %w", err)
	}
	return nil
}

func calibratedAreaIDs(a *models.Assessment) []int32 {
	out := make([]int32, 0, len(a.CalibratedAreas))
	for areaID, calibrated := range a.CalibratedAreas {
		if calibrated {
			out = append(out, int32(areaID))
		}
	}
	return out
}

func snapshotIDs(a *models.Assessment) []int64 {
	out := make([]int64, 0, len(a.ApprovedSnapshot))
	for _, indicatorID := range a.ApprovedSnapshot {
		out = append(out, int64(indicatorID))
	}
	return out
}

func nullUserID(userID *id.UserID) uuid.NullUUID {
	if userID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*userID), Valid: true}
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}

// PostgresResponses persists indicator responses with the scalar values as
// JSONB.
type PostgresResponses struct {
	db *sql.DB
}

// NewPostgresResponses constructs a PostgreSQL-backed response store.
func NewPostgresResponses(db *sql.DB) *PostgresResponses {
	return &PostgresResponses{db: db}
}

// Save upserts a response keyed on (assessment, indicator).
func (s *PostgresResponses) Save(ctx context.Context, r *models.Response) error {
	values, err := json.Marshal(r.Values)
	if err != nil {
		return fmt.Errorf("marshal response values: %w", err)
	}
	query := `
		INSERT INTO assessment_responses (
			id, assessment_id, indicator_id, field_values, complete, outcome,
			reworked, resubmitted, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (assessment_id, indicator_id) DO UPDATE SET
			field_values = EXCLUDED.field_values,
			complete = EXCLUDED.complete,
			outcome = EXCLUDED.outcome,
			reworked = EXCLUDED.reworked,
			resubmitted = EXCLUDED.resubmitted,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID), uuid.UUID(r.AssessmentID), int64(r.IndicatorID),
		values, r.Complete, string(r.Outcome),
		r.Reworked, r.Resubmitted, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save response: %w", err)
	}
	return nil
}

// FindByIndicator returns the response for one indicator of an assessment.
func (s *PostgresResponses) FindByIndicator(ctx context.Context, assessmentID id.AssessmentID, indicatorID id.IndicatorID) (*models.Response, error) {
	query := `
		SELECT id, assessment_id, indicator_id, field_values, complete, outcome,
		       reworked, resubmitted, created_at, updated_at
		FROM assessment_responses
		WHERE assessment_id = $1 AND indicator_id = $2
	`
	r, err := scanResponse(s.db.QueryRowContext(ctx, query, uuid.UUID(assessmentID), int64(indicatorID)))
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select response: %w", err)
	}
	return r, nil
}

// ListByAssessment returns every response of an assessment ordered by
// indicator.
func (s *PostgresResponses) ListByAssessment(ctx context.Context, assessmentID id.AssessmentID) ([]*models.Response, error) {
	query := `
		SELECT id, assessment_id, indicator_id, field_values, complete, outcome,
		       reworked, resubmitted, created_at, updated_at
		FROM assessment_responses
		WHERE assessment_id = $1
		ORDER BY indicator_id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(assessmentID))
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []*models.Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(row rowScanner) (*models.Response, error) {
	r := &models.Response{}
	var (
		responseUUID   uuid.UUID
		assessmentUUID uuid.UUID
		indicatorID    int64
		values         []byte
		outcome        string
	)
	if err := row.Scan(&responseUUID, &assessmentUUID, &indicatorID, &values, &r.Complete,
		&outcome, &r.Reworked, &r.Resubmitted, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ID = id.ResponseID(responseUUID)
	r.AssessmentID = id.AssessmentID(assessmentUUID)
	r.IndicatorID = id.IndicatorID(indicatorID)
	r.Outcome = models.Outcome(outcome)
	r.Values = make(map[id.FieldSpecID]string)
	if len(values) > 0 {
		if err := json.Unmarshal(values, &r.Values); err != nil {
			return nil, fmt.Errorf("unmarshal response values: %w", err)
		}
	}
	return r, nil
}

// PostgresEvidence persists evidence references; removal is a soft delete.
type PostgresEvidence struct {
	db *sql.DB
}

// NewPostgresEvidence constructs a PostgreSQL-backed evidence store.
func NewPostgresEvidence(db *sql.DB) *PostgresEvidence {
	return &PostgresEvidence{db: db}
}

// Add inserts one evidence reference.
func (s *PostgresEvidence) Add(ctx context.Context, e *models.EvidenceFile) error {
	query := `
		INSERT INTO evidence_files (id, response_id, field_spec_id, reference, uploaded_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(e.ID), uuid.UUID(e.ResponseID), int64(e.FieldSpecID),
		e.Reference, e.UploadedAt, e.DeletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert evidence: %w", err)
	}
	return nil
}

// FindByID returns one evidence reference.
func (s *PostgresEvidence) FindByID(ctx context.Context, evidenceID id.EvidenceID) (*models.EvidenceFile, error) {
	query := `
		SELECT id, response_id, field_spec_id, reference, uploaded_at, deleted_at
		FROM evidence_files
		WHERE id = $1
	`
	e := &models.EvidenceFile{}
	var (
		evidenceUUID uuid.UUID
		responseUUID uuid.UUID
		fieldSpecID  int64
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(evidenceID)).Scan(
		&evidenceUUID, &responseUUID, &fieldSpecID, &e.Reference, &e.UploadedAt, &e.DeletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select evidence: %w", err)
	}
	e.ID = id.EvidenceID(evidenceUUID)
	e.ResponseID = id.ResponseID(responseUUID)
	e.FieldSpecID = id.FieldSpecID(fieldSpecID)
	return e, nil
}

// Update writes back mutable evidence state (the soft-delete marker).
func (s *PostgresEvidence) Update(ctx context.Context, e *models.EvidenceFile) error {
	query := `UPDATE evidence_files SET reference = $2, deleted_at = $3 WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, uuid.UUID(e.ID), e.Reference, e.DeletedAt)
	if err != nil {
		return fmt.Errorf("update evidence: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update evidence rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ListByResponse returns every evidence row of a response, soft-deleted
// included.
func (s *PostgresEvidence) ListByResponse(ctx context.Context, responseID id.ResponseID) ([]*models.EvidenceFile, error) {
	query := `
		SELECT id, response_id, field_spec_id, reference, uploaded_at, deleted_at
		FROM evidence_files
		WHERE response_id = $1
		ORDER BY uploaded_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(responseID))
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var out []*models.EvidenceFile
	for rows.Next() {
		e := &models.EvidenceFile{}
		var (
			evidenceUUID uuid.UUID
			responseUUID uuid.UUID
			fieldSpecID  int64
		)
		if err := rows.Scan(&evidenceUUID, &responseUUID, &fieldSpecID,
			&e.Reference, &e.UploadedAt, &e.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		e.ID = id.EvidenceID(evidenceUUID)
		e.ResponseID = id.ResponseID(responseUUID)
		e.FieldSpecID = id.FieldSpecID(fieldSpecID)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence: %w", err)
	}
	return out, nil
}

// Package repository persists assessments and their scored results in
// Postgres. Results are append-only: re-scoring inserts a new version.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"assessment-workers/internal/models"
)

var (
	ErrAssessmentNotFound = errors.New("ASSESSMENT_NOT_FOUND")
	ErrResultNotFound     = errors.New("RESULT_NOT_FOUND")
)

//go:embed schema.sql
var Schema string

// ResultSummary is one row of a sector listing.
type ResultSummary struct {
	AssessmentID  string    `json:"assessmentId"`
	Version       int       `json:"version"`
	OverallScore  int       `json:"overallScore"`
	MaturityLevel string    `json:"maturityLevel"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Repository struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

type Option func(*Repository)

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator replaces uuid.NewString for row ids.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) { r.newID = gen }
}

func New(db *sql.DB, opts ...Option) *Repository {
	r := &Repository{db: db, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Migrate creates the tables when they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, leadID, sector string) (*models.Assessment, error) {
	now := r.now().UTC()
	a := &models.Assessment{
		ID:        r.newID(),
		LeadID:    leadID,
		Sector:    sector,
		Status:    models.AssessmentStatusInProgress,
		Responses: models.ResponseSet{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assessments (id, lead_id, sector, status, responses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		a.ID, nullString(leadID), a.Sector, a.Status, []byte("{}"), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assessment: %w", err)
	}
	return a, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Assessment, error) {
	var (
		a           models.Assessment
		leadID      sql.NullString
		responses   []byte
		completedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, lead_id, sector, status, responses, created_at, completed_at, updated_at
		FROM assessments WHERE id = $1`, id,
	).Scan(&a.ID, &leadID, &a.Sector, &a.Status, &responses, &a.CreatedAt, &completedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAssessmentNotFound, id)
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}

	a.LeadID = leadID.String
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &a.Responses); err != nil {
			return nil, fmt.Errorf("decode responses: %w", err)
		}
	}
	return &a, nil
}

// UpdateResponses replaces the stored answers of an in-progress assessment.
func (r *Repository) UpdateResponses(ctx context.Context, id string, responses models.ResponseSet) error {
	payload, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE assessments SET responses = $2, updated_at = $3
		WHERE id = $1 AND status = $4`,
		id, payload, r.now().UTC(), models.AssessmentStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("update responses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update responses: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAssessmentNotFound, id)
	}
	return nil
}

// SaveResult stores result as the next version for the assessment and marks
// the assessment completed. It returns the stored version.
func (r *Repository) SaveResult(ctx context.Context, assessmentID string, result models.AssessmentResult) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM assessments WHERE id = $1 FOR UPDATE`, assessmentID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrAssessmentNotFound, assessmentID)
		}
		return 0, fmt.Errorf("lock assessment: %w", err)
	}

	var latest int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM assessment_results WHERE assessment_id = $1`, assessmentID,
	).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("latest version: %w", err)
	}

	stored := result.Clone()
	stored.AssessmentID = assessmentID
	stored.Version = latest + 1

	payload, err := json.Marshal(stored)
	if err != nil {
		return 0, fmt.Errorf("encode result: %w", err)
	}
	responses, err := json.Marshal(stored.Responses)
	if err != nil {
		return 0, fmt.Errorf("encode responses: %w", err)
	}

	now := r.now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO assessment_results (id, assessment_id, version, overall_score, maturity_level, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.newID(), assessmentID, stored.Version, stored.OverallScore, stored.MaturityLevel.Name, payload, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE assessments SET status = $2, responses = $3, completed_at = $4, updated_at = $4
		WHERE id = $1`,
		assessmentID, models.AssessmentStatusCompleted, responses, now,
	)
	if err != nil {
		return 0, fmt.Errorf("complete assessment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return stored.Version, nil
}

func (r *Repository) LatestResult(ctx context.Context, assessmentID string) (models.AssessmentResult, error) {
	return r.scanResult(r.db.QueryRowContext(ctx, `
		SELECT result FROM assessment_results
		WHERE assessment_id = $1
		ORDER BY version DESC LIMIT 1`, assessmentID), assessmentID)
}

func (r *Repository) ResultVersion(ctx context.Context, assessmentID string, version int) (models.AssessmentResult, error) {
	return r.scanResult(r.db.QueryRowContext(ctx, `
		SELECT result FROM assessment_results
		WHERE assessment_id = $1 AND version = $2`, assessmentID, version), assessmentID)
}

func (r *Repository) scanResult(row *sql.Row, assessmentID string) (models.AssessmentResult, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AssessmentResult{}, fmt.Errorf("%w: %s", ErrResultNotFound, assessmentID)
		}
		return models.AssessmentResult{}, fmt.Errorf("get result: %w", err)
	}

	var result models.AssessmentResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return models.AssessmentResult{}, fmt.Errorf("decode result: %w", err)
	}
	return result, nil
}

// ListBySector returns the latest result of each completed assessment in a
// sector, newest first.
func (r *Repository) ListBySector(ctx context.Context, sector string, limit int) ([]ResultSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.assessment_id, r.version, r.overall_score, r.maturity_level, r.created_at
		FROM assessment_results r
		JOIN assessments a ON a.id = r.assessment_id
		WHERE a.sector = $1 AND a.status = $2
		  AND r.version = (SELECT MAX(version) FROM assessment_results WHERE assessment_id = r.assessment_id)
		ORDER BY r.created_at DESC
		LIMIT $3`, sector, models.AssessmentStatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	out := make([]ResultSummary, 0)
	for rows.Next() {
		var s ResultSummary
		if err := rows.Scan(&s.AssessmentID, &s.Version, &s.OverallScore, &s.MaturityLevel, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return out, nil
}

func (r *Repository) Stats(ctx context.Context) (models.AssessmentStats, error) {
	var s models.AssessmentStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'in_progress')
		FROM assessments`,
	).Scan(&s.Total, &s.Completed, &s.InProgress)
	if err != nil {
		return models.AssessmentStats{}, fmt.Errorf("stats: %w", err)
	}
	if s.Total > 0 {
		s.CompletionRate = math.Round(float64(s.Completed)*1000/float64(s.Total)) / 10
	}
	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

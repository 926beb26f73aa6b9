package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/demandflow/internal/domain"
)

// Repository handles database operations for pipeline tracking
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new pipeline repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreatePipelineRun creates a new pipeline run record
func (r *Repository) CreatePipelineRun(ctx context.Context, run *PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (
			id, pipeline_name, source, status, total_products,
			processed_products, skipped_products, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.ID, run.PipelineName, run.Source, run.Status, run.TotalProducts,
		run.ProcessedProducts, run.SkippedProducts, run.StartedAt,
	)

	return err
}

// UpdatePipelineRun updates an existing pipeline run
func (r *Repository) UpdatePipelineRun(ctx context.Context, run *PipelineRun) error {
	query := `
		UPDATE pipeline_runs
		SET status = $1, processed_products = $2, skipped_products = $3,
		    completed_at = $4, error_message = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.ProcessedProducts, run.SkippedProducts,
		run.CompletedAt, run.ErrorMessage, run.ID,
	)

	return err
}

// InsertSkippedProducts stores the skipped list for a run in one transaction
func (r *Repository) InsertSkippedProducts(ctx context.Context, runID string, skipped []domain.SkippedProduct) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pipeline_skipped_products (pipeline_run_id, product_id, stage, reason)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range skipped {
		if _, err := stmt.ExecContext(ctx, runID, s.ProductID, s.Stage, s.Reason); err != nil {
			return fmt.Errorf("insert skipped product %s: %w", s.ProductID, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, pipeline_name, source, status, total_products,
		       processed_products, skipped_products, started_at, completed_at,
		       COALESCE(error_message, '')`

func scanRun(row interface{ Scan(...any) error }) (*PipelineRun, error) {
	run := &PipelineRun{}
	err := row.Scan(
		&run.ID, &run.PipelineName, &run.Source, &run.Status, &run.TotalProducts,
		&run.ProcessedProducts, &run.SkippedProducts, &run.StartedAt, &run.CompletedAt,
		&run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetPipelineRun retrieves a pipeline run by ID
func (r *Repository) GetPipelineRun(ctx context.Context, id string) (*PipelineRun, error) {
	query := `SELECT ` + runColumns + ` FROM pipeline_runs WHERE id = $1`
	return scanRun(r.db.QueryRowContext(ctx, query, id))
}

// GetLatestPipelineRun returns the most recent run, or nil when none exist
func (r *Repository) GetLatestPipelineRun(ctx context.Context, pipelineName string) (*PipelineRun, error) {
	query := `SELECT ` + runColumns + `
		FROM pipeline_runs
		WHERE pipeline_name = $1
		ORDER BY started_at DESC
		LIMIT 1
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, pipelineName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// GetSkippedProducts retrieves the skipped list of a run
func (r *Repository) GetSkippedProducts(ctx context.Context, runID string) ([]domain.SkippedProduct, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, stage, reason
		FROM pipeline_skipped_products
		WHERE pipeline_run_id = $1
		ORDER BY product_id, stage
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skipped []domain.SkippedProduct
	for rows.Next() {
		var s domain.SkippedProduct
		if err := rows.Scan(&s.ProductID, &s.Stage, &s.Reason); err != nil {
			return nil, err
		}
		skipped = append(skipped, s)
	}

	return skipped, rows.Err()
}

// GetRunMetrics retrieves statistics for runs started since the given time
func (r *Repository) GetRunMetrics(ctx context.Context, pipelineName string, since time.Time) (*RunMetrics, error) {
	query := `
		SELECT
			COUNT(CASE WHEN status = $2 THEN 1 END) AS runs_completed,
			COUNT(CASE WHEN status = $3 THEN 1 END) AS runs_failed,
			COALESCE(SUM(processed_products), 0) AS products_analyzed,
			MAX(completed_at) FILTER (WHERE status = $2) AS last_completed_at
		FROM pipeline_runs
		WHERE pipeline_name = $1
		  AND started_at >= $4
	`

	metrics := &RunMetrics{}
	err := r.db.QueryRowContext(
		ctx, query,
		pipelineName, StatusCompleted, StatusFailed, since,
	).Scan(
		&metrics.RunsCompleted,
		&metrics.RunsFailed,
		&metrics.ProductsAnalyzed,
		&metrics.LastCompletedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return &RunMetrics{}, nil
	}

	return metrics, err
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/demandflow/internal/domain"
	"github.com/andresuchdata/demandflow/internal/repository"
)

type suggestionRepository struct {
	db *DB
}

func NewSuggestionRepository(db *DB) *suggestionRepository {
	return &suggestionRepository{db: db}
}

// SaveRunResults writes the suggestions and performance records of one run atomically.
func (r *suggestionRepository) SaveRunResults(
	ctx context.Context,
	runID string,
	suggestions []domain.ReorderSuggestion,
	performance []domain.PerformanceRecord,
) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO reorder_suggestions (
				run_id, product_id, reorder_point, suggested_order_quantity, lead_time_demand,
				safety_stock, avg_daily_velocity, trend_direction, urgency, days_of_supply,
				recommendation, priority_score, risk_level, action_required, optimal_order_timing
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare suggestion insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range suggestions {
			_, err := stmt.ExecContext(ctx,
				runID, s.ProductID, s.ReorderPoint, s.SuggestedOrderQuantity, s.LeadTimeDemand,
				s.SafetyStock, s.AvgDailyVelocity, s.TrendDirection, s.Urgency, s.DaysOfSupply,
				s.Recommendation, s.PriorityScore, s.RiskLevel, s.ActionRequired, s.OptimalOrderTiming,
			)
			if err != nil {
				return fmt.Errorf("failed to insert suggestion for %s: %w", s.ProductID, err)
			}
		}

		perfStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO forecast_performance (
				run_id, product_id, actual_avg_velocity, predicted_avg_velocity, mape, model_quality
			) VALUES ($1, $2, $3, $4, $5, $6)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare performance insert: %w", err)
		}
		defer perfStmt.Close()

		for _, p := range performance {
			_, err := perfStmt.ExecContext(ctx,
				runID, p.ProductID, p.ActualAvgVelocity, p.PredictedAvgVelocity, p.MAPE, p.ModelQuality,
			)
			if err != nil {
				return fmt.Errorf("failed to insert performance for %s: %w", p.ProductID, err)
			}
		}

		return nil
	})
}

func (r *suggestionRepository) GetSuggestionsByRun(ctx context.Context, runID string) ([]domain.ReorderSuggestion, error) {
	query := `
		SELECT product_id, reorder_point, suggested_order_quantity, lead_time_demand,
		       safety_stock, avg_daily_velocity, trend_direction, urgency, days_of_supply,
		       recommendation, priority_score, risk_level, action_required, optimal_order_timing
		FROM reorder_suggestions
		WHERE run_id = $1
		ORDER BY priority_score DESC, product_id
	`

	var suggestions []domain.ReorderSuggestion
	if err := r.db.SelectContext(ctx, &suggestions, query, runID); err != nil {
		return nil, fmt.Errorf("error getting suggestions for run %s: %w", runID, err)
	}
	return suggestions, nil
}

var _ repository.SuggestionRepository = (*suggestionRepository)(nil)

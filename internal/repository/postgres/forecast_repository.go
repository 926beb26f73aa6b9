package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/demandflow/internal/domain"
	"github.com/andresuchdata/demandflow/internal/repository"
)

type forecastRow struct {
	ProductID string `db:"product_id"`
	domain.ForecastPoint
}

type demandRow struct {
	ProductID string `db:"product_id"`
	domain.DemandPoint
}

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *forecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) LatestForecasts(ctx context.Context) ([]domain.ForecastSeries, error) {
	query := `
		SELECT product_id, forecast_date, yhat, yhat_lower, yhat_upper, trend
		FROM demand_forecasts
		WHERE generated_at = (SELECT MAX(generated_at) FROM demand_forecasts)
		ORDER BY product_id, forecast_date
	`

	var rows []forecastRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error getting latest forecasts: %w", err)
	}

	return groupForecastRows(rows), nil
}

func (r *forecastRepository) RecentHistory(ctx context.Context, days int) ([]domain.HistoricalSeries, error) {
	if days <= 0 {
		days = 14
	}

	query := `
		SELECT product_id, demand_date, quantity
		FROM daily_demand
		WHERE demand_date > (SELECT MAX(demand_date) FROM daily_demand) - $1::int
		ORDER BY product_id, demand_date
	`

	var rows []demandRow
	if err := r.db.SelectContext(ctx, &rows, query, days); err != nil {
		return nil, fmt.Errorf("error getting recent demand: %w", err)
	}

	return groupDemandRows(rows), nil
}

func (r *forecastRepository) SaveForecasts(ctx context.Context, series []domain.ForecastSeries, generatedAt time.Time) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO demand_forecasts (
				product_id, forecast_date, yhat, yhat_lower, yhat_upper, trend, generated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (product_id, forecast_date, generated_at)
			DO UPDATE SET
				yhat = EXCLUDED.yhat,
				yhat_lower = EXCLUDED.yhat_lower,
				yhat_upper = EXCLUDED.yhat_upper,
				trend = EXCLUDED.trend
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, s := range series {
			for _, p := range s.Points {
				_, err := stmt.ExecContext(ctx,
					s.ProductID, p.Date, p.PointEstimate, p.LowerBound, p.UpperBound, p.TrendValue, generatedAt,
				)
				if err != nil {
					return fmt.Errorf("failed to insert forecast for %s: %w", s.ProductID, err)
				}
			}
		}
		return nil
	})
}

func (r *forecastRepository) SaveHistory(ctx context.Context, series []domain.HistoricalSeries) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO daily_demand (product_id, demand_date, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (product_id, demand_date)
			DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, s := range series {
			for _, p := range s.Points {
				if _, err := stmt.ExecContext(ctx, s.ProductID, p.Date, p.ActualDemand); err != nil {
					return fmt.Errorf("failed to upsert demand for %s: %w", s.ProductID, err)
				}
			}
		}
		return nil
	})
}

// groupForecastRows expects rows ordered by product then date.
func groupForecastRows(rows []forecastRow) []domain.ForecastSeries {
	var out []domain.ForecastSeries
	for _, row := range rows {
		if n := len(out); n == 0 || out[n-1].ProductID != row.ProductID {
			out = append(out, domain.ForecastSeries{ProductID: row.ProductID})
		}
		last := &out[len(out)-1]
		last.Points = append(last.Points, row.ForecastPoint)
		last.HorizonDays = len(last.Points)
	}
	return out
}

// groupDemandRows expects rows ordered by product then date.
func groupDemandRows(rows []demandRow) []domain.HistoricalSeries {
	var out []domain.HistoricalSeries
	for _, row := range rows {
		if n := len(out); n == 0 || out[n-1].ProductID != row.ProductID {
			out = append(out, domain.HistoricalSeries{ProductID: row.ProductID})
		}
		last := &out[len(out)-1]
		last.Points = append(last.Points, row.DemandPoint)
	}
	return out
}

var _ repository.ForecastRepository = (*forecastRepository)(nil)

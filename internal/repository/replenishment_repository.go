package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/demandflow/internal/domain"
)

// ForecastRepository reads and imports the series the engine consumes.
type ForecastRepository interface {
	// LatestForecasts returns the most recent forecast generation, one series per product.
	LatestForecasts(ctx context.Context) ([]domain.ForecastSeries, error)
	// RecentHistory returns the trailing days of daily demand per product.
	RecentHistory(ctx context.Context, days int) ([]domain.HistoricalSeries, error)

	SaveForecasts(ctx context.Context, series []domain.ForecastSeries, generatedAt time.Time) error
	SaveHistory(ctx context.Context, series []domain.HistoricalSeries) error
}

// SuggestionRepository persists the outputs of a run.
type SuggestionRepository interface {
	SaveRunResults(ctx context.Context, runID string, suggestions []domain.ReorderSuggestion, performance []domain.PerformanceRecord) error
	GetSuggestionsByRun(ctx context.Context, runID string) ([]domain.ReorderSuggestion, error)
}

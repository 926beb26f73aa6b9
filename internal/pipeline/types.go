package pipeline

import (
	"time"

	"github.com/andresuchdata/demandflow/internal/domain"
	"github.com/andresuchdata/demandflow/internal/pipeline/replenishment"
)

// RunConfig holds configuration for an orchestrator instance
type RunConfig struct {
	Name        string
	WorkerCount int // Number of concurrent product workers
}

// DefaultRunConfig returns sensible defaults
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Name:        "replenishment",
		WorkerCount: 4,
	}
}

// RunStatus represents the current state of a pipeline run
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// PipelineRun tracks a single execution of the replenishment pipeline
type PipelineRun struct {
	ID                string     `json:"id"`
	PipelineName      string     `json:"pipeline_name"`
	Source            string     `json:"source"`
	Status            RunStatus  `json:"status"`
	TotalProducts     int        `json:"total_products"`
	ProcessedProducts int        `json:"processed_products"`
	SkippedProducts   int        `json:"skipped_products"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
}

// RunInput is everything a single run needs. Series are already materialized in memory.
type RunInput struct {
	Policy    replenishment.Policy
	Forecasts []domain.ForecastSeries
	History   []domain.HistoricalSeries
	Source    string
}

// RunResult separates fully computed analyses from skipped products.
type RunResult struct {
	RunID       string                     `json:"run_id"`
	StartedAt   time.Time                  `json:"started_at"`
	CompletedAt time.Time                  `json:"completed_at"`
	Policy      replenishment.Policy       `json:"policy"`
	Analyses    []domain.ProductAnalysis   `json:"analyses"`
	Performance []domain.PerformanceRecord `json:"performance"`
	Skipped     []domain.SkippedProduct    `json:"skipped"`
	Dashboard   domain.DashboardSnapshot   `json:"dashboard"`
	Summary     domain.AnalysisSummary     `json:"summary"`
}

// Suggestions returns the suggestions in analysis order.
func (r *RunResult) Suggestions() []domain.ReorderSuggestion {
	out := make([]domain.ReorderSuggestion, len(r.Analyses))
	for i, a := range r.Analyses {
		out[i] = a.Suggestion
	}
	return out
}

// Profiles returns the velocity profiles in analysis order.
func (r *RunResult) Profiles() []domain.VelocityProfile {
	out := make([]domain.VelocityProfile, len(r.Analyses))
	for i, a := range r.Analyses {
		out[i] = a.Profile
	}
	return out
}

// Analysis looks up one product's analysis.
func (r *RunResult) Analysis(productID string) (domain.ProductAnalysis, bool) {
	for _, a := range r.Analyses {
		if a.Profile.ProductID == productID {
			return a, true
		}
	}
	return domain.ProductAnalysis{}, false
}

// RunMetrics holds aggregate statistics over recent runs
type RunMetrics struct {
	RunsCompleted    int64      `json:"runs_completed"`
	RunsFailed       int64      `json:"runs_failed"`
	ProductsAnalyzed int64      `json:"products_analyzed"`
	LastCompletedAt  *time.Time `json:"last_completed_at,omitempty"`
}

package replenishment

import (
	"errors"

	"github.com/andresuchdata/demandflow/internal/domain"
)

// Engine runs the per-product stages for a single, validated policy.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	policy     Policy
	builder    *VelocityProfileBuilder
	planner    *ReorderPlanner
	assessor   *PerformanceAssessor
	aggregator *DashboardAggregator
}

// NewEngine validates the policy once. Any error is a *domain.ConfigError.
func NewEngine(policy Policy) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		policy:     policy,
		builder:    NewVelocityProfileBuilder(policy),
		planner:    NewReorderPlanner(policy),
		assessor:   NewPerformanceAssessor(policy),
		aggregator: NewDashboardAggregator(policy.TopPriorityLimit),
	}, nil
}

func (e *Engine) Policy() Policy { return e.policy }

// Aggregator exposes the dashboard reducer so callers can re-rank with another limit.
func (e *Engine) Aggregator() *DashboardAggregator { return e.aggregator }

// Outcome is the result of analysing one product. Analysis is nil when the forecast stage
// failed; Skipped holds every stage that could not be computed.
type Outcome struct {
	ProductID string
	Analysis  *domain.ProductAnalysis
	Skipped   []domain.SkippedProduct
}

// Analyze runs profile, plan, enrichment and (when history is given) performance for one
// product. Per-product data problems are reported in the outcome, not as an error; the
// returned error is reserved for config failures.
func (e *Engine) Analyze(forecast *domain.ForecastSeries, history *domain.HistoricalSeries, productID string) (Outcome, error) {
	out := Outcome{ProductID: productID}

	if forecast == nil {
		out.Skipped = append(out.Skipped, domain.SkippedProduct{
			ProductID: productID,
			Stage:     domain.StageForecast,
			Reason:    domain.ErrMissingSeries.Error(),
		})
		return out, nil
	}

	profile, err := e.builder.Build(*forecast)
	if err != nil {
		return out, skipOrFail(&out, err)
	}

	suggestion, err := e.planner.Plan(profile)
	if err != nil {
		return out, skipOrFail(&out, err)
	}

	analysis := &domain.ProductAnalysis{
		Profile:    profile,
		Suggestion: Enrich(suggestion),
	}

	switch {
	case history == nil:
		out.Skipped = append(out.Skipped, domain.SkippedProduct{
			ProductID: productID,
			Stage:     domain.StagePerformance,
			Reason:    domain.ErrMissingSeries.Error(),
		})
	default:
		record, err := e.assessor.Assess(profile, *history)
		if err != nil {
			if skipErr := skipOrFail(&out, err); skipErr != nil {
				return out, skipErr
			}
		}
		analysis.Performance = record
	}

	out.Analysis = analysis
	return out, nil
}

func skipOrFail(out *Outcome, err error) error {
	var dataErr *domain.DataError
	if errors.As(err, &dataErr) {
		out.Skipped = append(out.Skipped, dataErr.Skipped())
		return nil
	}
	return err
}

// Summarize builds the run-level overview from finalized analyses.
func (e *Engine) Summarize(analyses []domain.ProductAnalysis, skipped []domain.SkippedProduct) domain.AnalysisSummary {
	summary := domain.AnalysisSummary{
		TotalProducts:       len(analyses),
		ForecastHorizonDays: e.policy.ForecastHorizonDays,
		ModelQuality: map[domain.ModelQuality]int{
			domain.QualityGood: 0,
			domain.QualityFair: 0,
			domain.QualityPoor: 0,
		},
	}

	excluded := make(map[string]struct{})
	for _, s := range skipped {
		if s.Stage == domain.StageForecast {
			excluded[s.ProductID] = struct{}{}
		}
	}
	summary.SkippedProducts = len(excluded)

	var mapeTotal float64
	for _, a := range analyses {
		if a.Suggestion.Urgency == domain.UrgencyHigh {
			summary.HighPriorityProducts++
		}
		if a.Performance != nil {
			summary.GradedProducts++
			summary.ModelQuality[a.Performance.ModelQuality]++
			mapeTotal += a.Performance.MAPE
		}
	}
	if summary.GradedProducts > 0 {
		summary.AverageMAPE = roundFloat(mapeTotal/float64(summary.GradedProducts), 2)
	}

	return summary
}

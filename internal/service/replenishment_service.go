package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandflow/internal/cache"
	"github.com/andresuchdata/demandflow/internal/domain"
	"github.com/andresuchdata/demandflow/internal/pipeline"
	"github.com/andresuchdata/demandflow/internal/pipeline/replenishment"
	"github.com/andresuchdata/demandflow/internal/repository"
)

var (
	ErrNoRun             = errors.New("no replenishment run available yet")
	ErrProductNotFound   = errors.New("product not found in latest run")
	ErrSourceUnavailable = errors.New("no forecast source configured")
)

const runMetricsWindow = 30 * 24 * time.Hour

// RunHistory reads persisted run tracking rows.
type RunHistory interface {
	GetLatestPipelineRun(ctx context.Context, pipelineName string) (*pipeline.PipelineRun, error)
	GetSkippedProducts(ctx context.Context, runID string) ([]domain.SkippedProduct, error)
	GetRunMetrics(ctx context.Context, pipelineName string, since time.Time) (*pipeline.RunMetrics, error)
}

// Options wires the optional collaborators of the service. Nil fields are disabled.
type Options struct {
	Forecasts    repository.ForecastRepository
	Suggestions  repository.SuggestionRepository
	Runs         RunHistory
	Reports      *pipeline.ReportWriter
	Cache        cache.DashboardCache
	PipelineName string
}

// AnalyzeInput is one request to run the engine. A nil Policy uses the service default.
type AnalyzeInput struct {
	Forecasts []domain.ForecastSeries
	History   []domain.HistoricalSeries
	Policy    *replenishment.Policy
	Source    string
}

// RunInfo describes the latest run without its per-product payload.
type RunInfo struct {
	Run     *pipeline.PipelineRun   `json:"run"`
	Summary *domain.AnalysisSummary `json:"summary,omitempty"`
	Skipped []domain.SkippedProduct `json:"skipped"`
}

// PerformanceReport is the accuracy view over the latest run.
type PerformanceReport struct {
	RunID   string                     `json:"run_id"`
	Records []domain.PerformanceRecord `json:"records"`
	Summary domain.AnalysisSummary     `json:"summary"`
	Runs    *pipeline.RunMetrics       `json:"runs,omitempty"`
}

// ReplenishmentService owns the latest immutable RunResult and serves read views over it.
type ReplenishmentService struct {
	orchestrator *pipeline.Orchestrator
	policy       replenishment.Policy
	opts         Options

	mu     sync.RWMutex
	latest *pipeline.RunResult
}

func NewReplenishmentService(orchestrator *pipeline.Orchestrator, policy replenishment.Policy, opts Options) *ReplenishmentService {
	if opts.Cache == nil {
		opts.Cache = cache.NewNoopDashboardCache()
	}
	if opts.PipelineName == "" {
		opts.PipelineName = pipeline.DefaultRunConfig().Name
	}
	return &ReplenishmentService{orchestrator: orchestrator, policy: policy, opts: opts}
}

// Policy returns the default policy used when a request does not carry one.
func (s *ReplenishmentService) Policy() replenishment.Policy {
	return s.policy
}

// Analyze runs the engine and publishes the result as the current snapshot.
// Persistence, report and cache failures are logged and do not fail the call.
func (s *ReplenishmentService) Analyze(ctx context.Context, in AnalyzeInput) (*pipeline.RunResult, error) {
	policy := s.policy
	if in.Policy != nil {
		policy = *in.Policy
	}

	result, err := s.orchestrator.Run(ctx, pipeline.RunInput{
		Policy:    policy,
		Forecasts: in.Forecasts,
		History:   in.History,
		Source:    in.Source,
	})
	if err != nil {
		return nil, err
	}

	if s.opts.Suggestions != nil {
		if err := s.opts.Suggestions.SaveRunResults(ctx, result.RunID, result.Suggestions(), result.Performance); err != nil {
			log.Warn().Err(err).Str("run_id", result.RunID).Msg("replenishment: persist suggestions failed")
		}
	}

	if s.opts.Reports != nil {
		if _, err := s.opts.Reports.Write(ctx, result); err != nil {
			log.Warn().Err(err).Str("run_id", result.RunID).Msg("replenishment: write reports failed")
		}
	}

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	if err := s.opts.Cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("replenishment: cache invalidate failed")
	}

	return result, nil
}

// Refresh re-runs the engine from the configured database source.
func (s *ReplenishmentService) Refresh(ctx context.Context) (*pipeline.RunResult, error) {
	if s.opts.Forecasts == nil {
		return nil, ErrSourceUnavailable
	}

	forecasts, err := s.opts.Forecasts.LatestForecasts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load forecasts: %w", err)
	}
	history, err := s.opts.Forecasts.RecentHistory(ctx, s.policy.PerformanceWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	return s.Analyze(ctx, AnalyzeInput{Forecasts: forecasts, History: history, Source: "postgres"})
}

// Latest returns the current run result.
func (s *ReplenishmentService) Latest() (*pipeline.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoRun
	}
	return s.latest, nil
}

func (s *ReplenishmentService) Velocity(productID string) (domain.VelocityProfile, error) {
	analysis, err := s.analysis(productID)
	if err != nil {
		return domain.VelocityProfile{}, err
	}
	return analysis.Profile, nil
}

func (s *ReplenishmentService) Suggestion(productID string) (domain.ReorderSuggestion, error) {
	analysis, err := s.analysis(productID)
	if err != nil {
		return domain.ReorderSuggestion{}, err
	}
	return analysis.Suggestion, nil
}

func (s *ReplenishmentService) analysis(productID string) (domain.ProductAnalysis, error) {
	latest, err := s.Latest()
	if err != nil {
		return domain.ProductAnalysis{}, err
	}
	analysis, ok := latest.Analysis(productID)
	if !ok {
		return domain.ProductAnalysis{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return analysis, nil
}

// Suggestions lists suggestions by priority, optionally filtered by urgency.
func (s *ReplenishmentService) Suggestions(urgency domain.Urgency) ([]domain.ReorderSuggestion, error) {
	latest, err := s.Latest()
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.ReorderSuggestion, 0, len(latest.Analyses))
	for _, sug := range latest.Suggestions() {
		if urgency == "" || sug.Urgency == urgency {
			filtered = append(filtered, sug)
		}
	}
	return replenishment.TopPriority(filtered, -1), nil
}

// Urgent lists High urgency suggestions.
func (s *ReplenishmentService) Urgent() ([]domain.ReorderSuggestion, error) {
	return s.Suggestions(domain.UrgencyHigh)
}

// Dashboard returns the latest snapshot, re-ranked when limit differs from the run's
// policy. Re-ranked snapshots go through the cache.
func (s *ReplenishmentService) Dashboard(ctx context.Context, limit int) (*domain.DashboardSnapshot, error) {
	latest, err := s.Latest()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit == latest.Policy.TopPriorityLimit {
		snapshot := latest.Dashboard
		return &snapshot, nil
	}

	key := cache.DashboardKey{RunID: latest.RunID, Limit: limit}
	if snapshot, ok, err := s.opts.Cache.GetSnapshot(ctx, key); err == nil && ok {
		return snapshot, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("replenishment: cache get dashboard failed")
	}

	snapshot := replenishment.NewDashboardAggregator(limit).Aggregate(latest.Analyses)

	if err := s.opts.Cache.SetSnapshot(ctx, key, &snapshot); err != nil {
		log.Warn().Err(err).Msg("replenishment: cache set dashboard failed")
	}

	return &snapshot, nil
}

// Performance returns the graded records of the latest run plus run metrics when
// run tracking is available.
func (s *ReplenishmentService) Performance(ctx context.Context) (*PerformanceReport, error) {
	latest, err := s.Latest()
	if err != nil {
		return nil, err
	}

	report := &PerformanceReport{
		RunID:   latest.RunID,
		Records: latest.Performance,
		Summary: latest.Summary,
	}

	if s.opts.Runs != nil {
		metrics, err := s.opts.Runs.GetRunMetrics(ctx, s.opts.PipelineName, time.Now().Add(-runMetricsWindow))
		if err != nil {
			log.Warn().Err(err).Msg("replenishment: load run metrics failed")
		} else {
			report.Runs = metrics
		}
	}

	return report, nil
}

// LatestRun describes the current run, falling back to persisted tracking rows when
// this process has not run the engine yet.
func (s *ReplenishmentService) LatestRun(ctx context.Context) (*RunInfo, error) {
	if latest, err := s.Latest(); err == nil {
		completedAt := latest.CompletedAt
		summary := latest.Summary
		return &RunInfo{
			Run: &pipeline.PipelineRun{
				ID:                latest.RunID,
				PipelineName:      s.opts.PipelineName,
				Status:            pipeline.StatusCompleted,
				TotalProducts:     len(latest.Analyses) + summary.SkippedProducts,
				ProcessedProducts: len(latest.Analyses),
				SkippedProducts:   summary.SkippedProducts,
				StartedAt:         latest.StartedAt,
				CompletedAt:       &completedAt,
			},
			Summary: &summary,
			Skipped: latest.Skipped,
		}, nil
	}

	if s.opts.Runs == nil {
		return nil, ErrNoRun
	}

	run, err := s.opts.Runs.GetLatestPipelineRun(ctx, s.opts.PipelineName)
	if err != nil {
		return nil, fmt.Errorf("load latest run: %w", err)
	}
	if run == nil {
		return nil, ErrNoRun
	}

	skipped, err := s.opts.Runs.GetSkippedProducts(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("load skipped products: %w", err)
	}
	if skipped == nil {
		skipped = []domain.SkippedProduct{}
	}

	return &RunInfo{Run: run, Skipped: skipped}, nil
}

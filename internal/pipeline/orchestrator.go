package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/andresuchdata/demandflow/internal/domain"
	"github.com/andresuchdata/demandflow/internal/pipeline/replenishment"
	"github.com/andresuchdata/demandflow/pkg/logger"
)

// RunRecorder persists run tracking rows. Implementations must be safe to call from
// the orchestrator goroutine only.
type RunRecorder interface {
	CreatePipelineRun(ctx context.Context, run *PipelineRun) error
	UpdatePipelineRun(ctx context.Context, run *PipelineRun) error
	InsertSkippedProducts(ctx context.Context, runID string, skipped []domain.SkippedProduct) error
}

type noopRecorder struct{}

func (noopRecorder) CreatePipelineRun(context.Context, *PipelineRun) error { return nil }
func (noopRecorder) UpdatePipelineRun(context.Context, *PipelineRun) error { return nil }
func (noopRecorder) InsertSkippedProducts(context.Context, string, []domain.SkippedProduct) error {
	return nil
}

// Orchestrator runs the replenishment engine over a batch of products.
type Orchestrator struct {
	cfg      RunConfig
	recorder RunRecorder
	log      zerolog.Logger
	now      func() time.Time
}

// NewOrchestrator creates a new Orchestrator. A nil recorder disables run tracking.
func NewOrchestrator(cfg RunConfig, recorder RunRecorder) *Orchestrator {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if cfg.Name == "" {
		cfg.Name = DefaultRunConfig().Name
	}
	return &Orchestrator{
		cfg:      cfg,
		recorder: recorder,
		log:      logger.Component("pipeline"),
		now:      time.Now,
	}
}

// Run validates the policy, analyses every product in parallel and reduces the
// finalized suggestions into a dashboard. A *domain.ConfigError fails the run before
// any product is touched; per-product data problems end up in RunResult.Skipped.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	engine, err := replenishment.NewEngine(in.Policy)
	if err != nil {
		o.log.Error().Err(err).Msg("rejecting run: invalid policy")
		return nil, err
	}

	jobs := buildJobs(in.Forecasts, in.History, o.log)
	run := &PipelineRun{
		ID:            uuid.NewString(),
		PipelineName:  o.cfg.Name,
		Source:        in.Source,
		Status:        StatusProcessing,
		TotalProducts: len(jobs),
		StartedAt:     o.now().UTC(),
	}
	runLog := o.log.With().Str("run_id", run.ID).Logger()

	if err := o.recorder.CreatePipelineRun(ctx, run); err != nil {
		runLog.Warn().Err(err).Msg("failed to record pipeline run start")
	}

	runLog.Info().
		Int("products", len(jobs)).
		Int("workers", o.cfg.WorkerCount).
		Str("source", in.Source).
		Msg("starting replenishment run")

	outcomes, err := NewWorker(engine, o.cfg.WorkerCount, runLog).Process(ctx, jobs)
	if err != nil {
		o.fail(ctx, run, err, runLog)
		return nil, fmt.Errorf("run %s: %w", run.ID, err)
	}

	result := &RunResult{
		RunID:       run.ID,
		StartedAt:   run.StartedAt,
		Policy:      engine.Policy(),
		Analyses:    make([]domain.ProductAnalysis, 0, len(outcomes)),
		Performance: make([]domain.PerformanceRecord, 0, len(outcomes)),
		Skipped:     make([]domain.SkippedProduct, 0),
	}

	for _, out := range outcomes {
		for _, s := range out.Skipped {
			runLog.Warn().
				Str("product_id", s.ProductID).
				Str("stage", s.Stage).
				Str("reason", s.Reason).
				Msg("product skipped")
		}
		result.Skipped = append(result.Skipped, out.Skipped...)

		if out.Analysis == nil {
			continue
		}
		result.Analyses = append(result.Analyses, *out.Analysis)
		if out.Analysis.Performance != nil {
			result.Performance = append(result.Performance, *out.Analysis.Performance)
		}
	}

	// single-threaded reduction over finalized suggestions
	result.Dashboard = engine.Aggregator().Aggregate(result.Analyses)
	result.Summary = engine.Summarize(result.Analyses, result.Skipped)
	result.CompletedAt = o.now().UTC()

	completedAt := result.CompletedAt
	run.Status = StatusCompleted
	run.ProcessedProducts = len(result.Analyses)
	run.SkippedProducts = result.Summary.SkippedProducts
	run.CompletedAt = &completedAt

	if err := o.recorder.UpdatePipelineRun(ctx, run); err != nil {
		runLog.Warn().Err(err).Msg("failed to record pipeline run completion")
	}
	if len(result.Skipped) > 0 {
		if err := o.recorder.InsertSkippedProducts(ctx, run.ID, result.Skipped); err != nil {
			runLog.Warn().Err(err).Msg("failed to record skipped products")
		}
	}

	runLog.Info().
		Int("analysed", len(result.Analyses)).
		Int("skipped", len(result.Skipped)).
		Int("high_urgency", result.Summary.HighPriorityProducts).
		Dur("duration", result.CompletedAt.Sub(result.StartedAt)).
		Msg("replenishment run completed")

	return result, nil
}

func (o *Orchestrator) fail(ctx context.Context, run *PipelineRun, cause error, log zerolog.Logger) {
	now := o.now().UTC()
	run.Status = StatusFailed
	run.ErrorMessage = cause.Error()
	run.CompletedAt = &now

	log.Error().Err(cause).Msg("replenishment run failed")
	if err := o.recorder.UpdatePipelineRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn().Err(err).Msg("failed to record pipeline run failure")
	}
}

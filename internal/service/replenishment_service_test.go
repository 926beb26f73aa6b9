package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandflow/internal/cache"
	"github.com/andresuchdata/demandflow/internal/domain"
	"github.com/andresuchdata/demandflow/internal/pipeline"
	"github.com/andresuchdata/demandflow/internal/pipeline/replenishment"
)

var day = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func forecast(product string, trendDelta float64, estimates ...float64) domain.ForecastSeries {
	points := make([]domain.ForecastPoint, len(estimates))
	for i, e := range estimates {
		points[i] = domain.ForecastPoint{Date: day.AddDate(0, 0, i), PointEstimate: e, LowerBound: e, UpperBound: e}
	}
	points[len(points)-1].TrendValue = trendDelta
	return domain.ForecastSeries{ProductID: product, HorizonDays: len(points), Points: points}
}

func demand(product string, qty ...float64) domain.HistoricalSeries {
	points := make([]domain.DemandPoint, len(qty))
	for i, q := range qty {
		points[i] = domain.DemandPoint{Date: day.AddDate(0, 0, i-len(qty)), ActualDemand: q}
	}
	return domain.HistoricalSeries{ProductID: product, Points: points}
}

func sampleAnalyzeInput() AnalyzeInput {
	return AnalyzeInput{
		Forecasts: []domain.ForecastSeries{
			forecast("hot", 0.5, 1, 9, 2, 8, 1, 9),
			forecast("steady", 0, 3, 3, 3),
			forecast("fading", -0.5, 5, 4, 3),
			forecast("flat", 0, 6, 6, 6),
		},
		History: []domain.HistoricalSeries{demand("steady", 3, 3, 3), demand("hot", 4, 6)},
		Source:  "test",
	}
}

type fakeForecastRepo struct {
	forecasts []domain.ForecastSeries
	history   []domain.HistoricalSeries
	days      int
	err       error
}

func (f *fakeForecastRepo) LatestForecasts(context.Context) ([]domain.ForecastSeries, error) {
	return f.forecasts, f.err
}

func (f *fakeForecastRepo) RecentHistory(_ context.Context, days int) ([]domain.HistoricalSeries, error) {
	f.days = days
	return f.history, f.err
}

func (f *fakeForecastRepo) SaveForecasts(context.Context, []domain.ForecastSeries, time.Time) error {
	return nil
}

func (f *fakeForecastRepo) SaveHistory(context.Context, []domain.HistoricalSeries) error { return nil }

type fakeSuggestionRepo struct {
	runID       string
	suggestions []domain.ReorderSuggestion
	err         error
}

func (f *fakeSuggestionRepo) SaveRunResults(_ context.Context, runID string, s []domain.ReorderSuggestion, _ []domain.PerformanceRecord) error {
	f.runID = runID
	f.suggestions = s
	return f.err
}

func (f *fakeSuggestionRepo) GetSuggestionsByRun(context.Context, string) ([]domain.ReorderSuggestion, error) {
	return f.suggestions, nil
}

type memoryCache struct {
	entries     map[cache.DashboardKey]domain.DashboardSnapshot
	gets        int
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[cache.DashboardKey]domain.DashboardSnapshot{}}
}

func (m *memoryCache) GetSnapshot(_ context.Context, key cache.DashboardKey) (*domain.DashboardSnapshot, bool, error) {
	m.gets++
	s, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (m *memoryCache) SetSnapshot(_ context.Context, key cache.DashboardKey, s *domain.DashboardSnapshot) error {
	m.entries[key] = *s
	return nil
}

func (m *memoryCache) InvalidateAll(context.Context) error {
	m.invalidated++
	m.entries = map[cache.DashboardKey]domain.DashboardSnapshot{}
	return nil
}

type fakeRuns struct {
	run     *pipeline.PipelineRun
	skipped []domain.SkippedProduct
}

func (f *fakeRuns) GetLatestPipelineRun(context.Context, string) (*pipeline.PipelineRun, error) {
	return f.run, nil
}

func (f *fakeRuns) GetSkippedProducts(context.Context, string) ([]domain.SkippedProduct, error) {
	return f.skipped, nil
}

func (f *fakeRuns) GetRunMetrics(context.Context, string, time.Time) (*pipeline.RunMetrics, error) {
	return &pipeline.RunMetrics{RunsCompleted: 3}, nil
}

func newService(opts Options) *ReplenishmentService {
	return NewReplenishmentService(pipeline.NewOrchestrator(pipeline.DefaultRunConfig(), nil), replenishment.DefaultPolicy(), opts)
}

func TestServiceBeforeFirstRun(t *testing.T) {
	svc := newService(Options{})

	_, err := svc.Latest()
	assert.ErrorIs(t, err, ErrNoRun)
	_, err = svc.Suggestions("")
	assert.ErrorIs(t, err, ErrNoRun)
	_, err = svc.Dashboard(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoRun)
	_, err = svc.LatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNoRun)
	_, err = svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestServiceAnalyzePublishesAndPersists(t *testing.T) {
	suggestions := &fakeSuggestionRepo{}
	c := newMemoryCache()
	dir := t.TempDir()
	svc := newService(Options{
		Suggestions: suggestions,
		Cache:       c,
		Reports:     pipeline.NewReportWriter(dir, nil, ""),
	})

	result, err := svc.Analyze(context.Background(), sampleAnalyzeInput())
	require.NoError(t, err)

	latest, err := svc.Latest()
	require.NoError(t, err)
	assert.Equal(t, result.RunID, latest.RunID)
	assert.Equal(t, result.RunID, suggestions.runID)
	assert.Len(t, suggestions.suggestions, 4)
	assert.Equal(t, 1, c.invalidated)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestServicePersistFailureDoesNotFailAnalyze(t *testing.T) {
	svc := newService(Options{Suggestions: &fakeSuggestionRepo{err: errors.New("db down")}})

	_, err := svc.Analyze(context.Background(), sampleAnalyzeInput())
	assert.NoError(t, err)
}

func TestServiceAnalyzeRejectsInvalidPolicyOverride(t *testing.T) {
	svc := newService(Options{})
	policy := replenishment.DefaultPolicy()
	policy.SafetyStockFactor = -1

	in := sampleAnalyzeInput()
	in.Policy = &policy
	_, err := svc.Analyze(context.Background(), in)

	assert.True(t, domain.IsConfigError(err))
	_, err = svc.Latest()
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestServiceReadViews(t *testing.T) {
	svc := newService(Options{})
	_, err := svc.Analyze(context.Background(), sampleAnalyzeInput())
	require.NoError(t, err)

	profile, err := svc.Velocity("steady")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, profile.AvgDailyVelocity, 1e-9)

	_, err = svc.Suggestion("missing")
	assert.ErrorIs(t, err, ErrProductNotFound)

	all, err := svc.Suggestions("")
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].PriorityScore, all[i].PriorityScore)
	}

	urgent, err := svc.Urgent()
	require.NoError(t, err)
	require.Len(t, urgent, 1)
	assert.Equal(t, "hot", urgent[0].ProductID)

	low, err := svc.Suggestions(domain.UrgencyLow)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "fading", low[0].ProductID)

	perf, err := svc.Performance(context.Background())
	require.NoError(t, err)
	assert.Len(t, perf.Records, 2)
	assert.Nil(t, perf.Runs)
}

func TestServiceDashboardCachesReRankedViews(t *testing.T) {
	c := newMemoryCache()
	svc := newService(Options{Cache: c})
	_, err := svc.Analyze(context.Background(), sampleAnalyzeInput())
	require.NoError(t, err)

	def, err := svc.Dashboard(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, def.TopPriorityProducts, 4)
	assert.Equal(t, 0, c.gets)

	first, err := svc.Dashboard(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, first.TopPriorityProducts, 2)
	assert.Len(t, c.entries, 1)

	second, err := svc.Dashboard(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, first.TopPriorityProducts, second.TopPriorityProducts)
	assert.Equal(t, 2, c.gets)
}

func TestServiceRefreshUsesRepository(t *testing.T) {
	in := sampleAnalyzeInput()
	repo := &fakeForecastRepo{forecasts: in.Forecasts, history: in.History}
	svc := newService(Options{Forecasts: repo})

	result, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Analyses, 4)
	assert.Equal(t, 14, repo.days)

	repo.err = errors.New("connection refused")
	_, err = svc.Refresh(context.Background())
	assert.Error(t, err)
}

func TestServiceLatestRunFallsBackToHistory(t *testing.T) {
	runs := &fakeRuns{
		run:     &pipeline.PipelineRun{ID: "run-7", Status: pipeline.StatusCompleted},
		skipped: []domain.SkippedProduct{{ProductID: "x", Stage: domain.StageForecast, Reason: "series missing"}},
	}
	svc := newService(Options{Runs: runs})

	info, err := svc.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-7", info.Run.ID)
	assert.Len(t, info.Skipped, 1)
	assert.Nil(t, info.Summary)

	_, err = svc.Analyze(context.Background(), sampleAnalyzeInput())
	require.NoError(t, err)

	info, err = svc.LatestRun(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "run-7", info.Run.ID)
	assert.Equal(t, 4, info.Run.ProcessedProducts)
	require.NotNil(t, info.Summary)

	perf, err := svc.Performance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, perf.Runs)
	assert.Equal(t, int64(3), perf.Runs.RunsCompleted)
}

package pipeline

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/demandflow/internal/domain"
	"github.com/andresuchdata/demandflow/internal/pipeline/replenishment"
)

// productJob is one product's input, keyed by its position in the sorted job list.
type productJob struct {
	index     int
	productID string
	forecast  *domain.ForecastSeries
	history   *domain.HistoricalSeries
}

// Worker fans product jobs out over a bounded pool and collects outcomes by index,
// so results come back in job order regardless of scheduling.
type Worker struct {
	engine      *replenishment.Engine
	workerCount int
	log         zerolog.Logger
}

func NewWorker(engine *replenishment.Engine, workerCount int, log zerolog.Logger) *Worker {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Worker{engine: engine, workerCount: workerCount, log: log}
}

// Process runs every job and returns outcomes aligned with jobs. Per-product data
// problems are inside the outcomes; the error is only for cancellation or config failures.
func (w *Worker) Process(ctx context.Context, jobs []productJob) ([]replenishment.Outcome, error) {
	outcomes := make([]replenishment.Outcome, len(jobs))
	if len(jobs) == 0 {
		return outcomes, nil
	}

	workerCount := w.workerCount
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}

	jobChan := make(chan productJob)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < workerCount; i++ {
		workerID := i
		g.Go(func() error {
			for job := range jobChan {
				out, err := w.engine.Analyze(job.forecast, job.history, job.productID)
				if err != nil {
					w.log.Error().Err(err).
						Int("worker", workerID).
						Str("product_id", job.productID).
						Msg("product analysis failed")
					return err
				}
				outcomes[job.index] = out
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobChan)
		for _, job := range jobs {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			case jobChan <- job:
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// buildJobs pairs forecasts with history by product id. Every product seen in either
// input gets a job; duplicates keep the last series.
func buildJobs(forecasts []domain.ForecastSeries, history []domain.HistoricalSeries, log zerolog.Logger) []productJob {
	byForecast := make(map[string]*domain.ForecastSeries, len(forecasts))
	for i := range forecasts {
		id := forecasts[i].ProductID
		if _, dup := byForecast[id]; dup {
			log.Warn().Str("product_id", id).Msg("duplicate forecast series, keeping the last one")
		}
		byForecast[id] = &forecasts[i]
	}

	byHistory := make(map[string]*domain.HistoricalSeries, len(history))
	for i := range history {
		id := history[i].ProductID
		if _, dup := byHistory[id]; dup {
			log.Warn().Str("product_id", id).Msg("duplicate history series, keeping the last one")
		}
		byHistory[id] = &history[i]
	}

	ids := make([]string, 0, len(byForecast)+len(byHistory))
	for id := range byForecast {
		ids = append(ids, id)
	}
	for id := range byHistory {
		if _, ok := byForecast[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	jobs := make([]productJob, len(ids))
	for i, id := range ids {
		jobs[i] = productJob{index: i, productID: id, forecast: byForecast[id], history: byHistory[id]}
	}
	return jobs
}

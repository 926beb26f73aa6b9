package pipeline

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandflow/internal/domain"
)

func TestBuildJobsPairsSeriesByProduct(t *testing.T) {
	forecasts := []domain.ForecastSeries{
		series("b", []float64{1}, 0),
		series("a", []float64{2}, 0),
	}
	hist := []domain.HistoricalSeries{
		history("a", 1),
		history("c", 1),
	}

	jobs := buildJobs(forecasts, hist, zerolog.Nop())

	require.Len(t, jobs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{jobs[0].productID, jobs[1].productID, jobs[2].productID})

	assert.NotNil(t, jobs[0].forecast)
	assert.NotNil(t, jobs[0].history)
	assert.NotNil(t, jobs[1].forecast)
	assert.Nil(t, jobs[1].history)
	assert.Nil(t, jobs[2].forecast)
	assert.NotNil(t, jobs[2].history)

	for i, j := range jobs {
		assert.Equal(t, i, j.index)
	}
}

func TestBuildJobsKeepsLastDuplicate(t *testing.T) {
	forecasts := []domain.ForecastSeries{
		series("a", []float64{1}, 0),
		series("a", []float64{7, 7}, 0),
	}

	jobs := buildJobs(forecasts, nil, zerolog.Nop())

	require.Len(t, jobs, 1)
	assert.Len(t, jobs[0].forecast.Points, 2)
}

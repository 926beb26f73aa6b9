package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandflow/internal/domain"
)

func TestGroupForecastRows(t *testing.T) {
	d := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := []forecastRow{
		{ProductID: "a", ForecastPoint: domain.ForecastPoint{Date: d, PointEstimate: 1}},
		{ProductID: "a", ForecastPoint: domain.ForecastPoint{Date: d.AddDate(0, 0, 1), PointEstimate: 2}},
		{ProductID: "b", ForecastPoint: domain.ForecastPoint{Date: d, PointEstimate: 3}},
	}

	series := groupForecastRows(rows)

	require.Len(t, series, 2)
	assert.Equal(t, "a", series[0].ProductID)
	assert.Equal(t, 2, series[0].HorizonDays)
	assert.Equal(t, 2.0, series[0].Points[1].PointEstimate)
	assert.Equal(t, "b", series[1].ProductID)
	assert.Equal(t, 1, series[1].HorizonDays)
}

func TestGroupDemandRows(t *testing.T) {
	d := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := []demandRow{
		{ProductID: "a", DemandPoint: domain.DemandPoint{Date: d, ActualDemand: 4}},
		{ProductID: "b", DemandPoint: domain.DemandPoint{Date: d, ActualDemand: 0}},
		{ProductID: "b", DemandPoint: domain.DemandPoint{Date: d.AddDate(0, 0, 1), ActualDemand: 6}},
	}

	series := groupDemandRows(rows)

	require.Len(t, series, 2)
	assert.Len(t, series[0].Points, 1)
	assert.Len(t, series[1].Points, 2)
	assert.Equal(t, 6.0, series[1].Points[1].ActualDemand)
}

func TestGroupRowsEmpty(t *testing.T) {
	assert.Empty(t, groupForecastRows(nil))
	assert.Empty(t, groupDemandRows(nil))
}

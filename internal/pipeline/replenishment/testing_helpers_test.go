package replenishment

import (
	"time"

	"github.com/andresuchdata/demandflow/internal/domain"
)

var day0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// forecastOf builds a series with the given estimates, bounds at +/-1 and a linear trend
// from trendStart to trendEnd.
func forecastOf(product string, estimates []float64, trendStart, trendEnd float64) domain.ForecastSeries {
	points := make([]domain.ForecastPoint, len(estimates))
	for i, e := range estimates {
		trend := trendStart
		if len(estimates) > 1 {
			trend = trendStart + (trendEnd-trendStart)*float64(i)/float64(len(estimates)-1)
		}
		points[i] = domain.ForecastPoint{
			Date:          day0.AddDate(0, 0, i),
			PointEstimate: e,
			LowerBound:    e - 1,
			UpperBound:    e + 1,
			TrendValue:    trend,
		}
	}
	return domain.ForecastSeries{ProductID: product, HorizonDays: len(points), Points: points}
}

func historyOf(product string, demand ...float64) domain.HistoricalSeries {
	points := make([]domain.DemandPoint, len(demand))
	for i, d := range demand {
		points[i] = domain.DemandPoint{Date: day0.AddDate(0, 0, -len(demand)+i), ActualDemand: d}
	}
	return domain.HistoricalSeries{ProductID: product, Points: points}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

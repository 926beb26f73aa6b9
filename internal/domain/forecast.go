package domain

import "time"

// ForecastPoint is a single day of forecast output for a product.
type ForecastPoint struct {
	Date          time.Time `json:"date" db:"forecast_date"`
	PointEstimate float64   `json:"point_estimate" db:"yhat"`
	LowerBound    float64   `json:"lower_bound" db:"yhat_lower"`
	UpperBound    float64   `json:"upper_bound" db:"yhat_upper"`
	TrendValue    float64   `json:"trend_value" db:"trend"`
}

// ForecastSeries is the forecast horizon for one product, ordered by date.
type ForecastSeries struct {
	ProductID   string          `json:"product_id"`
	HorizonDays int             `json:"horizon_days"`
	Points      []ForecastPoint `json:"points"`
}

// DemandPoint is one day of observed demand.
type DemandPoint struct {
	Date         time.Time `json:"date" db:"demand_date"`
	ActualDemand float64   `json:"actual_demand" db:"quantity"`
}

// HistoricalSeries is the observed daily demand for one product, ordered by date.
type HistoricalSeries struct {
	ProductID string        `json:"product_id"`
	Points    []DemandPoint `json:"points"`
}

package replenishment

import (
	"fmt"

	"github.com/andresuchdata/demandflow/internal/domain"
)

// DefaultTrendThreshold is the absolute trend delta separating Stable from Increasing/Decreasing.
// It is on the trend component's unit scale, not relative to velocity.
const DefaultTrendThreshold = 0.1

const (
	shortWindowDays = 7
	longWindowDays  = 30
)

// VelocityProfileBuilder reduces a forecast series into a VelocityProfile.
type VelocityProfileBuilder struct {
	horizonDays    int
	trendThreshold float64
}

func NewVelocityProfileBuilder(policy Policy) *VelocityProfileBuilder {
	return &VelocityProfileBuilder{
		horizonDays:    policy.ForecastHorizonDays,
		trendThreshold: policy.TrendThreshold,
	}
}

// Build computes the profile over the leading horizon of the series. The horizon is the
// shorter of the series' own horizon and the policy horizon, when either is set.
func (b *VelocityProfileBuilder) Build(series domain.ForecastSeries) (domain.VelocityProfile, error) {
	points := b.window(series)
	if len(points) == 0 {
		return domain.VelocityProfile{}, &domain.DataError{
			ProductID: series.ProductID,
			Stage:     domain.StageForecast,
			Err:       domain.ErrEmptySeries,
		}
	}

	estimates := make([]float64, len(points))
	var lowerSum, upperSum float64
	peak, low := points[0].PointEstimate, points[0].PointEstimate

	for i, p := range points {
		if !isFinite(p.PointEstimate) || !isFinite(p.LowerBound) || !isFinite(p.UpperBound) || !isFinite(p.TrendValue) {
			return domain.VelocityProfile{}, &domain.DataError{
				ProductID: series.ProductID,
				Stage:     domain.StageForecast,
				Err:       fmt.Errorf("point %d (%s): %w", i, p.Date.Format("2006-01-02"), domain.ErrNonFiniteValue),
			}
		}
		estimates[i] = p.PointEstimate
		lowerSum += p.LowerBound
		upperSum += p.UpperBound
		if p.PointEstimate > peak {
			peak = p.PointEstimate
		}
		if p.PointEstimate < low {
			low = p.PointEstimate
		}
	}

	n := float64(len(points))
	trend := points[len(points)-1].TrendValue - points[0].TrendValue
	avg := mean(estimates)
	volatility := sampleStdDev(estimates)
	lower, upper := lowerSum/n, upperSum/n

	// finite inputs can still overflow once summed
	for _, v := range []float64{avg, volatility, lower, upper, trend} {
		if !isFinite(v) {
			return domain.VelocityProfile{}, &domain.DataError{
				ProductID: series.ProductID,
				Stage:     domain.StageForecast,
				Err:       fmt.Errorf("derived velocity overflows: %w", domain.ErrNonFiniteValue),
			}
		}
	}

	return domain.VelocityProfile{
		ProductID:        series.ProductID,
		AvgDailyVelocity: avg,
		VelocityTrend:    trend,
		TrendDirection:   ClassifyTrend(trend, b.trendThreshold),
		PeakDayVelocity:  peak,
		MinDayVelocity:   low,
		Volatility:       volatility,
		ConfidenceLower:  lower,
		ConfidenceUpper:  upper,
		Next7Days:        leading(estimates, shortWindowDays),
		Next30Days:       leading(estimates, longWindowDays),
		HorizonDays:      len(points),
	}, nil
}

func (b *VelocityProfileBuilder) window(series domain.ForecastSeries) []domain.ForecastPoint {
	n := len(series.Points)
	if series.HorizonDays > 0 && series.HorizonDays < n {
		n = series.HorizonDays
	}
	if b.horizonDays > 0 && b.horizonDays < n {
		n = b.horizonDays
	}
	return series.Points[:n]
}

// ClassifyTrend maps a signed trend delta to a direction using a strict absolute threshold.
func ClassifyTrend(velocityTrend, threshold float64) domain.TrendDirection {
	switch {
	case velocityTrend > threshold:
		return domain.TrendIncreasing
	case velocityTrend < -threshold:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

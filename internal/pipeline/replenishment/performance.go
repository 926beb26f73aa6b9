package replenishment

import (
	"math"

	"github.com/andresuchdata/demandflow/internal/domain"
)

const (
	goodMAPE = 20.0
	fairMAPE = 40.0
)

// PerformanceAssessor grades forecast accuracy against the trailing window of actuals.
type PerformanceAssessor struct {
	window int
}

func NewPerformanceAssessor(policy Policy) *PerformanceAssessor {
	return &PerformanceAssessor{window: policy.PerformanceWindow}
}

// Assess returns (nil, nil) when the window has no nonzero demand: such products are not
// graded. A missing or empty history is a DataError at the performance stage.
func (a *PerformanceAssessor) Assess(profile domain.VelocityProfile, history domain.HistoricalSeries) (*domain.PerformanceRecord, error) {
	if len(history.Points) == 0 {
		return nil, &domain.DataError{
			ProductID: profile.ProductID,
			Stage:     domain.StagePerformance,
			Err:       domain.ErrEmptySeries,
		}
	}

	points := history.Points
	if a.window > 0 && len(points) > a.window {
		points = points[len(points)-a.window:]
	}

	nonzero := make([]float64, 0, len(points))
	for _, p := range points {
		if !isFinite(p.ActualDemand) {
			return nil, &domain.DataError{
				ProductID: profile.ProductID,
				Stage:     domain.StagePerformance,
				Err:       domain.ErrNonFiniteValue,
			}
		}
		if p.ActualDemand != 0 {
			nonzero = append(nonzero, p.ActualDemand)
		}
	}
	if len(nonzero) == 0 {
		return nil, nil
	}

	actual := mean(nonzero)
	predicted := profile.AvgDailyVelocity
	mape := MAPE(predicted, actual)

	return &domain.PerformanceRecord{
		ProductID:            profile.ProductID,
		ActualAvgVelocity:    actual,
		PredictedAvgVelocity: predicted,
		MAPE:                 mape,
		ModelQuality:         GradeModel(mape),
	}, nil
}

// MAPE is the absolute percentage error of predicted against actual, 0 when actual <= 0.
func MAPE(predicted, actual float64) float64 {
	if actual <= 0 {
		return 0
	}
	return math.Abs(predicted-actual) / actual * 100
}

func GradeModel(mape float64) domain.ModelQuality {
	switch {
	case mape < goodMAPE:
		return domain.QualityGood
	case mape < fairMAPE:
		return domain.QualityFair
	default:
		return domain.QualityPoor
	}
}

package replenishment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandflow/internal/domain"
)

func profileOf(product string, velocity, volatility float64, trend domain.TrendDirection) domain.VelocityProfile {
	return domain.VelocityProfile{
		ProductID:        product,
		AvgDailyVelocity: velocity,
		Volatility:       volatility,
		TrendDirection:   trend,
	}
}

func TestPlanIncreasingVolatileScenario(t *testing.T) {
	planner := NewReorderPlanner(DefaultPolicy())

	profile := profileOf("SKU-1", 5.2, 3.0, domain.TrendIncreasing)
	profile.VelocityTrend = 0.15

	s, err := planner.Plan(profile)
	require.NoError(t, err)

	assert.InDelta(t, 36.4, s.LeadTimeDemand, 1e-9)
	assert.InDelta(t, 3.0*1.5*math.Sqrt(7), s.SafetyStock, 1e-9)
	assert.InDelta(t, 11.9, s.SafetyStock, 0.01)
	assert.InDelta(t, 48.3, s.ReorderPoint, 0.01)
	assert.Equal(t, domain.UrgencyHigh, s.Urgency)
	assert.InDelta(t, 94.64, s.SuggestedOrderQuantity, 1e-9)
	require.NotNil(t, s.DaysOfSupply)
	assert.InDelta(t, 94.64/5.2, *s.DaysOfSupply, 1e-9)
	assert.Equal(t, "Order 95 units before Friday to avoid stockout. Demand is increasing.", s.Recommendation)

	enriched := Enrich(s)
	assert.Equal(t, 100.0, enriched.PriorityScore)
	assert.Equal(t, domain.RiskHigh, enriched.RiskLevel)
	assert.Equal(t, ActionImmediate, enriched.ActionRequired)
	assert.Equal(t, TimingToday, enriched.OptimalOrderTiming)
}

func TestPlanIncreasingButCalmIsNormal(t *testing.T) {
	planner := NewReorderPlanner(DefaultPolicy())

	s, err := planner.Plan(profileOf("SKU-1", 10, 5, domain.TrendIncreasing))
	require.NoError(t, err)

	assert.Equal(t, domain.UrgencyNormal, s.Urgency)
	assert.InDelta(t, 140, s.SuggestedOrderQuantity, 1e-9)
}

func TestPlanDecreasingIsLow(t *testing.T) {
	planner := NewReorderPlanner(DefaultPolicy())

	s, err := planner.Plan(profileOf("SKU-1", 10, 50, domain.TrendDecreasing))
	require.NoError(t, err)

	assert.Equal(t, domain.UrgencyLow, s.Urgency)
	assert.InDelta(t, 112, s.SuggestedOrderQuantity, 1e-9)
	assert.Equal(t, "Consider ordering 112 units. Demand is decreasing, monitor closely.", s.Recommendation)
}

func TestPlanStableRecommendation(t *testing.T) {
	planner := NewReorderPlanner(DefaultPolicy())

	s, err := planner.Plan(profileOf("SKU-1", 3, 1, domain.TrendStable))
	require.NoError(t, err)

	assert.Equal(t, domain.UrgencyNormal, s.Urgency)
	assert.InDelta(t, 42, s.SuggestedOrderQuantity, 1e-9)
	assert.Equal(t, "Order 42 units to maintain 14.0 days of supply.", s.Recommendation)
}

func TestPlanZeroVelocity(t *testing.T) {
	planner := NewReorderPlanner(DefaultPolicy())

	for _, trend := range []domain.TrendDirection{domain.TrendStable, domain.TrendIncreasing, domain.TrendDecreasing} {
		s, err := planner.Plan(profileOf("SKU-Z", 0, 0, trend))
		require.NoError(t, err)

		assert.Nil(t, s.DaysOfSupply, "trend %s", trend)
		assert.Equal(t, "Monitor SKU-Z - very low demand predicted.", s.Recommendation)
		assert.GreaterOrEqual(t, s.SuggestedOrderQuantity, 10.0)
		assert.Equal(t, 0.0, s.LeadTimeDemand)
	}
}

func TestPlanZeroLeadTime(t *testing.T) {
	policy := DefaultPolicy()
	policy.LeadTimeDays = 0
	planner := NewReorderPlanner(policy)

	s, err := planner.Plan(profileOf("SKU-1", 8, 4, domain.TrendStable))
	require.NoError(t, err)

	assert.Equal(t, 0.0, s.LeadTimeDemand)
	assert.Equal(t, 0.0, s.SafetyStock)
	assert.Equal(t, 0.0, s.ReorderPoint)
}

func TestPlanClampsToBounds(t *testing.T) {
	planner := NewReorderPlanner(DefaultPolicy())

	high, err := planner.Plan(profileOf("SKU-BIG", 500, 400, domain.TrendIncreasing))
	require.NoError(t, err)
	assert.Equal(t, 1000.0, high.SuggestedOrderQuantity)

	low, err := planner.Plan(profileOf("SKU-SMALL", 0.1, 0, domain.TrendDecreasing))
	require.NoError(t, err)
	assert.Equal(t, 10.0, low.SuggestedOrderQuantity)
}

func TestPlanInvariantsHoldAcrossInputs(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxOrderQuantity = 250
	planner := NewReorderPlanner(policy)

	trends := []domain.TrendDirection{domain.TrendIncreasing, domain.TrendDecreasing, domain.TrendStable}
	for _, v := range []float64{0, 0.3, 1, 5.2, 17.5, 80, 1e4} {
		for _, vol := range []float64{0, 0.1, 3, 40, 900} {
			for _, trend := range trends {
				s, err := planner.Plan(profileOf("SKU", v, vol, trend))
				require.NoError(t, err)
				s = Enrich(s)

				assert.InDelta(t, s.LeadTimeDemand+s.SafetyStock, s.ReorderPoint, 1e-9)
				assert.GreaterOrEqual(t, s.SuggestedOrderQuantity, policy.MinOrderQuantity)
				assert.LessOrEqual(t, s.SuggestedOrderQuantity, policy.MaxOrderQuantity)
				assert.GreaterOrEqual(t, s.PriorityScore, 0.0)
				assert.LessOrEqual(t, s.PriorityScore, 100.0)
				assert.Equal(t, v > 0, s.DaysOfSupply != nil)
			}
		}
	}
}

func TestPlannerValidate(t *testing.T) {
	planner := &ReorderPlanner{LeadTimeDays: 7, SafetyStockFactor: 1.5, MinOrderQuantity: 100, MaxOrderQuantity: 10}

	_, err := planner.Plan(profileOf("SKU-1", 5, 1, domain.TrendStable))
	require.Error(t, err)
	assert.True(t, domain.IsConfigError(err))
}

package replenishment

import (
	"math"

	"github.com/andresuchdata/demandflow/internal/domain"
)

const (
	maxVelocityPoints = 50
	velocityWeight    = 10
	minPriorityScore  = 0
	maxPriorityScore  = 100
)

var trendAdjustments = map[domain.TrendDirection]float64{
	domain.TrendIncreasing: 20,
	domain.TrendDecreasing: -10,
	domain.TrendStable:     0,
}

var urgencyAdjustments = map[domain.Urgency]float64{
	domain.UrgencyHigh:   30,
	domain.UrgencyNormal: 10,
	domain.UrgencyLow:    0,
}

// PriorityScore returns a score in [0, 100]. Non-positive velocity contributes nothing.
func PriorityScore(avgVelocity float64, trend domain.TrendDirection, urgency domain.Urgency) float64 {
	velocityPoints := 0.0
	if avgVelocity > 0 {
		velocityPoints = math.Min(avgVelocity*velocityWeight, maxVelocityPoints)
	}

	score := velocityPoints + trendAdjustments[trend] + urgencyAdjustments[urgency]
	return clamp(score, minPriorityScore, maxPriorityScore)
}

// ClassifyRisk maps urgency and trend to a stockout risk label.
func ClassifyRisk(urgency domain.Urgency, trend domain.TrendDirection) domain.RiskLevel {
	switch {
	case urgency == domain.UrgencyHigh && trend == domain.TrendIncreasing:
		return domain.RiskHigh
	case urgency == domain.UrgencyLow && trend == domain.TrendDecreasing:
		return domain.RiskLow
	default:
		return domain.RiskMedium
	}
}

// Action texts.
const (
	ActionImmediate = "Immediate Order Required"
	ActionTwoDays   = "Order Within 2 Days"
	ActionThisWeek  = "Order This Week"
	ActionMonitor   = "Monitor Closely"

	TimingToday      = "Today"
	TimingTwoDays    = "Within 2 days"
	TimingWithinWeek = "Within 1 week"
)

func PlanAction(urgency domain.Urgency, score float64) string {
	switch {
	case urgency == domain.UrgencyHigh:
		return ActionImmediate
	case score > 70:
		return ActionTwoDays
	case score > 40:
		return ActionThisWeek
	default:
		return ActionMonitor
	}
}

func OrderTiming(urgency domain.Urgency, trend domain.TrendDirection) string {
	switch {
	case urgency == domain.UrgencyHigh:
		return TimingToday
	case trend == domain.TrendIncreasing:
		return TimingTwoDays
	default:
		return TimingWithinWeek
	}
}

// Enrich returns a copy of the suggestion with score, risk, action and timing filled in.
func Enrich(s domain.ReorderSuggestion) domain.ReorderSuggestion {
	s.PriorityScore = PriorityScore(s.AvgDailyVelocity, s.TrendDirection, s.Urgency)
	s.RiskLevel = ClassifyRisk(s.Urgency, s.TrendDirection)
	s.ActionRequired = PlanAction(s.Urgency, s.PriorityScore)
	s.OptimalOrderTiming = OrderTiming(s.Urgency, s.TrendDirection)
	return s
}

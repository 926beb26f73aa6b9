package replenishment

import (
	"fmt"
	"math"

	"github.com/andresuchdata/demandflow/internal/domain"
)

const (
	// Days of average demand covered by a base order.
	orderCoverDays = 14

	volatileRatio        = 0.5
	increasingMultiplier = 1.3
	decreasingMultiplier = 0.8
)

// ReorderPlanner computes reorder point, safety stock and order quantity for a profile.
type ReorderPlanner struct {
	LeadTimeDays      int
	SafetyStockFactor float64
	MinOrderQuantity  float64
	MaxOrderQuantity  float64
}

func NewReorderPlanner(policy Policy) *ReorderPlanner {
	return &ReorderPlanner{
		LeadTimeDays:      policy.LeadTimeDays,
		SafetyStockFactor: policy.SafetyStockFactor,
		MinOrderQuantity:  policy.MinOrderQuantity,
		MaxOrderQuantity:  policy.MaxOrderQuantity,
	}
}

// Validate checks the subset of policy the planner depends on.
func (p *ReorderPlanner) Validate() error {
	switch {
	case p.LeadTimeDays < 0:
		return &domain.ConfigError{Field: "lead_time_days", Reason: "must not be negative"}
	case p.SafetyStockFactor < 0 || !isFinite(p.SafetyStockFactor):
		return &domain.ConfigError{Field: "safety_stock_factor", Reason: "must be a finite, non-negative number"}
	case p.MinOrderQuantity <= 0 || !isFinite(p.MinOrderQuantity):
		return &domain.ConfigError{Field: "min_order_quantity", Reason: "must be greater than 0"}
	case p.MaxOrderQuantity < p.MinOrderQuantity || !isFinite(p.MaxOrderQuantity):
		return &domain.ConfigError{Field: "max_order_quantity", Reason: "must be >= min_order_quantity"}
	}
	return nil
}

// LeadTimeDemand is the expected demand while an order is in transit.
func (p *ReorderPlanner) LeadTimeDemand(avgVelocity float64) float64 {
	return avgVelocity * float64(p.LeadTimeDays)
}

// SafetyStock scales volatility by the safety factor and the square root of lead time.
func (p *ReorderPlanner) SafetyStock(volatility float64) float64 {
	if p.LeadTimeDays == 0 {
		return 0
	}
	return volatility * p.SafetyStockFactor * math.Sqrt(float64(p.LeadTimeDays))
}

// Plan returns the base suggestion for a profile. Scoring, risk and action fields are left
// zero; Enrich fills them.
func (p *ReorderPlanner) Plan(profile domain.VelocityProfile) (domain.ReorderSuggestion, error) {
	if err := p.Validate(); err != nil {
		return domain.ReorderSuggestion{}, err
	}

	v := profile.AvgDailyVelocity
	leadTimeDemand := p.LeadTimeDemand(v)
	safetyStock := p.SafetyStock(profile.Volatility)

	quantity := math.Max(v*orderCoverDays, p.MinOrderQuantity)
	urgency := domain.UrgencyNormal

	switch {
	case profile.TrendDirection == domain.TrendIncreasing && profile.Volatility > v*volatileRatio:
		urgency = domain.UrgencyHigh
		quantity *= increasingMultiplier
	case profile.TrendDirection == domain.TrendDecreasing:
		urgency = domain.UrgencyLow
		quantity *= decreasingMultiplier
	}

	quantity = clamp(quantity, p.MinOrderQuantity, p.MaxOrderQuantity)

	var daysOfSupply *float64
	if v > 0 {
		d := quantity / v
		daysOfSupply = &d
	}

	return domain.ReorderSuggestion{
		ProductID:              profile.ProductID,
		ReorderPoint:           leadTimeDemand + safetyStock,
		SuggestedOrderQuantity: quantity,
		LeadTimeDemand:         leadTimeDemand,
		SafetyStock:            safetyStock,
		AvgDailyVelocity:       v,
		TrendDirection:         profile.TrendDirection,
		Urgency:                urgency,
		DaysOfSupply:           daysOfSupply,
		Recommendation:         recommendation(profile.ProductID, profile.TrendDirection, v, quantity, daysOfSupply),
	}, nil
}

func recommendation(productID string, trend domain.TrendDirection, velocity, quantity float64, daysOfSupply *float64) string {
	if velocity <= 0 || daysOfSupply == nil {
		return fmt.Sprintf("Monitor %s - very low demand predicted.", productID)
	}

	switch trend {
	case domain.TrendIncreasing:
		return fmt.Sprintf("Order %.0f units before Friday to avoid stockout. Demand is increasing.", quantity)
	case domain.TrendDecreasing:
		return fmt.Sprintf("Consider ordering %.0f units. Demand is decreasing, monitor closely.", quantity)
	default:
		return fmt.Sprintf("Order %.0f units to maintain %.1f days of supply.", quantity, *daysOfSupply)
	}
}

package replenishment

import (
	"sort"
	"time"

	"github.com/andresuchdata/demandflow/internal/domain"
)

// DefaultTopPriorityLimit is the length of the top-priority list when no limit is given.
const DefaultTopPriorityLimit = 5

// DashboardAggregator reduces finalized analyses into a DashboardSnapshot.
// Ties in both ranked lists break on product id ascending.
type DashboardAggregator struct {
	topLimit int
	now      func() time.Time
}

func NewDashboardAggregator(topLimit int) *DashboardAggregator {
	if topLimit < 1 {
		topLimit = DefaultTopPriorityLimit
	}
	return &DashboardAggregator{topLimit: topLimit, now: time.Now}
}

// WithClock overrides the snapshot timestamp source.
func (d *DashboardAggregator) WithClock(now func() time.Time) *DashboardAggregator {
	d.now = now
	return d
}

func (d *DashboardAggregator) Aggregate(analyses []domain.ProductAnalysis) domain.DashboardSnapshot {
	snapshot := domain.DashboardSnapshot{
		Timestamp:           d.now().UTC(),
		Summary:             domain.DashboardSummary{TotalProducts: len(analyses)},
		TopPriorityProducts: []domain.PriorityProduct{},
		VelocityTrends:      make(map[string]domain.VelocityTrend, len(analyses)),
		ReorderAlerts:       []domain.ReorderAlert{},
	}

	suggestions := make([]domain.ReorderSuggestion, 0, len(analyses))
	for _, a := range analyses {
		s := a.Suggestion
		suggestions = append(suggestions, s)

		switch s.Urgency {
		case domain.UrgencyHigh:
			snapshot.Summary.HighPriorityAlerts++
		case domain.UrgencyNormal:
			snapshot.Summary.MediumPriorityAlerts++
		case domain.UrgencyLow:
			snapshot.Summary.LowPriorityAlerts++
		}

		snapshot.VelocityTrends[s.ProductID] = domain.VelocityTrend{
			CurrentVelocity: a.Profile.AvgDailyVelocity,
			TrendDirection:  a.Profile.TrendDirection,
			Next7Days:       a.Profile.Next7Days,
		}
	}

	for _, s := range TopPriority(suggestions, d.topLimit) {
		snapshot.TopPriorityProducts = append(snapshot.TopPriorityProducts, domain.PriorityProduct{
			Product:        s.ProductID,
			PriorityScore:  s.PriorityScore,
			Urgency:        s.Urgency,
			Recommendation: s.Recommendation,
			Trend:          s.TrendDirection,
		})
	}

	for _, s := range ReorderAlerts(suggestions) {
		snapshot.ReorderAlerts = append(snapshot.ReorderAlerts, domain.ReorderAlert{
			Product:   s.ProductID,
			Urgency:   s.Urgency,
			Action:    s.ActionRequired,
			Timing:    s.OptimalOrderTiming,
			Quantity:  s.SuggestedOrderQuantity,
			RiskLevel: s.RiskLevel,
		})
	}

	return snapshot
}

// TopPriority returns up to limit suggestions ordered by score descending, then product id.
func TopPriority(suggestions []domain.ReorderSuggestion, limit int) []domain.ReorderSuggestion {
	ranked := make([]domain.ReorderSuggestion, len(suggestions))
	copy(ranked, suggestions)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].PriorityScore != ranked[j].PriorityScore {
			return ranked[i].PriorityScore > ranked[j].PriorityScore
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ReorderAlerts keeps High and Normal urgency suggestions, ordered by urgency rank
// descending, then product id.
func ReorderAlerts(suggestions []domain.ReorderSuggestion) []domain.ReorderSuggestion {
	alerts := make([]domain.ReorderSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Urgency.IsAlert() {
			alerts = append(alerts, s)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := alerts[i].Urgency.Rank(), alerts[j].Urgency.Rank()
		if ri != rj {
			return ri > rj
		}
		return alerts[i].ProductID < alerts[j].ProductID
	})
	return alerts
}

package domain

import "time"

// DashboardSummary counts suggestions per urgency bucket.
type DashboardSummary struct {
	TotalProducts        int `json:"total_products"`
	HighPriorityAlerts   int `json:"high_priority_alerts"`
	MediumPriorityAlerts int `json:"medium_priority_alerts"`
	LowPriorityAlerts    int `json:"low_priority_alerts"`
}

// PriorityProduct is one row of the top-priority list.
type PriorityProduct struct {
	Product        string         `json:"product"`
	PriorityScore  float64        `json:"priority_score"`
	Urgency        Urgency        `json:"urgency"`
	Recommendation string         `json:"recommendation"`
	Trend          TrendDirection `json:"trend"`
}

// VelocityTrend is the per-product entry of the velocity trend map.
type VelocityTrend struct {
	CurrentVelocity float64        `json:"current_velocity"`
	TrendDirection  TrendDirection `json:"trend_direction"`
	Next7Days       []float64      `json:"next_7_days"`
}

// ReorderAlert is one row of the reorder alert list.
type ReorderAlert struct {
	Product   string    `json:"product"`
	Urgency   Urgency   `json:"urgency"`
	Action    string    `json:"action"`
	Timing    string    `json:"timing"`
	Quantity  float64   `json:"quantity"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// DashboardSnapshot is the ranked, filtered view over a run's suggestions.
// It is recomputed on demand and never stored as source of truth.
type DashboardSnapshot struct {
	Timestamp           time.Time                `json:"timestamp"`
	Summary             DashboardSummary         `json:"summary"`
	TopPriorityProducts []PriorityProduct        `json:"top_priority_products"`
	VelocityTrends      map[string]VelocityTrend `json:"velocity_trends"`
	ReorderAlerts       []ReorderAlert           `json:"reorder_alerts"`
}

// AnalysisSummary is the run-level overview included in reports.
type AnalysisSummary struct {
	TotalProducts        int                  `json:"total_products"`
	SkippedProducts      int                  `json:"skipped_products"`
	HighPriorityProducts int                  `json:"high_priority_products"`
	ForecastHorizonDays  int                  `json:"total_forecast_horizon"`
	GradedProducts       int                  `json:"graded_products"`
	AverageMAPE          float64              `json:"average_mape"`
	ModelQuality         map[ModelQuality]int `json:"model_quality"`
}

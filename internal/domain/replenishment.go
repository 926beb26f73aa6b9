package domain

// TrendDirection classifies the signed change of the forecast trend component.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "Increasing"
	TrendDecreasing TrendDirection = "Decreasing"
	TrendStable     TrendDirection = "Stable"
)

// Urgency is the categorical replenishment priority.
type Urgency string

const (
	UrgencyHigh   Urgency = "High"
	UrgencyNormal Urgency = "Normal"
	UrgencyLow    Urgency = "Low"
)

var urgencyRanks = map[Urgency]int{
	UrgencyHigh:   3,
	UrgencyNormal: 2,
	UrgencyLow:    1,
}

// Rank orders urgencies for alert sorting. Unknown values rank 0.
func (u Urgency) Rank() int {
	return urgencyRanks[u]
}

// IsAlert reports whether the urgency should surface as a reorder alert.
func (u Urgency) IsAlert() bool {
	return u == UrgencyHigh || u == UrgencyNormal
}

// RiskLevel is the stockout risk label.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High Risk"
	RiskMedium RiskLevel = "Medium Risk"
	RiskLow    RiskLevel = "Low Risk"
)

// ModelQuality grades forecast accuracy from MAPE.
type ModelQuality string

const (
	QualityGood ModelQuality = "Good"
	QualityFair ModelQuality = "Fair"
	QualityPoor ModelQuality = "Poor"
)

// VelocityProfile is the compact per-product summary of a forecast horizon.
// It is built once per analysis cycle and never mutated.
type VelocityProfile struct {
	ProductID        string         `json:"product_id"`
	AvgDailyVelocity float64        `json:"avg_daily_velocity"`
	VelocityTrend    float64        `json:"velocity_trend"`
	TrendDirection   TrendDirection `json:"trend_direction"`
	PeakDayVelocity  float64        `json:"peak_day_velocity"`
	MinDayVelocity   float64        `json:"min_day_velocity"`
	Volatility       float64        `json:"velocity_volatility"`
	ConfidenceLower  float64        `json:"confidence_lower"`
	ConfidenceUpper  float64        `json:"confidence_upper"`
	Next7Days        []float64      `json:"next_7_days"`
	Next30Days       []float64      `json:"next_30_days"`
	HorizonDays      int            `json:"horizon_days"`
}

// ReorderSuggestion is the fully enriched replenishment decision for a product.
type ReorderSuggestion struct {
	ProductID              string         `json:"product_id" db:"product_id"`
	ReorderPoint           float64        `json:"reorder_point" db:"reorder_point"`
	SuggestedOrderQuantity float64        `json:"suggested_order_quantity" db:"suggested_order_quantity"`
	LeadTimeDemand         float64        `json:"lead_time_demand" db:"lead_time_demand"`
	SafetyStock            float64        `json:"safety_stock" db:"safety_stock"`
	AvgDailyVelocity       float64        `json:"avg_daily_velocity" db:"avg_daily_velocity"`
	TrendDirection         TrendDirection `json:"trend_direction" db:"trend_direction"`
	Urgency                Urgency        `json:"urgency" db:"urgency"`
	DaysOfSupply           *float64       `json:"days_of_supply,omitempty" db:"days_of_supply"`
	Recommendation         string         `json:"recommendation" db:"recommendation"`
	PriorityScore          float64        `json:"priority_score" db:"priority_score"`
	RiskLevel              RiskLevel      `json:"risk_level" db:"risk_level"`
	ActionRequired         string         `json:"action_required" db:"action_required"`
	OptimalOrderTiming     string         `json:"optimal_order_timing" db:"optimal_order_timing"`
}

// PerformanceRecord grades a product's forecast against recent actuals.
type PerformanceRecord struct {
	ProductID            string       `json:"product_id" db:"product_id"`
	ActualAvgVelocity    float64      `json:"actual_avg_velocity" db:"actual_avg_velocity"`
	PredictedAvgVelocity float64      `json:"predicted_avg_velocity" db:"predicted_avg_velocity"`
	MAPE                 float64      `json:"mape" db:"mape"`
	ModelQuality         ModelQuality `json:"model_quality" db:"model_quality"`
}

// ProductAnalysis bundles the derived records for one product in a run.
type ProductAnalysis struct {
	Profile     VelocityProfile    `json:"profile"`
	Suggestion  ReorderSuggestion  `json:"suggestion"`
	Performance *PerformanceRecord `json:"performance,omitempty"`
}

// SkippedProduct records why a product was excluded from part of a run.
type SkippedProduct struct {
	ProductID string `json:"product_id" db:"product_id"`
	Stage     string `json:"stage" db:"stage"`
	Reason    string `json:"reason" db:"reason"`
}

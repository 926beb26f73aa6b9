package replenishment

import (
	"fmt"
	"math"

	"github.com/andresuchdata/demandflow/internal/config"
	"github.com/andresuchdata/demandflow/internal/domain"
)

// Policy is the immutable replenishment configuration shared by every product in a run.
type Policy struct {
	ForecastHorizonDays  int     `json:"forecast_horizon_days"`
	LeadTimeDays         int     `json:"lead_time_days"`
	SafetyStockFactor    float64 `json:"safety_stock_factor"`
	MinOrderQuantity     float64 `json:"min_order_quantity"`
	MaxOrderQuantity     float64 `json:"max_order_quantity"`
	// ConfidenceLevel is validated and recorded on each run; the forecast
	// bounds already encode the interval, so no stage reads it.
	ConfidenceLevel      float64 `json:"confidence_level"`
	TrendThreshold       float64 `json:"trend_threshold"`
	TopPriorityLimit     int     `json:"top_priority_limit"`
	PerformanceWindow    int     `json:"performance_window"`
	// ReorderThresholdDays is validated and recorded on each run for
	// downstream consumers. Urgency bands are fixed and do not read it.
	ReorderThresholdDays int     `json:"reorder_threshold_days"`
}

// DefaultPolicy returns the stock replenishment defaults.
func DefaultPolicy() Policy {
	return Policy{
		ForecastHorizonDays:  30,
		LeadTimeDays:         7,
		SafetyStockFactor:    1.5,
		MinOrderQuantity:     10,
		MaxOrderQuantity:     1000,
		ConfidenceLevel:      0.95,
		TrendThreshold:       DefaultTrendThreshold,
		TopPriorityLimit:     5,
		PerformanceWindow:    14,
		ReorderThresholdDays: 3,
	}
}

// PolicyFromConfig maps the environment-backed engine config onto a Policy.
func PolicyFromConfig(cfg config.EngineConfig) Policy {
	return Policy{
		ForecastHorizonDays:  cfg.ForecastHorizonDays,
		LeadTimeDays:         cfg.LeadTimeDays,
		SafetyStockFactor:    cfg.SafetyStockFactor,
		MinOrderQuantity:     cfg.MinOrderQuantity,
		MaxOrderQuantity:     cfg.MaxOrderQuantity,
		ConfidenceLevel:      cfg.ConfidenceLevel,
		TrendThreshold:       cfg.TrendThreshold,
		TopPriorityLimit:     cfg.TopPriorityLimit,
		PerformanceWindow:    cfg.PerformanceWindow,
		ReorderThresholdDays: cfg.ReorderThresholdDays,
	}
}

// Validate returns a *domain.ConfigError for the first invalid field.
func (p Policy) Validate() error {
	floats := []struct {
		field string
		value float64
	}{
		{"safety_stock_factor", p.SafetyStockFactor},
		{"min_order_quantity", p.MinOrderQuantity},
		{"max_order_quantity", p.MaxOrderQuantity},
		{"confidence_level", p.ConfidenceLevel},
		{"trend_threshold", p.TrendThreshold},
	}
	for _, f := range floats {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &domain.ConfigError{Field: f.field, Reason: "must be a finite number"}
		}
	}

	switch {
	case p.ForecastHorizonDays < 1:
		return &domain.ConfigError{Field: "forecast_horizon_days", Reason: "must be at least 1"}
	case p.LeadTimeDays < 0:
		return &domain.ConfigError{Field: "lead_time_days", Reason: "must not be negative"}
	case p.SafetyStockFactor < 0:
		return &domain.ConfigError{Field: "safety_stock_factor", Reason: "must not be negative"}
	case p.MinOrderQuantity <= 0:
		return &domain.ConfigError{Field: "min_order_quantity", Reason: "must be greater than 0"}
	case p.MaxOrderQuantity < p.MinOrderQuantity:
		return &domain.ConfigError{
			Field:  "max_order_quantity",
			Reason: fmt.Sprintf("must be >= min_order_quantity (%g)", p.MinOrderQuantity),
		}
	case p.ConfidenceLevel <= 0 || p.ConfidenceLevel >= 1:
		return &domain.ConfigError{Field: "confidence_level", Reason: "must be between 0 and 1 (exclusive)"}
	case p.TrendThreshold < 0:
		return &domain.ConfigError{Field: "trend_threshold", Reason: "must not be negative"}
	case p.TopPriorityLimit < 1:
		return &domain.ConfigError{Field: "top_priority_limit", Reason: "must be at least 1"}
	case p.PerformanceWindow < 1:
		return &domain.ConfigError{Field: "performance_window", Reason: "must be at least 1"}
	case p.ReorderThresholdDays < 0:
		return &domain.ConfigError{Field: "reorder_threshold_days", Reason: "must not be negative"}
	}

	return nil
}

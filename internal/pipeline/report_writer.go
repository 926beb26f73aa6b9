package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandflow/internal/domain"
)

// ReportUploader publishes a written report file. Object storage implements it.
type ReportUploader interface {
	UploadFile(ctx context.Context, objectKey, localPath, contentType string) error
}

// ReportWriter renders a RunResult into the output directory and optionally uploads
// every file under <prefix>/<date>/.
type ReportWriter struct {
	outputDir string
	uploader  ReportUploader
	prefix    string
}

// NewReportWriter creates a writer. uploader may be nil.
func NewReportWriter(outputDir string, uploader ReportUploader, prefix string) *ReportWriter {
	return &ReportWriter{outputDir: outputDir, uploader: uploader, prefix: prefix}
}

// Report is the comprehensive JSON document for a run.
type Report struct {
	GeneratedAt        time.Time                  `json:"generated_at"`
	RunID              string                     `json:"run_id"`
	Summary            domain.AnalysisSummary     `json:"analysis_summary"`
	VelocityProfiles   []domain.VelocityProfile   `json:"velocity_profiles"`
	ReorderSuggestions []domain.ReorderSuggestion `json:"reorder_suggestions"`
	PerformanceMetrics []domain.PerformanceRecord `json:"performance_metrics"`
	SkippedProducts    []domain.SkippedProduct    `json:"skipped_products"`
	Dashboard          domain.DashboardSnapshot   `json:"dashboard"`
}

// NewReport assembles the comprehensive report from a run.
func NewReport(result *RunResult) Report {
	return Report{
		GeneratedAt:        result.CompletedAt,
		RunID:              result.RunID,
		Summary:            result.Summary,
		VelocityProfiles:   result.Profiles(),
		ReorderSuggestions: result.Suggestions(),
		PerformanceMetrics: result.Performance,
		SkippedProducts:    result.Skipped,
		Dashboard:          result.Dashboard,
	}
}

// Write writes the suggestions CSV, the dashboard JSON and the comprehensive report,
// returning the local paths in that order.
func (w *ReportWriter) Write(ctx context.Context, result *RunResult) ([]string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stem := result.CompletedAt.Format("20060102") + "_" + shortRunID(result.RunID)
	suggestionsPath := filepath.Join(w.outputDir, "suggestions_"+stem+".csv")
	dashboardPath := filepath.Join(w.outputDir, "dashboard_"+stem+".json")
	reportPath := filepath.Join(w.outputDir, "report_"+stem+".json")

	if err := writeSuggestionsCSV(suggestionsPath, result.Suggestions()); err != nil {
		return nil, fmt.Errorf("failed to write suggestions CSV: %w", err)
	}
	if err := writeJSON(dashboardPath, result.Dashboard); err != nil {
		return nil, fmt.Errorf("failed to write dashboard: %w", err)
	}
	if err := writeJSON(reportPath, NewReport(result)); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	paths := []string{suggestionsPath, dashboardPath, reportPath}
	log.Info().
		Str("run_id", result.RunID).
		Str("output_dir", w.outputDir).
		Int("suggestions", len(result.Analyses)).
		Msg("reports written")

	if w.uploader == nil {
		return paths, nil
	}

	folder := result.CompletedAt.Format("2006-01-02")
	for _, p := range paths {
		key := filepath.ToSlash(filepath.Join(w.prefix, folder, filepath.Base(p)))
		if err := w.uploader.UploadFile(ctx, key, p, contentType(p)); err != nil {
			return paths, fmt.Errorf("upload %s: %w", key, err)
		}
		log.Info().Str("run_id", result.RunID).Str("object_key", key).Msg("report uploaded")
	}

	return paths, nil
}

var suggestionHeaders = []string{
	"product_id", "urgency", "priority_score", "risk_level", "action_required",
	"optimal_order_timing", "suggested_order_quantity", "reorder_point", "lead_time_demand",
	"safety_stock", "avg_daily_velocity", "trend_direction", "days_of_supply", "recommendation",
}

func writeSuggestionsCSV(path string, suggestions []domain.ReorderSuggestion) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(suggestionHeaders); err != nil {
		return err
	}

	for _, s := range suggestions {
		daysOfSupply := ""
		if s.DaysOfSupply != nil {
			daysOfSupply = formatFloat(*s.DaysOfSupply, 1)
		}
		record := []string{
			s.ProductID,
			string(s.Urgency),
			formatFloat(s.PriorityScore, 1),
			string(s.RiskLevel),
			s.ActionRequired,
			s.OptimalOrderTiming,
			formatFloat(s.SuggestedOrderQuantity, 0),
			formatFloat(s.ReorderPoint, 2),
			formatFloat(s.LeadTimeDemand, 2),
			formatFloat(s.SafetyStock, 2),
			formatFloat(s.AvgDailyVelocity, 2),
			string(s.TrendDirection),
			daysOfSupply,
			s.Recommendation,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// shortRunID keeps same-day runs from overwriting each other's files.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "norun"
	}
	return id
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func contentType(path string) string {
	switch filepath.Ext(path) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

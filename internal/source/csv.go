// Package source loads forecast and demand history series from tabular exports.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandflow/internal/domain"
)

var (
	productColumns  = []string{"product", "product_id", "product line", "product_line", "sku"}
	dateColumns     = []string{"date", "ds", "forecast_date", "demand_date"}
	estimateColumns = []string{"yhat", "point_estimate", "forecast", "predicted"}
	lowerColumns    = []string{"yhat_lower", "lower_bound", "lower"}
	upperColumns    = []string{"yhat_upper", "upper_bound", "upper"}
	trendColumns    = []string{"trend", "trend_value"}
	quantityColumns = []string{"quantity", "actual_demand", "demand", "y", "qty"}
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(strings.TrimPrefix(name, "\ufeff")))
	return columnNameSanitizer.Replace(name)
}

type table struct {
	header []string
	reader *csv.Reader
	line   int
}

func newTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, err
	}
	return &table{header: header, reader: reader, line: 1}, nil
}

func (t *table) colIndex(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

func (t *table) require(kind string, names ...string) (int, error) {
	idx := t.colIndex(names...)
	if idx < 0 {
		return -1, fmt.Errorf("%s column not found (accepted: %s)", kind, strings.Join(names, ", "))
	}
	return idx, nil
}

// next returns the next record or io.EOF.
func (t *table) next() ([]string, error) {
	record, err := t.reader.Read()
	if err != nil {
		return nil, err
	}
	t.line++
	return record, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseNumber returns fallback for an empty cell and NaN for an unparsable one, so a
// bad value isolates its product instead of failing the file.
func parseNumber(v string, fallback float64) float64 {
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ReadForecasts parses forecast rows and groups them by product, ordered by date.
// A later row for the same product and date replaces the earlier one.
func ReadForecasts(r io.Reader) ([]domain.ForecastSeries, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, fmt.Errorf("read forecast header: %w", err)
	}

	idxProduct, err := t.require("product", productColumns...)
	if err != nil {
		return nil, err
	}
	idxDate, err := t.require("date", dateColumns...)
	if err != nil {
		return nil, err
	}
	idxEstimate, err := t.require("point estimate", estimateColumns...)
	if err != nil {
		return nil, err
	}
	idxLower := t.colIndex(lowerColumns...)
	idxUpper := t.colIndex(upperColumns...)
	idxTrend := t.colIndex(trendColumns...)

	byProduct := make(map[string]map[time.Time]domain.ForecastPoint)
	for {
		record, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", t.line+1, err)
		}

		product := field(record, idxProduct)
		if product == "" {
			continue
		}
		date, err := domain.ParseDate(field(record, idxDate))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", t.line, err)
		}

		estimate := parseNumber(field(record, idxEstimate), math.NaN())
		point := domain.ForecastPoint{
			Date:          date,
			PointEstimate: estimate,
			LowerBound:    parseNumber(field(record, idxLower), estimate),
			UpperBound:    parseNumber(field(record, idxUpper), estimate),
			TrendValue:    parseNumber(field(record, idxTrend), 0),
		}

		if byProduct[product] == nil {
			byProduct[product] = make(map[time.Time]domain.ForecastPoint)
		}
		byProduct[product][date] = point
	}

	series := make([]domain.ForecastSeries, 0, len(byProduct))
	for _, product := range sortedKeys(byProduct) {
		points := make([]domain.ForecastPoint, 0, len(byProduct[product]))
		for _, p := range byProduct[product] {
			points = append(points, p)
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		series = append(series, domain.ForecastSeries{
			ProductID:   product,
			HorizonDays: len(points),
			Points:      points,
		})
	}

	return series, nil
}

// ReadHistory parses demand rows, summing quantities per product and day.
// Raw transaction exports with several rows per day collapse into daily demand.
func ReadHistory(r io.Reader) ([]domain.HistoricalSeries, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, fmt.Errorf("read history header: %w", err)
	}

	idxProduct, err := t.require("product", productColumns...)
	if err != nil {
		return nil, err
	}
	idxDate, err := t.require("date", dateColumns...)
	if err != nil {
		return nil, err
	}
	idxQuantity, err := t.require("quantity", quantityColumns...)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]map[time.Time]float64)
	for {
		record, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", t.line+1, err)
		}

		product := field(record, idxProduct)
		if product == "" {
			continue
		}
		date, err := domain.ParseDate(field(record, idxDate))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", t.line, err)
		}

		if byProduct[product] == nil {
			byProduct[product] = make(map[time.Time]float64)
		}
		byProduct[product][date] += parseNumber(field(record, idxQuantity), 0)
	}

	series := make([]domain.HistoricalSeries, 0, len(byProduct))
	for _, product := range sortedKeys(byProduct) {
		points := make([]domain.DemandPoint, 0, len(byProduct[product]))
		for date, qty := range byProduct[product] {
			points = append(points, domain.DemandPoint{Date: date, ActualDemand: qty})
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		series = append(series, domain.HistoricalSeries{ProductID: product, Points: points})
	}

	return series, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadForecastFile reads a forecast CSV or XLSX file from disk.
func LoadForecastFile(path string) ([]domain.ForecastSeries, error) {
	r, closeFn, err := openTabular(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	series, err := ReadForecasts(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

// LoadHistoryFile reads a demand history CSV or XLSX file from disk.
func LoadHistoryFile(path string) ([]domain.HistoricalSeries, error) {
	r, closeFn, err := openTabular(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	series, err := ReadHistory(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

func isTabular(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".csv" || ext == ".xlsx"
}

// openTabular opens a CSV file as is, or an XLSX file as the CSV of its first sheet.
func openTabular(path string) (io.Reader, func(), error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		r, err := openXLSX(path)
		return r, func() {}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// Bundle is the set of series loaded from a directory.
type Bundle struct {
	Forecasts []domain.ForecastSeries
	History   []domain.HistoricalSeries
	Files     []string
}

// LoadDir reads every CSV or XLSX file in dir. Files whose name starts with "forecast" are forecasts;
// files starting with "history", "sales" or "demand" are history. Others are ignored.
func LoadDir(dir string) (*Bundle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	bundle := &Bundle{}
	for _, entry := range entries {
		if entry.IsDir() || !isTabular(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		name := strings.ToLower(entry.Name())

		switch {
		case strings.HasPrefix(name, "forecast"):
			series, err := LoadForecastFile(path)
			if err != nil {
				return nil, err
			}
			bundle.Forecasts = append(bundle.Forecasts, series...)
		case strings.HasPrefix(name, "history"), strings.HasPrefix(name, "sales"), strings.HasPrefix(name, "demand"):
			series, err := LoadHistoryFile(path)
			if err != nil {
				return nil, err
			}
			bundle.History = append(bundle.History, series...)
		default:
			log.Debug().Str("file", path).Msg("ignoring unrecognised file")
			continue
		}
		bundle.Files = append(bundle.Files, path)
	}

	log.Info().
		Str("dir", dir).
		Int("files", len(bundle.Files)).
		Int("forecast_series", len(bundle.Forecasts)).
		Int("history_series", len(bundle.History)).
		Msg("loaded series from directory")

	return bundle, nil
}

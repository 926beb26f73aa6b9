package source

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forecastCSV = `Product,ds,yhat,yhat_lower,yhat_upper,trend
Food and beverages,2025-01-02,6,4,8,1.2
Food and beverages,2025-01-01,5,3,7,1.0
Health and beauty,2025-01-01,2.5,,,
`

func TestReadForecastsGroupsAndSorts(t *testing.T) {
	series, err := ReadForecasts(strings.NewReader(forecastCSV))
	require.NoError(t, err)
	require.Len(t, series, 2)

	food := series[0]
	assert.Equal(t, "Food and beverages", food.ProductID)
	assert.Equal(t, 2, food.HorizonDays)
	require.Len(t, food.Points, 2)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), food.Points[0].Date)
	assert.Equal(t, 5.0, food.Points[0].PointEstimate)
	assert.Equal(t, 3.0, food.Points[0].LowerBound)
	assert.Equal(t, 7.0, food.Points[0].UpperBound)
	assert.Equal(t, 1.2, food.Points[1].TrendValue)

	health := series[1]
	require.Len(t, health.Points, 1)
	assert.Equal(t, 2.5, health.Points[0].LowerBound)
	assert.Equal(t, 2.5, health.Points[0].UpperBound)
	assert.Equal(t, 0.0, health.Points[0].TrendValue)
}

func TestReadForecastsHeaderAliases(t *testing.T) {
	csv := "Product ID,Forecast Date,Point Estimate,Lower Bound,Upper Bound,Trend Value\nA,01/15/2025,3,2,4,0.5\n"

	series, err := ReadForecasts(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), series[0].Points[0].Date)
	assert.Equal(t, 0.5, series[0].Points[0].TrendValue)
}

func TestReadForecastsUnparsableValueBecomesNaN(t *testing.T) {
	csv := "product,date,yhat\nA,2025-01-01,abc\n"

	series, err := ReadForecasts(strings.NewReader(csv))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(series[0].Points[0].PointEstimate))
}

func TestReadForecastsMissingColumn(t *testing.T) {
	_, err := ReadForecasts(strings.NewReader("product,date\nA,2025-01-01\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "point estimate column not found")
}

func TestReadForecastsBadDate(t *testing.T) {
	_, err := ReadForecasts(strings.NewReader("product,date,yhat\nA,yesterday,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadForecastsEmptyInput(t *testing.T) {
	_, err := ReadForecasts(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadHistorySumsPerDay(t *testing.T) {
	csv := `Invoice ID,Product line,Date,Quantity
1,Sports,1/5/2019,3
2,Sports,1/5/2019,4
3,Sports,1/6/2019,1
4,Home,1/5/2019,
`

	series, err := ReadHistory(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, "Home", series[0].ProductID)
	assert.Equal(t, 0.0, series[0].Points[0].ActualDemand)

	sports := series[1]
	require.Len(t, sports.Points, 2)
	assert.Equal(t, 7.0, sports.Points[0].ActualDemand)
	assert.Equal(t, 1.0, sports.Points[1].ActualDemand)
	assert.True(t, sports.Points[0].Date.Before(sports.Points[1].Date))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "forecast_2025.csv"), []byte(forecastCSV), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.csv"), []byte("product,date,quantity\nA,2025-01-01,4\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("x\n1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0644))

	bundle, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Len(t, bundle.Forecasts, 2)
	assert.Len(t, bundle.History, 1)
	assert.Len(t, bundle.Files, 2)
}

func TestNormalizeColumnName(t *testing.T) {
	assert.Equal(t, "productline", normalizeColumnName(" Product line "))
	assert.Equal(t, "yhatlower", normalizeColumnName("YHAT_LOWER"))
	assert.Equal(t, "product", normalizeColumnName("\ufeffproduct"))
}

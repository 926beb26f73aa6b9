package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	keys []string
	err  error
}

func (f *fakeUploader) UploadFile(_ context.Context, objectKey, localPath, contentType string) error {
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	f.keys = append(f.keys, objectKey+"|"+contentType)
	return f.err
}

func runSample(t *testing.T) *RunResult {
	t.Helper()
	result, err := NewOrchestrator(DefaultRunConfig(), nil).Run(context.Background(), sampleInput())
	require.NoError(t, err)
	return result
}

func TestReportWriterWritesFiles(t *testing.T) {
	result := runSample(t)
	dir := t.TempDir()

	paths, err := NewReportWriter(dir, nil, "").Write(context.Background(), result)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	stem := result.CompletedAt.Format("20060102") + "_" + result.RunID[:8]
	assert.Equal(t, filepath.Join(dir, "suggestions_"+stem+".csv"), paths[0])
	assert.Equal(t, filepath.Join(dir, "dashboard_"+stem+".json"), paths[1])
	assert.Equal(t, filepath.Join(dir, "report_"+stem+".json"), paths[2])

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, suggestionHeaders, records[0])
	assert.Equal(t, "doohickey", records[1][0])

	raw, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, result.RunID, report["run_id"])
	assert.Len(t, report["reorder_suggestions"], 3)
	assert.Len(t, report["skipped_products"], len(result.Skipped))
}

func TestReportWriterOmitsDaysOfSupplyForZeroVelocity(t *testing.T) {
	in := sampleInput()
	in.Forecasts = append(in.Forecasts, series("idle", []float64{0, 0, 0}, 0))

	result, err := NewOrchestrator(DefaultRunConfig(), nil).Run(context.Background(), in)
	require.NoError(t, err)

	paths, err := NewReportWriter(t.TempDir(), nil, "").Write(context.Background(), result)
	require.NoError(t, err)

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	var found bool
	for _, r := range records[1:] {
		if r[0] == "idle" {
			found = true
			assert.Equal(t, "", r[12])
			assert.Equal(t, "Monitor idle - very low demand predicted.", r[13])
		}
	}
	assert.True(t, found)
}

func TestReportWriterUploadsUnderDatedPrefix(t *testing.T) {
	result := runSample(t)
	uploader := &fakeUploader{}

	_, err := NewReportWriter(t.TempDir(), uploader, "reports").Write(context.Background(), result)
	require.NoError(t, err)

	folder := result.CompletedAt.Format("2006-01-02")
	stem := result.CompletedAt.Format("20060102") + "_" + result.RunID[:8]
	assert.Equal(t, []string{
		"reports/" + folder + "/suggestions_" + stem + ".csv|text/csv",
		"reports/" + folder + "/dashboard_" + stem + ".json|application/json",
		"reports/" + folder + "/report_" + stem + ".json|application/json",
	}, uploader.keys)
}

func TestReportWriterKeepsSameDayRunsApart(t *testing.T) {
	dir := t.TempDir()
	writer := NewReportWriter(dir, nil, "")

	first := runSample(t)
	second := runSample(t)
	second.CompletedAt = first.CompletedAt
	require.NotEqual(t, first.RunID[:8], second.RunID[:8])

	firstPaths, err := writer.Write(context.Background(), first)
	require.NoError(t, err)
	secondPaths, err := writer.Write(context.Background(), second)
	require.NoError(t, err)

	for i := range firstPaths {
		assert.NotEqual(t, firstPaths[i], secondPaths[i])
		assert.FileExists(t, firstPaths[i])
	}

	raw, err := os.ReadFile(firstPaths[2])
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, first.RunID, report.RunID)
}

func TestShortRunID(t *testing.T) {
	assert.Equal(t, "0f8fad5b", shortRunID("0f8fad5b-d9cb-469f-a165-70867728950e"))
	assert.Equal(t, "abc", shortRunID("abc"))
	assert.Equal(t, "norun", shortRunID(""))
}

func TestReportWriterSurfacesUploadErrors(t *testing.T) {
	result := runSample(t)
	uploader := &fakeUploader{err: errors.New("bucket missing")}

	paths, err := NewReportWriter(t.TempDir(), uploader, "reports").Write(context.Background(), result)

	require.Error(t, err)
	assert.Len(t, paths, 3)
}

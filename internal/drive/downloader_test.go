package drive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeDrive struct {
	files    []*File
	contents map[string][]byte
}

func (f *fakeDrive) ListFiles(context.Context, string) ([]*File, error) {
	return f.files, nil
}

func (f *fakeDrive) DownloadFile(_ context.Context, id string, w io.Writer) error {
	data, ok := f.contents[id]
	if !ok {
		return errors.New("not found")
	}
	_, err := w.Write(data)
	return err
}

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"product", "date", "quantity"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]any{"A", "2025-05-01", "3"}))
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDownloadFolderCSV(t *testing.T) {
	fake := &fakeDrive{
		files: []*File{
			{ID: "1", Name: "forecast.csv"},
			{ID: "2", Name: "history.xlsx"},
			{ID: "3", Name: "notes.pdf"},
		},
		contents: map[string][]byte{
			"1": []byte("product,date,yhat\nA,2025-05-01,4\n"),
			"2": workbookBytes(t),
		},
	}
	dir := t.TempDir()

	paths, err := NewDownloader(fake).DownloadFolderCSV(context.Background(), DownloadOptions{DownloadDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "forecast.csv"), filepath.Join(dir, "history.csv")}, paths)

	converted, err := os.ReadFile(filepath.Join(dir, "history.csv"))
	require.NoError(t, err)
	assert.Equal(t, "product,date,quantity\nA,2025-05-01,3\n", string(converted))

	_, err = os.Stat(filepath.Join(dir, "history.xlsx"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadFolderCSVRequiresDir(t *testing.T) {
	_, err := NewDownloader(&fakeDrive{}).DownloadFolderCSV(context.Background(), DownloadOptions{})
	assert.Error(t, err)
}

func TestDownloadFolderCSVFailsOnDownloadError(t *testing.T) {
	fake := &fakeDrive{files: []*File{{ID: "missing", Name: "forecast.csv"}}}

	_, err := NewDownloader(fake).DownloadFolderCSV(context.Background(), DownloadOptions{DownloadDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forecast.csv")
}

package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// WriteXLSXAsCSV writes the first sheet of an XLSX workbook to w as CSV.
// The sheet must start with a header row.
func WriteXLSXAsCSV(xlsxPath string, w io.Writer) error {
	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("failed to open xlsx file %s: %w", xlsxPath, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("xlsx file %s has no sheets", xlsxPath)
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read row from %s: %w", xlsxPath, err)
		}
		if len(record) == 0 {
			continue
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	if err := rows.Error(); err != nil {
		return fmt.Errorf("error iterating rows in %s: %w", xlsxPath, err)
	}

	cw.Flush()
	return cw.Error()
}

// ConvertXLSXToCSV converts the first sheet of an XLSX file to a CSV file on disk.
func ConvertXLSXToCSV(xlsxPath, csvPath string) error {
	out, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create csv file %s: %w", csvPath, err)
	}
	if err := WriteXLSXAsCSV(xlsxPath, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func openXLSX(path string) (io.Reader, error) {
	var buf bytes.Buffer
	if err := WriteXLSXAsCSV(path, &buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

// Package ranking merges the candidate table with the score table and orders the result.
package ranking

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	ColumnName  = "Name"
	ColumnScore = "Score"

	sheetName = "Candidates"
)

// Table is a delimited table with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the column, matched case-insensitively, or -1.
func (t *Table) Column(name string) int {
	for idx, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return idx
		}
	}
	return -1
}

// Cell returns the value at column idx, or "" for short rows.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ReadCSV reads a UTF-8 CSV whose first row is the header. A leading BOM is ignored.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("read csv: missing header row")
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return &Table{Header: header, Rows: records[1:]}, nil
}

func ReadCSVFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	table, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// WriteFile writes the table as XLSX when the extension is .xlsx and as CSV otherwise.
func (t *Table) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return t.WriteXLSX(path)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := t.WriteCSV(file); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

// WriteXLSX writes a single-sheet workbook with a bold header. Score cells are numeric.
func (t *Table) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	header := make([]any, len(t.Header))
	for idx, h := range t.Header {
		header[idx] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return err
	}

	scoreIdx := t.Column(ColumnScore)
	for rowIdx, row := range t.Rows {
		values := make([]any, len(row))
		for idx, cell := range row {
			values[idx] = cell
			if idx == scoreIdx {
				if score, err := strconv.ParseFloat(cell, 64); err == nil {
					values[idx] = score
				}
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

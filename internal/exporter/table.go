package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"

	"csviz/internal/table"
)

// Writer exports tables to files.
type Writer struct {
	logger *slog.Logger
}

// New creates a table writer.
func New(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger.With(slog.String("component", "exporter"))}
}

// CSVOptions configures CSV writing behavior.
type CSVOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes the table as comma-delimited text with a header row.
func (w *Writer) WriteCSV(t *table.Table, path string, opts CSVOptions) error {
	w.logger.Info("writing CSV export",
		slog.String("path", path),
		slog.Int("rows", t.NumRows()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if opts.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	cols := t.Columns()
	record := make([]string, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for ci, c := range cols {
			record[ci] = c.Format(i)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteXLSX writes the table as a single-sheet Excel workbook.
func (w *Writer) WriteXLSX(t *table.Table, path, sheet string) error {
	if sheet == "" {
		sheet = "Data"
	}
	w.logger.Info("writing XLSX export",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", t.NumRows()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for ci, name := range t.ColumnNames() {
		cell, err := excelize.CoordinatesToCellName(ci+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header %q: %w", name, err)
		}
	}

	cols := t.Columns()
	for i := 0; i < t.NumRows(); i++ {
		for ci, c := range cols {
			cell, err := excelize.CoordinatesToCellName(ci+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell: %w", err)
			}
			// Dates are written as text so Excel shows them the same
			// way the CSV export does.
			var value interface{}
			if c.Type == table.TypeTime {
				value = c.Format(i)
			} else {
				value = c.Value(i)
			}
			if value == nil {
				continue
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteJSON writes the table as an array of row objects keyed by column
// name. Missing values are emitted as null, dates as formatted text.
func (w *Writer) WriteJSON(t *table.Table, path string) error {
	w.logger.Info("writing JSON export",
		slog.String("path", path),
		slog.Int("rows", t.NumRows()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	rows := TableRows(t)
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// TableRows converts a table to row objects keyed by column name. Shared
// with the HTTP layer so file exports and API responses agree.
func TableRows(t *table.Table) []map[string]interface{} {
	cols := t.Columns()
	rows := make([]map[string]interface{}, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		row := make(map[string]interface{}, len(cols))
		for _, c := range cols {
			if c.Type == table.TypeTime && c.Valid(i) {
				row[c.Name] = c.Format(i)
				continue
			}
			row[c.Name] = c.Value(i)
		}
		rows[i] = row
	}
	return rows
}

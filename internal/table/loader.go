package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	apperrors "csviz/internal/errors"
)

const (
	// sampleRows is the prefix read during the first pass to infer column
	// shapes before the full load.
	sampleRows = 5

	// categoricalUniqueRatio: text columns whose sample unique ratio falls
	// under this become dictionary-encoded to save memory.
	categoricalUniqueRatio = 0.5
)

// Loader loads CSV files into typed tables, backed by an LRU cache keyed
// by path and modification time.
type Loader struct {
	cache  *Cache
	logger *slog.Logger
}

// NewLoader creates a loader using the given cache.
func NewLoader(cache *Cache, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		cache:  cache,
		logger: logger.With(slog.String("component", "loader")),
	}
}

// Cache exposes the loader's cache for callers that store derived tables,
// such as merged group results.
func (l *Loader) Cache() *Cache { return l.cache }

// Load returns the table for a CSV file, serving a deep copy from cache
// when the file has not changed since it was last loaded. Load failures
// propagate and leave the cache untouched.
func (l *Loader) Load(path string) (*Table, error) {
	key, err := FileKey(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("cannot stat %s", path), err)
	}

	if t, ok := l.cache.Get(key); ok {
		l.logger.Debug("cache hit", slog.String("path", path))
		return t, nil
	}

	t, report, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	for _, inf := range report {
		if inf.Err != nil {
			l.logger.Debug("column kept text representation",
				slog.String("path", path),
				slog.String("column", inf.Column),
				slog.String("reason", inf.Err.Error()))
		}
	}

	l.cache.Add(key, t)
	l.logger.Info("loaded CSV file",
		slog.String("path", path),
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumCols()))
	return t, nil
}

// ReadCSV loads one CSV file into a typed table without touching any
// cache. The first pass samples a small prefix to locate the date column
// and spot low-cardinality text columns; the second pass reads the full
// file applying the inferred types. Remaining text columns other than the
// date column and Breakdown are coerced to numeric where possible; each
// column's inference outcome is reported rather than silently swallowed.
func ReadCSV(path string) (*Table, []ColumnInference, error) {
	header, sample, err := readPrefix(path, sampleRows)
	if err != nil {
		return nil, nil, err
	}

	sampleTable := buildStringTable(header, sample)
	dateCol, hasDate := DetectDateColumn(sampleTable)
	categorical := lowCardinalityColumns(header, sample, dateCol)

	header, records, err := readAll(path)
	if err != nil {
		return nil, nil, err
	}

	t := New()
	var report []ColumnInference
	for ci, name := range header {
		values := columnValues(records, ci)
		switch {
		case hasDate && name == dateCol:
			t.AddColumn(NewStringColumn(name, values))
		case categorical[name]:
			t.AddColumn(NewCategoricalColumn(name, values))
		default:
			t.AddColumn(NewStringColumn(name, values))
		}
	}

	if hasDate {
		inf := t.ConvertToTime(dateCol)
		report = append(report, inf)
		// A column that failed conversion stays text and is not the date
		// axis; downstream merge re-detection can still find a better one.
		if inf.Err == nil {
			t.SetDateColumn(dateCol)
		}
	}

	for _, c := range t.Columns() {
		if c.Type != TypeString || c.Name == dateCol || c.Name == BreakdownColumn {
			continue
		}
		report = append(report, t.ConvertToNumber(c.Name))
	}

	return t, report, nil
}

// readPrefix reads the header and up to n data rows.
func readPrefix(path string, n int) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewStorageError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, apperrors.NewParsingError(fmt.Sprintf("cannot read header of %s", path), err)
	}
	header = normalizeHeader(header)

	var rows [][]string
	for len(rows) < n {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, apperrors.NewParsingError(fmt.Sprintf("malformed CSV %s", path), err)
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

// readAll reads the header and every data row.
func readAll(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewStorageError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, apperrors.NewParsingError(fmt.Sprintf("cannot read header of %s", path), err)
	}
	header = normalizeHeader(header)

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, apperrors.NewParsingError(fmt.Sprintf("malformed CSV %s", path), err)
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

// normalizeHeader trims whitespace and strips a UTF-8 BOM from the first
// cell, which spreadsheet exports commonly prepend.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = h
	}
	return out
}

func buildStringTable(header []string, rows [][]string) *Table {
	t := New()
	for ci, name := range header {
		t.AddColumn(NewStringColumn(name, columnValues(rows, ci)))
	}
	return t
}

func columnValues(rows [][]string, ci int) []string {
	values := make([]string, len(rows))
	for ri, row := range rows {
		if ci < len(row) {
			values[ri] = row[ci]
		}
	}
	return values
}

// lowCardinalityColumns flags text columns whose sample unique ratio is
// under the categorical threshold. The date column is never flagged.
func lowCardinalityColumns(header []string, sample [][]string, dateCol string) map[string]bool {
	out := make(map[string]bool)
	if len(sample) == 0 {
		return out
	}
	for ci, name := range header {
		if name == dateCol {
			continue
		}
		unique := make(map[string]bool)
		numeric := true
		for _, row := range sample {
			if ci >= len(row) {
				continue
			}
			unique[row[ci]] = true
			if _, ok := ParseNumber(row[ci]); !ok && strings.TrimSpace(row[ci]) != "" {
				numeric = false
			}
		}
		// Numeric-looking columns are left for numeric coercion.
		if numeric {
			continue
		}
		if float64(len(unique))/float64(len(sample)) < categoricalUniqueRatio {
			out[name] = true
		}
	}
	return out
}

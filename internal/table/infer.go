package table

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order by ParseDate. The list covers the export
// formats seen in practice, including the dash-separated timestamps some
// exporters place in filenames.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15-04-05.000Z",
	"2006-01-02T15-04-05Z",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"2006-1-2",
}

// ParseDate parses a date string leniently, trying a fixed set of layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a numeric string, tolerating thousands separators.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// dateContentThreshold is the share of values in a text column that must
// parse as dates for the column to be taken as the date axis.
const dateContentThreshold = 0.8

// DetectDateColumn picks the table's date axis: the first time-typed
// column, else the first column whose name contains "date" or "time", else
// the first text column where at least 80% of present values parse as
// dates. Reports false when the table has no date-like column, which is
// not an error.
func DetectDateColumn(t *Table) (string, bool) {
	for _, c := range t.Columns() {
		if c.Type == TypeTime {
			return c.Name, true
		}
	}
	for _, c := range t.Columns() {
		lower := strings.ToLower(c.Name)
		if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
			return c.Name, true
		}
	}
	for _, c := range t.Columns() {
		if c.Type != TypeString && c.Type != TypeCategorical {
			continue
		}
		total, parsed := 0, 0
		for i := 0; i < c.Len(); i++ {
			s, ok := c.StringAt(i)
			if !ok {
				continue
			}
			total++
			if _, ok := ParseDate(s); ok {
				parsed++
			}
		}
		if total > 0 && float64(parsed) >= dateContentThreshold*float64(total) {
			return c.Name, true
		}
	}
	return "", false
}

// InferenceError describes why a column kept its text representation
// instead of being converted.
type InferenceError struct {
	Reason string
}

func (e *InferenceError) Error() string { return e.Reason }

// ColumnInference records the outcome of one column's type inference, so
// callers and tests can see which columns fell back instead of the
// failure being silently swallowed.
type ColumnInference struct {
	Column string
	From   ColumnType
	To     ColumnType
	Err    error
}

// ConvertToTime replaces the named column with a time-typed column,
// parsing each value leniently. Unparseable values become missing.
func (t *Table) ConvertToTime(name string) ColumnInference {
	inf := ColumnInference{Column: name, From: TypeString, To: TypeTime}
	c, ok := t.Column(name)
	if !ok {
		inf.Err = &InferenceError{Reason: "column not found"}
		return inf
	}
	inf.From = c.Type
	values := make([]time.Time, c.Len())
	valid := make([]bool, c.Len())
	parsed := 0
	for i := 0; i < c.Len(); i++ {
		s, ok := c.StringAt(i)
		if !ok {
			continue
		}
		if v, ok := ParseDate(s); ok {
			values[i], valid[i] = v, true
			parsed++
		}
	}
	if parsed == 0 && c.Len() > 0 {
		inf.To = c.Type
		inf.Err = &InferenceError{Reason: "no values parse as dates"}
		return inf
	}
	t.ReplaceColumn(name, NewTimeColumn(name, values, valid))
	return inf
}

// ConvertToNumber replaces the named column with a numeric column.
// Values that do not convert become missing. When nothing converts the
// column is left alone and the failure is reported.
func (t *Table) ConvertToNumber(name string) ColumnInference {
	inf := ColumnInference{Column: name, From: TypeString, To: TypeNumber}
	c, ok := t.Column(name)
	if !ok {
		inf.Err = &InferenceError{Reason: "column not found"}
		return inf
	}
	inf.From = c.Type
	values := make([]float64, c.Len())
	valid := make([]bool, c.Len())
	parsed := 0
	for i := 0; i < c.Len(); i++ {
		s, ok := c.StringAt(i)
		if !ok {
			continue
		}
		if v, ok := ParseNumber(s); ok {
			values[i], valid[i] = v, true
			parsed++
		}
	}
	if parsed == 0 && c.Len() > 0 {
		inf.To = c.Type
		inf.Err = &InferenceError{Reason: "no values parse as numbers"}
		return inf
	}
	t.ReplaceColumn(name, NewNumberColumn(name, values, valid))
	return inf
}

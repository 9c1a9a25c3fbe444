package table

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// BreakdownColumn is the conventional name of the column that splits a
// table into parallel named sub-series.
const BreakdownColumn = "Breakdown"

// Provenance columns appended by the aggregator when metadata-column mode
// is enabled.
const (
	SourceFileColumn    = "_source_file"
	FileStartDateColumn = "_file_start_date"
	FileEndDateColumn   = "_file_end_date"
)

// ColumnType identifies the storage type of a column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeNumber
	TypeTime
	TypeCategorical
)

func (t ColumnType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeTime:
		return "time"
	case TypeCategorical:
		return "categorical"
	default:
		return "string"
	}
}

// Column is a named, typed vector of values with a per-row validity mask.
// Categorical columns store dictionary codes to keep low-cardinality text
// compact.
type Column struct {
	Name string
	Type ColumnType

	strs  []string
	nums  []float64
	times []time.Time
	codes []int
	dict  []string
	valid []bool
}

// NewStringColumn creates a string column from raw values. Empty strings are
// treated as missing.
func NewStringColumn(name string, values []string) *Column {
	c := &Column{Name: name, Type: TypeString, strs: values, valid: make([]bool, len(values))}
	for i, v := range values {
		c.valid[i] = strings.TrimSpace(v) != ""
	}
	return c
}

// NewNumberColumn creates a numeric column. valid marks present values.
func NewNumberColumn(name string, values []float64, valid []bool) *Column {
	return &Column{Name: name, Type: TypeNumber, nums: values, valid: valid}
}

// NewTimeColumn creates a time column. valid marks present values.
func NewTimeColumn(name string, values []time.Time, valid []bool) *Column {
	return &Column{Name: name, Type: TypeTime, times: values, valid: valid}
}

// NewCategoricalColumn builds a dictionary-encoded column from raw values.
func NewCategoricalColumn(name string, values []string) *Column {
	c := &Column{
		Name:  name,
		Type:  TypeCategorical,
		codes: make([]int, len(values)),
		valid: make([]bool, len(values)),
	}
	index := make(map[string]int)
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			c.codes[i] = -1
			continue
		}
		code, ok := index[v]
		if !ok {
			code = len(c.dict)
			c.dict = append(c.dict, v)
			index[v] = code
		}
		c.codes[i] = code
		c.valid[i] = true
	}
	return c
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	return len(c.valid)
}

// Valid reports whether row i holds a value.
func (c *Column) Valid(i int) bool {
	return i >= 0 && i < len(c.valid) && c.valid[i]
}

// StringAt returns the string value at row i for string and categorical
// columns.
func (c *Column) StringAt(i int) (string, bool) {
	if !c.Valid(i) {
		return "", false
	}
	switch c.Type {
	case TypeString:
		return c.strs[i], true
	case TypeCategorical:
		if c.codes[i] < 0 {
			return "", false
		}
		return c.dict[c.codes[i]], true
	default:
		return "", false
	}
}

// NumberAt returns the numeric value at row i.
func (c *Column) NumberAt(i int) (float64, bool) {
	if !c.Valid(i) || c.Type != TypeNumber {
		return 0, false
	}
	return c.nums[i], true
}

// TimeAt returns the time value at row i.
func (c *Column) TimeAt(i int) (time.Time, bool) {
	if !c.Valid(i) || c.Type != TypeTime {
		return time.Time{}, false
	}
	return c.times[i], true
}

// Value returns the native value at row i, or nil when missing.
func (c *Column) Value(i int) interface{} {
	if !c.Valid(i) {
		return nil
	}
	switch c.Type {
	case TypeNumber:
		return c.nums[i]
	case TypeTime:
		return c.times[i]
	case TypeCategorical:
		return c.dict[c.codes[i]]
	default:
		return c.strs[i]
	}
}

// Format renders the value at row i as text, empty string when missing.
func (c *Column) Format(i int) string {
	if !c.Valid(i) {
		return ""
	}
	switch c.Type {
	case TypeNumber:
		return strconv.FormatFloat(c.nums[i], 'f', -1, 64)
	case TypeTime:
		t := c.times[i]
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	case TypeCategorical:
		return c.dict[c.codes[i]]
	default:
		return c.strs[i]
	}
}

// clone returns a deep copy of the column.
func (c *Column) clone() *Column {
	cp := &Column{Name: c.Name, Type: c.Type}
	cp.strs = append([]string(nil), c.strs...)
	cp.nums = append([]float64(nil), c.nums...)
	cp.times = append([]time.Time(nil), c.times...)
	cp.codes = append([]int(nil), c.codes...)
	cp.dict = append([]string(nil), c.dict...)
	cp.valid = append([]bool(nil), c.valid...)
	return cp
}

// emptyLike returns a zero-row column with the same name and type.
func (c *Column) emptyLike() *Column {
	return &Column{Name: c.Name, Type: c.Type, dict: append([]string(nil), c.dict...)}
}

// appendFrom appends row i of src (a column of the same type) to c.
func (c *Column) appendFrom(src *Column, i int) {
	switch c.Type {
	case TypeNumber:
		v, ok := src.NumberAt(i)
		c.nums = append(c.nums, v)
		c.valid = append(c.valid, ok)
	case TypeTime:
		v, ok := src.TimeAt(i)
		c.times = append(c.times, v)
		c.valid = append(c.valid, ok)
	case TypeCategorical:
		s, ok := src.StringAt(i)
		if !ok {
			c.codes = append(c.codes, -1)
			c.valid = append(c.valid, false)
			return
		}
		c.appendCategorical(s)
	default:
		s, ok := src.StringAt(i)
		if !ok {
			// Non-string source rendered as text keeps the value visible.
			s = src.Format(i)
			ok = s != ""
		}
		c.strs = append(c.strs, s)
		c.valid = append(c.valid, ok)
	}
}

// appendMissing appends a missing value to c.
func (c *Column) appendMissing() {
	switch c.Type {
	case TypeNumber:
		c.nums = append(c.nums, 0)
	case TypeTime:
		c.times = append(c.times, time.Time{})
	case TypeCategorical:
		c.codes = append(c.codes, -1)
	default:
		c.strs = append(c.strs, "")
	}
	c.valid = append(c.valid, false)
}

func (c *Column) appendCategorical(v string) {
	code := -1
	for i, d := range c.dict {
		if d == v {
			code = i
			break
		}
	}
	if code < 0 {
		code = len(c.dict)
		c.dict = append(c.dict, v)
	}
	c.codes = append(c.codes, code)
	c.valid = append(c.valid, true)
}

func (c *Column) appendNumber(v float64, ok bool) {
	c.nums = append(c.nums, v)
	c.valid = append(c.valid, ok)
}

func (c *Column) appendTime(v time.Time, ok bool) {
	c.times = append(c.times, v)
	c.valid = append(c.valid, ok)
}

// Table is an ordered sequence of rows over named, typed columns. At most
// one column is designated the date column.
type Table struct {
	cols    []*Column
	index   map[string]int
	nrows   int
	dateCol string
}

// New creates an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// ColumnNames returns column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Columns returns the column list in table order.
func (t *Table) Columns() []*Column { return t.cols }

// HasColumn reports whether the table contains the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// DateColumn returns the designated date column name, empty when none.
func (t *Table) DateColumn() string { return t.dateCol }

// SetDateColumn designates the date column. Ignored if the column is absent.
func (t *Table) SetDateColumn(name string) {
	if name == "" || t.HasColumn(name) {
		t.dateCol = name
	}
}

// AddColumn appends a column. The first column fixes the table row count;
// subsequent columns must match it.
func (t *Table) AddColumn(c *Column) {
	if len(t.cols) == 0 {
		t.nrows = c.Len()
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
}

// ReplaceColumn swaps the named column for a new one in place.
func (t *Table) ReplaceColumn(name string, c *Column) {
	if i, ok := t.index[name]; ok {
		delete(t.index, name)
		t.index[c.Name] = i
		t.cols[i] = c
	}
}

// AddConstantString appends a string column holding the same value in every
// row. Used for provenance columns on merged tables.
func (t *Table) AddConstantString(name, value string) {
	values := make([]string, t.nrows)
	for i := range values {
		values[i] = value
	}
	t.AddColumn(NewStringColumn(name, values))
}

// Clone returns a deep copy of the table. Mutating the copy never affects
// the original.
func (t *Table) Clone() *Table {
	cp := New()
	for _, c := range t.cols {
		cp.AddColumn(c.clone())
	}
	cp.nrows = t.nrows
	cp.dateCol = t.dateCol
	return cp
}

// Select returns a new table containing the given rows in the given order.
// Indices may repeat; out-of-range indices are skipped.
func (t *Table) Select(rows []int) *Table {
	out := New()
	for _, c := range t.cols {
		nc := c.emptyLike()
		for _, i := range rows {
			if i < 0 || i >= c.Len() {
				continue
			}
			nc.appendFrom(c, i)
		}
		out.AddColumn(nc)
	}
	out.nrows = 0
	if len(out.cols) > 0 {
		out.nrows = out.cols[0].Len()
	}
	out.dateCol = t.dateCol
	return out
}

// Concat concatenates tables preserving the union of their columns, in
// order of first appearance. Rows from tables lacking a column get missing
// values. Columns sharing a name but not a type degrade to string.
func Concat(tables ...*Table) *Table {
	out := New()
	type colSpec struct {
		name string
		typ  ColumnType
	}
	var specs []*colSpec
	byName := make(map[string]*colSpec)
	for _, t := range tables {
		for _, c := range t.cols {
			s, ok := byName[c.Name]
			if !ok {
				s = &colSpec{name: c.Name, typ: c.Type}
				byName[c.Name] = s
				specs = append(specs, s)
				continue
			}
			if s.typ != c.Type {
				// Mixed types across files degrade to text.
				s.typ = TypeString
			}
		}
	}

	for _, s := range specs {
		out.AddColumn(&Column{Name: s.name, Type: s.typ})
	}

	total := 0
	for _, t := range tables {
		for _, oc := range out.cols {
			src, ok := t.Column(oc.Name)
			for i := 0; i < t.nrows; i++ {
				if !ok {
					oc.appendMissing()
					continue
				}
				oc.appendFrom(src, i)
			}
		}
		total += t.nrows
	}
	out.nrows = total

	// The first designated date column wins.
	for _, t := range tables {
		if t.dateCol != "" && out.HasColumn(t.dateCol) {
			out.dateCol = t.dateCol
			break
		}
	}
	return out
}

// SortByDate returns a copy of the table stably sorted ascending by the
// designated date column. Rows without a parseable date sort last. Without
// a date column the table is returned unchanged.
func (t *Table) SortByDate() *Table {
	col, ok := t.Column(t.dateCol)
	if t.dateCol == "" || !ok || col.Type != TypeTime {
		return t
	}
	rows := make([]int, t.nrows)
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		ta, oka := col.TimeAt(rows[a])
		tb, okb := col.TimeAt(rows[b])
		if oka != okb {
			return oka
		}
		if !oka {
			return false
		}
		return ta.Before(tb)
	})
	return t.Select(rows)
}

// FilterByDateRange returns the rows whose date column value lies in
// [from, to]. Zero bounds are open. Rows without a date value are dropped.
// Without a date column the table is returned unchanged.
func (t *Table) FilterByDateRange(from, to time.Time) *Table {
	col, ok := t.Column(t.dateCol)
	if t.dateCol == "" || !ok || col.Type != TypeTime {
		return t
	}
	var rows []int
	for i := 0; i < t.nrows; i++ {
		v, ok := col.TimeAt(i)
		if !ok {
			continue
		}
		if !from.IsZero() && v.Before(from) {
			continue
		}
		if !to.IsZero() && v.After(to) {
			continue
		}
		rows = append(rows, i)
	}
	return t.Select(rows)
}

// DefaultValueColumn returns the first numeric column that is not the date
// column, the breakdown column, or a provenance column. It is the series
// value column charts and metrics default to.
func (t *Table) DefaultValueColumn() (string, bool) {
	for _, c := range t.cols {
		if c.Type != TypeNumber {
			continue
		}
		switch c.Name {
		case t.dateCol, BreakdownColumn, SourceFileColumn, FileStartDateColumn, FileEndDateColumn:
			continue
		}
		return c.Name, true
	}
	return "", false
}

// BreakdownValues returns the distinct breakdown values in first-appearance
// order, or nil when the table has no breakdown column.
func (t *Table) BreakdownValues() []string {
	col, ok := t.Column(BreakdownColumn)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < t.nrows; i++ {
		v, ok := col.StringAt(i)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

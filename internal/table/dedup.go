package table

import (
	"fmt"
	"time"
)

// DuplicateStrategy decides which row survives when several rows share the
// same uniqueness key during deduplication.
type DuplicateStrategy string

const (
	// KeepLast keeps the row occurring latest in table order.
	KeepLast DuplicateStrategy = "last"
	// KeepFirst keeps the row occurring earliest in table order.
	KeepFirst DuplicateStrategy = "first"
	// Average collapses duplicates by averaging numeric columns. Non-numeric
	// columns keep the first non-missing value of the run.
	Average DuplicateStrategy = "average"
)

// Deduplicate removes rows sharing a uniqueness key. The key is the date
// column value, plus the Breakdown value when a Breakdown column exists.
// Rows without a date value are always kept. Without a date column the
// table is returned unchanged.
//
// Surviving rows appear in the order the key first occurred, which keeps a
// date-sorted table date-sorted.
func (t *Table) Deduplicate(strategy DuplicateStrategy) *Table {
	dateCol, ok := t.Column(t.dateCol)
	if t.dateCol == "" || !ok || dateCol.Type != TypeTime {
		return t
	}
	breakdown, hasBreakdown := t.Column(BreakdownColumn)

	type group struct{ rows []int }
	var order []string
	groups := make(map[string]*group)

	for i := 0; i < t.nrows; i++ {
		v, okDate := dateCol.TimeAt(i)
		var key string
		if !okDate {
			// Undated rows never collide.
			key = fmt.Sprintf("row-%d", i)
		} else {
			key = v.Format(time.RFC3339Nano)
			if hasBreakdown {
				b, _ := breakdown.StringAt(i)
				key += "|" + b
			}
		}
		g, seen := groups[key]
		if !seen {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}
		g.rows = append(g.rows, i)
	}

	switch strategy {
	case Average:
		out := New()
		for _, c := range t.cols {
			out.AddColumn(c.emptyLike())
		}
		for _, key := range order {
			rows := groups[key].rows
			for ci, c := range t.cols {
				out.cols[ci].appendCollapsed(c, rows)
			}
		}
		if len(out.cols) > 0 {
			out.nrows = out.cols[0].Len()
		}
		out.dateCol = t.dateCol
		return out
	case KeepFirst:
		rows := make([]int, 0, len(order))
		for _, key := range order {
			rows = append(rows, groups[key].rows[0])
		}
		return t.Select(rows)
	default: // KeepLast
		rows := make([]int, 0, len(order))
		for _, key := range order {
			g := groups[key].rows
			rows = append(rows, g[len(g)-1])
		}
		return t.Select(rows)
	}
}

// appendCollapsed appends one row representing the given rows of src:
// the mean of present values for numeric columns, the first present value
// otherwise.
func (c *Column) appendCollapsed(src *Column, rows []int) {
	if c.Type == TypeNumber {
		sum, n := 0.0, 0
		for _, i := range rows {
			if v, ok := src.NumberAt(i); ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			c.appendMissing()
			return
		}
		c.appendNumber(sum/float64(n), true)
		return
	}
	for _, i := range rows {
		if src.Valid(i) {
			c.appendFrom(src, i)
			return
		}
	}
	c.appendMissing()
}

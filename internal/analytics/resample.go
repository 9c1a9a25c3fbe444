package analytics

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "csviz/internal/errors"
	"csviz/internal/table"
)

// Period selects the resampling granularity.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Engine computes analytics over tables. Stateless apart from its logger;
// results are computed on demand and never cached.
type Engine struct {
	logger *slog.Logger
}

// New returns an analytics engine.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger.With(slog.String("component", "analytics"))}
}

// bucketStart truncates a timestamp to the start of its calendar period.
// Weeks start on Monday, months on the first.
func bucketStart(ts time.Time, p Period) time.Time {
	y, m, d := ts.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
	switch p {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, ts.Location())
	default:
		return day
	}
}

// bucketAccum collects per-column sums for one (series, bucket) cell.
type bucketAccum struct {
	start time.Time
	sums  []float64
	ns    []int
}

// Resample aggregates valueCols to the arithmetic mean per calendar bucket.
// When breakdownCol names a column present in t, each breakdown value is
// resampled independently and the breakdown value restored as a column in
// the result. Only buckets that contain at least one row are emitted. The
// result is ordered by series first appearance, then bucket date ascending.
func (e *Engine) Resample(t *table.Table, dateCol string, valueCols []string, breakdownCol string, period Period) (*table.Table, error) {
	switch period {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown resampling period %q", period))
	}

	dates, ok := t.Column(dateCol)
	if !ok || dates.Type != table.TypeTime {
		return nil, apperrors.NewValidationError(fmt.Sprintf("column %q is not a date column", dateCol))
	}
	if len(valueCols) == 0 {
		return nil, apperrors.NewValidationError("no value columns to resample")
	}
	vals := make([]*table.Column, len(valueCols))
	for i, name := range valueCols {
		c, ok := t.Column(name)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("value column %q not found", name))
		}
		if c.Type != table.TypeNumber {
			return nil, apperrors.NewValidationError(fmt.Sprintf("value column %q is not numeric", name))
		}
		vals[i] = c
	}

	var bd *table.Column
	if breakdownCol != "" {
		bd, _ = t.Column(breakdownCol)
	}

	// Accumulate sums per (series, bucket) in encounter order.
	type cellKey struct {
		series string
		bucket int64
	}
	cells := make(map[cellKey]*bucketAccum)
	var seriesOrder []string
	seen := make(map[string]bool)

	for i := 0; i < t.NumRows(); i++ {
		ts, valid := dates.TimeAt(i)
		if !valid {
			continue
		}
		series := ""
		if bd != nil {
			series, _ = bd.StringAt(i)
		}
		if !seen[series] {
			seen[series] = true
			seriesOrder = append(seriesOrder, series)
		}
		start := bucketStart(ts, period)
		key := cellKey{series, start.Unix()}
		cell := cells[key]
		if cell == nil {
			cell = &bucketAccum{start: start, sums: make([]float64, len(vals)), ns: make([]int, len(vals))}
			cells[key] = cell
		}
		for ci, c := range vals {
			if v, ok := c.NumberAt(i); ok {
				cell.sums[ci] += v
				cell.ns[ci]++
			}
		}
	}

	// Emit series in first-appearance order, buckets ascending within each.
	var (
		outDates  []time.Time
		outValues = make([][]float64, len(vals))
		outValid  = make([][]bool, len(vals))
		outSeries []string
	)
	for _, series := range seriesOrder {
		var starts []int64
		for key := range cells {
			if key.series == series {
				starts = append(starts, key.bucket)
			}
		}
		sort.Slice(starts, func(a, b int) bool { return starts[a] < starts[b] })
		for _, s := range starts {
			cell := cells[cellKey{series, s}]
			outDates = append(outDates, cell.start)
			outSeries = append(outSeries, series)
			for ci := range vals {
				if cell.ns[ci] > 0 {
					outValues[ci] = append(outValues[ci], cell.sums[ci]/float64(cell.ns[ci]))
					outValid[ci] = append(outValid[ci], true)
				} else {
					outValues[ci] = append(outValues[ci], 0)
					outValid[ci] = append(outValid[ci], false)
				}
			}
		}
	}

	out := table.New()
	allValid := make([]bool, len(outDates))
	for i := range allValid {
		allValid[i] = true
	}
	out.AddColumn(table.NewTimeColumn(dateCol, outDates, allValid))
	for ci, name := range valueCols {
		out.AddColumn(table.NewNumberColumn(name, outValues[ci], outValid[ci]))
	}
	if bd != nil {
		out.AddColumn(table.NewCategoricalColumn(bd.Name, outSeries))
	}
	out.SetDateColumn(dateCol)

	e.logger.Info("resampled table",
		slog.String("period", string(period)),
		slog.Int("rows_in", t.NumRows()),
		slog.Int("rows_out", out.NumRows()))
	return out, nil
}

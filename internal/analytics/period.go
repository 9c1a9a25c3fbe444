package analytics

import (
	"fmt"
	"log/slog"
	"time"

	apperrors "csviz/internal/errors"
	"csviz/internal/table"
)

// OverallSeries keys results computed over a table with no breakdown column.
const OverallSeries = "overall"

// Window is a half-open (Start, End] date interval.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether ts falls inside the window.
func (w Window) Contains(ts time.Time) bool {
	return ts.After(w.Start) && !ts.After(w.End)
}

// PeriodMetrics compares the mean of a value column between the current
// window and the immediately preceding window of equal length. Means are
// nil when their window holds no rows; PercentChange is nil when the
// previous mean is nil or zero.
type PeriodMetrics struct {
	CurrentMean    *float64 `json:"current_avg"`
	PreviousMean   *float64 `json:"previous_avg"`
	PercentChange  *float64 `json:"pct_change"`
	CurrentWindow  Window   `json:"current_period"`
	PreviousWindow Window   `json:"previous_period"`
}

// PeriodOverPeriod anchors at the newest date in the table and compares the
// mean of valueCol inside (anchor-days, anchor] against the preceding window
// (anchor-2*days, anchor-days]. With a breakdown column present the map is
// keyed by breakdown value, otherwise by OverallSeries.
func (e *Engine) PeriodOverPeriod(t *table.Table, dateCol, valueCol, breakdownCol string, currentPeriodDays int) (map[string]PeriodMetrics, error) {
	if currentPeriodDays <= 0 {
		return nil, apperrors.NewValidationError("current period length must be positive")
	}
	dates, ok := t.Column(dateCol)
	if !ok || dates.Type != table.TypeTime {
		return nil, apperrors.NewValidationError(fmt.Sprintf("column %q is not a date column", dateCol))
	}
	values, ok := t.Column(valueCol)
	if !ok || values.Type != table.TypeNumber {
		return nil, apperrors.NewValidationError(fmt.Sprintf("value column %q is not numeric", valueCol))
	}

	var anchor time.Time
	anchored := false
	for i := 0; i < t.NumRows(); i++ {
		if ts, valid := dates.TimeAt(i); valid {
			if !anchored || ts.After(anchor) {
				anchor = ts
				anchored = true
			}
		}
	}
	if !anchored {
		return nil, apperrors.NewNoDataError("table has no dated rows to anchor the comparison")
	}

	current := Window{Start: anchor.AddDate(0, 0, -currentPeriodDays), End: anchor}
	previous := Window{Start: anchor.AddDate(0, 0, -2*currentPeriodDays), End: current.Start}

	var bd *table.Column
	if breakdownCol != "" {
		bd, _ = t.Column(breakdownCol)
	}

	type accum struct {
		curSum, prevSum float64
		curN, prevN     int
	}
	accums := make(map[string]*accum)
	var order []string

	for i := 0; i < t.NumRows(); i++ {
		ts, valid := dates.TimeAt(i)
		if !valid {
			continue
		}
		series := OverallSeries
		if bd != nil {
			series, _ = bd.StringAt(i)
		}
		a := accums[series]
		if a == nil {
			a = &accum{}
			accums[series] = a
			order = append(order, series)
		}
		v, ok := values.NumberAt(i)
		if !ok {
			continue
		}
		switch {
		case current.Contains(ts):
			a.curSum += v
			a.curN++
		case previous.Contains(ts):
			a.prevSum += v
			a.prevN++
		}
	}

	out := make(map[string]PeriodMetrics, len(accums))
	for _, series := range order {
		a := accums[series]
		m := PeriodMetrics{CurrentWindow: current, PreviousWindow: previous}
		if a.curN > 0 {
			mean := a.curSum / float64(a.curN)
			m.CurrentMean = &mean
		}
		if a.prevN > 0 {
			mean := a.prevSum / float64(a.prevN)
			m.PreviousMean = &mean
		}
		if m.CurrentMean != nil && m.PreviousMean != nil && *m.PreviousMean != 0 {
			pct := (*m.CurrentMean - *m.PreviousMean) / *m.PreviousMean * 100
			m.PercentChange = &pct
		}
		out[series] = m
	}

	e.logger.Debug("computed period-over-period metrics",
		slog.String("value_column", valueCol),
		slog.Int("period_days", currentPeriodDays),
		slog.Int("series", len(out)))
	return out, nil
}

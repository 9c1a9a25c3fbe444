package analytics

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	apperrors "csviz/internal/errors"
	"csviz/internal/table"
)

// Trend is an ordinary least-squares fit of a value column against row
// index. Row index, not elapsed time, is the independent variable, so the
// slope describes change per observation rather than per day.
type Trend struct {
	Slope         float64 `json:"slope"`
	Intercept     float64 `json:"intercept"`
	Direction     string  `json:"direction"`
	PercentChange float64 `json:"percent_change"`
}

// MetricsResult holds descriptive statistics for one series. Trend is nil
// when the series has too few rows to fit a line.
type MetricsResult struct {
	Count     int       `json:"count"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Mean      float64   `json:"mean"`
	Median    float64   `json:"median"`
	Std       float64   `json:"std"`
	FirstDate time.Time `json:"first_date"`
	LastDate  time.Time `json:"last_date"`
	Trend     *Trend    `json:"trend,omitempty"`
}

// SeriesStats computes descriptive statistics of valueCol over the whole
// table. Count reflects the table row count; value statistics skip missing
// entries. Std is the population standard deviation. A trend is fitted only
// when the table has more than two rows.
func (e *Engine) SeriesStats(t *table.Table, dateCol, valueCol string) (MetricsResult, error) {
	values, ok := t.Column(valueCol)
	if !ok || values.Type != table.TypeNumber {
		return MetricsResult{}, apperrors.NewValidationError(fmt.Sprintf("value column %q is not numeric", valueCol))
	}

	var (
		xs, ys []float64
	)
	for i := 0; i < t.NumRows(); i++ {
		if v, valid := values.NumberAt(i); valid {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}
	if len(ys) == 0 {
		return MetricsResult{}, apperrors.NewNoDataError(fmt.Sprintf("column %q holds no values", valueCol))
	}

	res := MetricsResult{
		Count: t.NumRows(),
		Min:   ys[0],
		Max:   ys[0],
		Mean:  stat.Mean(ys, nil),
		Std:   stat.PopStdDev(ys, nil),
	}
	for _, v := range ys {
		if v < res.Min {
			res.Min = v
		}
		if v > res.Max {
			res.Max = v
		}
	}
	res.Median = median(ys)

	if dates, ok := t.Column(dateCol); ok && dates.Type == table.TypeTime {
		for i := 0; i < t.NumRows(); i++ {
			ts, valid := dates.TimeAt(i)
			if !valid {
				continue
			}
			if res.FirstDate.IsZero() || ts.Before(res.FirstDate) {
				res.FirstDate = ts
			}
			if res.LastDate.IsZero() || ts.After(res.LastDate) {
				res.LastDate = ts
			}
		}
	}

	if t.NumRows() > 2 && len(ys) > 1 {
		intercept, slope := stat.LinearRegression(xs, ys, nil, false)
		trend := &Trend{Slope: slope, Intercept: intercept}
		switch {
		case slope > 0:
			trend.Direction = "up"
		case slope < 0:
			trend.Direction = "down"
		default:
			trend.Direction = "flat"
		}
		if res.Mean != 0 {
			trend.PercentChange = slope * float64(res.Count) / res.Mean * 100
		}
		res.Trend = trend
	}

	return res, nil
}

// median averages the two middle values for even-length samples. Gonum's
// Quantile cumulant kinds follow different conventions, so this stays
// hand-rolled.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Metrics computes SeriesStats per breakdown value when the table carries a
// breakdown column, otherwise a single OverallSeries entry.
func (e *Engine) Metrics(t *table.Table, dateCol, valueCol string) (map[string]MetricsResult, error) {
	breakdowns := t.BreakdownValues()
	if len(breakdowns) == 0 {
		overall, err := e.SeriesStats(t, dateCol, valueCol)
		if err != nil {
			return nil, err
		}
		return map[string]MetricsResult{OverallSeries: overall}, nil
	}

	bd, _ := t.Column(table.BreakdownColumn)
	out := make(map[string]MetricsResult, len(breakdowns))
	for _, name := range breakdowns {
		var rows []int
		for i := 0; i < t.NumRows(); i++ {
			if v, ok := bd.StringAt(i); ok && v == name {
				rows = append(rows, i)
			}
		}
		stats, err := e.SeriesStats(t.Select(rows), dateCol, valueCol)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrTypeNoData) {
				continue
			}
			return nil, err
		}
		out[name] = stats
	}
	if len(out) == 0 {
		return nil, apperrors.NewNoDataError(fmt.Sprintf("no series holds values in column %q", valueCol))
	}
	return out, nil
}

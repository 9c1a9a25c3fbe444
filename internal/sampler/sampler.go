// Package sampler downsamples large tables for interactive rendering. The
// reduction is lossy and randomized; it preserves visual shape, never
// statistical validity, so metrics must always run on the unsampled table.
package sampler

import (
	"log/slog"
	"math/rand"
	"sort"

	"csviz/internal/table"
)

// Sampler reduces tables to a point budget. The random source is injected
// so tests can run deterministically.
type Sampler struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// New returns a sampler drawing from rng. A nil rng falls back to a
// time-seeded source.
func New(rng *rand.Rand, logger *slog.Logger) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{rng: rng, logger: logger.With(slog.String("component", "sampler"))}
}

// minGroupPoints is the floor applied to each series' budget when sampling
// per breakdown group.
const minGroupPoints = 5

// Sample reduces t to at most maxPoints rows, keeping per series the first
// and last row by date and the rows holding the extreme values of the
// primary value column, and filling the rest of the budget uniformly at
// random. Tables already within budget pass through untouched. Without a
// date column the reduction degrades to plain random selection.
func (s *Sampler) Sample(t *table.Table, maxPoints int) *table.Table {
	if maxPoints <= 0 || t.NumRows() <= maxPoints {
		return t
	}

	dateCol := t.DateColumn()
	if dateCol == "" {
		s.logger.Debug("no date column, sampling uniformly",
			slog.Int("rows", t.NumRows()), slog.Int("max_points", maxPoints))
		return t.Select(s.pick(allRows(t.NumRows()), maxPoints))
	}

	total := t.NumRows()
	groups := s.groupRows(t)
	grouped := len(groups) > 1

	var selected []int
	for _, rows := range groups {
		budget := maxPoints * len(rows) / total
		if grouped && budget < minGroupPoints {
			budget = minGroupPoints
			if budget > len(rows) {
				budget = len(rows)
			}
		}
		if len(rows) <= budget {
			selected = append(selected, rows...)
			continue
		}
		selected = append(selected, s.sampleSeries(t, rows, budget)...)
	}

	out := t.Select(selected).SortByDate()
	s.logger.Info("sampled table for rendering",
		slog.Int("rows_in", total),
		slog.Int("rows_out", out.NumRows()),
		slog.Int("series", len(groups)))
	return out
}

// groupRows partitions row indices by breakdown value in first-appearance
// order. Tables without a breakdown column form one group.
func (s *Sampler) groupRows(t *table.Table) [][]int {
	bd, ok := t.Column(table.BreakdownColumn)
	if !ok {
		return [][]int{allRows(t.NumRows())}
	}
	index := make(map[string]int)
	var groups [][]int
	for i := 0; i < t.NumRows(); i++ {
		v, _ := bd.StringAt(i)
		gi, seen := index[v]
		if !seen {
			gi = len(groups)
			index[v] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], i)
	}
	return groups
}

// sampleSeries reduces one series' rows to the budget: first and last by
// date, value extremes, then uniform random fill.
func (s *Sampler) sampleSeries(t *table.Table, rows []int, budget int) []int {
	ordered := s.sortRowsByDate(t, rows)

	keep := make(map[int]bool)
	keep[ordered[0]] = true
	keep[ordered[len(ordered)-1]] = true

	if name, ok := t.DefaultValueColumn(); ok {
		col, _ := t.Column(name)
		minRow, maxRow := -1, -1
		var minVal, maxVal float64
		for _, r := range rows {
			v, valid := col.NumberAt(r)
			if !valid {
				continue
			}
			if minRow < 0 || v < minVal {
				minRow, minVal = r, v
			}
			if maxRow < 0 || v > maxVal {
				maxRow, maxVal = r, v
			}
		}
		if minRow >= 0 {
			keep[minRow] = true
			keep[maxRow] = true
		}
	}

	var rest []int
	for _, r := range rows {
		if !keep[r] {
			rest = append(rest, r)
		}
	}

	remaining := budget - len(keep)
	if remaining > 0 && len(rest) > 0 {
		for _, r := range s.pick(rest, remaining) {
			keep[r] = true
		}
	}

	out := make([]int, 0, len(keep))
	for r := range keep {
		out = append(out, r)
	}
	sort.Ints(out)
	return out
}

// sortRowsByDate orders row indices by their date value ascending, undated
// rows last. The sort is stable so ties keep table order.
func (s *Sampler) sortRowsByDate(t *table.Table, rows []int) []int {
	col, _ := t.Column(t.DateColumn())
	ordered := append([]int(nil), rows...)
	sort.SliceStable(ordered, func(a, b int) bool {
		ta, va := col.TimeAt(ordered[a])
		tb, vb := col.TimeAt(ordered[b])
		if va != vb {
			return va
		}
		return ta.Before(tb)
	})
	return ordered
}

// pick draws k distinct elements from candidates uniformly at random.
func (s *Sampler) pick(candidates []int, k int) []int {
	if k >= len(candidates) {
		return candidates
	}
	out := make([]int, 0, k)
	for _, i := range s.rng.Perm(len(candidates))[:k] {
		out = append(out, candidates[i])
	}
	return out
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

package aggregator

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"csviz/internal/config"
	"csviz/internal/scanner"
)

// Item is a closed sum of the two things a file browser lists: a single
// file or a group of same-metric files. Callers switch on the concrete
// type instead of probing optional fields.
type Item interface {
	DisplayLabel() string
	RepresentativePath() string
	isItem()
}

// FileItem wraps a single file descriptor as a browser item.
type FileItem struct {
	scanner.FileDescriptor
}

func (FileItem) isItem() {}

// GroupDescriptor summarizes a group of same-metric files presented as
// one continuous series. It is derived from the current file inventory
// and recomputed whenever that changes; never persisted.
type GroupDescriptor struct {
	Metric         string                   `json:"metric"`
	DisplayName    string                   `json:"display_name"`
	StartDate      time.Time                `json:"start_date,omitempty"`
	EndDate        time.Time                `json:"end_date,omitempty"`
	FileCount      int                      `json:"file_count"`
	TotalSizeBytes int64                    `json:"total_size_bytes"`
	Files          []scanner.FileDescriptor `json:"files"`
	PrimaryPath    string                   `json:"representative_path"`
}

func (GroupDescriptor) isItem() {}

// DisplayLabel returns the name shown in a file browser.
func (g GroupDescriptor) DisplayLabel() string { return g.DisplayName }

// RepresentativePath returns the chronologically first member's path,
// used as a stand-in identity for the group.
func (g GroupDescriptor) RepresentativePath() string { return g.PrimaryPath }

// Aggregator groups same-metric files and merges their tabular data.
type Aggregator struct {
	cfg    config.AggregationConfig
	logger *slog.Logger
}

// New creates an aggregator with the given settings.
func New(cfg config.AggregationConfig, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "aggregator")),
	}
}

// GroupByMetric partitions descriptors by exact metric name. Members of
// each group are sorted ascending by start date with undated files first.
// Groups with a single member are dropped unless ShowSingleFileGroups is
// set.
func (a *Aggregator) GroupByMetric(files []scanner.FileDescriptor) map[string][]scanner.FileDescriptor {
	groups := make(map[string][]scanner.FileDescriptor)
	for _, f := range files {
		groups[f.Metric] = append(groups[f.Metric], f)
	}

	for metric, members := range groups {
		sortByStartDateAscending(members)
		if len(members) < 2 && !a.cfg.ShowSingleFileGroups {
			delete(groups, metric)
			continue
		}
		groups[metric] = members
	}

	a.logger.Info("grouped files by metric",
		slog.Int("file_count", len(files)),
		slog.Int("group_count", len(groups)))
	return groups
}

// BuildGroupDescriptor computes the summary descriptor for a metric group:
// the min/max date span across members that carry dates, the total size,
// and a display name of the form "<metric>, <start> to <end>". When no
// member has dates the name falls back to "<metric> (multiple files)".
func (a *Aggregator) BuildGroupDescriptor(metric string, files []scanner.FileDescriptor) GroupDescriptor {
	g := GroupDescriptor{
		Metric:    metric,
		FileCount: len(files),
		Files:     files,
	}

	for _, f := range files {
		g.TotalSizeBytes += f.SizeBytes
		if !f.StartDate.IsZero() && (g.StartDate.IsZero() || f.StartDate.Before(g.StartDate)) {
			g.StartDate = f.StartDate
		}
		if !f.EndDate.IsZero() && f.EndDate.After(g.EndDate) {
			g.EndDate = f.EndDate
		}
	}

	if !g.StartDate.IsZero() && !g.EndDate.IsZero() {
		g.DisplayName = fmt.Sprintf("%s, %s to %s",
			metric, g.StartDate.Format("2006-01-02"), g.EndDate.Format("2006-01-02"))
	} else {
		g.DisplayName = fmt.Sprintf("%s (multiple files)", metric)
	}

	if len(files) > 0 {
		sorted := append([]scanner.FileDescriptor(nil), files...)
		sortByStartDateAscending(sorted)
		g.PrimaryPath = sorted[0].Path
	}
	return g
}

// BrowseItems builds the browser listing from a scan result: one
// GroupDescriptor per metric group plus a FileItem per file not absorbed
// into a group. With aggregation disabled every file is listed
// individually. Items keep the scan order (newest first) with groups
// ordered by their end date descending among them.
func (a *Aggregator) BrowseItems(files []scanner.FileDescriptor) []Item {
	if !a.cfg.EnableFileAggregation {
		items := make([]Item, 0, len(files))
		for _, f := range files {
			items = append(items, FileItem{f})
		}
		return items
	}

	groups := a.GroupByMetric(files)
	grouped := make(map[string]bool)
	var items []Item

	var metrics []string
	for metric := range groups {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)
	var descriptors []GroupDescriptor
	for _, metric := range metrics {
		g := a.BuildGroupDescriptor(metric, groups[metric])
		descriptors = append(descriptors, g)
		for _, f := range groups[metric] {
			grouped[f.Path] = true
		}
	}
	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].EndDate.After(descriptors[j].EndDate)
	})
	for _, g := range descriptors {
		items = append(items, g)
	}

	for _, f := range files {
		if !grouped[f.Path] {
			items = append(items, FileItem{f})
		}
	}
	return items
}

// sortByStartDateAscending orders files chronologically; undated files
// sort first.
func sortByStartDateAscending(files []scanner.FileDescriptor) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].StartDate.Before(files[j].StartDate)
	})
}

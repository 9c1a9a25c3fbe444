package services

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"csviz/internal/aggregator"
	"csviz/internal/config"
	apperrors "csviz/internal/errors"
	"csviz/internal/scanner"
	"csviz/internal/table"
)

// DataService orchestrates the pipeline from directory scan to merged
// table: scanning, grouping, cache-backed loading, and combined-series
// assembly. It is the single entry point the transport and CLI layers use.
type DataService struct {
	cfg    *config.Config
	logger *slog.Logger

	scanner    *scanner.Scanner
	aggregator *aggregator.Aggregator
	loader     *table.Loader

	mu     sync.Mutex
	recent []string
}

// NewDataService creates a data service with a fresh table cache.
func NewDataService(cfg *config.Config, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "data_service"))

	cache := table.NewCache(table.DefaultCacheCapacity, logger)
	ds := &DataService{
		cfg:        cfg,
		logger:     logger,
		scanner:    scanner.NewScanner(logger),
		aggregator: aggregator.New(cfg.Aggregation, logger),
		loader:     table.NewLoader(cache, logger),
	}

	logger.Info("data service initialized",
		slog.String("data_dir", cfg.Paths.DataDir),
		slog.Bool("aggregation", cfg.Aggregation.EnableFileAggregation))
	return ds
}

// Loader exposes the cache-backed loader for callers that need raw file
// access.
func (ds *DataService) Loader() *table.Loader { return ds.loader }

// resolveDir substitutes the configured data directory for an empty
// argument.
func (ds *DataService) resolveDir(directory string) string {
	if directory == "" {
		return ds.cfg.Paths.DataDir
	}
	return directory
}

// ScanDirectory lists the CSV files under directory, newest first. An
// empty directory argument scans the configured data directory.
func (ds *DataService) ScanDirectory(directory string) ([]scanner.FileDescriptor, error) {
	return ds.scanner.Scan(ds.resolveDir(directory))
}

// BrowseItems returns the file-browser view of a directory: groups of
// related files followed by ungrouped files, per the aggregation settings.
func (ds *DataService) BrowseItems(directory string) ([]aggregator.Item, error) {
	files, err := ds.ScanDirectory(directory)
	if err != nil {
		return nil, err
	}
	return ds.aggregator.BrowseItems(files), nil
}

// LoadFile loads one CSV through the cache and records it in the recent
// files list.
func (ds *DataService) LoadFile(path string) (*table.Table, error) {
	t, err := ds.loader.Load(path)
	if err != nil {
		return nil, err
	}
	ds.touchRecent(path)
	return t, nil
}

// LoadGroup merges a group's member files into one deduplicated table.
func (ds *DataService) LoadGroup(group aggregator.GroupDescriptor) (*table.Table, error) {
	return ds.aggregator.MergeGroup(group.Files, ds.loader.Load)
}

// LoadCombined loads the file at path together with every sibling file in
// its directory that shares its metric, merged into one continuous series.
// The merged result is cached under a directory+metric key so repeated
// chart renders skip the rescan. Falls back to the single file when no
// sibling shares the metric.
func (ds *DataService) LoadCombined(path string) (*table.Table, error) {
	directory := filepath.Dir(path)
	desc := scanner.ParseFileName(filepath.Base(path), nil)

	key := table.CombinedKey(directory, desc.Metric)
	if t, ok := ds.loader.Cache().Get(key); ok {
		ds.logger.Debug("combined data served from cache",
			slog.String("metric", desc.Metric))
		ds.touchRecent(path)
		return t, nil
	}

	files, err := ds.scanner.Scan(directory)
	if err != nil {
		return nil, err
	}
	var siblings []scanner.FileDescriptor
	for _, f := range files {
		if f.Metric == desc.Metric {
			siblings = append(siblings, f)
		}
	}

	ds.logger.Info("combining sibling files",
		slog.String("metric", desc.Metric),
		slog.Int("count", len(siblings)))

	if len(siblings) < 2 {
		return ds.LoadFile(path)
	}

	merged, err := ds.aggregator.MergeGroup(siblings, ds.loader.Load)
	if err != nil {
		return nil, err
	}
	ds.loader.Cache().Add(key, merged)
	ds.touchRecent(path)
	return merged, nil
}

// FindGroup locates the group descriptor for a metric in a directory.
func (ds *DataService) FindGroup(directory, metric string) (aggregator.GroupDescriptor, error) {
	files, err := ds.ScanDirectory(directory)
	if err != nil {
		return aggregator.GroupDescriptor{}, err
	}
	for _, item := range ds.aggregator.BrowseItems(files) {
		if g, ok := item.(aggregator.GroupDescriptor); ok && g.Metric == metric {
			return g, nil
		}
	}
	return aggregator.GroupDescriptor{}, apperrors.NewNotFoundError(fmt.Sprintf("group %q", metric))
}

// ExportDir returns the directory configured for file exports.
func (ds *DataService) ExportDir() string { return ds.cfg.Paths.ExportDir }

// CacheStats reports table cache hit and miss counters.
func (ds *DataService) CacheStats() (hits, misses int64) {
	return ds.loader.Cache().Stats()
}

// RecentFiles returns the most recently loaded file paths, newest first.
func (ds *DataService) RecentFiles() []string {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return append([]string(nil), ds.recent...)
}

// touchRecent moves path to the front of the recent list, truncating to
// the configured maximum.
func (ds *DataService) touchRecent(path string) {
	max := ds.cfg.Chart.MaxRecentFiles
	if max <= 0 {
		return
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()

	out := make([]string, 0, len(ds.recent)+1)
	out = append(out, path)
	for _, p := range ds.recent {
		if p != path {
			out = append(out, p)
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	ds.recent = out
}

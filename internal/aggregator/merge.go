package aggregator

import (
	"log/slog"

	apperrors "csviz/internal/errors"
	"csviz/internal/scanner"
	"csviz/internal/table"
)

// LoaderFunc loads one CSV file into a table. Supplied by the caller so
// the aggregator stays decoupled from the cache-backed loader.
type LoaderFunc func(path string) (*table.Table, error)

// MergeGroup loads every member of a group and merges their rows into one
// date-sorted, deduplicated table. A member that fails to load is logged
// and skipped; the merge fails only when no member loads at all. When
// metadata-column mode is on, each row is tagged with its source file
// name and date span before merging.
func (a *Aggregator) MergeGroup(files []scanner.FileDescriptor, load LoaderFunc) (*table.Table, error) {
	sorted := append([]scanner.FileDescriptor(nil), files...)
	sortByStartDateAscending(sorted)

	var parts []*table.Table
	for _, f := range sorted {
		t, err := load(f.Path)
		if err != nil {
			a.logger.Warn("skipping unloadable group member",
				slog.String("path", f.Path),
				slog.String("error", err.Error()))
			continue
		}
		if a.cfg.AddFileMetadataColumns {
			t.AddConstantString(table.SourceFileColumn, f.Name)
			if !f.StartDate.IsZero() {
				t.AddConstantString(table.FileStartDateColumn, f.StartDate.Format("2006-01-02"))
			}
			if !f.EndDate.IsZero() {
				t.AddConstantString(table.FileEndDateColumn, f.EndDate.Format("2006-01-02"))
			}
		}
		parts = append(parts, t)
	}

	if len(parts) == 0 {
		return nil, apperrors.NewNoDataError("no data could be loaded from any files in the group")
	}

	merged := table.Concat(parts...)

	// Files without their own date designation may still merge into a
	// table with a detectable date axis.
	if merged.DateColumn() == "" {
		if name, ok := table.DetectDateColumn(merged); ok {
			inf := merged.ConvertToTime(name)
			if inf.Err == nil {
				merged.SetDateColumn(name)
			}
		}
	}

	merged = merged.SortByDate().Deduplicate(table.DuplicateStrategy(a.cfg.DuplicateStrategy))

	a.logger.Info("merged group",
		slog.Int("files_loaded", len(parts)),
		slog.Int("files_total", len(files)),
		slog.Int("rows", merged.NumRows()))
	return merged, nil
}

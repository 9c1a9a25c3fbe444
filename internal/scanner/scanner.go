package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "csviz/internal/errors"
)

// Scanner discovers CSV files under a directory tree. It reads names and
// stat metadata only, never file bodies.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner creates a scanner.
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger.With(slog.String("component", "scanner"))}
}

// Scan recursively walks directory and returns a descriptor per CSV file,
// sorted by start date descending with undated files last. Files inside a
// "Week<N>[...]" folder inherit that folder's date context where their own
// name provides none. Fails with a not found error when the directory
// does not exist.
func (s *Scanner) Scan(directory string) ([]FileDescriptor, error) {
	info, err := os.Stat(directory)
	if err != nil || !info.IsDir() {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("directory %s", directory))
	}

	s.logger.Info("scanning directory", slog.String("directory", directory))

	var files []FileDescriptor
	err = filepath.WalkDir(directory, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtrees are skipped, not fatal.
			s.logger.Warn("skipping unreadable path",
				slog.String("path", path),
				slog.String("error", walkErr.Error()))
			return nil
		}
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			return nil
		}

		var week *WeekContext
		if ctx, ok := ParseWeekFolder(filepath.Base(filepath.Dir(path))); ok {
			week = &ctx
		}

		d := ParseFileName(entry.Name(), week)
		d.Path = path
		if fi, err := entry.Info(); err == nil {
			d.SizeBytes = fi.Size()
			d.ModifiedTime = fi.ModTime()
		}
		files = append(files, d)
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("walking %s", directory), err)
	}

	// Newest first; files without a date sort as oldest.
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].StartDate.After(files[j].StartDate)
	})

	s.logger.Info("scan complete",
		slog.String("directory", directory),
		slog.Int("file_count", len(files)))
	return files, nil
}

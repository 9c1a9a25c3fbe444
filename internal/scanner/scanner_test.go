package scanner

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "csviz/internal/errors"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("Date,Value\n2025-01-01,1\n"), 0644))
}

func TestScan_MissingDirectory(t *testing.T) {
	s := NewScanner(slog.Default())

	_, err := s.Scan(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestScan_RecursiveCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"))
	writeFile(t, filepath.Join(dir, "nested", "b.CSV"))
	writeFile(t, filepath.Join(dir, "nested", "deep", "c.Csv"))
	writeFile(t, filepath.Join(dir, "ignored.txt"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))

	s := NewScanner(slog.Default())
	files, err := s.Scan(dir)
	require.NoError(t, err)

	require.Len(t, files, 3)
	for _, f := range files {
		assert.NotEmpty(t, f.Path)
		assert.NotEmpty(t, f.Metric)
		assert.False(t, f.ModifiedTime.IsZero())
	}
}

func TestScan_SortedByStartDateDescending(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Sessions - A, 2025-01-01 to 2025-01-07.csv"))
	writeFile(t, filepath.Join(dir, "Sessions - A, 2025-01-08 to 2025-01-14.csv"))
	writeFile(t, filepath.Join(dir, "randomname.csv"))

	s := NewScanner(slog.Default())
	files, err := s.Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "Sessions - A, 2025-01-08 to 2025-01-14.csv", files[0].Name)
	assert.Equal(t, "Sessions - A, 2025-01-01 to 2025-01-07.csv", files[1].Name)
	assert.Equal(t, "randomname.csv", files[2].Name, "undated files sort as oldest")
	assert.Equal(t, "randomname", files[2].Metric)
	assert.True(t, files[2].StartDate.IsZero())
}

func TestScan_WeekFolderContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Week12[2025-03-17_2025-03-23]", "randomname.csv"))

	s := NewScanner(slog.Default())
	files, err := s.Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, 12, files[0].WeekNumber)
	assert.Equal(t, date(2025, 3, 17), files[0].StartDate)
	assert.Equal(t, date(2025, 3, 23), files[0].EndDate)
}

func TestScan_DoesNotReadFileBodies(t *testing.T) {
	// A CSV with garbage content still scans fine; only names matter.
	dir := t.TempDir()
	path := filepath.Join(dir, "Sessions - A, 2025-01-01 to 2025-01-07.csv")
	require.NoError(t, os.WriteFile(path, []byte("\x00\x01 not a csv"), 0644))

	s := NewScanner(slog.Default())
	files, err := s.Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Sessions", files[0].Metric)
}

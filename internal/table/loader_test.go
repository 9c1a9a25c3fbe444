package table

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadCSV_TypedLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "sessions.csv",
		"Date,Sessions,Breakdown\n"+
			"2025-01-01,100,ios\n"+
			"2025-01-02,110,ios\n"+
			"2025-01-03,120,android\n"+
			"2025-01-04,130,ios\n"+
			"2025-01-05,140,android\n")

	tbl, _, err := ReadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, 5, tbl.NumRows())
	assert.Equal(t, "Date", tbl.DateColumn())

	dateCol, _ := tbl.Column("Date")
	assert.Equal(t, TypeTime, dateCol.Type)

	sessions, _ := tbl.Column("Sessions")
	assert.Equal(t, TypeNumber, sessions.Type)
	v, ok := sessions.NumberAt(2)
	require.True(t, ok)
	assert.Equal(t, 120.0, v)

	breakdown, _ := tbl.Column(BreakdownColumn)
	assert.Equal(t, TypeCategorical, breakdown.Type)
}

func TestReadCSV_NonConvertibleBecomesMissing(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "m.csv",
		"Date,Value\n2025-01-01,10\n2025-01-02,n/a\n2025-01-03,30\n")

	tbl, _, err := ReadCSV(path)
	require.NoError(t, err)

	col, _ := tbl.Column("Value")
	require.Equal(t, TypeNumber, col.Type)
	_, ok := col.NumberAt(1)
	assert.False(t, ok)
}

func TestReadCSV_PureTextColumnReported(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "m.csv",
		"Date,Note\n2025-01-01,alpha\n2025-01-02,beta\n2025-01-03,gamma\n2025-01-04,delta\n2025-01-05,epsilon\n2025-01-06,zeta\n")

	tbl, report, err := ReadCSV(path)
	require.NoError(t, err)

	col, _ := tbl.Column("Note")
	assert.Equal(t, TypeString, col.Type)

	var noteInf *ColumnInference
	for i := range report {
		if report[i].Column == "Note" {
			noteInf = &report[i]
		}
	}
	require.NotNil(t, noteInf, "inference outcome for Note must be reported")
	assert.Error(t, noteInf.Err)
}

func TestReadCSV_NoDateColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "plain.csv", "a,b\nx,1\ny,2\n")

	tbl, _, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Empty(t, tbl.DateColumn())
}

func TestReadCSV_UnparseableDateColumnNotDesignated(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "m.csv",
		"Date,Value\nnot-a-date,1\nstill-not,2\n")

	tbl, report, err := ReadCSV(path)
	require.NoError(t, err)

	assert.Empty(t, tbl.DateColumn(), "a column that fails conversion must not become the date axis")
	col, _ := tbl.Column("Date")
	assert.Equal(t, TypeString, col.Type)

	var dateInf *ColumnInference
	for i := range report {
		if report[i].Column == "Date" {
			dateInf = &report[i]
		}
	}
	require.NotNil(t, dateInf)
	assert.Error(t, dateInf.Err)
}

func TestReadCSV_BOMHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "bom.csv", "\ufeffDate,Value\n2025-01-01,1\n")

	tbl, _, err := ReadCSV(path)
	require.NoError(t, err)
	assert.True(t, tbl.HasColumn("Date"))
}

func TestReadCSV_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "bad.csv", "a,b\n\"unterminated\n")

	_, _, err := ReadCSV(path)
	assert.Error(t, err)
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, _, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoader_CacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "m.csv", "Date,Value\n2025-01-01,1\n2025-01-02,2\n")

	cache := NewCache(DefaultCacheCapacity, slog.Default())
	loader := NewLoader(cache, slog.Default())

	first, err := loader.Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	second, err := loader.Load(path)
	require.NoError(t, err)

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	// Mutating the first returned table never affects the second.
	col, _ := first.Column("Value")
	col.nums[0] = 999
	secondCol, _ := second.Column("Value")
	v, _ := secondCol.NumberAt(0)
	assert.Equal(t, 1.0, v)
}

func TestLoader_ModTimeInvalidatesKey(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "m.csv", "Date,Value\n2025-01-01,1\n")

	cache := NewCache(DefaultCacheCapacity, slog.Default())
	loader := NewLoader(cache, slog.Default())

	_, err := loader.Load(path)
	require.NoError(t, err)

	// Rewrite with a different modification time.
	require.NoError(t, os.WriteFile(path, []byte("Date,Value\n2025-01-01,42\n"), 0644))
	newTime := time.Now().Add(2 * time.Hour)
	require.NoError(t, os.Chtimes(path, newTime, newTime))

	tbl, err := loader.Load(path)
	require.NoError(t, err)

	col, _ := tbl.Column("Value")
	v, _ := col.NumberAt(0)
	assert.Equal(t, 42.0, v, "changed file must not serve stale rows")
}

func TestLoader_FailureLeavesCacheUnmodified(t *testing.T) {
	cache := NewCache(DefaultCacheCapacity, slog.Default())
	loader := NewLoader(cache, slog.Default())

	_, err := loader.Load(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

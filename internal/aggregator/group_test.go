package aggregator

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csviz/internal/config"
	"csviz/internal/scanner"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func descriptor(metric, path string, start, end time.Time, size int64) scanner.FileDescriptor {
	return scanner.FileDescriptor{
		Path:      path,
		Name:      path,
		Metric:    metric,
		StartDate: start,
		EndDate:   end,
		SizeBytes: size,
	}
}

func defaultAggregator(cfg config.AggregationConfig) *Aggregator {
	return New(cfg, slog.Default())
}

func TestGroupByMetric_AllSameMetricInOneGroup(t *testing.T) {
	files := []scanner.FileDescriptor{
		descriptor("Sessions", "b.csv", date(2025, 1, 8), date(2025, 1, 14), 10),
		descriptor("Sessions", "a.csv", date(2025, 1, 1), date(2025, 1, 7), 10),
		descriptor("Errors", "e1.csv", date(2025, 1, 1), date(2025, 1, 7), 5),
		descriptor("Errors", "e2.csv", date(2025, 1, 8), date(2025, 1, 14), 5),
	}

	a := defaultAggregator(config.AggregationConfig{})
	groups := a.GroupByMetric(files)

	require.Len(t, groups, 2)
	require.Len(t, groups["Sessions"], 2)
	// Members sorted ascending by start date.
	assert.Equal(t, "a.csv", groups["Sessions"][0].Path)
	assert.Equal(t, "b.csv", groups["Sessions"][1].Path)
}

func TestGroupByMetric_SingleFileGroupsDropped(t *testing.T) {
	files := []scanner.FileDescriptor{
		descriptor("Lonely", "l.csv", date(2025, 1, 1), date(2025, 1, 7), 1),
		descriptor("Sessions", "a.csv", date(2025, 1, 1), date(2025, 1, 7), 1),
		descriptor("Sessions", "b.csv", date(2025, 1, 8), date(2025, 1, 14), 1),
	}

	a := defaultAggregator(config.AggregationConfig{})
	groups := a.GroupByMetric(files)
	assert.NotContains(t, groups, "Lonely")

	a = defaultAggregator(config.AggregationConfig{ShowSingleFileGroups: true})
	groups = a.GroupByMetric(files)
	assert.Contains(t, groups, "Lonely")
}

func TestGroupByMetric_UndatedMembersSortFirst(t *testing.T) {
	files := []scanner.FileDescriptor{
		descriptor("M", "dated.csv", date(2025, 1, 1), date(2025, 1, 7), 1),
		descriptor("M", "undated.csv", time.Time{}, time.Time{}, 1),
	}

	a := defaultAggregator(config.AggregationConfig{})
	groups := a.GroupByMetric(files)
	require.Len(t, groups["M"], 2)
	assert.Equal(t, "undated.csv", groups["M"][0].Path)
}

func TestBuildGroupDescriptor_Span(t *testing.T) {
	files := []scanner.FileDescriptor{
		descriptor("Sessions", "b.csv", date(2025, 1, 8), date(2025, 1, 14), 100),
		descriptor("Sessions", "a.csv", date(2025, 1, 1), date(2025, 1, 7), 50),
	}

	a := defaultAggregator(config.AggregationConfig{})
	g := a.BuildGroupDescriptor("Sessions", files)

	assert.Equal(t, "Sessions, 2025-01-01 to 2025-01-14", g.DisplayName)
	assert.Equal(t, date(2025, 1, 1), g.StartDate)
	assert.Equal(t, date(2025, 1, 14), g.EndDate)
	assert.Equal(t, 2, g.FileCount)
	assert.Equal(t, int64(150), g.TotalSizeBytes)
	assert.Equal(t, "a.csv", g.PrimaryPath, "chronologically first file is the representative")
}

func TestBuildGroupDescriptor_NoDates(t *testing.T) {
	files := []scanner.FileDescriptor{
		descriptor("M", "x.csv", time.Time{}, time.Time{}, 1),
		descriptor("M", "y.csv", time.Time{}, time.Time{}, 2),
	}

	a := defaultAggregator(config.AggregationConfig{})
	g := a.BuildGroupDescriptor("M", files)

	assert.Equal(t, "M (multiple files)", g.DisplayName)
	assert.True(t, g.StartDate.IsZero())
	assert.True(t, g.EndDate.IsZero())
}

func TestBuildGroupDescriptor_IgnoresUndatedMembersForSpan(t *testing.T) {
	files := []scanner.FileDescriptor{
		descriptor("M", "dated.csv", date(2025, 2, 1), date(2025, 2, 7), 1),
		descriptor("M", "undated.csv", time.Time{}, time.Time{}, 1),
	}

	a := defaultAggregator(config.AggregationConfig{})
	g := a.BuildGroupDescriptor("M", files)

	assert.Equal(t, date(2025, 2, 1), g.StartDate)
	assert.Equal(t, date(2025, 2, 7), g.EndDate)
}

func TestBrowseItems_GroupsAndLooseFiles(t *testing.T) {
	files := []scanner.FileDescriptor{
		descriptor("Sessions", "b.csv", date(2025, 1, 8), date(2025, 1, 14), 1),
		descriptor("Sessions", "a.csv", date(2025, 1, 1), date(2025, 1, 7), 1),
		descriptor("Lonely", "l.csv", date(2025, 1, 1), date(2025, 1, 7), 1),
	}

	a := defaultAggregator(config.AggregationConfig{EnableFileAggregation: true})
	items := a.BrowseItems(files)
	require.Len(t, items, 2)

	group, ok := items[0].(GroupDescriptor)
	require.True(t, ok, "group comes first")
	assert.Equal(t, "Sessions", group.Metric)

	file, ok := items[1].(FileItem)
	require.True(t, ok)
	assert.Equal(t, "Lonely", file.Metric)
}

func TestBrowseItems_AggregationDisabled(t *testing.T) {
	files := []scanner.FileDescriptor{
		descriptor("Sessions", "a.csv", date(2025, 1, 1), date(2025, 1, 7), 1),
		descriptor("Sessions", "b.csv", date(2025, 1, 8), date(2025, 1, 14), 1),
	}

	a := defaultAggregator(config.AggregationConfig{EnableFileAggregation: false})
	items := a.BrowseItems(files)
	require.Len(t, items, 2)
	for _, item := range items {
		_, ok := item.(FileItem)
		assert.True(t, ok)
	}
}

package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"csviz/internal/table"
)

var (
	// metricPattern matches the export naming convention
	// "<metric> - <identifier>, <start> to <end>".
	metricPattern = regexp.MustCompile(`(.+) - (.+), (.+) to (.+)`)

	// datePattern finds bare YYYY-MM-DD substrings anywhere in a name.
	datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

	// weekPattern matches weekly export folders, e.g. "Week12[2025-3-17_2025-3-23]".
	weekPattern = regexp.MustCompile(`Week(\d+)\[(\d{4}-\d{1,2}-\d{1,2})_(\d{4}-\d{1,2}-\d{1,2})\]`)
)

// FileDescriptor describes one discovered CSV file. Metadata fields are
// extracted from the file name and its containing folder; a zero date
// means the name carried no usable date. Metric is always populated,
// falling back to the file name stem.
type FileDescriptor struct {
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name"`
	SizeBytes    int64     `json:"size_bytes"`
	ModifiedTime time.Time `json:"modified_time"`
	Metric       string    `json:"metric"`
	Identifier   string    `json:"identifier,omitempty"`
	StartDate    time.Time `json:"start_date,omitempty"`
	EndDate      time.Time `json:"end_date,omitempty"`
	WeekNumber   int       `json:"week_number,omitempty"`
}

// HasDates reports whether the descriptor carries a start date.
func (d FileDescriptor) HasDates() bool { return !d.StartDate.IsZero() }

// DisplayLabel returns the name shown in a file browser.
func (d FileDescriptor) DisplayLabel() string { return d.DisplayName }

// RepresentativePath returns the path used as the descriptor's identity.
func (d FileDescriptor) RepresentativePath() string { return d.Path }

// WeekContext is the date context parsed from a weekly export folder name.
type WeekContext struct {
	Number    int
	StartDate time.Time
	EndDate   time.Time
}

// ParseWeekFolder extracts week context from a folder name of the form
// "Week<N>[<start>_<end>]". Reports false for any other folder name or
// when the embedded dates do not parse.
func ParseWeekFolder(name string) (WeekContext, bool) {
	m := weekPattern.FindStringSubmatch(name)
	if m == nil {
		return WeekContext{}, false
	}
	number, _ := strconv.Atoi(m[1])
	start, okStart := table.ParseDate(m[2])
	end, okEnd := table.ParseDate(m[3])
	if !okStart || !okEnd {
		return WeekContext{}, false
	}
	return WeekContext{Number: number, StartDate: start, EndDate: end}, true
}

// ParseFileName extracts metric and date metadata from a CSV file name.
// Parsing never fails: fields that cannot be extracted are simply left
// unset, and the metric falls back to the name stem. Week context from
// the containing folder fills dates only when the name itself provided
// none.
func ParseFileName(name string, week *WeekContext) FileDescriptor {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	d := FileDescriptor{
		Name:        name,
		DisplayName: stem,
		Metric:      stem,
	}

	if m := metricPattern.FindStringSubmatch(stem); m != nil {
		d.Metric = strings.TrimSpace(m[1])
		d.Identifier = strings.TrimSpace(m[2])
		start, okStart := table.ParseDate(m[3])
		end, okEnd := table.ParseDate(m[4])
		if okStart && okEnd {
			d.StartDate, d.EndDate = start, end
		} else {
			// The captured groups were not clean dates; fall back to any
			// bare date substrings in the name.
			d.StartDate, d.EndDate = datesFromName(stem)
		}
	} else {
		d.StartDate, d.EndDate = datesFromName(stem)
	}

	// Start must not follow end.
	if !d.StartDate.IsZero() && !d.EndDate.IsZero() && d.EndDate.Before(d.StartDate) {
		d.StartDate, d.EndDate = d.EndDate, d.StartDate
	}

	if week != nil {
		d.WeekNumber = week.Number
		// Folder dates are authoritative only when the name provided none.
		if d.StartDate.IsZero() {
			d.StartDate = week.StartDate
		}
		if d.EndDate.IsZero() {
			d.EndDate = week.EndDate
		}
	}

	return d
}

// datesFromName scans a name for bare YYYY-MM-DD substrings. The first
// becomes the start date; with two or more, the last becomes the end date.
func datesFromName(name string) (start, end time.Time) {
	matches := datePattern.FindAllString(name, -1)
	if len(matches) == 0 {
		return start, end
	}
	if v, ok := table.ParseDate(matches[0]); ok {
		start = v
	}
	if len(matches) > 1 {
		if v, ok := table.ParseDate(matches[len(matches)-1]); ok {
			end = v
		}
	}
	return start, end
}

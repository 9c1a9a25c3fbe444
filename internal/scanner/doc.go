// Package scanner discovers CSV files in a directory tree and extracts
// metric and date-range metadata from their names and containing folders.
// Name parsing is best effort and never fails: unmatched fields stay
// unset and callers must tolerate descriptors without dates.
package scanner

// Package table provides the in-memory tabular representation of CSV
// contents and the machinery around it: a two-pass loader with column type
// inference, lenient date and number parsing, date column detection,
// deduplication strategies, and an LRU cache of loaded tables.
//
// A Table is an ordered sequence of rows over named, typed columns. At
// most one column is designated the date column; an optional Breakdown
// column splits the table into named sub-series. Tables handed out by the
// cache are deep copies, so callers may mutate them freely.
package table

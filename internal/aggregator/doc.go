// Package aggregator groups same-metric CSV files into synthetic
// continuous series: it partitions scan results by metric name, derives
// group summary descriptors, and merges member tables with configurable
// duplicate handling.
package aggregator

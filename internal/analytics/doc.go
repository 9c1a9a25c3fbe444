// Package analytics computes derived views of loaded tables: calendar-period
// resampling, period-over-period comparisons, and descriptive statistics with
// a linear trend estimate.
package analytics

// Package exporter writes tables to disk as CSV, XLSX, or JSON for use
// outside the application.
package exporter

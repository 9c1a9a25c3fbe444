// Package http exposes the data pipeline over a JSON API: directory
// browsing, table loading, analytics, sampling, and file export.
package http

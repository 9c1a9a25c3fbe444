package http

import (
	"csviz/internal/aggregator"
	"csviz/internal/scanner"
	"csviz/internal/table"
)

// DataService is the slice of the data service the handlers consume.
type DataService interface {
	ScanDirectory(directory string) ([]scanner.FileDescriptor, error)
	BrowseItems(directory string) ([]aggregator.Item, error)
	LoadFile(path string) (*table.Table, error)
	LoadCombined(path string) (*table.Table, error)
	RecentFiles() []string
	ExportDir() string
	CacheStats() (hits, misses int64)
}

// Package services wires the scanning, grouping, loading, and caching
// layers into the operations the transport and CLI layers call.
package services

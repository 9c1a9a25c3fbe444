package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewNoDataError("no files could be loaded"),
			expected: "[NO_DATA] no files could be loaded",
		},
		{
			name:     "with cause",
			err:      NewStorageError("failed to read csv", os.ErrPermission),
			expected: "[STORAGE] failed to read csv: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := os.ErrNotExist
	err := NewStorageError("cannot stat file", cause)

	assert.True(t, errors.Is(err, os.ErrNotExist))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestIsType(t *testing.T) {
	notFound := NewNotFoundError("directory /data")

	assert.True(t, IsType(notFound, ErrTypeNotFound))
	assert.False(t, IsType(notFound, ErrTypeNoData))

	// Wrapped AppError is still detected.
	wrapped := fmt.Errorf("scan failed: %w", notFound)
	assert.True(t, IsType(wrapped, ErrTypeNotFound))

	assert.False(t, IsType(errors.New("plain"), ErrTypeNotFound))
	assert.False(t, IsType(nil, ErrTypeNotFound))
}

func TestAppError_WithContext(t *testing.T) {
	err := NewParsingError("bad date", nil).
		WithContext("column", "Date").
		WithContext("row", 17)

	assert.Equal(t, "Date", err.Context["column"])
	assert.Equal(t, 17, err.Context["row"])
}

package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApplication_Defaults(t *testing.T) {
	t.Setenv("CSVIZ_PATHS_DATA_DIR", t.TempDir())

	a, err := NewApplication("")
	require.NoError(t, err)
	require.NotNil(t, a.Server)
	assert.Equal(t, ":8091", a.Server.Addr)
}

func TestNewApplication_ServesHealth(t *testing.T) {
	t.Setenv("CSVIZ_PATHS_DATA_DIR", t.TempDir())

	a, err := NewApplication("")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewApplication_BadConfigFile(t *testing.T) {
	_, err := NewApplication("/does/not/exist.yaml")
	assert.Error(t, err)
}

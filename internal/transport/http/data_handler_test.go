package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csviz/internal/config"
	"csviz/internal/services"
)

type testEnv struct {
	router  chi.Router
	dataDir string
	file1   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dataDir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dataDir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}
	file1 := write("Sessions - ID1, 2025-01-01 to 2025-01-07.csv",
		"Date,Sessions\n2025-01-01,100\n2025-01-02,120\n2025-01-03,110\n")
	write("Sessions - ID1, 2025-01-08 to 2025-01-14.csv",
		"Date,Sessions\n2025-01-08,130\n2025-01-09,150\n")

	cfg := config.Default()
	cfg.Paths.DataDir = dataDir
	cfg.Paths.ExportDir = filepath.Join(dataDir, "exports")

	svc := services.NewDataService(cfg, slog.Default())
	return &testEnv{
		router:  NewRouter(svc, cfg.Chart, slog.Default()),
		dataDir: dataDir,
		file1:   file1,
	}
}

func (e *testEnv) get(t *testing.T, path string, params url.Values) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	return e.do(t, http.MethodGet, path, params)
}

func (e *testEnv) do(t *testing.T, method, path string, params url.Values) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	target := path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestGetFiles_ListsGroups(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.get(t, "/api/data/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, float64(1), body["count"])
	items := body["items"].([]interface{})
	first := items[0].(map[string]interface{})
	assert.Equal(t, "group", first["type"])
	assert.Equal(t, "Sessions, 2025-01-01 to 2025-01-14", first["label"])
}

func TestGetFiles_MissingDirectory(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.get(t, "/api/data/files", url.Values{"dir": {"/does/not/exist"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTable_Combined(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.get(t, "/api/data/table", url.Values{
		"path":     {env.file1},
		"combined": {"true"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), body["row_count"])
	assert.Equal(t, "Date", body["date_column"])
}

func TestGetTable_DateRangeFilter(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.get(t, "/api/data/table", url.Values{
		"path":     {env.file1},
		"combined": {"true"},
		"from":     {"2025-01-08"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["row_count"])
}

func TestGetTable_RequiresPath(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.get(t, "/api/data/table", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTable_BadDateParam(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.get(t, "/api/data/table", url.Values{
		"path": {env.file1},
		"from": {"not-a-date"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.get(t, "/api/data/metrics", url.Values{
		"path":     {env.file1},
		"combined": {"true"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sessions", body["value_column"])

	metrics := body["metrics"].(map[string]interface{})
	overall := metrics["overall"].(map[string]interface{})
	assert.Equal(t, float64(5), overall["count"])
	assert.Equal(t, float64(122), overall["mean"])
}

func TestGetResampled_Weekly(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.get(t, "/api/data/resample", url.Values{
		"path":     {env.file1},
		"combined": {"true"},
		"period":   {"weekly"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["row_count"], "five days collapse into two ISO weeks")
}

func TestGetPeriodMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.get(t, "/api/data/period-metrics", url.Values{
		"path":     {env.file1},
		"combined": {"true"},
		"days":     {"4"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	metrics := body["metrics"].(map[string]interface{})
	overall := metrics["overall"].(map[string]interface{})
	assert.NotNil(t, overall["current_avg"])
}

func TestExport_CSV(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/data/export", url.Values{
		"path":     {env.file1},
		"combined": {"true"},
		"format":   {"csv"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	exported := body["path"].(string)
	_, err := os.Stat(exported)
	assert.NoError(t, err, "export file is written to disk")
}

func TestExport_UnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/data/export", url.Values{
		"path":   {env.file1},
		"format": {"parquet"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHealth(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.get(t, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestRequestIDHeaderPresent(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.get(t, "/api/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

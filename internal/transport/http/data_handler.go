package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"csviz/internal/aggregator"
	"csviz/internal/analytics"
	"csviz/internal/config"
	apperrors "csviz/internal/errors"
	"csviz/internal/exporter"
	"csviz/internal/middleware"
	"csviz/internal/sampler"
	"csviz/internal/table"
)

// DataHandler serves the data API: browsing, table access, analytics, and
// export.
type DataHandler struct {
	service DataService
	engine  *analytics.Engine
	sampler *sampler.Sampler
	writer  *exporter.Writer
	chart   config.ChartConfig
	logger  *slog.Logger
}

// NewDataHandler creates a data handler.
func NewDataHandler(service DataService, engine *analytics.Engine, smp *sampler.Sampler, writer *exporter.Writer, chart config.ChartConfig, logger *slog.Logger) *DataHandler {
	return &DataHandler{
		service: service,
		engine:  engine,
		sampler: smp,
		writer:  writer,
		chart:   chart,
		logger:  logger.With(slog.String("component", "data_handler")),
	}
}

// Routes returns the data API routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/files", h.GetFiles)
	r.Get("/recent", h.GetRecent)
	r.Get("/table", h.GetTable)
	r.Get("/metrics", h.GetMetrics)
	r.Get("/resample", h.GetResampled)
	r.Get("/period-metrics", h.GetPeriodMetrics)
	r.Post("/export", h.Export)

	return r
}

// browseItem tags each browser entry with its concrete kind so clients
// can switch without probing fields.
type browseItem struct {
	Type  string      `json:"type"`
	Label string      `json:"label"`
	Path  string      `json:"path"`
	Item  interface{} `json:"item"`
}

// GetFiles handles GET /api/data/files?dir=
func (h *DataHandler) GetFiles(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")

	items, err := h.service.BrowseItems(dir)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "browse failed",
			slog.String("dir", dir),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		renderError(w, r, err)
		return
	}

	out := make([]browseItem, 0, len(items))
	for _, item := range items {
		entry := browseItem{
			Label: item.DisplayLabel(),
			Path:  item.RepresentativePath(),
			Item:  item,
		}
		switch item.(type) {
		case aggregator.GroupDescriptor:
			entry.Type = "group"
		default:
			entry.Type = "file"
		}
		out = append(out, entry)
	}

	render.JSON(w, r, map[string]interface{}{
		"items": out,
		"count": len(out),
	})
}

// GetRecent handles GET /api/data/recent
func (h *DataHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"recent": h.service.RecentFiles(),
	})
}

// loadTable resolves the path/combined/from/to query parameters into a
// loaded, optionally date-filtered table.
func (h *DataHandler) loadTable(r *http.Request) (*table.Table, error) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		return nil, apperrors.NewValidationError("path parameter is required")
	}

	var (
		t   *table.Table
		err error
	)
	if q.Get("combined") == "true" {
		t, err = h.service.LoadCombined(path)
	} else {
		t, err = h.service.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	from, err := parseDateParam(q.Get("from"), "from")
	if err != nil {
		return nil, err
	}
	to, err := parseDateParam(q.Get("to"), "to")
	if err != nil {
		return nil, err
	}
	if !from.IsZero() || !to.IsZero() {
		t = t.FilterByDateRange(from, to)
	}
	return t, nil
}

// valueColumn resolves the value query parameter, falling back to the
// table's first numeric column.
func valueColumn(t *table.Table, requested string) (string, error) {
	if requested != "" {
		c, ok := t.Column(requested)
		if !ok || c.Type != table.TypeNumber {
			return "", apperrors.NewValidationError(fmt.Sprintf("column %q is not a numeric column", requested))
		}
		return requested, nil
	}
	name, ok := t.DefaultValueColumn()
	if !ok {
		return "", apperrors.NewValidationError("table has no numeric value column")
	}
	return name, nil
}

// GetTable handles GET /api/data/table?path=&combined=&from=&to=&max_points=
func (h *DataHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	t, err := h.loadTable(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	if raw := r.URL.Query().Get("max_points"); raw != "" {
		maxPoints, err := strconv.Atoi(raw)
		if err != nil || maxPoints <= 0 {
			badRequest(w, r, "max_points must be a positive integer")
			return
		}
		t = h.sampler.Sample(t, maxPoints)
	}

	render.JSON(w, r, map[string]interface{}{
		"columns":     t.ColumnNames(),
		"date_column": t.DateColumn(),
		"row_count":   t.NumRows(),
		"rows":        exporter.TableRows(t),
	})
}

// GetMetrics handles GET /api/data/metrics?path=&value=
func (h *DataHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	t, err := h.loadTable(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	value, err := valueColumn(t, r.URL.Query().Get("value"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	metrics, err := h.engine.Metrics(t, t.DateColumn(), value)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"value_column": value,
		"metrics":      metrics,
	})
}

// GetResampled handles GET /api/data/resample?path=&period=&value=
func (h *DataHandler) GetResampled(w http.ResponseWriter, r *http.Request) {
	t, err := h.loadTable(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	value, err := valueColumn(t, r.URL.Query().Get("value"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	period := analytics.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = analytics.PeriodDaily
	}

	breakdown := ""
	if t.HasColumn(table.BreakdownColumn) {
		breakdown = table.BreakdownColumn
	}

	resampled, err := h.engine.Resample(t, t.DateColumn(), []string{value}, breakdown, period)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"period":    string(period),
		"row_count": resampled.NumRows(),
		"rows":      exporter.TableRows(resampled),
	})
}

// GetPeriodMetrics handles GET /api/data/period-metrics?path=&value=&days=
func (h *DataHandler) GetPeriodMetrics(w http.ResponseWriter, r *http.Request) {
	t, err := h.loadTable(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	value, err := valueColumn(t, r.URL.Query().Get("value"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	days := h.chart.DefaultTimePeriodDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days <= 0 {
			badRequest(w, r, "days must be a positive integer")
			return
		}
	}

	breakdown := ""
	if t.HasColumn(table.BreakdownColumn) {
		breakdown = table.BreakdownColumn
	}

	metrics, err := h.engine.PeriodOverPeriod(t, t.DateColumn(), value, breakdown, days)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"value_column": value,
		"period_days":  days,
		"metrics":      metrics,
	})
}

// Export handles POST /api/data/export?path=&format=
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	t, err := h.loadTable(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	source := r.URL.Query().Get("path")
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	target := filepath.Join(h.service.ExportDir(), stem+"."+format)

	switch format {
	case "csv":
		err = h.writer.WriteCSV(t, target, exporter.CSVOptions{BOMPrefix: true})
	case "xlsx":
		err = h.writer.WriteXLSX(t, target, "")
	case "json":
		err = h.writer.WriteJSON(t, target)
	default:
		badRequest(w, r, fmt.Sprintf("unsupported export format %q", format))
		return
	}
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"path":      target,
		"format":    format,
		"row_count": t.NumRows(),
	})
}

// parseDateParam parses an optional YYYY-MM-DD query parameter.
func parseDateParam(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, ok := table.ParseDate(raw)
	if !ok {
		return time.Time{}, apperrors.NewValidationError(fmt.Sprintf("%s is not a recognized date: %q", name, raw))
	}
	return parsed, nil
}

// Command csviz is a console companion to the server: it scans a data
// directory, shows how files group into series, and exports merged tables.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"csviz/internal/aggregator"
	"csviz/internal/analytics"
	"csviz/internal/config"
	"csviz/internal/exporter"
	"csviz/internal/infrastructure"
	"csviz/internal/sampler"
	"csviz/internal/services"
	"csviz/internal/table"
)

func main() {
	configFile := flag.String("config", "", "path to YAML settings file (optional)")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}

	service := services.NewDataService(cfg, logger)

	var runErr error
	switch flag.Arg(0) {
	case "browse":
		runErr = runBrowse(service, flag.Args()[1:])
	case "export":
		runErr = runExport(service, logger, flag.Args()[1:])
	case "metrics":
		runErr = runMetrics(service, logger, cfg, flag.Args()[1:])
	default:
		usage()
		os.Exit(2)
	}

	if runErr != nil {
		logger.Error("command failed", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: csviz [-config file] <command> [options]

commands:
  browse  [-dir path]                              list files and groups
  export  [-path file] [-combined] [-format csv|xlsx|json] [-out file]
  metrics [-path file] [-combined] [-value column] [-days n] [-max-points n]`)
}

func runBrowse(service *services.DataService, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	dir := fs.String("dir", "", "directory to scan (defaults to configured data dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := service.BrowseItems(*dir)
	if err != nil {
		return err
	}
	for _, item := range items {
		switch v := item.(type) {
		case aggregator.GroupDescriptor:
			fmt.Printf("[group] %s  (%d files, %d bytes)\n", v.DisplayLabel(), v.FileCount, v.TotalSizeBytes)
			for _, f := range v.Files {
				fmt.Printf("        - %s\n", f.Name)
			}
		default:
			fmt.Printf("[file]  %s\n", item.DisplayLabel())
		}
	}
	return nil
}

func runExport(service *services.DataService, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	path := fs.String("path", "", "CSV file to export (required)")
	combined := fs.Bool("combined", false, "merge sibling files sharing the metric")
	format := fs.String("format", "csv", "output format: csv, xlsx, or json")
	out := fs.String("out", "", "output file (defaults to <export dir>/<stem>.<format>)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("-path is required")
	}

	t, err := loadTable(service, *path, *combined)
	if err != nil {
		return err
	}

	target := *out
	if target == "" {
		target = defaultExportPath(service, *path, *format)
	}

	writer := exporter.New(logger)
	switch *format {
	case "csv":
		err = writer.WriteCSV(t, target, exporter.CSVOptions{BOMPrefix: true})
	case "xlsx":
		err = writer.WriteXLSX(t, target, "")
	case "json":
		err = writer.WriteJSON(t, target)
	default:
		return fmt.Errorf("unsupported format %q", *format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d rows to %s\n", t.NumRows(), target)
	return nil
}

func runMetrics(service *services.DataService, logger *slog.Logger, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	path := fs.String("path", "", "CSV file to analyze (required)")
	combined := fs.Bool("combined", false, "merge sibling files sharing the metric")
	value := fs.String("value", "", "value column (defaults to first numeric column)")
	days := fs.Int("days", 0, "period-over-period window in days (defaults to configured period)")
	maxPoints := fs.Int("max-points", 0, "downsample preview to at most this many points")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("-path is required")
	}

	t, err := loadTable(service, *path, *combined)
	if err != nil {
		return err
	}

	valueCol := *value
	if valueCol == "" {
		name, ok := t.DefaultValueColumn()
		if !ok {
			return fmt.Errorf("table has no numeric value column")
		}
		valueCol = name
	}

	engine := analytics.New(logger)
	metrics, err := engine.Metrics(t, t.DateColumn(), valueCol)
	if err != nil {
		return err
	}
	for name, m := range metrics {
		fmt.Printf("%s: count=%d min=%.2f max=%.2f mean=%.2f median=%.2f std=%.2f\n",
			name, m.Count, m.Min, m.Max, m.Mean, m.Median, m.Std)
		if m.Trend != nil {
			fmt.Printf("%s: trend %s, slope=%.4f, change=%.1f%%\n",
				name, m.Trend.Direction, m.Trend.Slope, m.Trend.PercentChange)
		}
	}

	window := *days
	if window <= 0 {
		window = cfg.Chart.DefaultTimePeriodDays
	}
	breakdown := ""
	if t.HasColumn(table.BreakdownColumn) {
		breakdown = table.BreakdownColumn
	}
	periods, err := engine.PeriodOverPeriod(t, t.DateColumn(), valueCol, breakdown, window)
	if err != nil {
		return err
	}
	for name, p := range periods {
		line := fmt.Sprintf("%s: last %d days", name, window)
		if p.CurrentMean != nil {
			line += fmt.Sprintf(" avg=%.2f", *p.CurrentMean)
		}
		if p.PercentChange != nil {
			line += fmt.Sprintf(" (%+.1f%% vs previous)", *p.PercentChange)
		}
		fmt.Println(line)
	}

	if *maxPoints > 0 {
		smp := sampler.New(rand.New(rand.NewSource(rand.Int63())), logger)
		sampled := smp.Sample(t, *maxPoints)
		fmt.Printf("preview: %d of %d rows\n", sampled.NumRows(), t.NumRows())
	}
	return nil
}

func loadTable(service *services.DataService, path string, combined bool) (*table.Table, error) {
	if combined {
		return service.LoadCombined(path)
	}
	return service.LoadFile(path)
}

func defaultExportPath(service *services.DataService, source, format string) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(service.ExportDir(), stem+"."+format)
}

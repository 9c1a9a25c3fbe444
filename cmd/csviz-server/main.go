package main

import (
	"flag"
	"log/slog"
	"os"

	"csviz/internal/app"
)

func main() {
	configFile := flag.String("config", "", "path to YAML settings file (optional)")
	flag.Parse()

	application, err := app.NewApplication(*configFile)
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// fetch downloads the GeoSphere daily station dataset to
// ~/geosphere_data.json.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"niederschlag-server/internal/fetch"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := fetch.New()
	if err != nil {
		logger.Error("fetch setup failed", "error", err)
		os.Exit(1)
	}

	if err := f.Fetch(ctx); err != nil {
		logger.Error("fetch failed", "url", f.URL, "error", err)
		os.Exit(1)
	}
	logger.Info("dataset written", "path", f.OutputPath)
}

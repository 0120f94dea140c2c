package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mordilloSan/go_logger/logger"

	"github.com/mordilloSan/staticserver/storage"
)

// RunStatsMode prints an access log summary as JSON to stdout and exits the process
// on failure. It is called from main when -stats is set.
func RunStatsMode(dbPath string, top int) {
	if err := writeStats(context.Background(), os.Stdout, dbPath, top); err != nil {
		logger.Fatalf("Stats failed: %v", err)
	}
}

func writeStats(ctx context.Context, w io.Writer, dbPath string, top int) error {
	if dbPath == "" {
		return fmt.Errorf("access log path is required")
	}
	if !fileExists(dbPath) {
		return fmt.Errorf("access log %s does not exist", dbPath)
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warnf("Failed to close database: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stats, err := store.Stats(ctx, top)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

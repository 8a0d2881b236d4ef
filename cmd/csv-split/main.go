package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mikey/email-analytics/internal/di"
	"github.com/mikey/email-analytics/internal/splitter"
	"go.uber.org/zap"
)

var (
	inputDir  = flag.String("input", ".", "Directory holding the CSV exports")
	outputDir = flag.String("output", "split_by_month", "Directory the month files are written to")
	column    = flag.String("column", "", "Timestamp column to group by (default origin_timestamp_utc)")
)

func main() {
	flag.Parse()

	// Configuration comes from the usual config file and environment
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(logger *zap.Logger, s *splitter.Splitter) error {
	defer logger.Sync()

	if *column != "" {
		s = s.WithColumn(*column)
	}

	results, err := s.SplitDir(*inputDir, *outputDir)
	if err != nil {
		return err
	}

	outputs := 0
	for _, r := range results {
		outputs += len(r.Outputs)
	}
	logger.Info("Processing complete",
		zap.Int("files", len(results)),
		zap.Int("generated", outputs),
		zap.String("output_dir", *outputDir))
	return nil
}

package main

import (
	"fmt"
	"path/filepath"

	"github.com/mikey/email-analytics/internal/di"
	"github.com/mikey/email-analytics/internal/splitter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSplitCommand(flags *di.CLIFlags) *cobra.Command {
	var (
		outputDir string
		column    string
	)

	cmd := &cobra.Command{
		Use:   "split <file-or-dir>...",
		Short: "Split CSV exports into one file per month, removing duplicate rows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := di.BuildCLIContainer(flags)
			if err != nil {
				return fmt.Errorf("failed to build dependency container: %w", err)
			}
			return container.Invoke(func(logger *zap.Logger, s *splitter.Splitter) error {
				defer logger.Sync()
				if column != "" {
					s = s.WithColumn(column)
				}
				return runSplit(cmd, s, args, outputDir)
			})
		},
	}

	cmd.Flags().StringVar(&outputDir, "out", "split_by_month", "Output directory")
	cmd.Flags().StringVar(&column, "column", "", "Timestamp column to group by (default origin_timestamp_utc)")
	return cmd
}

func runSplit(cmd *cobra.Command, s *splitter.Splitter, inputs []string, outputDir string) error {
	var results []splitter.Result
	for _, input := range inputs {
		if ok, _ := filepath.Match("*.csv", filepath.Base(input)); ok {
			result, err := s.SplitFile(input, outputDir)
			if err != nil {
				return err
			}
			results = append(results, *result)
			continue
		}
		dirResults, err := s.SplitDir(input, outputDir)
		if err != nil {
			return err
		}
		results = append(results, dirResults...)
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "Processing: %s (%s)\n", r.Input, r.Charset)
		if r.Duplicates > 0 {
			fmt.Fprintf(out, "  Removed %d duplicate rows\n", r.Duplicates)
		}
		for _, o := range r.Outputs {
			fmt.Fprintf(out, "  Created: %s (%d rows)\n", filepath.Base(o.Path), o.Rows)
		}
	}
	fmt.Fprintf(out, "Processed %d files\n", len(results))
	return nil
}

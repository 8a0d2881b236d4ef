package main

import (
	"fmt"

	"github.com/mikey/email-analytics/internal/core"
	"github.com/mikey/email-analytics/internal/di"
	"github.com/mikey/email-analytics/internal/factory"
	"github.com/mikey/email-analytics/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFilesCommand(flags *di.CLIFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List the available CSV files with record counts and date ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := di.BuildCLIContainer(flags)
			if err != nil {
				return fmt.Errorf("failed to build dependency container: %w", err)
			}
			return container.Invoke(func(
				logger *zap.Logger,
				svc *service.AnalyticsService,
				cache core.SummaryCache,
				reporters *factory.ReporterFactory,
			) error {
				defer logger.Sync()
				defer stopCache(cache)

				reporter, err := reporters.CreateReporter(format, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				files, err := svc.ListFiles(cmd.Context())
				if err != nil {
					return err
				}
				return reporter.ReportFiles(files)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format (table, json)")
	return cmd
}

package main

import (
	"fmt"
	"time"

	"github.com/mikey/email-analytics/internal/analytics"
	"github.com/mikey/email-analytics/internal/config"
	"github.com/mikey/email-analytics/internal/core"
	"github.com/mikey/email-analytics/internal/di"
	"github.com/mikey/email-analytics/internal/factory"
	"github.com/mikey/email-analytics/internal/permissions"
	"github.com/mikey/email-analytics/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type analyzeOptions struct {
	user      string
	allFiles  bool
	timeRange string
	direction string
	selected  []string
	top       int
	format    string
}

func newAnalyzeCommand(flags *di.CLIFlags) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [file...]",
		Short: "Merge CSV files and show heatmap, leaderboard and year comparison",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.allFiles {
				return fmt.Errorf("name at least one file or pass --all")
			}
			container, err := di.BuildCLIContainer(flags)
			if err != nil {
				return fmt.Errorf("failed to build dependency container: %w", err)
			}
			return container.Invoke(func(
				cfg *config.Config,
				logger *zap.Logger,
				admins *permissions.AdminList,
				svc *service.AnalyticsService,
				cache core.SummaryCache,
				reporters *factory.ReporterFactory,
			) error {
				defer logger.Sync()
				defer stopCache(cache)

				tr, err := analytics.ParseTimeRange(opts.timeRange)
				if err != nil {
					return err
				}
				dir, err := analytics.ParseDirection(opts.direction)
				if err != nil {
					return err
				}
				reporter, err := reporters.CreateReporter(opts.format, cmd.OutOrStdout())
				if err != nil {
					return err
				}

				ctx := cmd.Context()
				names := args
				if opts.allFiles {
					if names, err = fileNames(svc, cmd); err != nil {
						return err
					}
				}

				caller := admins.Resolve(opts.user)
				logger.Info("Analyzing files",
					zap.Strings("files", names),
					zap.String("caller", caller.Email),
					zap.String("role", caller.Role))

				merged, err := svc.Load(ctx, caller, names)
				if err != nil {
					return err
				}
				if err := reporter.ReportDataset(merged); err != nil {
					return err
				}

				top := opts.top
				if !cmd.Flags().Changed("top") {
					top = cfg.GetInt("analytics.top_senders")
				}
				view := svc.Analyze(merged, analytics.Query{
					TimeRange:       tr,
					Direction:       dir,
					CallerEmail:     caller.Email,
					SelectedSenders: opts.selected,
					Now:             time.Now(),
				})
				return reporter.ReportView(view, top)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.user, "user", "u", "", "Email of the caller the rows are filtered for")
	f.BoolVar(&opts.allFiles, "all", false, "Analyze every file the source lists")
	f.StringVarP(&opts.timeRange, "range", "r", "all", "Time range (all, this-week, last-week, this-month, last-month, ytd, last-year)")
	f.StringVarP(&opts.direction, "direction", "d", "both", "Direction relative to the caller (both, sent, received)")
	f.StringSliceVar(&opts.selected, "select", nil, "Senders to highlight")
	f.IntVar(&opts.top, "top", 10, "Leaderboard entries to show")
	f.StringVarP(&opts.format, "format", "o", "table", "Output format (table, json)")
	return cmd
}

func fileNames(svc *service.AnalyticsService, cmd *cobra.Command) ([]string, error) {
	names, err := svc.FileNames(cmd.Context())
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("source has no CSV files: %w", service.ErrNoValidFiles)
	}
	return names, nil
}

// stopCache releases background resources held by the summary cache
func stopCache(cache core.SummaryCache) {
	if stopper, ok := cache.(interface{ Stop() }); ok {
		stopper.Stop()
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/email-analytics/internal/di"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &di.CLIFlags{}

	root := &cobra.Command{
		Use:           "email-analytics",
		Short:         "Analyze email traffic CSV exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
	pf.StringVar(&flags.SourceType, "source", "", "File source (local, http, s3)")
	pf.StringVar(&flags.SourceDir, "dir", "", "Directory of the local file source")
	pf.StringVar(&flags.SourceURL, "base-url", "", "Base URL of the http file source")
	pf.StringVar(&flags.IndexURL, "index-url", "", "Listing URL of the http file source")
	pf.StringVar(&flags.S3Bucket, "bucket", "", "Bucket of the s3 file source")
	pf.StringVar(&flags.S3Prefix, "prefix", "", "Key prefix of the s3 file source")
	pf.StringVar(&flags.S3Region, "region", "", "AWS region of the s3 file source")
	pf.StringVar(&flags.CacheType, "cache", "", "Summary cache (memory, sqlite, mysql)")
	pf.BoolVar(&flags.NoCache, "no-cache", false, "Disable the summary cache")
	pf.StringVar(&flags.Timezone, "timezone", "", "IANA time zone for day and hour buckets")
	pf.BoolVar(&flags.DedupDebug, "dedup-debug", false, "Log duplicate details while merging")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	root.AddCommand(
		newAnalyzeCommand(flags),
		newFilesCommand(flags),
		newSplitCommand(flags),
		newUploadCommand(flags),
		newDeleteCommand(flags),
	)
	return root
}

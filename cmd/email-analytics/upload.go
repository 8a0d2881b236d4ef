package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/email-analytics/internal/core"
	"github.com/mikey/email-analytics/internal/di"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newUploadCommand(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Store CSV exports in the local file source",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFileStore(flags, func(logger *zap.Logger, store core.FileStore) error {
				for _, path := range args {
					f, err := os.Open(path)
					if err != nil {
						return err
					}
					name, err := store.Save(cmd.Context(), filepath.Base(path), f)
					f.Close()
					if err != nil {
						return fmt.Errorf("failed to upload %s: %w", path, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", path, name)
				}
				return nil
			})
		},
	}
}

func newDeleteCommand(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME...",
		Short: "Remove stored CSV files from the local file source",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFileStore(flags, func(logger *zap.Logger, store core.FileStore) error {
				for _, name := range args {
					if err := store.Delete(cmd.Context(), name); err != nil {
						return err
					}
					logger.Info("Deleted file", zap.String("file", name))
				}
				return nil
			})
		},
	}
}

// withFileStore runs fn against the configured source if it accepts writes
func withFileStore(flags *di.CLIFlags, fn func(*zap.Logger, core.FileStore) error) error {
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}
	return container.Invoke(func(logger *zap.Logger, source core.FileSource) error {
		defer logger.Sync()

		store, ok := source.(core.FileStore)
		if !ok {
			return fmt.Errorf("the %T file source is read-only", source)
		}
		return fn(logger, store)
	})
}

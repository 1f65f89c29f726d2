// File: cmd/watch.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/config"
	"github.com/xkilldash9x/boxflow/internal/observability"
	"github.com/xkilldash9x/boxflow/internal/watch"
)

// newWatchCmd creates the `watch` command.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE...",
		Short: "Re-run layout whenever a document changes",
		Long: `Lays out every FILE once, then again each time one of them is saved.
Bursts of file events are coalesced and re-layouts are rate limited by the
watch section of the configuration. Stop with Ctrl+C.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runWatch(ctx, observability.Component("watch"), cfg, args, cmd.OutOrStdout())
		},
	}
}

func runWatch(ctx context.Context, logger *zap.Logger, cfg config.Interface, files []string, stdout io.Writer) error {
	w, err := watch.New(logger, cfg.Watch(), files, watchHandler(logger, cfg, stdout))
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// watchHandler lays out the changed files and writes a report per file.
// A broken document is reported and skipped; the others are still printed.
func watchHandler(logger *zap.Logger, cfg config.Interface, stdout io.Writer) watch.Handler {
	return func(ctx context.Context, paths []string) error {
		reporter, err := newReporter(cfg, stdout)
		if err != nil {
			return err
		}
		var failed error
		for _, path := range paths {
			if ctx.Err() != nil {
				break
			}
			rep, _, err := layoutFile(logger, cfg, path)
			if err != nil {
				logger.Error("Layout failed", zap.String("document", path), zap.Error(err))
				failed = err
				continue
			}
			if err := reporter.Write(rep); err != nil {
				failed = fmt.Errorf("failed to write report: %w", err)
			}
		}
		if err := reporter.Close(); err != nil && failed == nil {
			failed = err
		}
		return failed
	}
}

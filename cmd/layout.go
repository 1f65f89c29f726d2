// File: cmd/layout.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/boxflow/internal/config"
	"github.com/xkilldash9x/boxflow/internal/document"
	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/observability"
	"github.com/xkilldash9x/boxflow/internal/reporting"
)

// newLayoutCmd creates the `layout` command.
func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout FILE...",
		Short: "Lay out view documents and print their geometry",
		Long: `Loads each document (.html, .htm, .xhtml, .xml or .view), lays it out at the
configured viewport and prints the geometry of every visible node.
Documents are processed concurrently; reports are printed in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runLayout(ctx, observability.Component("layout"), cfg, args, cmd.OutOrStdout())
		},
	}
}

// runLayout lays out every file and writes one report per document.
func runLayout(ctx context.Context, logger *zap.Logger, cfg config.Interface, files []string, stdout io.Writer) error {
	reports := make([]*reporting.Report, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Layout().Concurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, _, err := layoutFile(logger, cfg, file)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	reporter, err := newReporter(cfg, stdout)
	if err != nil {
		return err
	}
	for _, rep := range reports {
		if err := reporter.Write(rep); err != nil {
			reporter.Close()
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	if err := reporter.Close(); err != nil {
		return err
	}
	logger.Info("Layout complete", zap.Int("documents", len(files)))
	return nil
}

// layoutFile loads one document, lays it out and snapshots its geometry.
// Each document owns its tree, so files can be processed in parallel.
func layoutFile(logger *zap.Logger, cfg config.Interface, path string) (*reporting.Report, *document.Document, error) {
	policy, err := layout.ParsePolicy(cfg.Layout().Policy)
	if err != nil {
		return nil, nil, err
	}
	doc, err := document.Load(path, document.WithLogger(logger), document.WithPolicy(policy))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	lctx := layoutContext(cfg)
	res, err := doc.Layout(lctx)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range doc.Warnings() {
		logger.Warn("Document warning", zap.String("document", path), zap.Error(w))
	}
	logger.Debug("Document laid out",
		zap.String("document", path),
		zap.Int("restyled", res.Restyled),
		zap.Int("measured", res.Measured),
		zap.Int("arranged", res.Arranged),
		zap.Int("unresolved", len(res.Unresolved)))

	out := cfg.Output()
	rep := reporting.Collect(doc, lctx, res, reporting.Options{Pixels: out.Pixels, Hidden: out.Hidden})
	return rep, doc, nil
}

func layoutContext(cfg config.Interface) *layout.Context {
	l, m := cfg.Layout(), cfg.Measure()
	return &layout.Context{
		Viewport: layout.Extent{Width: l.ViewportWidth, Height: l.ViewportHeight},
		Scale:    l.Scale,
		Measurer: layout.NewTextMeasurer(m.CellWidth, m.LineHeight),
		Debug:    l.Debug,
	}
}

// newReporter writes to the configured output file, or to stdout when no
// path is set.
func newReporter(cfg config.Interface, stdout io.Writer) (reporting.Reporter, error) {
	out := cfg.Output()
	if out.Path == "" || out.Path == "stdout" {
		return reporting.NewWithWriter(out.Format, reporting.NopCloser(stdout))
	}
	r, err := reporting.New(out.Format, out.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reporter: %w", err)
	}
	return r, nil
}

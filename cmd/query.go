// File: cmd/query.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/config"
	"github.com/xkilldash9x/boxflow/internal/observability"
)

// newQueryCmd creates the `query` command.
func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query FILE EXPR",
		Short: "Lay out a document and print the nodes matching an XPath expression",
		Long: `Lays out FILE and prints the geometry of the nodes selected by EXPR. Markup
documents take an XPath expression (e.g. //box[@class='cell']); XML documents
take an etree path (e.g. .//box[@id='main']).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runQuery(ctx, observability.Component("query"), cfg, args[0], args[1], cmd.OutOrStdout())
		},
	}
}

func runQuery(_ context.Context, logger *zap.Logger, cfg config.Interface, file, expr string, stdout io.Writer) error {
	rep, doc, err := layoutFile(logger, cfg, file)
	if err != nil {
		return err
	}
	matches, err := doc.Query(expr)
	if err != nil {
		return err
	}

	selected := make(map[string]bool, len(matches))
	for _, b := range matches {
		selected[b.ID().String()] = true
	}
	kept := rep.Nodes[:0]
	for _, e := range rep.Nodes {
		if selected[e.ID] {
			kept = append(kept, e)
		}
	}
	rep.Nodes = kept
	logger.Debug("Query evaluated", zap.String("expr", expr), zap.Int("matches", len(kept)))

	reporter, err := newReporter(cfg, stdout)
	if err != nil {
		return err
	}
	if err := reporter.Write(rep); err != nil {
		reporter.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return reporter.Close()
}

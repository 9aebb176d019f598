package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nestflow/nestflow/pkg/pipeline"
	"github.com/nestflow/nestflow/pkg/render"
)

// renderCommand creates the render command for producing output artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
		refresh    bool
	)
	flags := layoutFlags{}

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a nested graph to DOT, SVG, PNG, or JSON",
		Long: `Render a nested graph to one or more output formats.

The render command runs the full pipeline: it computes the layout (or reuses
a cached one) and then produces the requested artifacts. With a single format
the output path is used as-is; with multiple formats it is treated as a base
path and the format extension is appended.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.resolveOptions(cmd, flags)
			if err != nil {
				return err
			}
			opts.Formats = parseFormats(formatsStr)
			opts.Refresh = refresh
			if err := render.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, json (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and recompute")
	flags.register(cmd)

	return cmd
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	g, err := pipeline.LoadGraph(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()

	result, err := runner.Execute(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
		if input == "-" {
			base = "graph"
		}
	}

	printSuccess("Render complete")
	for _, format := range opts.Formats {
		path := outputPathFor(base, format, len(opts.Formats) > 1 || output == "")
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)

	return nil
}

// outputPathFor derives the output path for a format. When addExt is set
// the format is appended as an extension; otherwise the base is used
// verbatim (single-format run with an explicit -o).
func outputPathFor(base, format string, addExt bool) string {
	if !addExt {
		return base
	}
	return base + "." + format
}

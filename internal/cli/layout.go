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

// layoutCommand creates the layout command for computing node transforms.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)
	flags := layoutFlags{}

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute a layout for a nested graph",
		Long: `Compute a layout for a nested graph.

The layout command takes a graph.json file (or "-" for stdin) and computes
positions, sizes, and z-order for every node, plus routed polylines for every
edge. The output is a layout.json file that can be rendered to DOT/SVG/PNG
using the 'render' command.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.resolveOptions(cmd, flags)
			if err != nil {
				return err
			}
			opts.Formats = []string{render.FormatJSON}
			opts.Refresh = refresh
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and recompute")
	flags.register(cmd)

	return cmd
}

// layoutFlags binds the engine tuning flags shared by layout and render.
type layoutFlags struct {
	flow    string
	gap     float64
	padding float64
	grid    float64
	minSize float64
	loose   int
	strict  int
	seed    uint64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.flow, "flow", "", "default flow direction: south, north, east, west")
	cmd.Flags().Float64Var(&f.gap, "gap", 0, "minimum clearance between connected nodes")
	cmd.Flags().Float64Var(&f.padding, "padding", 0, "inner padding of container nodes")
	cmd.Flags().Float64Var(&f.grid, "grid", -1, "grid unit for coordinate snapping (0 disables)")
	cmd.Flags().Float64Var(&f.minSize, "min-size", 0, "minimum leaf width and height")
	cmd.Flags().IntVar(&f.loose, "loose-iterations", 0, "iteration budget for the loose pass")
	cmd.Flags().IntVar(&f.strict, "strict-iterations", 0, "iteration budget for the strict pass")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "seed for deterministic placement")
}

// resolveOptions layers flag values over the loaded config. Only flags
// the user actually set override the config.
func (c *CLI) resolveOptions(cmd *cobra.Command, flags layoutFlags) (pipeline.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipelineOptions(cfg)

	if cmd.Flags().Changed("flow") {
		opts.Flow = flags.flow
	}
	if cmd.Flags().Changed("gap") {
		opts.Gap = flags.gap
	}
	if cmd.Flags().Changed("padding") {
		opts.Padding = flags.padding
	}
	if cmd.Flags().Changed("grid") {
		opts.GridUnit = flags.grid
	}
	if cmd.Flags().Changed("min-size") {
		opts.MinSize = flags.minSize
	}
	if cmd.Flags().Changed("loose-iterations") {
		opts.LooseIterations = flags.loose
	}
	if cmd.Flags().Changed("strict-iterations") {
		opts.StrictIterations = flags.strict
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = flags.seed
	}
	opts.Logger = c.Logger
	return opts, nil
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	g, err := pipeline.LoadGraph(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		if input == "-" {
			base = "graph"
		}
		outputPath = base + ".layout.json"
	}

	if err := os.WriteFile(outputPath, result.Artifacts[render.FormatJSON], 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Render", "nestflow render "+input)

	return nil
}

package cli

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nestflow/nestflow/pkg/config"
)

func TestCacheDirStructure(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	os.Unsetenv("XDG_CACHE_HOME")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join("/tmp/custom-cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"svg"}},
		{"dot", []string{"dot"}},
		{"svg,png", []string{"svg", "png"}},
		{"svg, png ,json", []string{"svg", "png", "json"}},
	}

	for _, tt := range tests {
		got := parseFormats(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPipelineOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Flow = "east"
	cfg.Engine.Gap = 45
	cfg.Solver.Seed = 99

	opts := pipelineOptions(cfg)

	if opts.Flow != "east" {
		t.Errorf("Flow = %q, want %q", opts.Flow, "east")
	}
	if opts.Gap != 45 {
		t.Errorf("Gap = %v, want 45", opts.Gap)
	}
	if opts.Seed != 99 {
		t.Errorf("Seed = %v, want 99", opts.Seed)
	}
	if opts.GridUnit != cfg.Engine.Grid {
		t.Errorf("GridUnit = %v, want %v", opts.GridUnit, cfg.Engine.Grid)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"layout", "render", "view", "serve", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestResolveOptionsFlagsOverrideConfig(t *testing.T) {
	c := New(io.Discard, LogInfo)
	cmd := c.layoutCommand()
	if err := cmd.Flags().Parse([]string{"--gap", "77", "--grid", "0"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	flags := layoutFlags{}
	if gap, err := cmd.Flags().GetFloat64("gap"); err == nil {
		flags.gap = gap
	}
	if grid, err := cmd.Flags().GetFloat64("grid"); err == nil {
		flags.grid = grid
	}

	opts, err := c.resolveOptions(cmd, flags)
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}

	if opts.Gap != 77 {
		t.Errorf("Gap = %v, want 77", opts.Gap)
	}
	if opts.GridUnit != 0 {
		t.Errorf("GridUnit = %v, want 0 (snapping disabled)", opts.GridUnit)
	}
	// Untouched fields keep config defaults.
	if opts.Padding == 0 {
		t.Error("Padding should keep its config default")
	}
}

func TestOutputPathFor(t *testing.T) {
	if got := outputPathFor("out", "svg", true); got != "out.svg" {
		t.Errorf("outputPathFor = %q, want out.svg", got)
	}
	if got := outputPathFor("diagram.svg", "svg", false); got != "diagram.svg" {
		t.Errorf("outputPathFor = %q, want diagram.svg", got)
	}
	if !strings.HasSuffix(outputPathFor("base", "png", true), ".png") {
		t.Error("multi-format path should append the format extension")
	}
}

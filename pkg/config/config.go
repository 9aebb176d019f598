// Package config loads engine and server configuration from TOML files.
//
// Configuration is optional: every field has a default, so the zero
// config is a working config. CLI flags override file values; the file
// exists so deployments can pin solver parameters without long command
// lines.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/nestflow/nestflow/pkg/graph"
	"github.com/nestflow/nestflow/pkg/layout"
)

// DefaultFileName is the config file looked up when no path is given.
const DefaultFileName = "nestflow.toml"

// Config is the root configuration document.
type Config struct {
	Engine Engine `toml:"engine"`
	Solver Solver `toml:"solver"`
	Server Server `toml:"server"`
}

// Engine holds the layout parameters.
type Engine struct {
	Flow    string  `toml:"flow"`
	Gap     float64 `toml:"gap"`
	Padding float64 `toml:"padding"`
	Grid    float64 `toml:"grid"`
	MinSize float64 `toml:"min_size"`
}

// Solver holds the iteration budgets and seeding.
type Solver struct {
	LooseIterations  int    `toml:"loose_iterations"`
	StrictIterations int    `toml:"strict_iterations"`
	Seed             uint64 `toml:"seed"`
}

// Server holds the HTTP server and backend settings.
type Server struct {
	Addr      string `toml:"addr"`
	MongoURI  string `toml:"mongo_uri"`
	RedisAddr string `toml:"redis_addr"`
	CacheDir  string `toml:"cache_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: Engine{
			Flow:    string(graph.DefaultFlow),
			Gap:     layout.DefaultGap,
			Padding: layout.DefaultPadding,
			Grid:    layout.DefaultGridUnit,
			MinSize: layout.DefaultMinSize,
		},
		Solver: Solver{
			LooseIterations:  layout.DefaultLooseIterations,
			StrictIterations: layout.DefaultStrictIterations,
			Seed:             layout.DefaultSeed,
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// Load reads a TOML config file and overlays it on the defaults. A
// missing file at the default location is not an error; a missing file
// at an explicit path is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot work with.
func (c *Config) Validate() error {
	if _, err := graph.ParseFlow(c.Engine.Flow); err != nil {
		return err
	}
	if c.Engine.Gap < 0 {
		return fmt.Errorf("engine.gap must not be negative")
	}
	if c.Engine.Padding < 0 {
		return fmt.Errorf("engine.padding must not be negative")
	}
	if c.Solver.LooseIterations < 0 || c.Solver.StrictIterations < 0 {
		return fmt.Errorf("solver iteration budgets must not be negative")
	}
	return nil
}

// LayoutOptions converts the config to engine options.
func (c *Config) LayoutOptions() layout.Options {
	flow, _ := graph.ParseFlow(c.Engine.Flow)
	return layout.Options{
		Flow:             flow,
		Gap:              c.Engine.Gap,
		Padding:          c.Engine.Padding,
		GridUnit:         c.Engine.Grid,
		MinSize:          c.Engine.MinSize,
		LooseIterations:  c.Solver.LooseIterations,
		StrictIterations: c.Solver.StrictIterations,
		Seed:             c.Solver.Seed,
	}
}

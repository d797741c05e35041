// Package config loads and validates the simulation configuration.
//
// Values are resolved in three layers: an HCL file (defaults when the file
// does not exist), DEALERSIM_* environment variables, and finally whatever
// the command line sets on the returned Config.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/dealersim/internal/dealer"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "dealersim.hcl"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the fully resolved configuration
type Config struct {
	Game       GameConfig
	Dealer     DealerConfig
	Simulation SimulationConfig
	Logging    LoggingConfig
	Output     OutputConfig
}

// GameConfig describes the shoe
type GameConfig struct {
	Decks              int
	ReshuffleThreshold float64
}

// DealerConfig holds the default threshold used when no strategy list is given
type DealerConfig struct {
	HitUntil int
}

// SimulationConfig controls what gets simulated and how fast
type SimulationConfig struct {
	Strategies            []int
	GamesPerStrategy      int
	TargetDurationSeconds float64
	Seed                  int64
	Realtime              *RealtimeConfig
}

// RealtimeConfig tunes how often intermediate snapshots are published
type RealtimeConfig struct {
	Enabled        *bool
	BaseIntervalMs int
	MinIntervalMs  int
	MaxIntervalMs  int
	AutoAdjust     *bool
}

// LoggingConfig selects log level and destination
type LoggingConfig struct {
	Level string
	File  string
}

// OutputConfig names optional report and history destinations
type OutputConfig struct {
	ReportPath string
	StorePath  string
}

// fileConfig mirrors the HCL layout. Every block and attribute is optional
// and decodes to a pointer, so an explicit zero is kept and left for
// Validate to reject.
type fileConfig struct {
	Game       *gameFile       `hcl:"game,block"`
	Dealer     *dealerFile     `hcl:"dealer,block"`
	Simulation *simulationFile `hcl:"simulation,block"`
	Logging    *loggingFile    `hcl:"logging,block"`
	Output     *outputFile     `hcl:"output,block"`
}

type gameFile struct {
	Decks              *int     `hcl:"decks,optional"`
	ReshuffleThreshold *float64 `hcl:"reshuffle_threshold,optional"`
}

type dealerFile struct {
	HitUntil *int `hcl:"hit_until,optional"`
}

type simulationFile struct {
	Strategies            *[]int        `hcl:"strategies,optional"`
	GamesPerStrategy      *int          `hcl:"games_per_strategy,optional"`
	TargetDurationSeconds *float64      `hcl:"target_duration_seconds,optional"`
	Seed                  *int64        `hcl:"seed,optional"`
	Realtime              *realtimeFile `hcl:"realtime_update,block"`
}

type realtimeFile struct {
	Enabled        *bool `hcl:"enabled,optional"`
	BaseIntervalMs *int  `hcl:"base_interval_ms,optional"`
	MinIntervalMs  *int  `hcl:"min_interval_ms,optional"`
	MaxIntervalMs  *int  `hcl:"max_interval_ms,optional"`
	AutoAdjust     *bool `hcl:"auto_adjust,optional"`
}

type loggingFile struct {
	Level *string `hcl:"level,optional"`
	File  *string `hcl:"file,optional"`
}

type outputFile struct {
	ReportPath *string `hcl:"report_path,optional"`
	StorePath  *string `hcl:"store_path,optional"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Game: GameConfig{
			Decks:              6,
			ReshuffleThreshold: 0.4,
		},
		Dealer: DealerConfig{
			HitUntil: dealer.DefaultHitUntil,
		},
		Simulation: SimulationConfig{
			Strategies:            []int{16, 17, 18},
			GamesPerStrategy:      1000,
			TargetDurationSeconds: 10,
			Realtime:              DefaultRealtime(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultRealtime returns the default snapshot tuning
func DefaultRealtime() *RealtimeConfig {
	return &RealtimeConfig{
		Enabled:        boolPtr(true),
		BaseIntervalMs: 100,
		MinIntervalMs:  50,
		MaxIntervalMs:  500,
		AutoAdjust:     boolPtr(true),
	}
}

// Load reads filename, falling back to Default when it does not exist, then
// applies environment overrides. The result is not validated.
func Load(filename string) (*Config, error) {
	cfg, err := loadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes HCL source on top of the defaults.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Default()
	cfg.merge(&fc)
	return cfg, nil
}

func loadFile(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// merge overlays every attribute present in the file onto the defaults
func (c *Config) merge(fc *fileConfig) {
	if g := fc.Game; g != nil {
		set(&c.Game.Decks, g.Decks)
		set(&c.Game.ReshuffleThreshold, g.ReshuffleThreshold)
	}
	if d := fc.Dealer; d != nil && d.HitUntil != nil {
		c.Dealer.HitUntil = *d.HitUntil
		if fc.Simulation == nil || fc.Simulation.Strategies == nil {
			c.Simulation.Strategies = []int{*d.HitUntil}
		}
	}
	if s := fc.Simulation; s != nil {
		set(&c.Simulation.Strategies, s.Strategies)
		set(&c.Simulation.GamesPerStrategy, s.GamesPerStrategy)
		set(&c.Simulation.TargetDurationSeconds, s.TargetDurationSeconds)
		set(&c.Simulation.Seed, s.Seed)
		if rt := s.Realtime; rt != nil {
			def := c.Simulation.Realtime
			if rt.Enabled != nil {
				def.Enabled = rt.Enabled
			}
			set(&def.BaseIntervalMs, rt.BaseIntervalMs)
			set(&def.MinIntervalMs, rt.MinIntervalMs)
			set(&def.MaxIntervalMs, rt.MaxIntervalMs)
			if rt.AutoAdjust != nil {
				def.AutoAdjust = rt.AutoAdjust
			}
		}
	}
	if l := fc.Logging; l != nil {
		set(&c.Logging.Level, l.Level)
		set(&c.Logging.File, l.File)
	}
	if o := fc.Output; o != nil {
		set(&c.Output.ReportPath, o.ReportPath)
		set(&c.Output.StorePath, o.StorePath)
	}
}

// set copies *v into dst when v is present
func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// TargetDuration returns the requested wall-clock length of a whole run
func (c *Config) TargetDuration() time.Duration {
	return time.Duration(c.Simulation.TargetDurationSeconds * float64(time.Second))
}

// TotalGames is the number of rounds across all strategies
func (c *Config) TotalGames() int {
	return c.Simulation.GamesPerStrategy * len(c.Simulation.Strategies)
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate rejects configurations the engine cannot run. Nothing is clamped.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Game.Decks <= 0 {
		fail("decks must be positive, got %d", c.Game.Decks)
	}
	if th := c.Game.ReshuffleThreshold; th <= 0 || th >= 1 || math.IsNaN(th) {
		fail("reshuffle_threshold must be in (0,1), got %v", th)
	}

	if len(c.Simulation.Strategies) == 0 {
		fail("at least one strategy must be configured")
	}
	seen := make(map[int]bool, len(c.Simulation.Strategies))
	for _, s := range c.Simulation.Strategies {
		if err := dealer.ValidateStrategy(s); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
		}
		if seen[s] {
			fail("strategy %d listed twice", s)
		}
		seen[s] = true
	}
	if c.Simulation.GamesPerStrategy <= 0 {
		fail("games_per_strategy must be positive, got %d", c.Simulation.GamesPerStrategy)
	}
	if d := c.Simulation.TargetDurationSeconds; d <= 0 || math.IsNaN(d) {
		fail("target_duration_seconds must be positive, got %v", d)
	}

	if rt := c.Simulation.Realtime; rt != nil {
		if rt.BaseIntervalMs <= 0 || rt.MinIntervalMs <= 0 || rt.MaxIntervalMs <= 0 {
			fail("realtime_update intervals must be positive (base=%d min=%d max=%d)",
				rt.BaseIntervalMs, rt.MinIntervalMs, rt.MaxIntervalMs)
		}
		if rt.MinIntervalMs > rt.MaxIntervalMs {
			fail("realtime_update min_interval_ms (%d) exceeds max_interval_ms (%d)",
				rt.MinIntervalMs, rt.MaxIntervalMs)
		}
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		fail("unknown log level %q", c.Logging.Level)
	}

	return errors.Join(errs...)
}

// IsEnabled reports whether intermediate snapshots are published
func (r *RealtimeConfig) IsEnabled() bool {
	return r == nil || r.Enabled == nil || *r.Enabled
}

// Interval returns the snapshot interval for a run of totalGames rounds.
// With auto_adjust the base interval grows with the square root of the run
// size (per thousand games) and is clamped to [min, max].
func (r *RealtimeConfig) Interval(totalGames int) time.Duration {
	if r == nil {
		r = DefaultRealtime()
	}
	ms := r.BaseIntervalMs
	if r.AutoAdjust == nil || *r.AutoAdjust {
		ms = int(float64(r.BaseIntervalMs) * math.Sqrt(float64(totalGames)/1000))
		ms = max(r.MinIntervalMs, min(r.MaxIntervalMs, ms))
	}
	return time.Duration(ms) * time.Millisecond
}

func boolPtr(b bool) *bool {
	return &b
}

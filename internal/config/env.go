package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists the DEALERSIM_* variables. Unset variables stay nil;
// a variable set to zero is applied and left for Validate to judge.
type envOverrides struct {
	Decks              *int     `env:"DEALERSIM_DECKS"`
	ReshuffleThreshold *float64 `env:"DEALERSIM_RESHUFFLE_THRESHOLD"`
	Strategies         []int    `env:"DEALERSIM_STRATEGIES" envSeparator:","`
	Games              *int     `env:"DEALERSIM_GAMES"`
	DurationSeconds    *float64 `env:"DEALERSIM_DURATION_SECONDS"`
	Seed               *int64   `env:"DEALERSIM_SEED"`
	LogLevel           *string  `env:"DEALERSIM_LOG_LEVEL"`
	LogFile            *string  `env:"DEALERSIM_LOG_FILE"`
	Store              *string  `env:"DEALERSIM_STORE"`
	Report             *string  `env:"DEALERSIM_REPORT"`
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	set(&cfg.Game.Decks, o.Decks)
	set(&cfg.Game.ReshuffleThreshold, o.ReshuffleThreshold)
	if len(o.Strategies) > 0 {
		cfg.Simulation.Strategies = o.Strategies
	}
	set(&cfg.Simulation.GamesPerStrategy, o.Games)
	set(&cfg.Simulation.TargetDurationSeconds, o.DurationSeconds)
	set(&cfg.Simulation.Seed, o.Seed)
	set(&cfg.Logging.Level, o.LogLevel)
	set(&cfg.Logging.File, o.LogFile)
	set(&cfg.Output.StorePath, o.Store)
	set(&cfg.Output.ReportPath, o.Report)
	return nil
}

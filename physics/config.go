// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"log/slog"

	"github.com/galvanizedlogic/xpbd/math/lin"
	"gopkg.in/yaml.v3"
)

// TimestepMode selects how World.Tick turns a host-supplied wall-clock
// delta into outer steps (§4.1).
type TimestepMode uint8

const (
	// TimestepVariable runs exactly one outer step per Tick call, with
	// the delta clamped to [1e-6, MaxVariableDt] to bound the worst-case
	// tunneling blow-up of a single huge step.
	TimestepVariable TimestepMode = iota
	// TimestepFixed accumulates the host delta and runs as many
	// FixedDt-sized outer steps as the accumulator allows, carrying any
	// remainder to the next Tick.
	TimestepFixed
)

// Config is the flat, read-only-during-a-step configuration record of
// §6.2, round-tripped through YAML (gopkg.in/yaml.v3) so a host can
// keep tuning parameters in a config file rather than Go source.
type Config struct {
	Gravity Vec `yaml:"gravity"`

	SubstepCount       int          `yaml:"substep_count"`
	PredictionDistance Scalar       `yaml:"prediction_distance"`
	TimestepMode       TimestepMode `yaml:"timestep_mode"`
	FixedDt            Scalar       `yaml:"fixed_dt"`
	MaxVariableDt       Scalar      `yaml:"max_variable_dt"`

	SleepEnergyThreshold Scalar `yaml:"sleep_energy_threshold"`
	SleepTimeThreshold   Scalar `yaml:"sleep_time_threshold"`

	Parallel         bool `yaml:"parallel"`
	DeterminismMode  bool `yaml:"determinism_mode"`

	BroadphaseMargin Scalar `yaml:"broadphase_margin"`

	// Logger receives slog records for recoverable anomalies (§7). Not
	// serialized; defaults to slog.Default() when zero.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the defaults enumerated in §6.2.
func DefaultConfig() Config {
	return Config{
		Gravity:              lin.V3{X: 0, Y: -9.81, Z: 0},
		SubstepCount:         8,
		PredictionDistance:   0.005,
		TimestepMode:         TimestepVariable,
		FixedDt:              1.0 / 60.0,
		MaxVariableDt:        1.0 / 15.0,
		SleepEnergyThreshold: 0.1,
		SleepTimeThreshold:   0.5,
		Parallel:             true,
		DeterminismMode:      false,
		BroadphaseMargin:     0.02,
		Logger:               slog.Default(),
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// LoadConfig decodes a Config from YAML, starting from DefaultConfig
// so an incomplete document still yields sane values for any field it
// omits.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

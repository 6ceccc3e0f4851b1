// Package config reads the optional qirvm.toml manifest controlling run
// defaults. Command-line flags override manifest values.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"qirvm/internal/trace"
)

// DefaultFile is the default manifest path, resolved against the working
// directory.
const DefaultFile = "qirvm.toml"

// Runtime flavors selectable in [run].
const (
	RuntimeStats = "stats"
	RuntimeTuple = "tuple"
)

// ErrInvalid indicates a manifest with out-of-range values.
var ErrInvalid = errors.New("config: invalid manifest")

// Run holds the [run] section.
type Run struct {
	// Shots is the number of times the entry point is executed.
	Shots int `toml:"shots"`
	// Runtime selects the output runtime: stats (per-qubit) or tuple
	// (per-bitstring grouping).
	Runtime string `toml:"runtime"`
	// Seed drives synthesized measurement outcomes; zero keeps them
	// deterministic.
	Seed int64 `toml:"seed"`
	// LowerST rewrites S/T gates into Rz rotations.
	LowerST bool `toml:"lower_st"`
}

// Trace holds the [trace] section.
type Trace struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Config is the full manifest.
type Config struct {
	Run   Run   `toml:"run"`
	Trace Trace `toml:"trace"`
}

// Default returns the configuration used when no manifest exists.
func Default() Config {
	return Config{
		Run: Run{Shots: 1024, Runtime: RuntimeStats},
	}
}

// Load reads path. A missing file yields the defaults; a present but
// malformed or out-of-range file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Run.Shots <= 0 {
		return fmt.Errorf("%w: shots must be positive, got %d", ErrInvalid, c.Run.Shots)
	}
	switch c.Run.Runtime {
	case RuntimeStats, RuntimeTuple:
	default:
		return fmt.Errorf("%w: unknown runtime %q", ErrInvalid, c.Run.Runtime)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// TraceLevel returns the parsed trace level.
func (c *Config) TraceLevel() trace.Level {
	l, _ := trace.ParseLevel(c.Trace.Level)
	return l
}

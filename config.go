package main

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	defaultShots            = 128
	defaultMaxTrials        = 1
	defaultMaxQubits        = 22
	defaultCircuitCacheSize = 32
)

// ErrInvalidConfig is returned for negative counts and sizes.
var ErrInvalidConfig = errors.New("invalid config")

// Config controls the simulation and retry budget of a factoring run.
type Config struct {
	// Number of shots simulated per trial.
	Shots int `yaml:"shots"`
	// Seed for base sampling and measurement sampling. Zero picks one from
	// the clock.
	Seed uint64 `yaml:"seed"`
	// Fixed base a. Zero samples a fresh base every trial.
	Base uint64 `yaml:"base"`
	// Number of bases tried before giving up.
	MaxTrials int `yaml:"maxTrials"`
	// Concurrent measurement branches.
	Workers int `yaml:"workers"`
	// Widest program the simulator accepts; memory is 16 * 2^MaxQubits bytes.
	MaxQubits int `yaml:"maxQubits"`
	// Built programs kept for reuse when a base is drawn again.
	CircuitCacheSize int `yaml:"circuitCacheSize"`
	// Debug enables development logging.
	Debug bool `yaml:"debug"`
}

// WithDefaults returns a copy of the Config with any missing fields set to
// their default values.
func (c Config) WithDefaults() Config {
	cpy := c
	if cpy.Shots == 0 {
		cpy.Shots = defaultShots
	}
	if cpy.MaxTrials == 0 {
		cpy.MaxTrials = defaultMaxTrials
	}
	if cpy.Workers == 0 {
		cpy.Workers = runtime.NumCPU()
	}
	if cpy.MaxQubits == 0 {
		cpy.MaxQubits = defaultMaxQubits
	}
	if cpy.CircuitCacheSize == 0 {
		cpy.CircuitCacheSize = defaultCircuitCacheSize
	}
	return cpy
}

// Validate rejects negative counts; zero means "use the default".
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"shots", c.Shots},
		{"maxTrials", c.MaxTrials},
		{"workers", c.Workers},
		{"maxQubits", c.MaxQubits},
		{"circuitCacheSize", c.CircuitCacheSize},
	}
	for _, f := range fields {
		if f.value < 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s = %d must not be negative", f.name, f.value)
		}
	}
	return nil
}

// LoadConfig reads a YAML config file. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg.WithDefaults(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}

	return cfg.WithDefaults(), nil
}

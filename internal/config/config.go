package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/radix/internal/compute"
	"github.com/san-kum/radix/internal/radix"
)

const (
	DefaultDevice     = "auto"
	DefaultNPow       = 20
	DefaultIterations = 10
	MaxNPow           = 31
)

type Config struct {
	DigitBits     int         `yaml:"digit_bits"`
	KeyBits       int         `yaml:"key_bits"`
	WorkGroupSize int         `yaml:"work_group_size"`
	Device        string      `yaml:"device"`
	Workers       int         `yaml:"workers"`
	Bench         BenchConfig `yaml:"bench"`
}

type BenchConfig struct {
	NPow       int   `yaml:"n_pow"`
	Iterations int   `yaml:"iterations"`
	Seed       int64 `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		DigitBits:     radix.DefaultDigitBits,
		KeyBits:       radix.DefaultKeyBits,
		WorkGroupSize: radix.DefaultWorkGroupSize,
		Device:        DefaultDevice,
		Bench: BenchConfig{
			NPow:       DefaultNPow,
			Iterations: DefaultIterations,
		},
	}
}

// Load reads a YAML file on top of the defaults, so omitted keys keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params is the sort configuration the file describes.
func (c *Config) Params() radix.Params {
	return radix.Params{
		DigitBits:     c.DigitBits,
		KeyBits:       c.KeyBits,
		WorkGroupSize: c.WorkGroupSize,
	}
}

func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if !validDevice(c.Device) {
		return fmt.Errorf("%w: device %q (available: %v)", compute.ErrUnknownBackend, c.Device, compute.Names())
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", radix.ErrParams, c.Workers)
	}
	if c.Bench.NPow < 0 || c.Bench.NPow > MaxNPow {
		return fmt.Errorf("%w: bench.n_pow must be in [0, %d], got %d", radix.ErrParams, MaxNPow, c.Bench.NPow)
	}
	if _, err := c.Params().Layout(1 << c.Bench.NPow); err != nil {
		return fmt.Errorf("bench.n_pow %d: %w", c.Bench.NPow, err)
	}
	if c.Bench.Iterations < 1 {
		return fmt.Errorf("%w: bench.iterations must be >= 1, got %d", radix.ErrParams, c.Bench.Iterations)
	}
	return nil
}

func validDevice(name string) bool {
	if name == "" {
		return true
	}
	for _, n := range compute.Names() {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return strings.EqualFold(name, "gpu")
}

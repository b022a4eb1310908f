// Package suite describes a comparison run as a small YAML document: which
// kernel functions to compare, at which optimization levels, across which
// backends.
package suite

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/tinyrange/kernelcmp/internal/kernel/csrc"
)

const DefaultFilename = "kernelcmp.yaml"

// Backend names a kernel implementation the suite can drive.
const (
	BackendNative = "native"
	BackendFFI    = "ffi"
)

// Config is the on-disk suite description.
type Config struct {
	Version int    `yaml:"version"`
	Name    string `yaml:"name"`

	// Functions is a subset of the kernel symbols; empty means all four.
	Functions []string `yaml:"functions,omitempty"`

	// OptLevels is the sweep, e.g. [O0, O2]; empty means O0 through O3.
	OptLevels []string `yaml:"optLevels,omitempty"`

	// Backends to conformance-check; empty means native and ffi.
	Backends []string `yaml:"backends,omitempty"`

	// OutputDir receives build artifacts and listings.
	OutputDir string `yaml:"outputDir,omitempty"`
}

// Default returns the suite equivalent to an empty config file.
func Default() Config {
	cfg := Config{}
	cfg.normalize()
	return cfg
}

func (c *Config) normalize() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Name == "" {
		c.Name = "kernelcmp"
	}
	if len(c.Functions) == 0 {
		c.Functions = csrc.Symbols()
	}
	if len(c.OptLevels) == 0 {
		c.OptLevels = []string{"O0", "O1", "O2", "O3"}
	}
	if len(c.Backends) == 0 {
		c.Backends = []string{BackendNative, BackendFFI}
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
}

// Validate checks the normalized config against the known kernel surface.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("suite: unsupported version %d", c.Version)
	}
	known := csrc.Symbols()
	for _, fn := range c.Functions {
		if !slices.Contains(known, fn) {
			return fmt.Errorf("suite: unknown function %q (have %v)", fn, known)
		}
	}
	for _, opt := range c.OptLevels {
		switch opt {
		case "O0", "O1", "O2", "O3":
		default:
			return fmt.Errorf("suite: invalid optimization level %q", opt)
		}
	}
	for _, backend := range c.Backends {
		switch backend {
		case BackendNative, BackendFFI:
		default:
			return fmt.Errorf("suite: unknown backend %q", backend)
		}
	}
	return nil
}

// WantsBackend reports whether the suite lists the named backend.
func (c Config) WantsBackend(name string) bool {
	return slices.Contains(c.Backends, name)
}

// Load reads, normalizes, and validates a suite file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("suite: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("suite: parse %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the config back out as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("suite: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("suite: write %s: %w", path, err)
	}
	return nil
}

// Package config loads the YAML settings file of the script runner.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/parser"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/logger"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/source"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// Initialize modes accepted by initialize_mode.
const (
	InitializeAuto    = "auto"
	InitializeCurrent = "current"
	InitializeLegacy  = "legacy"
)

// Config is the contents of a settings file.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is text, json or auto.
	LogFormat string `yaml:"log_format"`
	// Timeout bounds each script call. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
	// MaxCallDepth bounds script recursion.
	MaxCallDepth int `yaml:"max_call_depth"`
	// SourceEncoding decodes script files without a byte order mark.
	SourceEncoding string `yaml:"source_encoding,omitempty"`
	// UserDataPath is the sqlite file backing User.*. Empty disables it.
	UserDataPath string `yaml:"user_data_path,omitempty"`
	// InitializeMode selects which Initialize signature algorithms use.
	InitializeMode string `yaml:"initialize_mode"`
	// RequiredFunctions lists signatures such as "int Step(bool)" that
	// every script must define.
	RequiredFunctions []string `yaml:"required_functions,omitempty"`
	// Locale controls number formatting in String.FormatNumber.
	Locale string `yaml:"locale,omitempty"`
	// Seed seeds the shared Random generator.
	Seed uint64 `yaml:"seed,omitempty"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      logger.FormatText,
		Timeout:        5 * time.Second,
		MaxCallDepth:   runtime.MaxCallDepth,
		InitializeMode: InitializeAuto,
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes YAML content over the defaults. path is only used in error
// messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case logger.FormatText, logger.FormatJSON, logger.FormatAuto:
	default:
		errs = append(errs, fmt.Errorf("invalid log format: %s (must be text, json, or auto)", c.LogFormat))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be non-negative, got %s", c.Timeout))
	}
	if c.MaxCallDepth <= 0 {
		errs = append(errs, fmt.Errorf("max_call_depth must be positive, got %d", c.MaxCallDepth))
	}
	if _, err := source.LookupEncoding(c.SourceEncoding); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.InitializeMode) {
	case InitializeAuto, InitializeCurrent, InitializeLegacy:
	default:
		errs = append(errs, fmt.Errorf("invalid initialize_mode: %s (must be auto, current, or legacy)", c.InitializeMode))
	}
	return errors.Join(errs...)
}

// RequiredSignatures parses RequiredFunctions against reg, which supplies
// any host type names they use.
func (c *Config) RequiredSignatures(reg *interop.Registry) ([]types.FunctionSignature, error) {
	sigs := make([]types.FunctionSignature, 0, len(c.RequiredFunctions))
	for _, text := range c.RequiredFunctions {
		sig, err := parser.ParseSignature(text, reg)
		if err != nil {
			return nil, fmt.Errorf("required function %q: %w", text, err)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

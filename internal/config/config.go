// Package config loads fusegen settings and operator-pair problem files.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/fusion/internal/fusion"
	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/kernel/codegen"
	"github.com/born-ml/fusion/internal/logger"
)

// Config represents the fusegen configuration file.
type Config struct {
	// Precision is one of f32, f32_f16, f16.
	Precision string `yaml:"precision"`
	// Storage is the source tensor storage type, e.g. buffer or texture_2d.
	Storage string `yaml:"storage"`
	// Dialect is the kernel language, wgsl or opencl.
	Dialect string `yaml:"dialect"`
	// Batched generates kernels for tensors with a batch axis.
	Batched bool `yaml:"batched"`

	Thresholds fusion.Thresholds `yaml:"thresholds"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Precision:  kernel.F32.String(),
		Storage:    kernel.StorageBuffer.String(),
		Dialect:    codegen.WGSL{}.Name(),
		Thresholds: fusion.DefaultThresholds(),
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Load reads a YAML configuration file over the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every named setting is known.
func (c Config) Validate() error {
	if _, ok := kernel.ParsePrecision(c.Precision); !ok {
		return fmt.Errorf("unknown precision %q", c.Precision)
	}
	if _, ok := kernel.ParseStorageType(c.Storage); !ok {
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if _, ok := codegen.DialectByName(c.Dialect); !ok {
		return fmt.Errorf("unknown dialect %q", c.Dialect)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	t := c.Thresholds
	if t.MaxDepthwiseChannels < 0 || t.MaxDepthwiseWeights < 0 || t.MaxPointwiseOutputs < 0 || t.MaxPointwiseWeights < 0 {
		return fmt.Errorf("thresholds must not be negative: %+v", t)
	}
	return nil
}

// OperationDef returns the operation definition for the configured precision,
// storage and batching.
func (c Config) OperationDef() (kernel.OperationDef, error) {
	p, ok := kernel.ParsePrecision(c.Precision)
	if !ok {
		return kernel.OperationDef{}, fmt.Errorf("config: unknown precision %q", c.Precision)
	}
	s, ok := kernel.ParseStorageType(c.Storage)
	if !ok {
		return kernel.OperationDef{}, fmt.Errorf("config: unknown storage %q", c.Storage)
	}
	return kernel.NewOperationDef(p, s, c.Batched), nil
}

// CodegenDialect returns the configured kernel language.
func (c Config) CodegenDialect() (codegen.Dialect, error) {
	d, ok := codegen.DialectByName(c.Dialect)
	if !ok {
		return nil, fmt.Errorf("config: unknown dialect %q", c.Dialect)
	}
	return d, nil
}

// Logger builds the configured logger writing to w.
func (c Config) Logger(w io.Writer) logger.Logger {
	level := logger.ParseLevel(c.LogLevel)
	if c.LogFormat == "json" {
		return logger.JSON(w, level)
	}
	return logger.Text(w, level)
}

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/fusion/internal/config"
	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/kernel/codegen"
	"github.com/born-ml/fusion/internal/logger"
)

var (
	configPath string
	precision  string
	storage    string
	dialect    string
	batched    bool
	logLevel   string
	logFormat  string
	outPath    string
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to fusegen.yaml",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "precision",
			Aliases:     []string{"p"},
			Usage:       "kernel precision (f32, f32_f16, f16)",
			Destination: &precision,
		},
		&cli.StringFlag{
			Name:        "storage",
			Usage:       "source tensor storage (buffer, image_buffer, texture_2d, ...)",
			Destination: &storage,
		},
		&cli.StringFlag{
			Name:        "dialect",
			Usage:       "kernel language (wgsl, opencl)",
			Destination: &dialect,
		},
		&cli.BoolFlag{
			Name:        "batched",
			Usage:       "generate for tensors with a batch axis",
			Destination: &batched,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Destination: &logFormat,
		},
	}
}

func outFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:        "out",
		Aliases:     []string{"o"},
		Usage:       usage,
		Destination: &outPath,
	}
}

// settings is the resolved configuration of one invocation.
type settings struct {
	cfg     config.Config
	def     kernel.OperationDef
	dialect codegen.Dialect
	log     logger.Logger
}

// loadSettings reads the config file and applies flags that were set on the
// command line over it.
func loadSettings(cmd *cli.Command) (settings, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return settings{}, err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return settings{}, fmt.Errorf("flags: %w", err)
	}

	def, err := cfg.OperationDef()
	if err != nil {
		return settings{}, err
	}
	d, err := cfg.CodegenDialect()
	if err != nil {
		return settings{}, err
	}
	return settings{cfg: cfg, def: def, dialect: d, log: cfg.Logger(os.Stderr)}, nil
}

func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("precision") {
		cfg.Precision = precision
	}
	if cmd.IsSet("storage") {
		cfg.Storage = storage
	}
	if cmd.IsSet("dialect") {
		cfg.Dialect = dialect
	}
	if cmd.IsSet("batched") {
		cfg.Batched = batched
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.IsSet("log-format") {
		cfg.LogFormat = logFormat
	}
}

// problemArg loads the single problem file named on the command line.
func problemArg(cmd *cli.Command) (config.Problem, error) {
	if cmd.Args().Len() != 1 {
		return config.Problem{}, fmt.Errorf("%s: expected one problem file, got %d arguments", cmd.Name, cmd.Args().Len())
	}
	return config.LoadProblem(cmd.Args().First())
}

// output returns the writer for --out, or stdout when unset.
func output() (*os.File, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

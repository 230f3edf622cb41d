package main

import (
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/textfeat/internal/config"
)

const kindAuto = "auto"

var (
	configPath string
	logLevel   string
	logFormat  string
	debug      bool

	dataDir     string
	featureName string
	encoderKind string

	// appConfig is loaded once in the root Before hook.
	appConfig config.Config
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Value:       config.DefaultPath(),
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (auto, pretty, json, text)",
			Value:       "auto",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func featureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "data-dir",
			Aliases:     []string{"d"},
			Usage:       "directory holding vocabulary files",
			Value:       ".",
			Sources:     cli.EnvVars(config.EnvDataDir),
			Destination: &dataDir,
		},
		&cli.StringFlag{
			Name:        "feature",
			Aliases:     []string{"f"},
			Usage:       "feature name; files are <data-dir>/<feature>.text*",
			Value:       "text",
			Destination: &featureName,
		},
		&cli.StringFlag{
			Name:        "encoder",
			Aliases:     []string{"e"},
			Usage:       "encoder kind (auto, raw, byte, token, subword, sentencepiece)",
			Value:       kindAuto,
			Destination: &encoderKind,
		},
	}
}

// applyFeatureConfig fills feature flags from the config file when they were
// not given on the command line.
func applyFeatureConfig(c *cli.Command, cfg config.Config) {
	if cfg.DataDir != "" && !c.IsSet("data-dir") {
		dataDir = cfg.DataDir
	}
	if cfg.Feature != "" && !c.IsSet("feature") {
		featureName = cfg.Feature
	}
	if cfg.Encoder != "" && !c.IsSet("encoder") {
		encoderKind = cfg.Encoder
	}
}

func applyLogConfig(c *cli.Command, cfg config.Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/textfeat/internal/config"
	"github.com/samcharles93/textfeat/internal/logger"
	"github.com/samcharles93/textfeat/internal/version"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "textfeat",
		Usage:   "Build, inspect and serve text feature vocabularies",
		Version: version.String(),
		Flags:   globalFlags(),
		Before:  setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			buildCmd(),
			encodeCmd(),
			decodeCmd(),
			inspectCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

// setup loads the config file and installs the logger in the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return ctx, err
	}
	appConfig = cfg
	applyLogConfig(cmd, cfg)

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return ctx, err
	}
	if debug {
		level = slog.LevelDebug
	}
	log, err := logger.ForCLI(os.Stderr, logger.Format(logFormat), level, isTerminal(os.Stderr))
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/textfeat/internal/api"
	"github.com/samcharles93/textfeat/internal/logger"
	"github.com/samcharles93/textfeat/pkg/features"
)

func serveCmd() *cli.Command {
	var (
		addr         string
		readTimeout  time.Duration
		featureSpecs []string
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve encode and decode over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "data-dir",
				Aliases:     []string{"d"},
				Usage:       "directory holding vocabulary files",
				Value:       ".",
				Destination: &dataDir,
			},
			&cli.StringSliceFlag{
				Name:        "feature",
				Aliases:     []string{"f"},
				Usage:       "feature to serve as name or name=kind (repeatable)",
				Destination: &featureSpecs,
			},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if appConfig.DataDir != "" && !cmd.IsSet("data-dir") {
				dataDir = appConfig.DataDir
			}
			if appConfig.ServerAddress != "" && !cmd.IsSet("addr") {
				addr = appConfig.ServerAddress
			}
			if len(featureSpecs) == 0 && appConfig.Feature != "" {
				spec := appConfig.Feature
				if appConfig.Encoder != "" {
					spec += "=" + appConfig.Encoder
				}
				featureSpecs = []string{spec}
			}

			feats, err := loadFeatures(logger.AsSlog(log), dataDir, featureSpecs)
			if err != nil {
				return err
			}

			server := api.NewServer(feats, log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "features", len(feats))
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

var errNoFeatures = errors.New("no features to serve; pass --feature")

// loadFeatures opens every "name[=kind]" spec against dir.
func loadFeatures(log *slog.Logger, dir string, specs []string) (map[string]*features.Text, error) {
	if len(specs) == 0 {
		return nil, errNoFeatures
	}
	feats := make(map[string]*features.Text, len(specs))
	for _, spec := range specs {
		name, kind, err := parseFeatureSpec(spec)
		if err != nil {
			return nil, err
		}
		if _, dup := feats[name]; dup {
			return nil, fmt.Errorf("feature %q given twice", name)
		}
		tf, err := openFeature(log, dir, name, kind)
		if err != nil {
			return nil, err
		}
		feats[name] = tf
	}
	return feats, nil
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/pespath/internal/api"
	"github.com/samcharles93/pespath/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		dataDir     string
		readTimeout time.Duration
		maxImages   int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the REST API for path interpolation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "directory requests may read structure files from (disabled when empty)",
				Destination: &dataDir,
			},
			&cli.IntFlag{
				Name:        "max-images",
				Usage:       "largest dupl, n_neb_images or n_interp_images a request may ask for",
				Value:       api.DefaultMaxImages,
				Destination: &maxImages,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, cfg, &addr, &dataDir)
			log := logger.FromContext(ctx)

			server := api.NewServer(api.NewPathStore(), api.Config{
				DataDir:   dataDir,
				MaxImages: maxImages,
				Logger:    log,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "data_dir", dataDir)
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

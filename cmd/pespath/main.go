package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/pespath/internal/logger"
	"github.com/samcharles93/pespath/internal/version"
)

func main() {
	app := &cli.Command{
		Name:    "pespath",
		Usage:   "Interpolate reaction paths between stationary points",
		Version: version.String(),
		Flags:   loggingFlags(),
		Before:  setupLogging,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			interpCmd(),
			inspectCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging builds the logger from flags and the config file and stores
// it in the context for every subcommand.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg = LoadConfig()
	applyLoggingConfig(cmd, cfg)

	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	log := logger.ForFormat(os.Stderr, logFormat, level, stderrIsTTY())
	return logger.WithContext(ctx, log), nil
}

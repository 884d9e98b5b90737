package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/pespath/internal/jobfile"
	"github.com/samcharles93/pespath/internal/logger"
	"github.com/samcharles93/pespath/internal/runner"
	"github.com/samcharles93/pespath/internal/structio"
	"github.com/samcharles93/pespath/internal/watch"
)

type interpOptions struct {
	output   string
	format   string
	noFlat   bool
	jobs     int64
	watching bool
}

func interpCmd() *cli.Command {
	var opts interpOptions

	return &cli.Command{
		Name:      "interp",
		Usage:     "Interpolate the paths described by job files",
		ArgsUsage: "<job.yaml|dir>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file (single job only)",
				Destination: &opts.output,
			},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (xyz, json, pdb)",
				Destination: &opts.format,
			},
			&cli.BoolFlag{
				Name:        "no-flatten",
				Usage:       "write one file per point instead of a single path",
				Destination: &opts.noFlat,
			},
			&cli.Int64Flag{
				Name:        "jobs",
				Aliases:     []string{"j"},
				Usage:       "number of jobs to run at once",
				Value:       1,
				Destination: &opts.jobs,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Aliases:     []string{"w"},
				Usage:       "re-run the job whenever it or its structures change",
				Destination: &opts.watching,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyInterpConfig(cmd, cfg, &opts.format, &opts.jobs)

			paths, err := resolveJobPaths(cmd.Args().Slice())
			if err != nil {
				return err
			}
			if opts.output != "" && len(paths) > 1 {
				return errors.New("--output needs exactly one job")
			}
			if opts.watching && len(paths) > 1 {
				return errors.New("--watch needs exactly one job")
			}

			jobs := make([]*jobfile.Job, len(paths))
			for i, p := range paths {
				job, err := loadJob(p, opts)
				if err != nil {
					return err
				}
				jobs[i] = job
			}

			results, err := runner.Runner{}.RunAll(ctx, jobs, int(opts.jobs))
			if err != nil && !opts.watching {
				return err
			}
			for _, res := range results {
				reportResult(res)
			}
			if !opts.watching {
				return nil
			}
			if err != nil {
				logger.FromContext(ctx).Error("interpolation failed", "error", err)
			}
			return watchJob(ctx, paths[0], jobs[0], opts)
		},
	}
}

// loadJob reads a job file and applies command line overrides.
func loadJob(path string, opts interpOptions) (*jobfile.Job, error) {
	job, err := jobfile.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.output != "" {
		abs, err := filepath.Abs(opts.output)
		if err != nil {
			return nil, err
		}
		job.Output.Path = abs
	}
	if opts.format != "" {
		f, err := structio.ParseFormat(opts.format)
		if err != nil {
			return nil, err
		}
		job.Output.Format = string(f)
		if opts.output == "" {
			job.Output.Path = withFormat(job.Output.Path, f)
		}
	}
	if opts.noFlat {
		job.Flatten = false
	}
	return job, nil
}

func reportResult(res *runner.Result) {
	for _, out := range res.Outputs {
		fmt.Printf("%s: %d points, %d frames -> %s\n", filepath.Base(res.Job.Path), len(res.Job.Points), res.Frames(), out)
	}
}

// watchJob re-runs the job on every change until ctx is cancelled. Failures
// are logged and watching continues.
func watchJob(ctx context.Context, path string, job *jobfile.Job, opts interpOptions) error {
	log := logger.FromContext(ctx)

	w, err := watch.New(append([]string{job.Path}, job.Files()...))
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	log.Info("watching for changes", "job", job.Path, "files", len(job.Files())+1)
	return w.Run(ctx, func(changed []string) {
		log.Info("change detected", "files", changed)
		next, err := loadJob(path, opts)
		if err != nil {
			log.Error("reload job", "error", err)
			return
		}
		res, err := runner.Run(ctx, next)
		if err != nil {
			log.Error("interpolation failed", "error", err)
			return
		}
		reportResult(res)
	})
}

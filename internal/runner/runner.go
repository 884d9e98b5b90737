// Package runner executes job files: it runs the interpolation driver and
// writes the resulting path.
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/pespath/internal/jobfile"
	"github.com/samcharles93/pespath/internal/logger"
	"github.com/samcharles93/pespath/internal/pes"
	"github.com/samcharles93/pespath/internal/structio"
)

// Runner runs jobs against a structure reader.
type Runner struct {
	Reader structio.Reader
}

// Result describes one finished job.
type Result struct {
	Job     *jobfile.Job
	Path    pes.Path
	Outputs []string
	Elapsed time.Duration
}

// Frames is the number of frames written.
func (r *Result) Frames() int {
	return r.Path.Len()
}

// Run runs job with the filesystem reader.
func Run(ctx context.Context, job *jobfile.Job) (*Result, error) {
	return Runner{}.Run(ctx, job)
}

// Run interpolates the job's points and writes the output. A flattened path
// goes to the output path; otherwise each point's sequence is written to
// <stem>_<index><ext> next to it.
func (r Runner) Run(ctx context.Context, job *jobfile.Job) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reader := r.Reader
	if reader == nil {
		reader = structio.FileReader{}
	}
	log := logger.FromContext(ctx)
	start := time.Now()

	specs, err := job.Specs()
	if err != nil {
		return nil, err
	}
	path, err := pes.InterpPES(ctx, reader, specs)
	if err != nil {
		return nil, err
	}

	res := &Result{Job: job, Path: path}
	if job.Flatten {
		if err := structio.Write(job.Output.Path, path.Flatten(), job.Output.Format); err != nil {
			return nil, err
		}
		res.Outputs = []string{job.Output.Path}
	} else {
		for i, seq := range path.Sequences {
			out := SequencePath(job.Output.Path, i)
			if err := structio.Write(out, seq, job.Output.Format); err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
			res.Outputs = append(res.Outputs, out)
		}
	}
	res.Elapsed = time.Since(start)

	log.Info("path written",
		"job", job.Path,
		"points", len(specs),
		"frames", path.Len(),
		"files", len(res.Outputs),
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// RunAll runs jobs with at most limit running at once. The first failure
// cancels jobs that have not started; results keep the input order.
func (r Runner) RunAll(ctx context.Context, jobs []*jobfile.Job, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = 1
	}
	results := make([]*Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := r.Run(ctx, job)
			if err != nil {
				name := job.Path
				if name == "" {
					name = fmt.Sprintf("job %d", i)
				}
				return fmt.Errorf("%s: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SequencePath names the file holding point i's sequence.
func SequencePath(output string, i int) string {
	ext := filepath.Ext(output)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(output, ext), i, ext)
}

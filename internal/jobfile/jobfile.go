// Package jobfile reads YAML job files describing a path to interpolate.
package jobfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/pespath/internal/structio"
)

var (
	ErrNoPoints     = errors.New("job has no points")
	ErrInvalidPoint = errors.New("invalid point")
)

// Job is a validated job file.
type Job struct {
	// Path is the job file itself; empty for jobs built in memory.
	Path    string
	Flatten bool
	Output  Output
	Points  []Point
	// Dir anchors relative file sources.
	Dir string
}

// Output says where the interpolated path is written.
type Output struct {
	Path   string `yaml:"path" json:"path,omitempty"`
	Format string `yaml:"format" json:"format,omitempty"`
}

type document struct {
	Flatten *bool   `yaml:"flatten"`
	Output  Output  `yaml:"output"`
	Points  []Point `yaml:"points"`
}

// Load reads and validates the job file at path.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	job, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	job.Path = abs
	if job.Output.Path == "" {
		stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
		job.Output.Path = stem + "_path." + job.outputExt()
	}
	job.Output.Path = job.resolve(job.Output.Path)
	return job, nil
}

// Parse decodes a job document. Relative paths are resolved against dir.
func Parse(data []byte, dir string) (*Job, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse job: %w", err)
	}
	job := &Job{
		Flatten: true,
		Output:  doc.Output,
		Points:  doc.Points,
		Dir:     dir,
	}
	if doc.Flatten != nil {
		job.Flatten = *doc.Flatten
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// Validate checks every point and the output settings.
func (j *Job) Validate() error {
	if len(j.Points) == 0 {
		return ErrNoPoints
	}
	if j.Output.Format != "" {
		if _, err := structio.ParseFormat(j.Output.Format); err != nil {
			return fmt.Errorf("output: %w", err)
		}
	}
	for i, p := range j.Points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	if j.Points[0].Reorient {
		return fmt.Errorf("%w: point 0: reorient needs a previous point", ErrInvalidPoint)
	}
	return nil
}

// Files lists the structure files the job reads, resolved.
func (j *Job) Files() []string {
	var out []string
	for _, p := range j.Points {
		if p.Atoms == nil && p.File != "" {
			out = append(out, j.resolve(p.File))
		}
	}
	return out
}

func (j *Job) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || j.Dir == "" {
		return path
	}
	return filepath.Join(j.Dir, path)
}

func (j *Job) outputExt() string {
	if j.Output.Format == "" {
		return string(structio.FormatXYZ)
	}
	f, err := structio.ParseFormat(j.Output.Format)
	if err != nil {
		return string(structio.FormatXYZ)
	}
	return string(f)
}

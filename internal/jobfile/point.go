package jobfile

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samcharles93/pespath/internal/atoms"
	"github.com/samcharles93/pespath/internal/calc"
	"github.com/samcharles93/pespath/internal/neb"
	"github.com/samcharles93/pespath/internal/pes"
	"github.com/samcharles93/pespath/internal/structio"
)

// Point is one entry of the points list, as written in a job file or an API
// request.
type Point struct {
	File     string     `yaml:"file" json:"file,omitempty"`
	Format   string     `yaml:"format" json:"format,omitempty"`
	Atoms    *AtomsSpec `yaml:"atoms" json:"atoms,omitempty"`
	Dupl     *int       `yaml:"dupl" json:"dupl,omitempty"`
	Reorient bool       `yaml:"reorient" json:"reorient,omitempty"`
	Interp   *Interp    `yaml:"interp" json:"interp,omitempty"`
}

// AtomsSpec is an inline configuration.
type AtomsSpec struct {
	Symbols   []string     `yaml:"symbols" json:"symbols"`
	Positions [][3]float64 `yaml:"positions" json:"positions"`
	Energy    *float64     `yaml:"energy" json:"energy,omitempty"`
}

// Interp bridges a point to its successor.
type Interp struct {
	NEBImages    int         `yaml:"n_neb_images" json:"n_neb_images"`
	InterpImages int         `yaml:"n_interp_images" json:"n_interp_images"`
	Method       string      `yaml:"interp" json:"interp,omitempty"`
	FMax         *float64    `yaml:"fmax" json:"fmax,omitempty"`
	Steps        *int        `yaml:"steps" json:"steps,omitempty"`
	K            *float64    `yaml:"k" json:"k,omitempty"`
	Climb        bool        `yaml:"climb" json:"climb,omitempty"`
	Calculator   *calc.Spec  `yaml:"calculator" json:"calculator,omitempty"`
	Constraint   *Constraint `yaml:"constraint" json:"constraint,omitempty"`
}

// Constraint lists atoms held in place during relaxation.
type Constraint struct {
	Fix []int `yaml:"fix" json:"fix"`
}

// Validate checks the point on its own, without touching storage.
func (p Point) Validate() error {
	if p.Atoms == nil && p.File == "" {
		return fmt.Errorf("%w: needs a file or atoms", ErrInvalidPoint)
	}
	if p.Atoms != nil && len(p.Atoms.Symbols) != len(p.Atoms.Positions) {
		return fmt.Errorf("%w: %d symbols but %d positions", ErrInvalidPoint, len(p.Atoms.Symbols), len(p.Atoms.Positions))
	}
	if p.Format != "" {
		if _, err := structio.ParseFormat(p.Format); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPoint, err)
		}
	}
	if p.Dupl != nil && *p.Dupl < 0 {
		return fmt.Errorf("%w: dupl %d is negative", ErrInvalidPoint, *p.Dupl)
	}
	if p.Interp != nil {
		if _, err := p.Interp.options(); err != nil {
			return err
		}
		if p.Interp.NEBImages < 0 || p.Interp.InterpImages < 0 {
			return fmt.Errorf("%w: image counts must not be negative", ErrInvalidPoint)
		}
	}
	return nil
}

// Spec converts the point for the driver. resolve maps a file source to the
// path to read; it may reject the path.
func (p Point) Spec(resolve func(string) (string, error)) (pes.PointSpec, error) {
	spec := pes.PointSpec{Dupl: p.Dupl, Reorient: p.Reorient}
	switch {
	case p.Atoms != nil:
		a, err := p.Atoms.Build()
		if err != nil {
			return pes.PointSpec{}, err
		}
		spec.Source = pes.FromAtoms{Atoms: a}
	default:
		path := p.File
		if resolve != nil {
			var err error
			if path, err = resolve(p.File); err != nil {
				return pes.PointSpec{}, err
			}
		}
		spec.Source = pes.FromFile{Path: path, Format: p.Format}
	}
	if p.Interp != nil {
		opts, err := p.Interp.options()
		if err != nil {
			return pes.PointSpec{}, err
		}
		spec.Interp = &pes.InterpConfig{
			NEBImages:    p.Interp.NEBImages,
			InterpImages: p.Interp.InterpImages,
			NEB:          opts,
		}
	}
	return spec, nil
}

// Build creates the configuration.
func (s *AtomsSpec) Build() (*atoms.Atoms, error) {
	pos := make([]r3.Vec, len(s.Positions))
	for i, p := range s.Positions {
		pos[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	a, err := atoms.New(s.Symbols, pos)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	if s.Energy != nil {
		e := *s.Energy
		a.Energy = &e
	}
	return a, nil
}

func (in *Interp) options() (pes.NEBOptions, error) {
	method, err := neb.ParseMethod(in.Method)
	if err != nil {
		return pes.NEBOptions{}, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	if in.FMax != nil && *in.FMax < 0 {
		return pes.NEBOptions{}, fmt.Errorf("%w: fmax %g is negative", ErrInvalidPoint, *in.FMax)
	}
	if in.Steps != nil && *in.Steps < 0 {
		return pes.NEBOptions{}, fmt.Errorf("%w: steps %d is negative", ErrInvalidPoint, *in.Steps)
	}
	opts := pes.NEBOptions{
		Method: method,
		FMax:   in.FMax,
		Steps:  in.Steps,
		K:      in.K,
		Climb:  in.Climb,
	}
	if in.Calculator != nil {
		f, err := in.Calculator.Factory()
		if err != nil {
			return pes.NEBOptions{}, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
		}
		opts.Calculator = f
	}
	if in.Constraint != nil {
		for _, idx := range in.Constraint.Fix {
			if idx < 0 {
				return pes.NEBOptions{}, fmt.Errorf("%w: fixed atom index %d is negative", ErrInvalidPoint, idx)
			}
		}
		opts.Constraint = atoms.FixAtoms{Indices: append([]int(nil), in.Constraint.Fix...)}
	}
	return opts, nil
}

// Specs converts every point, resolving file sources against the job
// directory.
func (j *Job) Specs() ([]pes.PointSpec, error) {
	out := make([]pes.PointSpec, len(j.Points))
	for i, p := range j.Points {
		spec, err := p.Spec(func(path string) (string, error) { return j.resolve(path), nil })
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = spec
	}
	return out, nil
}

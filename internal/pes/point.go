// Package pes interpolates a sequence of stationary points on a potential
// energy surface into a continuous path of configurations.
package pes

import (
	"github.com/samcharles93/pespath/internal/atoms"
	"github.com/samcharles93/pespath/internal/calc"
	"github.com/samcharles93/pespath/internal/neb"
)

// Source says where a point's configuration comes from.
type Source interface {
	isSource()
}

// FromFile loads the configuration from storage. An empty Format lets the
// reader infer it from the path.
type FromFile struct {
	Path   string
	Format string
}

// FromAtoms uses an already available configuration without any I/O.
type FromAtoms struct {
	Atoms *atoms.Atoms
}

func (FromFile) isSource()  {}
func (FromAtoms) isSource() {}

// PointSpec configures one stationary point of the path.
type PointSpec struct {
	Source Source
	// Dupl repeats the point's configuration this many extra times. Nil means none.
	Dupl *int
	// Reorient aligns the configuration onto the previous point's. It must be
	// false on the first point.
	Reorient bool
	// Interp bridges this point to the next one. Nil means no bridge.
	Interp *InterpConfig
}

// InterpConfig drives the multiscale interpolation toward the successor.
type InterpConfig struct {
	// NEBImages is the number of coarse band images between the two points.
	NEBImages int
	// InterpImages is the number of fine images inside each coarse segment.
	InterpImages int
	// NEB applies to the coarse band only.
	NEB NEBOptions
}

// NEBOptions configures one band interpolation. Nil limits take the defaults
// below and an explicit zero is kept; a nil Calculator means pure geometric
// interpolation.
type NEBOptions struct {
	Method     neb.Method
	Calculator calc.Factory
	Constraint atoms.Constraint
	FMax       *float64
	Steps      *int
	K          *float64
	Climb      bool
}

const (
	DefaultFMax  = 0.5
	DefaultSteps = 10
)

func (o NEBOptions) withDefaults() NEBOptions {
	if o.Method == "" {
		o.Method = neb.MethodIDPP
	}
	if o.FMax == nil {
		o.FMax = FloatPtr(DefaultFMax)
	}
	if o.Steps == nil {
		o.Steps = IntPtr(DefaultSteps)
	}
	if o.K == nil {
		o.K = FloatPtr(neb.DefaultSpring)
	}
	return o
}

// Frames is the ordered frame sequence of one point.
type Frames []*atoms.Atoms

// Path holds one frame sequence per input point.
type Path struct {
	Sequences []Frames
}

// Flatten concatenates all sequences in point order.
func (p Path) Flatten() Frames {
	out := make(Frames, 0, p.Len())
	for _, s := range p.Sequences {
		out = append(out, s...)
	}
	return out
}

// Len is the total number of frames.
func (p Path) Len() int {
	n := 0
	for _, s := range p.Sequences {
		n += len(s)
	}
	return n
}

// Lengths lists the frame count of each sequence.
func (p Path) Lengths() []int {
	out := make([]int, len(p.Sequences))
	for i, s := range p.Sequences {
		out[i] = len(s)
	}
	return out
}

// IntPtr is a convenience for optional counts.
func IntPtr(n int) *int {
	return &n
}

func FloatPtr(f float64) *float64 {
	return &f
}

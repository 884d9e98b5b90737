package neb

import (
	"math"

	"github.com/samcharles93/pespath/internal/atoms"
	"gonum.org/v1/gonum/spatial/r3"
)

// Optimizable is anything MDMin can relax.
type Optimizable interface {
	Positions() []r3.Vec
	SetPositions([]r3.Vec)
	Forces() ([]r3.Vec, error)
}

// MDMin is a damped molecular-dynamics minimizer: the velocity is kept only
// along the current force and zeroed when it points uphill.
type MDMin struct {
	Dt      float64
	MaxStep float64

	target Optimizable
	v      []r3.Vec
	steps  int
}

func NewMDMin(target Optimizable) *MDMin {
	return &MDMin{Dt: 0.2, MaxStep: 0.2, target: target}
}

// Steps reports how many steps have been taken.
func (m *MDMin) Steps() int {
	return m.steps
}

// Run steps until the largest per-atom force is below fmax or steps moves have
// been made. It reports whether the force criterion was met.
func (m *MDMin) Run(fmax float64, steps int) (bool, error) {
	for n := 0; ; n++ {
		f, err := m.target.Forces()
		if err != nil {
			return false, err
		}
		if atoms.MaxForce(f) < fmax {
			return true, nil
		}
		if n >= steps {
			return false, nil
		}
		m.step(f)
	}
}

func (m *MDMin) step(f []r3.Vec) {
	if m.v == nil {
		m.v = make([]r3.Vec, len(f))
	} else {
		axpy(0.5*m.Dt, f, m.v)
		vf := dot(m.v, f)
		ff := dot(f, f)
		if vf < 0 || ff == 0 {
			for i := range m.v {
				m.v[i] = r3.Vec{}
			}
		} else {
			for i := range m.v {
				m.v[i] = r3.Scale(vf/ff, f[i])
			}
		}
	}
	axpy(0.5*m.Dt, f, m.v)

	pos := m.target.Positions()
	maxNorm := 0.0
	dpos := make([]r3.Vec, len(pos))
	for i := range pos {
		dpos[i] = r3.Scale(m.Dt, m.v[i])
		maxNorm = math.Max(maxNorm, r3.Norm(dpos[i]))
	}
	scale := math.Min(1, math.Max(0, m.MaxStep/(1e-6+maxNorm)))
	for i := range pos {
		pos[i] = r3.Add(pos[i], r3.Scale(scale, dpos[i]))
	}
	m.target.SetPositions(pos)
	m.steps++
}

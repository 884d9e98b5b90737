package calc

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// LennardJones is the 12-6 pair potential 4ε[(σ/r)¹² − (σ/r)⁶].
type LennardJones struct {
	Epsilon float64
	Sigma   float64
	Cutoff  float64
}

func DefaultLennardJones() LennardJones {
	return LennardJones{Epsilon: 1, Sigma: 1, Cutoff: 3}
}

func (lj LennardJones) Calculate(_ []string, pos []r3.Vec) (float64, []r3.Vec, error) {
	return pairwise(pos, lj.Cutoff, func(r float64) (float64, float64) {
		s6 := math.Pow(lj.Sigma/r, 6)
		s12 := s6 * s6
		return 4 * lj.Epsilon * (s12 - s6), 4 * lj.Epsilon * (-12*s12 + 6*s6) / r
	})
}

// Morse is D[(1 − e^{−α(r−r0)})² − 1], with its minimum −D at r0.
type Morse struct {
	D      float64
	Alpha  float64
	R0     float64
	Cutoff float64
}

func DefaultMorse() Morse {
	return Morse{D: 1, Alpha: 6, R0: 1}
}

func (m Morse) Calculate(_ []string, pos []r3.Vec) (float64, []r3.Vec, error) {
	return pairwise(pos, m.Cutoff, func(r float64) (float64, float64) {
		x := math.Exp(-m.Alpha * (r - m.R0))
		return m.D * (x*x - 2*x), m.D * (-2*m.Alpha*x*x + 2*m.Alpha*x)
	})
}

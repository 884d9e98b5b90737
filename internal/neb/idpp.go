package neb

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var ErrTargetSize = errors.New("idpp target does not match atom count")

// IDPP is the image-dependent pair-potential objective
//
//	E = Σ_{i<j} (d_ij − t_ij)² / d_ij⁴
//
// where t holds the target distances in pairIndex order.
type IDPP struct {
	Target []float64
}

func (p IDPP) Calculate(_ []string, pos []r3.Vec) (float64, []r3.Vec, error) {
	n := len(pos)
	if len(p.Target) != n*(n-1)/2 {
		return 0, nil, fmt.Errorf("%w: %d targets for %d atoms", ErrTargetSize, len(p.Target), n)
	}
	forces := make([]r3.Vec, n)
	energy := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := r3.Sub(pos[j], pos[i])
			r := r3.Norm(d)
			if r == 0 {
				return 0, nil, fmt.Errorf("idpp: atoms %d and %d coincide", i, j)
			}
			dd := r - p.Target[pairIndex(n, i, j)]
			r4 := math.Pow(r, 4)
			energy += dd * dd / r4
			// dE/dr = 2 dd (1 − 2 dd / r) / r⁴
			dEdr := 2 * dd * (1 - 2*dd/r) / r4
			fj := r3.Scale(-dEdr/r, d)
			forces[j] = r3.Add(forces[j], fj)
			forces[i] = r3.Sub(forces[i], fj)
		}
	}
	return energy, forces, nil
}

// pairDistances lists |r_j − r_i| for i < j in row order.
func pairDistances(pos []r3.Vec) []float64 {
	n := len(pos)
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, r3.Norm(r3.Sub(pos[j], pos[i])))
		}
	}
	return out
}

func pairIndex(n, i, j int) int {
	return i*n - i*(i+1)/2 + (j - i - 1)
}

// Package geom holds rigid-body geometry operations on configurations.
package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/samcharles93/pespath/internal/atoms"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrAtomCountMismatch = errors.New("atom count mismatch")
	ErrSVDFailed         = errors.New("svd did not converge")
)

// MinimizeRotationAndTranslation rotates and translates a in place so that its
// RMSD from target is minimal. Both configurations must list the same atoms in
// the same order; target is not modified.
//
// Constraints on a are not consulted: this is a rigid-body move.
func MinimizeRotationAndTranslation(target, a *atoms.Atoms) error {
	if target.Len() != a.Len() {
		return fmt.Errorf("%w: target has %d, moving has %d", ErrAtomCountMismatch, target.Len(), a.Len())
	}
	n := a.Len()
	if n == 0 {
		return nil
	}

	ct := target.Centroid()
	ca := a.Centroid()

	rot, err := kabsch(centered(a.Positions, ca), centered(target.Positions, ct))
	if err != nil {
		return err
	}

	out := make([]r3.Vec, n)
	for i, p := range a.Positions {
		out[i] = r3.Add(rotate(rot, r3.Sub(p, ca)), ct)
	}
	a.Positions = out
	a.Energy = nil
	return nil
}

// RMSD is the root-mean-square deviation between matching positions.
func RMSD(a, b *atoms.Atoms) (float64, error) {
	if a.Len() != b.Len() {
		return 0, ErrAtomCountMismatch
	}
	if a.Len() == 0 {
		return 0, nil
	}
	sum := 0.0
	for i := range a.Positions {
		d := r3.Sub(a.Positions[i], b.Positions[i])
		sum += r3.Dot(d, d)
	}
	return math.Sqrt(sum / float64(a.Len())), nil
}

func centered(pos []r3.Vec, c r3.Vec) *mat.Dense {
	m := mat.NewDense(len(pos), 3, nil)
	for i, p := range pos {
		d := r3.Sub(p, c)
		m.SetRow(i, []float64{d.X, d.Y, d.Z})
	}
	return m
}

// kabsch returns the proper rotation R minimising |R p_i - q_i| over rows of p and q.
func kabsch(p, q *mat.Dense) (*mat.Dense, error) {
	var h mat.Dense
	h.Mul(p.T(), q)

	var svd mat.SVD
	if ok := svd.Factorize(&h, mat.SVDFull); !ok {
		return nil, ErrSVDFailed
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var vut mat.Dense
	vut.Mul(&v, u.T())
	d := 1.0
	if mat.Det(&vut) < 0 {
		d = -1
	}

	var vd, r mat.Dense
	vd.Mul(&v, mat.NewDiagDense(3, []float64{1, 1, d}))
	r.Mul(&vd, u.T())
	return &r, nil
}

func rotate(r *mat.Dense, p r3.Vec) r3.Vec {
	return r3.Vec{
		X: r.At(0, 0)*p.X + r.At(0, 1)*p.Y + r.At(0, 2)*p.Z,
		Y: r.At(1, 0)*p.X + r.At(1, 1)*p.Y + r.At(1, 2)*p.Z,
		Z: r.At(2, 0)*p.X + r.At(2, 1)*p.Y + r.At(2, 2)*p.Z,
	}
}

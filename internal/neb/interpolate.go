package neb

import (
	"fmt"

	"github.com/samcharles93/pespath/internal/atoms"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	idppFMax  = 0.1
	idppSteps = 100
)

// Interpolate places the interior images between the endpoints.
func (b *Band) Interpolate(method Method) error {
	switch method {
	case MethodLinear:
		b.interpolateLinear()
		return nil
	case MethodIDPP:
		b.interpolateLinear()
		return b.interpolateIDPP(idppFMax, idppSteps)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// interpolateLinear spaces the interior images evenly on the straight line
// between the endpoints. Constraints are bypassed so that fixed atoms still
// follow the line.
func (b *Band) interpolateLinear() {
	n := len(b.Images)
	first := b.Images[0].Positions
	last := b.Images[n-1].Positions
	step := diff(last, first)
	for i := 1; i < n-1; i++ {
		frac := float64(i) / float64(n-1)
		pos := make([]r3.Vec, len(first))
		for j := range first {
			pos[j] = r3.Add(first[j], r3.Scale(frac, step[j]))
		}
		b.Images[i].Positions = pos
		b.Images[i].Energy = nil
	}
}

// interpolateIDPP relaxes the band under the IDPP objective, whose target
// pair distances vary linearly from the initial to the final image. Interior
// calculators are restored afterwards; endpoints are never touched.
func (b *Band) interpolateIDPP(fmax float64, steps int) error {
	n := len(b.Images)
	if n < 3 {
		return nil
	}
	d0 := pairDistances(b.Images[0].Positions)
	d1 := pairDistances(b.Images[n-1].Positions)

	inner := b.interior()
	saved := make([]atoms.Calculator, len(inner))
	for i, img := range inner {
		saved[i] = img.Calc
		frac := float64(i+1) / float64(n-1)
		target := make([]float64, len(d0))
		for k := range d0 {
			target[k] = d0[k] + frac*(d1[k]-d0[k])
		}
		img.Calc = IDPP{Target: target}
	}
	defer func() {
		for i, img := range inner {
			img.Calc = saved[i]
			img.Energy = nil
		}
	}()

	if _, err := NewMDMin(b).Run(fmax, steps); err != nil {
		return fmt.Errorf("idpp: %w", err)
	}
	return nil
}

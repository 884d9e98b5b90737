// Package neb implements elastic bands of images between two configurations:
// geometric interpolation (linear and IDPP), nudged-elastic-band forces and a
// minimizer that relaxes the band.
package neb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samcharles93/pespath/internal/atoms"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrTooFewImages  = errors.New("band needs at least two images")
	ErrImageMismatch = errors.New("images do not describe the same atoms")
	ErrUnknownMethod = errors.New("unknown interpolation method")
)

// Method selects how intermediate images are placed.
type Method string

const (
	// MethodIDPP is image-dependent pair-potential interpolation.
	MethodIDPP   Method = "idpp"
	MethodLinear Method = "linear"
)

const DefaultSpring = 0.1

// ParseMethod accepts the method names case-insensitively. The empty string
// selects IDPP.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodIDPP:
		return MethodIDPP, nil
	case MethodLinear:
		return MethodLinear, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Band is an ordered chain of images whose two endpoints stay fixed.
type Band struct {
	Images []*atoms.Atoms
	// K is the spring constant between neighbouring images.
	K float64
	// Climb turns the highest-energy interior image into a climbing image.
	Climb bool

	energies []float64
}

type Option func(*Band)

func WithSpring(k float64) Option {
	return func(b *Band) {
		b.K = k
	}
}

func WithClimb(climb bool) Option {
	return func(b *Band) {
		b.Climb = climb
	}
}

// NewBand validates that all images hold the same atoms in the same order.
func NewBand(images []*atoms.Atoms, opts ...Option) (*Band, error) {
	if len(images) < 2 {
		return nil, ErrTooFewImages
	}
	first := images[0]
	for i, img := range images[1:] {
		if img.Len() != first.Len() {
			return nil, fmt.Errorf("%w: image %d has %d atoms, image 0 has %d", ErrImageMismatch, i+1, img.Len(), first.Len())
		}
		for j := range img.Symbols {
			if img.Symbols[j] != first.Symbols[j] {
				return nil, fmt.Errorf("%w: atom %d is %s in image %d but %s in image 0", ErrImageMismatch, j, img.Symbols[j], i+1, first.Symbols[j])
			}
		}
	}
	b := &Band{Images: images, K: DefaultSpring}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Band) natoms() int {
	return b.Images[0].Len()
}

func (b *Band) interior() []*atoms.Atoms {
	return b.Images[1 : len(b.Images)-1]
}

// Positions returns the positions of all interior images, concatenated.
func (b *Band) Positions() []r3.Vec {
	out := make([]r3.Vec, 0, len(b.Images)*b.natoms())
	for _, img := range b.interior() {
		out = append(out, img.Positions...)
	}
	return out
}

// SetPositions distributes concatenated interior positions back to the images.
func (b *Band) SetPositions(pos []r3.Vec) {
	n := b.natoms()
	for i, img := range b.interior() {
		img.SetPositions(pos[i*n : (i+1)*n])
	}
}

// Energies returns the interior energies from the last force evaluation.
func (b *Band) Energies() []float64 {
	return append([]float64(nil), b.energies...)
}

// Forces evaluates every interior image and returns the nudged-elastic-band
// forces, concatenated in image order: the true force perpendicular to the
// local tangent plus the spring force along it.
func (b *Band) Forces() ([]r3.Vec, error) {
	inner := b.interior()
	if len(inner) == 0 {
		return nil, nil
	}

	energies := make([]float64, len(inner))
	forces := make([][]r3.Vec, len(inner))
	for i, img := range inner {
		e, f, err := img.EnergyAndForces()
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}
		energies[i] = e
		forces[i] = f
	}
	b.energies = energies

	imax := 1
	for i := range energies {
		if energies[i] > energies[imax-1] {
			imax = i + 1
		}
	}

	out := make([]r3.Vec, 0, len(inner)*b.natoms())
	for i := 1; i < len(b.Images)-1; i++ {
		t1 := diff(b.Images[i].Positions, b.Images[i-1].Positions)
		t2 := diff(b.Images[i+1].Positions, b.Images[i].Positions)

		var tangent []r3.Vec
		switch {
		case i < imax:
			tangent = t2
		case i > imax:
			tangent = t1
		default:
			tangent = sum(t1, t2)
		}

		f := forces[i-1]
		tt := dot(tangent, tangent)
		if tt > 0 {
			if i == imax && b.Climb {
				axpy(-2*dot(f, tangent)/tt, tangent, f)
			} else {
				axpy(-dot(f, tangent)/tt, tangent, f)
				spring := dot(t2, tangent) - dot(t1, tangent)
				axpy(b.K*spring/tt, tangent, f)
			}
		}
		if c := b.Images[i].Constraint; c != nil {
			c.AdjustForces(b.Images[i].Positions, f)
		}
		out = append(out, f...)
	}
	return out, nil
}

func diff(a, b []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(a))
	for i := range a {
		out[i] = r3.Sub(a[i], b[i])
	}
	return out
}

func sum(a, b []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(a))
	for i := range a {
		out[i] = r3.Add(a[i], b[i])
	}
	return out
}

func dot(a, b []r3.Vec) float64 {
	s := 0.0
	for i := range a {
		s += r3.Dot(a[i], b[i])
	}
	return s
}

// axpy computes y += alpha*x in place.
func axpy(alpha float64, x, y []r3.Vec) {
	for i := range y {
		y[i] = r3.Add(y[i], r3.Scale(alpha, x[i]))
	}
}

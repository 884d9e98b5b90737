// Package calc provides energy models that can be attached to configurations.
package calc

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samcharles93/pespath/internal/atoms"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrUnknownCalculator = errors.New("unknown calculator")
	ErrCoincidentAtoms   = errors.New("coincident atoms")
)

// Calculator is the energy-evaluation contract shared with atoms.Atoms.
type Calculator = atoms.Calculator

// Factory creates one calculator per band image.
type Factory func() Calculator

// Spec names a built-in calculator and its parameters. Missing parameters
// take the calculator's defaults.
type Spec struct {
	Name   string             `yaml:"name" json:"name"`
	Params map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

// Factory resolves the named calculator and its parameters to a factory.
func (s Spec) Factory() (Factory, error) {
	for k := range s.Params {
		if !knownParam(s.Name, k) {
			return nil, fmt.Errorf("calculator %q: unknown parameter %q", s.Name, k)
		}
	}
	switch strings.ToLower(strings.TrimSpace(s.Name)) {
	case "lj", "lennard-jones", "lennardjones":
		lj := DefaultLennardJones()
		s.apply("epsilon", &lj.Epsilon)
		s.apply("sigma", &lj.Sigma)
		if !s.apply("cutoff", &lj.Cutoff) {
			lj.Cutoff = 3 * lj.Sigma
		}
		return func() Calculator { return lj }, nil
	case "morse":
		m := DefaultMorse()
		s.apply("d", &m.D)
		s.apply("alpha", &m.Alpha)
		s.apply("r0", &m.R0)
		s.apply("cutoff", &m.Cutoff)
		return func() Calculator { return m }, nil
	default:
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownCalculator, s.Name, strings.Join(Names(), ", "))
	}
}

func (s Spec) apply(key string, dst *float64) bool {
	v, ok := s.Params[key]
	if ok {
		*dst = v
	}
	return ok
}

var params = map[string][]string{
	"lj":    {"epsilon", "sigma", "cutoff"},
	"morse": {"d", "alpha", "r0", "cutoff"},
}

func knownParam(name, key string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "lennard-jones" || name == "lennardjones" {
		name = "lj"
	}
	for _, p := range params[name] {
		if p == key {
			return true
		}
	}
	// Unknown calculators are reported by Factory itself.
	_, ok := params[name]
	return !ok
}

// Names lists the built-in calculator names.
func Names() []string {
	out := make([]string, 0, len(params))
	for k := range params {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// pairwise sums a radial pair potential over all pairs within cutoff
// (cutoff <= 0 means no cutoff). dv returns V(r) and dV/dr.
func pairwise(pos []r3.Vec, cutoff float64, dv func(r float64) (float64, float64)) (float64, []r3.Vec, error) {
	forces := make([]r3.Vec, len(pos))
	energy := 0.0
	for i := 0; i < len(pos); i++ {
		for j := i + 1; j < len(pos); j++ {
			d := r3.Sub(pos[j], pos[i])
			r := r3.Norm(d)
			if r == 0 {
				return 0, nil, fmt.Errorf("%w: %d and %d", ErrCoincidentAtoms, i, j)
			}
			if cutoff > 0 && r > cutoff {
				continue
			}
			v, dvdr := dv(r)
			energy += v
			// F_j = -dV/dr * d/r, F_i = -F_j
			fj := r3.Scale(-dvdr/r, d)
			forces[j] = r3.Add(forces[j], fj)
			forces[i] = r3.Sub(forces[i], fj)
		}
	}
	return energy, forces, nil
}

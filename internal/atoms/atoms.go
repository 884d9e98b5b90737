package atoms

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrLengthMismatch = errors.New("symbols and positions differ in length")
	ErrNoCalculator   = errors.New("no calculator attached")
)

// Calculator evaluates the energy of a configuration and the force on every atom.
// Forces are returned in the same order as the positions.
type Calculator interface {
	Calculate(symbols []string, positions []r3.Vec) (float64, []r3.Vec, error)
}

// Atoms is an atomic configuration: one species and one Cartesian position per atom.
//
// Energy is filled in by PotentialEnergy or by a reader that found a stored value.
// Calc is a per-configuration attachment and is not carried by Copy; Constraint is.
type Atoms struct {
	Symbols    []string
	Positions  []r3.Vec
	Energy     *float64
	Info       map[string]string
	Calc       Calculator
	Constraint Constraint
}

// New builds a configuration, copying the provided slices.
func New(symbols []string, positions []r3.Vec) (*Atoms, error) {
	if len(symbols) != len(positions) {
		return nil, fmt.Errorf("%w: %d symbols, %d positions", ErrLengthMismatch, len(symbols), len(positions))
	}
	return &Atoms{
		Symbols:   append([]string(nil), symbols...),
		Positions: append([]r3.Vec(nil), positions...),
	}, nil
}

func (a *Atoms) Len() int {
	return len(a.Symbols)
}

// Copy returns an independent configuration with the same species, positions,
// stored energy and info. The calculator is not copied.
func (a *Atoms) Copy() *Atoms {
	out := &Atoms{
		Symbols:    append([]string(nil), a.Symbols...),
		Positions:  append([]r3.Vec(nil), a.Positions...),
		Constraint: a.Constraint,
	}
	if a.Energy != nil {
		e := *a.Energy
		out.Energy = &e
	}
	if len(a.Info) > 0 {
		out.Info = make(map[string]string, len(a.Info))
		for k, v := range a.Info {
			out.Info[k] = v
		}
	}
	return out
}

// SetPositions replaces the positions, letting the constraint (if any) veto
// moves of fixed atoms. The cached energy is invalidated.
func (a *Atoms) SetPositions(pos []r3.Vec) {
	next := append([]r3.Vec(nil), pos...)
	if a.Constraint != nil {
		a.Constraint.AdjustPositions(a.Positions, next)
	}
	a.Positions = next
	a.Energy = nil
}

// PotentialEnergy evaluates the attached calculator and stores the result.
func (a *Atoms) PotentialEnergy() (float64, error) {
	e, _, err := a.evaluate()
	return e, err
}

// Forces evaluates the attached calculator and returns constraint-adjusted forces.
func (a *Atoms) Forces() ([]r3.Vec, error) {
	_, f, err := a.evaluate()
	return f, err
}

// EnergyAndForces evaluates the calculator once and returns both results.
func (a *Atoms) EnergyAndForces() (float64, []r3.Vec, error) {
	return a.evaluate()
}

func (a *Atoms) evaluate() (float64, []r3.Vec, error) {
	if a.Calc == nil {
		return 0, nil, ErrNoCalculator
	}
	e, f, err := a.Calc.Calculate(a.Symbols, a.Positions)
	if err != nil {
		return 0, nil, err
	}
	if len(f) != len(a.Positions) {
		return 0, nil, fmt.Errorf("calculator returned %d forces for %d atoms", len(f), len(a.Positions))
	}
	if a.Constraint != nil {
		a.Constraint.AdjustForces(a.Positions, f)
	}
	a.Energy = &e
	return e, f, nil
}

// Centroid is the unweighted mean position.
func (a *Atoms) Centroid() r3.Vec {
	return Centroid(a.Positions)
}

func Centroid(pos []r3.Vec) r3.Vec {
	var c r3.Vec
	if len(pos) == 0 {
		return c
	}
	for _, p := range pos {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(len(pos)), c)
}

// Formula returns the chemical formula in Hill order: carbon, hydrogen, then
// the remaining elements alphabetically. Without carbon every element is
// alphabetical.
func (a *Atoms) Formula() string {
	counts := make(map[string]int)
	for _, s := range a.Symbols {
		counts[s]++
	}
	names := make([]string, 0, len(counts))
	for s := range counts {
		names = append(names, s)
	}
	sort.Strings(names)
	if counts["C"] > 0 {
		ordered := []string{"C"}
		if counts["H"] > 0 {
			ordered = append(ordered, "H")
		}
		for _, s := range names {
			if s != "C" && s != "H" {
				ordered = append(ordered, s)
			}
		}
		names = ordered
	}

	var b strings.Builder
	for _, s := range names {
		b.WriteString(s)
		if n := counts[s]; n > 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}

// SameGeometry reports whether a and b have the same species in the same
// order and every position agrees within tol.
func SameGeometry(a, b *Atoms, tol float64) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.Symbols {
		if a.Symbols[i] != b.Symbols[i] {
			return false
		}
		if r3.Norm(r3.Sub(a.Positions[i], b.Positions[i])) > tol {
			return false
		}
	}
	return true
}

// MaxForce is the largest per-atom force magnitude.
func MaxForce(forces []r3.Vec) float64 {
	m := 0.0
	for _, f := range forces {
		m = math.Max(m, r3.Norm(f))
	}
	return m
}

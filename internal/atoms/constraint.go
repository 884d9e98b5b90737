package atoms

import "gonum.org/v1/gonum/spatial/r3"

// Constraint restricts how a configuration may move.
type Constraint interface {
	// AdjustPositions edits next in place given the current positions.
	AdjustPositions(current, next []r3.Vec)
	// AdjustForces edits forces in place.
	AdjustForces(positions, forces []r3.Vec)
}

// FixAtoms pins the listed atom indices. Out-of-range indices are ignored.
type FixAtoms struct {
	Indices []int
}

func (c FixAtoms) AdjustPositions(current, next []r3.Vec) {
	for _, i := range c.Indices {
		if i >= 0 && i < len(current) && i < len(next) {
			next[i] = current[i]
		}
	}
}

func (c FixAtoms) AdjustForces(_, forces []r3.Vec) {
	for _, i := range c.Indices {
		if i >= 0 && i < len(forces) {
			forces[i] = r3.Vec{}
		}
	}
}

package pes

import (
	"errors"
	"fmt"

	"github.com/samcharles93/pespath/internal/atoms"
	"github.com/samcharles93/pespath/internal/geom"
	"github.com/samcharles93/pespath/internal/structio"
)

var (
	ErrNoPredecessor = errors.New("reorientation requested without a previous point")
	ErrNoSource      = errors.New("point has no source")
)

// LoadImage resolves a point to its configuration. A supplied configuration
// is returned as is; otherwise the reader loads it from storage and its
// errors are returned unchanged.
func LoadImage(r structio.Reader, spec PointSpec) (*atoms.Atoms, error) {
	switch src := spec.Source.(type) {
	case FromAtoms:
		if src.Atoms == nil {
			return nil, ErrNoSource
		}
		return src.Atoms, nil
	case *FromAtoms:
		if src == nil || src.Atoms == nil {
			return nil, ErrNoSource
		}
		return src.Atoms, nil
	case FromFile:
		return r.Read(src.Path, src.Format)
	case *FromFile:
		if src == nil {
			return nil, ErrNoSource
		}
		return r.Read(src.Path, src.Format)
	default:
		return nil, ErrNoSource
	}
}

// Align moves cur in place onto prev with a rigid rotation and translation.
// prev must be the previous point's final configuration.
func Align(prev, cur *atoms.Atoms) error {
	if prev == nil {
		return ErrNoPredecessor
	}
	if err := geom.MinimizeRotationAndTranslation(prev, cur); err != nil {
		return fmt.Errorf("align: %w", err)
	}
	return nil
}

// Duplicate returns n references to a. The frames alias a and are only ever
// used as output frames.
func Duplicate(a *atoms.Atoms, n int) Frames {
	if n <= 0 {
		return nil
	}
	out := make(Frames, n)
	for i := range out {
		out[i] = a
	}
	return out
}

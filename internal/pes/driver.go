package pes

import (
	"context"
	"fmt"

	"github.com/samcharles93/pespath/internal/atoms"
	"github.com/samcharles93/pespath/internal/logger"
	"github.com/samcharles93/pespath/internal/structio"
)

// InterpPES resolves every point in order, aligning each onto its already
// resolved predecessor when asked, and builds one frame sequence per point:
// the configuration, its duplicates, then the bridge to the next point if the
// point has an interpolation config. The first failing point aborts the run.
func InterpPES(ctx context.Context, r structio.Reader, points []PointSpec) (Path, error) {
	log := logger.FromContext(ctx)

	resolved := make([]*atoms.Atoms, len(points))
	var prev *atoms.Atoms
	for i, p := range points {
		a, err := LoadImage(r, p)
		if err != nil {
			return Path{}, fmt.Errorf("point %d: %w", i, err)
		}
		if p.Reorient {
			if err := Align(prev, a); err != nil {
				return Path{}, fmt.Errorf("point %d: %w", i, err)
			}
		}
		log.Debug("point resolved", "point", i, "atoms", a.Len(), "formula", a.Formula(), "reoriented", p.Reorient)
		resolved[i] = a
		prev = a
	}

	seqs := make([]Frames, len(points))
	for i, p := range points {
		seqs[i] = Frames{resolved[i]}
		if p.Dupl != nil {
			seqs[i] = append(seqs[i], Duplicate(resolved[i], *p.Dupl)...)
		}
	}

	for i, p := range points {
		if p.Interp == nil {
			continue
		}
		if i+1 == len(points) {
			log.Debug("interpolation on last point ignored", "point", i)
			continue
		}
		cfg := p.Interp
		bridge, err := InterpByMultiscaleNEB(ctx, resolved[i], resolved[i+1], cfg.NEBImages, cfg.InterpImages, cfg.NEB)
		if err != nil {
			return Path{}, fmt.Errorf("point %d -> %d: %w", i, i+1, err)
		}
		log.Debug("bridge built", "from", i, "to", i+1, "frames", len(bridge))
		seqs[i] = append(seqs[i], bridge...)
	}

	return Path{Sequences: seqs}, nil
}

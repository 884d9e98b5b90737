package pes

import (
	"context"
	"errors"
	"fmt"

	"github.com/samcharles93/pespath/internal/atoms"
	"github.com/samcharles93/pespath/internal/logger"
	"github.com/samcharles93/pespath/internal/neb"
)

var ErrNegativeImages = errors.New("image count must not be negative")

// InterpByNEB builds a band of n intermediate images between initial and
// final and returns all n+2 images, endpoints included and unmodified.
//
// With n == 0 it returns just the two endpoints. When opts.Calculator is set,
// every intermediate image gets its own calculator and the band is relaxed
// until the largest force falls below opts.FMax or opts.Steps is used up;
// not converging is not an error. Steps of zero keeps the interpolated guess.
func InterpByNEB(ctx context.Context, initial, final *atoms.Atoms, n int, opts NEBOptions) (Frames, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeImages, n)
	}
	if n == 0 {
		return Frames{initial, final}, nil
	}
	opts = opts.withDefaults()

	images := make([]*atoms.Atoms, 0, n+2)
	images = append(images, initial)
	for i := 0; i < n; i++ {
		img := initial.Copy()
		if opts.Calculator != nil {
			img.Calc = opts.Calculator()
		}
		if opts.Constraint != nil {
			img.Constraint = opts.Constraint
		}
		images = append(images, img)
	}
	images = append(images, final)

	band, err := neb.NewBand(images, neb.WithSpring(*opts.K), neb.WithClimb(opts.Climb))
	if err != nil {
		return nil, err
	}
	if err := band.Interpolate(opts.Method); err != nil {
		return nil, err
	}

	if opts.Calculator != nil {
		opt := neb.NewMDMin(band)
		converged, err := opt.Run(*opts.FMax, *opts.Steps)
		if err != nil {
			return nil, fmt.Errorf("relax band: %w", err)
		}
		log := logger.FromContext(ctx)
		if converged {
			log.Debug("band relaxed", "images", n, "steps", opt.Steps())
		} else {
			log.Debug("band not converged", "images", n, "steps", opt.Steps(), "fmax", *opts.FMax)
		}
	}

	return Frames(band.Images), nil
}

// InterpByMultiscaleNEB runs a coarse band of coarse images with opts, then a
// purely geometric band of fine images inside every coarse segment, and
// concatenates the fine bands. Interior coarse images therefore appear twice,
// once closing one segment and once opening the next; the result has
// (coarse+1)*(fine+2) frames.
func InterpByMultiscaleNEB(ctx context.Context, initial, final *atoms.Atoms, coarse, fine int, opts NEBOptions) (Frames, error) {
	if fine < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeImages, fine)
	}
	band, err := InterpByNEB(ctx, initial, final, coarse, opts)
	if err != nil {
		return nil, err
	}

	out := make(Frames, 0, (len(band)-1)*(fine+2))
	for i := 0; i+1 < len(band); i++ {
		segment, err := InterpByNEB(ctx, band[i], band[i+1], fine, NEBOptions{})
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		out = append(out, segment...)
	}
	return out, nil
}

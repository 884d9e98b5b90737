package pes

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samcharles93/pespath/internal/atoms"
	"github.com/samcharles93/pespath/internal/calc"
	"github.com/samcharles93/pespath/internal/geom"
	"github.com/samcharles93/pespath/internal/neb"
)

type memReader struct {
	files map[string]*atoms.Atoms
	reads []string
}

func (m *memReader) Read(path, format string) (*atoms.Atoms, error) {
	m.reads = append(m.reads, path)
	a, ok := m.files[path]
	if !ok {
		return nil, errors.New("no such file: " + path)
	}
	return a, nil
}

func dimer(r float64) *atoms.Atoms {
	a, err := atoms.New([]string{"H", "H"}, []r3.Vec{{}, {X: r}})
	if err != nil {
		panic(err)
	}
	return a
}

func triangle() *atoms.Atoms {
	a, err := atoms.New([]string{"O", "H", "H"}, []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 0.96, Y: 0, Z: 0},
		{X: -0.3, Y: 0.9, Z: 0.1},
	})
	if err != nil {
		panic(err)
	}
	return a
}

func moved(a *atoms.Atoms, angle float64, shift r3.Vec) *atoms.Atoms {
	out := a.Copy()
	c, s := math.Cos(angle), math.Sin(angle)
	for i, p := range out.Positions {
		out.Positions[i] = r3.Add(r3.Vec{X: c*p.X - s*p.Y, Y: s*p.X + c*p.Y, Z: p.Z}, shift)
	}
	return out
}

func TestInterpByNEBZeroImages(t *testing.T) {
	a, b := dimer(1), dimer(2)
	frames, err := InterpByNEB(context.Background(), a, b, 0, NEBOptions{})
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Same(t, a, frames[0])
	assert.Same(t, b, frames[1])
}

func TestInterpByNEBNegativeImages(t *testing.T) {
	_, err := InterpByNEB(context.Background(), dimer(1), dimer(2), -1, NEBOptions{})
	assert.ErrorIs(t, err, ErrNegativeImages)
}

func TestInterpByNEBLength(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		a, b := dimer(1), dimer(2)
		frames, err := InterpByNEB(context.Background(), a, b, n, NEBOptions{Method: neb.MethodLinear})
		require.NoError(t, err)
		require.Len(t, frames, n+2)
		assert.Same(t, a, frames[0])
		assert.Same(t, b, frames[n+1])
	}
}

func TestInterpByNEBLeavesEndpoints(t *testing.T) {
	a, b := dimer(1), dimer(2)
	before := a.Copy()
	after := b.Copy()
	factory := func() calc.Calculator { return calc.Morse{D: 1, Alpha: 1.5, R0: 1.4} }

	frames, err := InterpByNEB(context.Background(), a, b, 3, NEBOptions{Calculator: factory})
	require.NoError(t, err)
	require.Len(t, frames, 5)
	assert.True(t, atoms.SameGeometry(a, before, 0))
	assert.True(t, atoms.SameGeometry(b, after, 0))
	assert.Nil(t, a.Calc)
	assert.Nil(t, b.Calc)

	for i := 1; i <= 3; i++ {
		assert.NotNil(t, frames[i].Calc, "image %d", i)
		assert.NotSame(t, a, frames[i])
	}
}

func TestInterpByNEBDefaultMethodIsIDPP(t *testing.T) {
	a, b := dimer(1), moved(dimer(1), math.Pi/2, r3.Vec{})
	idpp, err := InterpByNEB(context.Background(), a, b, 1, NEBOptions{})
	require.NoError(t, err)
	lin, err := InterpByNEB(context.Background(), a, b, 1, NEBOptions{Method: neb.MethodLinear})
	require.NoError(t, err)

	bond := func(x *atoms.Atoms) float64 { return r3.Norm(r3.Sub(x.Positions[1], x.Positions[0])) }
	assert.Less(t, math.Abs(bond(idpp[1])-1), math.Abs(bond(lin[1])-1))
}

func TestInterpByNEBZeroStepsKeepsGuess(t *testing.T) {
	a := triangle()
	b := moved(a, math.Pi/3, r3.Vec{})
	factory := func() calc.Calculator { return calc.DefaultMorse() }

	lin, err := InterpByNEB(context.Background(), a, b, 2, NEBOptions{Method: neb.MethodLinear})
	require.NoError(t, err)
	frozen, err := InterpByNEB(context.Background(), a, b, 2, NEBOptions{
		Method:     neb.MethodLinear,
		Calculator: factory,
		Steps:      IntPtr(0),
	})
	require.NoError(t, err)
	relaxed, err := InterpByNEB(context.Background(), a, b, 2, NEBOptions{
		Method:     neb.MethodLinear,
		Calculator: factory,
	})
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		assert.True(t, atoms.SameGeometry(lin[i], frozen[i], 0), "image %d", i)
	}
	assert.False(t, atoms.SameGeometry(lin[1], relaxed[1], 1e-9))
}

func TestNEBOptionsDefaultsOnlyUnset(t *testing.T) {
	o := NEBOptions{}.withDefaults()
	assert.Equal(t, neb.MethodIDPP, o.Method)
	assert.Equal(t, DefaultFMax, *o.FMax)
	assert.Equal(t, DefaultSteps, *o.Steps)
	assert.Equal(t, neb.DefaultSpring, *o.K)

	o = NEBOptions{FMax: FloatPtr(0), Steps: IntPtr(0), K: FloatPtr(0)}.withDefaults()
	assert.Equal(t, 0.0, *o.FMax)
	assert.Equal(t, 0, *o.Steps)
	assert.Equal(t, 0.0, *o.K)
}

func TestInterpByNEBUnknownMethod(t *testing.T) {
	_, err := InterpByNEB(context.Background(), dimer(1), dimer(2), 1, NEBOptions{Method: "spline"})
	assert.ErrorIs(t, err, neb.ErrUnknownMethod)
}

func TestInterpByNEBConstraint(t *testing.T) {
	a, b := dimer(1), dimer(2)
	fix := atoms.FixAtoms{Indices: []int{0}}
	factory := func() calc.Calculator { return calc.Morse{D: 1, Alpha: 1.5, R0: 1.4} }

	frames, err := InterpByNEB(context.Background(), a, b, 2, NEBOptions{Calculator: factory, Constraint: fix, Method: neb.MethodLinear})
	require.NoError(t, err)
	for _, f := range frames[1:3] {
		assert.Equal(t, fix, f.Constraint)
		assert.Equal(t, r3.Vec{}, f.Positions[0])
	}
}

func TestInterpByMultiscaleNEBLength(t *testing.T) {
	cases := []struct{ coarse, fine int }{{0, 0}, {2, 0}, {0, 3}, {2, 3}, {1, 1}}
	for _, tc := range cases {
		frames, err := InterpByMultiscaleNEB(context.Background(), dimer(1), dimer(2), tc.coarse, tc.fine, NEBOptions{Method: neb.MethodLinear})
		require.NoError(t, err)
		assert.Len(t, frames, (tc.coarse+1)*(tc.fine+2), "coarse=%d fine=%d", tc.coarse, tc.fine)
	}
}

func TestInterpByMultiscaleNEBKeepsInteriorDuplicates(t *testing.T) {
	frames, err := InterpByMultiscaleNEB(context.Background(), dimer(1), dimer(2), 1, 0, NEBOptions{Method: neb.MethodLinear})
	require.NoError(t, err)
	require.Len(t, frames, 4)
	assert.Same(t, frames[1], frames[2])
	assert.InDelta(t, 1.5, frames[1].Positions[1].X, 1e-12)
}

func TestDuplicate(t *testing.T) {
	a := dimer(1)
	assert.Empty(t, Duplicate(a, 0))
	assert.Empty(t, Duplicate(a, -2))
	out := Duplicate(a, 3)
	require.Len(t, out, 3)
	for _, f := range out {
		assert.True(t, atoms.SameGeometry(a, f, 0))
	}
}

func TestLoadImagePrefersSuppliedAtoms(t *testing.T) {
	r := &memReader{}
	a := dimer(1)
	got, err := LoadImage(r, PointSpec{Source: FromAtoms{Atoms: a}})
	require.NoError(t, err)
	assert.Same(t, a, got)
	assert.Empty(t, r.reads)

	_, err = LoadImage(r, PointSpec{})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestLoadImagePropagatesReadError(t *testing.T) {
	_, err := LoadImage(&memReader{}, PointSpec{Source: FromFile{Path: "missing.xyz"}})
	assert.ErrorContains(t, err, "missing.xyz")
}

func TestAlignWithoutPredecessor(t *testing.T) {
	assert.ErrorIs(t, Align(nil, dimer(1)), ErrNoPredecessor)
}

func TestInterpPESTwoPointsNoBridge(t *testing.T) {
	r := &memReader{files: map[string]*atoms.Atoms{"a.xyz": dimer(1), "b.xyz": dimer(2)}}
	path, err := InterpPES(context.Background(), r, []PointSpec{
		{Source: FromFile{Path: "a.xyz"}},
		{Source: FromFile{Path: "b.xyz"}},
	})
	require.NoError(t, err)
	assert.Len(t, path.Flatten(), 2)
	assert.Equal(t, []string{"a.xyz", "b.xyz"}, r.reads)
}

func TestInterpPESDuplicateAndBridge(t *testing.T) {
	a, b := dimer(1), dimer(2)
	path, err := InterpPES(context.Background(), nil, []PointSpec{
		{
			Source: FromAtoms{Atoms: a},
			Dupl:   IntPtr(3),
			Interp: &InterpConfig{NEBImages: 2, InterpImages: 0, NEB: NEBOptions{Method: neb.MethodLinear}},
		},
		{Source: FromAtoms{Atoms: b}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 1}, path.Lengths())

	flat := path.Flatten()
	require.Len(t, flat, 11)
	for _, f := range flat[:4] {
		assert.Same(t, a, f)
	}
	assert.Same(t, a, flat[4])
	assert.Same(t, b, flat[9])
	assert.Same(t, b, flat[10])
}

func TestInterpPESPerPointSequences(t *testing.T) {
	a, b, c := dimer(1), dimer(1.5), dimer(2)
	path, err := InterpPES(context.Background(), nil, []PointSpec{
		{Source: FromAtoms{Atoms: a}, Dupl: IntPtr(1), Interp: &InterpConfig{NEBImages: 1, InterpImages: 1, NEB: NEBOptions{Method: neb.MethodLinear}}},
		{Source: FromAtoms{Atoms: b}},
		{Source: FromAtoms{Atoms: c}, Dupl: IntPtr(2)},
	})
	require.NoError(t, err)
	require.Len(t, path.Sequences, 3)

	first := path.Sequences[0]
	require.Len(t, first, 1+1+2*3)
	assert.Same(t, a, first[0])
	assert.Same(t, a, first[1])
	assert.Same(t, a, first[2])
	assert.Same(t, b, first[len(first)-1])

	assert.Equal(t, Frames{b}, path.Sequences[1])
	assert.Equal(t, Frames{c, c, c}, path.Sequences[2])
	assert.Equal(t, 12, path.Len())
}

func TestInterpPESReorientFirstPoint(t *testing.T) {
	_, err := InterpPES(context.Background(), nil, []PointSpec{
		{Source: FromAtoms{Atoms: dimer(1)}, Reorient: true},
	})
	assert.ErrorIs(t, err, ErrNoPredecessor)
}

func TestInterpPESReorientChain(t *testing.T) {
	ref := triangle()
	p2 := moved(ref, 0.7, r3.Vec{X: 3, Y: -1, Z: 2})
	raw2 := p2.Copy()
	p3 := moved(raw2, -1.1, r3.Vec{X: -4, Y: 5})

	_, err := InterpPES(context.Background(), nil, []PointSpec{
		{Source: FromAtoms{Atoms: ref}},
		{Source: FromAtoms{Atoms: p2}, Reorient: true},
		{Source: FromAtoms{Atoms: p3}, Reorient: true},
	})
	require.NoError(t, err)

	d, err := geom.RMSD(ref, p2)
	require.NoError(t, err)
	assert.InDelta(t, 0, d, 1e-8)

	// p3 lands on the aligned p2, not on where p2 was loaded.
	d, err = geom.RMSD(ref, p3)
	require.NoError(t, err)
	assert.InDelta(t, 0, d, 1e-8)
	d, err = geom.RMSD(raw2, p3)
	require.NoError(t, err)
	assert.Greater(t, d, 0.1)
}

func TestInterpPESInterpOnLastPointIgnored(t *testing.T) {
	path, err := InterpPES(context.Background(), nil, []PointSpec{
		{Source: FromAtoms{Atoms: dimer(1)}},
		{Source: FromAtoms{Atoms: dimer(2)}, Interp: &InterpConfig{NEBImages: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, path.Lengths())
}

func TestInterpPESLoadFailureAborts(t *testing.T) {
	r := &memReader{files: map[string]*atoms.Atoms{"a.xyz": dimer(1)}}
	_, err := InterpPES(context.Background(), r, []PointSpec{
		{Source: FromFile{Path: "a.xyz"}},
		{Source: FromFile{Path: "b.xyz"}},
		{Source: FromFile{Path: "c.xyz"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "point 1")
	assert.Equal(t, []string{"a.xyz", "b.xyz"}, r.reads)
}

func TestInterpPESEmpty(t *testing.T) {
	path, err := InterpPES(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, path.Len())
	assert.Empty(t, path.Flatten())
}

package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func cluster() []r3.Vec {
	return []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1.1, Y: 0.1, Z: 0},
		{X: 0.4, Y: 1.0, Z: 0.2},
		{X: 0.3, Y: 0.5, Z: 1.05},
	}
}

// numericForces differentiates the energy by central differences.
func numericForces(t *testing.T, c Calculator, pos []r3.Vec) []r3.Vec {
	t.Helper()
	const h = 1e-6
	out := make([]r3.Vec, len(pos))
	for i := range pos {
		for axis := 0; axis < 3; axis++ {
			plus := append([]r3.Vec(nil), pos...)
			minus := append([]r3.Vec(nil), pos...)
			bump(&plus[i], axis, h)
			bump(&minus[i], axis, -h)
			ep, _, err := c.Calculate(nil, plus)
			require.NoError(t, err)
			em, _, err := c.Calculate(nil, minus)
			require.NoError(t, err)
			bump(&out[i], axis, -(ep-em)/(2*h))
		}
	}
	return out
}

func bump(v *r3.Vec, axis int, d float64) {
	switch axis {
	case 0:
		v.X += d
	case 1:
		v.Y += d
	default:
		v.Z += d
	}
}

func TestForcesMatchEnergyGradient(t *testing.T) {
	for name, c := range map[string]Calculator{
		"lj":    LennardJones{Epsilon: 0.8, Sigma: 1.0},
		"morse": Morse{D: 1.2, Alpha: 2.5, R0: 1.1},
	} {
		t.Run(name, func(t *testing.T) {
			pos := cluster()
			_, f, err := c.Calculate(nil, pos)
			require.NoError(t, err)
			want := numericForces(t, c, pos)
			for i := range f {
				assert.InDelta(t, want[i].X, f[i].X, 1e-5, "atom %d x", i)
				assert.InDelta(t, want[i].Y, f[i].Y, 1e-5, "atom %d y", i)
				assert.InDelta(t, want[i].Z, f[i].Z, 1e-5, "atom %d z", i)
			}
		})
	}
}

func TestPairMinima(t *testing.T) {
	rmin := math.Pow(2, 1.0/6)
	e, f, err := DefaultLennardJones().Calculate(nil, []r3.Vec{{}, {X: rmin}})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, e, 1e-12)
	assert.InDelta(t, 0.0, f[0].X, 1e-9)

	e, f, err = DefaultMorse().Calculate(nil, []r3.Vec{{}, {Z: 1}})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, e, 1e-12)
	assert.InDelta(t, 0.0, f[1].Z, 1e-12)
}

func TestCutoffDropsDistantPairs(t *testing.T) {
	lj := LennardJones{Epsilon: 1, Sigma: 1, Cutoff: 2}
	e, f, err := lj.Calculate(nil, []r3.Vec{{}, {X: 5}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, e)
	assert.Equal(t, r3.Vec{}, f[0])
}

func TestCoincidentAtoms(t *testing.T) {
	_, _, err := DefaultMorse().Calculate(nil, []r3.Vec{{X: 1}, {X: 1}})
	assert.ErrorIs(t, err, ErrCoincidentAtoms)
}

func TestSpecFactory(t *testing.T) {
	fac, err := Spec{Name: "LJ", Params: map[string]float64{"sigma": 2}}.Factory()
	require.NoError(t, err)
	lj, ok := fac().(LennardJones)
	require.True(t, ok)
	assert.Equal(t, 2.0, lj.Sigma)
	assert.Equal(t, 6.0, lj.Cutoff)

	fac, err = Spec{Name: "morse", Params: map[string]float64{"r0": 1.5}}.Factory()
	require.NoError(t, err)
	assert.Equal(t, 1.5, fac().(Morse).R0)

	_, err = Spec{Name: "emt"}.Factory()
	assert.ErrorIs(t, err, ErrUnknownCalculator)

	_, err = Spec{Name: "lj", Params: map[string]float64{"rho0": 6}}.Factory()
	assert.Error(t, err)

	assert.Equal(t, []string{"lj", "morse"}, Names())
}

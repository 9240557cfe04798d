package density_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/faldah/schroedinger-poisson/assemble"
	"github.com/faldah/schroedinger-poisson/density"
	"github.com/faldah/schroedinger-poisson/mesh"
	"github.com/faldah/schroedinger-poisson/quantum"
)

func TestOccupationWeightsZeroTemperature(t *testing.T) {
	energies := []float64{-0.1, 0, 0.05, 0.2}
	w := density.OccupationWeights(energies, 0.05, 0)
	want := []float64{1, 1, 1, 0}
	for i := range w {
		if w[i] != want[i] {
			t.Errorf("w[%d] = %g, want %g", i, w[i], want[i])
		}
	}
}

func TestOccupationWeightsFermiDirac(t *testing.T) {
	energies := []float64{-0.2, -0.05, 0, 0.05, 0.2, 50}
	w := density.OccupationWeights(energies, 0, 0.025)

	for i, wi := range w {
		if wi < 0 || wi > 1 {
			t.Fatalf("w[%d] = %g outside [0,1]", i, wi)
		}
		if i > 0 && wi > w[i-1] {
			t.Fatalf("weights not monotone non-increasing: w[%d]=%g > w[%d]=%g", i, wi, i-1, w[i-1])
		}
	}
	// At the Fermi level the occupation is exactly one half.
	if math.Abs(w[2]-0.5) > 1e-12 {
		t.Errorf("w at Fermi level = %g, want 0.5", w[2])
	}
	// Far above the Fermi level the occupation vanishes.
	if w[5] != 0 {
		t.Errorf("w far above Fermi level = %g, want 0", w[5])
	}
}

func solvedPairs(t *testing.T) (*mesh.Discretization, []quantum.Eigenpair) {
	t.Helper()
	g, err := mesh.NewGrid(80, 80, 8, 8, []mesh.Layer{
		{X0: 0, X1: 80, Mass: 1, Epsilon: 1},
	})
	require.NoError(t, err)
	d, err := mesh.NewDiscretization(g, 1)
	require.NoError(t, err)

	pairs, err := quantum.NewSolver(d, 4).Solve(mesh.NewField(d.Space))
	require.NoError(t, err)
	return d, pairs
}

func TestChargeDensityIntegral(t *testing.T) {
	d, pairs := solvedPairs(t)

	weights := []float64{1, 1, 0.5, 0}
	rho := density.ChargeDensity(d, pairs, weights, 0)

	got := assemble.Integrate(d, rho)
	if math.Abs(got-2.5) > 1e-9 {
		t.Errorf("∫ρ = %g, want 2.5 (the occupation sum)", got)
	}
	for i, v := range rho.Values {
		if v < 0 {
			t.Fatalf("density negative at dof %d: %g", i, v)
		}
	}
}

func TestChargeDensityTotalChargeOverride(t *testing.T) {
	d, pairs := solvedPairs(t)

	rho := density.ChargeDensity(d, pairs, []float64{1, 0, 0, 0}, 3.5)
	got := assemble.Integrate(d, rho)
	if math.Abs(got-3.5) > 1e-9 {
		t.Errorf("∫ρ = %g, want the configured total charge 3.5", got)
	}
}

func TestChargeDensityEmptyStates(t *testing.T) {
	d, pairs := solvedPairs(t)

	// All states far above the Fermi level carry zero weight.
	w := density.OccupationWeights(energiesOf(pairs), -10, 0)
	rho := density.ChargeDensity(d, pairs, w, 0)
	for i, v := range rho.Values {
		if v != 0 {
			t.Fatalf("density at dof %d = %g, want 0 for empty states", i, v)
		}
	}
}

func energiesOf(pairs []quantum.Eigenpair) []float64 {
	e := make([]float64, len(pairs))
	for i, p := range pairs {
		e[i] = p.Energy
	}
	return e
}

package quantum_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faldah/schroedinger-poisson/assemble"
	"github.com/faldah/schroedinger-poisson/mesh"
	"github.com/faldah/schroedinger-poisson/quantum"
)

// boxDisc builds a uniform square box: free-mass material, no band offset.
func boxDisc(t *testing.T, l float64, cells, order int) *mesh.Discretization {
	t.Helper()
	g, err := mesh.NewGrid(l, l, cells, cells, []mesh.Layer{
		{X0: 0, X1: l, BandOffset: 0, Mass: 1, Epsilon: 1},
	})
	require.NoError(t, err)
	d, err := mesh.NewDiscretization(g, order)
	require.NoError(t, err)
	return d
}

// wellDisc builds the layered barrier/well/barrier structure.
func wellDisc(t *testing.T, barrier, well float64, cells, order int) *mesh.Discretization {
	t.Helper()
	l := 2*barrier + well
	g, err := mesh.NewGrid(l, l, cells, cells, []mesh.Layer{
		{X0: 0, X1: barrier, BandOffset: 0.23, Mass: 0.096, Epsilon: 12},
		{X0: barrier, X1: barrier + well, BandOffset: 0, Mass: 0.067, Epsilon: 12.9},
		{X0: barrier + well, X1: l, BandOffset: 0.23, Mass: 0.096, Epsilon: 12},
	})
	require.NoError(t, err)
	d, err := mesh.NewDiscretization(g, order)
	require.NoError(t, err)
	return d
}

// TestParticleInABox compares against the analytic spectrum of a box with
// Dirichlet walls at the contacts and zero-flux top/bottom:
// E(n,k) = (ħ²/2m)((nπ/L)² + (kπ/L)²), n >= 1, k >= 0.
func TestParticleInABox(t *testing.T) {
	const l = 100.0
	d := boxDisc(t, l, 12, 2)

	s := quantum.NewSolver(d, 4)
	pairs, err := s.Solve(mesh.NewField(d.Space))
	require.NoError(t, err)
	require.Len(t, pairs, 4)

	e1 := quantum.Hb2m0 * math.Pow(math.Pi/l, 2)
	wantRatios := []float64{1, 2, 4} // (1,0), (1,1), (2,0)
	for i, want := range wantRatios {
		got := pairs[i].Energy / e1
		assert.InEpsilonf(t, want, got, 0.02, "state %d: E/E1 = %g, want %g", i, got, want)
	}
}

func TestEigenvaluesAscending(t *testing.T) {
	d := boxDisc(t, 80, 8, 1)
	s := quantum.NewSolver(d, 6)
	pairs, err := s.Solve(mesh.NewField(d.Space))
	require.NoError(t, err)

	for i := 1; i < len(pairs); i++ {
		if pairs[i].Energy < pairs[i-1].Energy {
			t.Fatalf("eigenvalues out of order: E[%d]=%g < E[%d]=%g",
				i, pairs[i].Energy, i-1, pairs[i-1].Energy)
		}
	}
}

// TestNormalization checks ψᵀMψ = 1 in the discrete inner product, and that
// the contact dofs carry the homogeneous Dirichlet condition.
func TestNormalization(t *testing.T) {
	d := boxDisc(t, 80, 8, 2)
	s := quantum.NewSolver(d, 3)
	pairs, err := s.Solve(mesh.NewField(d.Space))
	require.NoError(t, err)

	m := assemble.Mass(d)
	tmp := make([]float64, d.Space.NDof)
	for i, p := range pairs {
		assemble.MulVec(m, p.Psi.Values, tmp)
		var norm float64
		for dof, v := range p.Psi.Values {
			norm += v * tmp[dof]
		}
		assert.InDeltaf(t, 1.0, norm, 1e-8, "state %d: ψᵀMψ = %g", i, norm)

		for dof, tag := range d.Space.Boundary {
			if tag == mesh.Left || tag == mesh.Right {
				if p.Psi.Values[dof] != 0 {
					t.Fatalf("state %d: contact dof %d is %g, want 0", i, dof, p.Psi.Values[dof])
				}
			}
		}
	}
}

// TestWellBoundStates checks that the AlGaAs/GaAs well confines at least its
// ground state below the barrier offset.
func TestWellBoundStates(t *testing.T) {
	d := wellDisc(t, 250, 80, 29, 1)
	s := quantum.NewSolver(d, 4)
	pairs, err := s.Solve(mesh.NewField(d.Space))
	require.NoError(t, err)

	if pairs[0].Energy <= 0 {
		t.Fatalf("ground state energy %g should be positive", pairs[0].Energy)
	}
	if pairs[0].Energy >= 0.23 {
		t.Fatalf("ground state energy %g eV should lie below the 0.23 eV barrier", pairs[0].Energy)
	}
	if !pairs[0].Bound {
		t.Error("ground state should be flagged bound")
	}
	for _, p := range pairs {
		if p.Bound != (p.Energy < 0.23) {
			t.Errorf("state at %g eV: bound flag %v inconsistent with barrier", p.Energy, p.Bound)
		}
	}
}

// TestNonFinitePotentialRejected: a NaN in the potential must surface as a
// NumericalError, not poison the assembled operators.
func TestNonFinitePotentialRejected(t *testing.T) {
	d := boxDisc(t, 60, 6, 1)
	s := quantum.NewSolver(d, 2)

	pot := mesh.NewField(d.Space)
	pot.Values[len(pot.Values)/2] = math.NaN()

	_, err := s.Solve(pot)
	var ne *assemble.NumericalError
	if !errors.As(err, &ne) {
		t.Fatalf("got %v, want a NumericalError", err)
	}
}

// TestPotentialShiftsSpectrum: adding a constant potential shifts every
// eigenvalue by that constant and leaves the wavefunctions unchanged.
func TestPotentialShiftsSpectrum(t *testing.T) {
	d := boxDisc(t, 60, 6, 1)
	s := quantum.NewSolver(d, 3)

	base, err := s.Solve(mesh.NewField(d.Space))
	require.NoError(t, err)

	const shift = 0.05
	pot := mesh.NewField(d.Space)
	for i := range pot.Values {
		pot.Values[i] = shift
	}
	shifted, err := s.Solve(pot)
	require.NoError(t, err)

	for i := range base {
		assert.InDeltaf(t, base[i].Energy+shift, shifted[i].Energy, 1e-8,
			"state %d energy did not shift by the constant", i)
	}
}

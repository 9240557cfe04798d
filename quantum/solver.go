// Package quantum assembles the single-particle Hamiltonian on the shared
// discretization and solves the generalized eigenvalue problem H ψ = E M ψ
// for the lowest-energy bound states.
package quantum

import (
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/faldah/schroedinger-poisson/assemble"
	"github.com/faldah/schroedinger-poisson/mesh"
)

// Hb2m0 is ħ²/2m0 in eV·Å², the kinetic prefactor before dividing by the
// layer effective mass.
const Hb2m0 = 3.81

// ConvergenceError reports that the eigensolver failed to converge within
// its internal iteration budget. It aborts the self-consistent loop.
type ConvergenceError struct {
	Reason string
}

func (e *ConvergenceError) Error() string {
	return "quantum: eigensolver did not converge: " + e.Reason
}

// Eigenpair is one energy level with its wavefunction, normalized so that
// ψᵀMψ = 1 in the discrete inner product. Bound reports whether the energy
// lies below the highest layer band offset.
type Eigenpair struct {
	Energy float64
	Psi    mesh.Field
	Bound  bool
}

// Solver computes eigenpairs of the effective-mass Hamiltonian
// -∇·((ħ²/2m)∇ψ) + (V_band + φ)ψ with homogeneous Dirichlet conditions at
// the contacts and natural conditions elsewhere.
type Solver struct {
	disc      *mesh.Discretization
	numStates int
}

// NewSolver returns a quantum solver producing up to numStates eigenpairs.
// numStates should cover all states below the Fermi level with a margin.
func NewSolver(d *mesh.Discretization, numStates int) *Solver {
	if numStates < 1 {
		numStates = 1
	}
	return &Solver{disc: d, numStates: numStates}
}

// Solve assembles H and M for the given electrostatic potential and returns
// the lowest eigenpairs with energies ascending.
func (s *Solver) Solve(potential mesh.Field) ([]Eigenpair, error) {
	d := s.disc
	layers := d.Grid.Layers

	for dof, v := range potential.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, assemble.Numericalf("assembly", "potential is not finite at dof %d", dof)
		}
	}

	h := assemble.Stiffness(d, func(reg int) float64 {
		return Hb2m0 / layers[reg].Mass
	})
	addInto(h, assemble.WeightedMass(d, potential, func(reg int) float64 {
		return layers[reg].BandOffset
	}))
	m := assemble.Mass(d)

	free, _, fullToFree := d.Space.Partition(mesh.Left, mesh.Right)
	hf := assemble.ReduceSym(h, free, fullToFree)
	mf := assemble.ReduceSym(m, free, fullToFree)
	n := len(free)

	// Reduce HΨ = EMΨ to a standard symmetric problem via M = LLᵀ:
	// (L⁻¹ H L⁻ᵀ) y = E y with ψ = L⁻ᵀ y.
	var chol mat.Cholesky
	if ok := chol.Factorize(mf); !ok {
		return nil, assemble.Numericalf("cholesky", "overlap matrix is not positive definite")
	}
	var l mat.TriDense
	chol.LTo(&l)
	var linv mat.TriDense
	if err := linv.InverseTri(&l); err != nil {
		return nil, assemble.Numericalf("triangular inverse", "overlap factor is singular: %v", err)
	}

	tmp := mat.NewDense(n, n, nil)
	tmp.Mul(&linv, hf)
	cd := mat.NewDense(n, n, nil)
	cd.Mul(tmp, linv.T())

	c := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c.SetSym(i, j, 0.5*(cd.At(i, j)+cd.At(j, i)))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(c, true); !ok {
		return nil, &ConvergenceError{Reason: "symmetric QR iteration hit its budget"}
	}
	energies := eig.Values(nil)
	vecs := mat.NewDense(n, n, nil)
	eig.VectorsTo(vecs)

	barrier := maxOffset(layers)
	k := s.numStates
	if k > n {
		k = n
	}

	pairs := make([]Eigenpair, 0, k)
	y := mat.NewVecDense(n, nil)
	for idx := 0; idx < k; idx++ {
		for i := 0; i < n; i++ {
			y.SetVec(i, vecs.At(i, idx))
		}
		var psiFree mat.VecDense
		psiFree.MulVec(linv.T(), y)

		psi := scatterField(d, free, normalized(psiFree.RawVector().Data, mf))
		pairs = append(pairs, Eigenpair{
			Energy: energies[idx],
			Psi:    psi,
			Bound:  energies[idx] < barrier,
		})
	}
	return pairs, nil
}

// normalized rescales v so that vᵀMv = 1 and fixes the sign so the largest
// magnitude component is positive, keeping runs deterministic.
func normalized(v []float64, m *mat.SymDense) []float64 {
	n := len(v)
	var norm2 float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			norm2 += v[i] * m.At(i, j) * v[j]
		}
	}
	scale := 1.0
	if norm2 > 0 {
		scale = 1 / math.Sqrt(norm2)
	}

	peak := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[peak]) {
			peak = i
		}
	}
	if v[peak] < 0 {
		scale = -scale
	}

	for i := range v {
		v[i] *= scale
	}
	return v
}

// scatterField expands a free-dof vector to the full space, leaving zeros at
// the Dirichlet contacts.
func scatterField(d *mesh.Discretization, free []int, v []float64) mesh.Field {
	f := mesh.NewField(d.Space)
	for i, dof := range free {
		f.Values[dof] = v[i]
	}
	return f
}

func addInto(dst, src *sparse.DOK) {
	src.DoNonZero(func(i, j int, v float64) {
		dst.Set(i, j, dst.At(i, j)+v)
	})
}

func maxOffset(layers []mesh.Layer) float64 {
	barrier := math.Inf(-1)
	for _, l := range layers {
		if l.BandOffset > barrier {
			barrier = l.BandOffset
		}
	}
	return barrier
}

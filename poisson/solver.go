// Package poisson solves the electrostatic boundary-value problem
// -∇·(ε∇φ) = κρ on the shared discretization, with fixed potentials at the
// device contacts and zero-flux conditions on the remaining boundary.
package poisson

import (
	"math"

	"github.com/james-bowman/sparse"
	"github.com/vladimir-ch/iterative"

	"github.com/faldah/schroedinger-poisson/assemble"
	"github.com/faldah/schroedinger-poisson/mesh"
)

// CoulombConst is q²/(4πε₀) in eV·Å.
const CoulombConst = 14.399645

// DefaultCoupling is the default source coupling κ in -∇·(ε∇φ) = κρ for ρ in
// charge per Å². This is a model parameter of the 2D device cross-section,
// not a claim about 3D electrostatics.
var DefaultCoupling = 4 * math.Pi * CoulombConst

// Solver solves for the electrostatic potential energy field given a charge
// density. Contacts are the left and right boundaries.
type Solver struct {
	disc     *mesh.Discretization
	coupling float64
	left     float64 // contact potential at x = 0 [eV]
	right    float64 // contact potential at x = Lx [eV]
}

// NewSolver returns a field solver with the given coupling constant and
// contact potentials. A non-positive coupling selects DefaultCoupling.
func NewSolver(d *mesh.Discretization, coupling, leftContact, rightContact float64) *Solver {
	if coupling <= 0 {
		coupling = DefaultCoupling
	}
	return &Solver{disc: d, coupling: coupling, left: leftContact, right: rightContact}
}

// Solve assembles and solves the discrete Poisson equation for the given
// density, returning the potential field over the full dof set.
func (s *Solver) Solve(rho mesh.Field) (mesh.Field, error) {
	d := s.disc
	layers := d.Grid.Layers

	a := assemble.Stiffness(d, func(reg int) float64 {
		return layers[reg].Epsilon
	})

	// Right-hand side κ·M·ρ.
	rhs := make([]float64, d.Space.NDof)
	assemble.MulVec(assemble.Mass(d), rho.Values, rhs)
	for i := range rhs {
		rhs[i] *= s.coupling
	}

	// Dirichlet lift carrying the contact values.
	phi := mesh.NewField(d.Space)
	for dof, tag := range d.Space.Boundary {
		switch tag {
		case mesh.Left:
			phi.Values[dof] = s.left
		case mesh.Right:
			phi.Values[dof] = s.right
		}
	}
	lift := make([]float64, d.Space.NDof)
	assemble.MulVec(a, phi.Values, lift)

	free, _, fullToFree := d.Space.Partition(mesh.Left, mesh.Right)
	acsr := assemble.ReduceCSR(a, free, fullToFree)

	b := make([]float64, len(free))
	for i, dof := range free {
		b[i] = rhs[dof] - lift[dof]
	}

	// The reduced stiffness matrix is symmetric positive definite, so plain
	// conjugate gradients applies.
	ops := iterative.MatrixOps{
		MatVec: func(dst, src []float64) {
			// MulMatRawVec accumulates into dst, but MatVec must overwrite it.
			for i := range dst {
				dst[i] = 0
			}
			sparse.MulMatRawVec(acsr, src, dst)
		},
	}
	res, err := iterative.LinearSolve(ops, b, &iterative.CG{}, iterative.Settings{})
	if err != nil {
		return mesh.Field{}, assemble.Numericalf("cg", "Poisson solve did not converge: %v", err)
	}

	for i, dof := range free {
		phi.Values[dof] = res.X[i]
	}
	return phi, nil
}

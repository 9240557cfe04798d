// Package assemble builds the global finite-element operators shared by the
// quantum and field solvers: stiffness, mass, and coefficient-weighted mass
// matrices over the full dof set, and their reductions to the free dofs of a
// Dirichlet problem.
package assemble

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/faldah/schroedinger-poisson/mesh"
)

// Stiffness assembles Σ_e det_e * c(region_e) * (Dx^T M Dx + Dy^T M Dy),
// the discrete operator for -∇·(c∇u) with the natural boundary condition.
func Stiffness(d *mesh.Discretization, coeff func(region int) float64) *sparse.DOK {
	np := d.Ref.Np
	a := sparse.NewDOK(d.Space.NDof, d.Space.NDof)

	dx := mat.NewDense(np, np, nil)
	dy := mat.NewDense(np, np, nil)
	tmp := mat.NewDense(np, np, nil)
	ke := mat.NewDense(np, np, nil)
	kpart := mat.NewDense(np, np, nil)

	for e := 0; e < d.Grid.K(); e++ {
		// Physical differentiation matrices from the affine metrics.
		dx.Scale(d.Rx[e], d.Ref.Dr)
		tmp.Scale(d.Sx[e], d.Ref.Ds)
		dx.Add(dx, tmp)
		dy.Scale(d.Ry[e], d.Ref.Dr)
		tmp.Scale(d.Sy[e], d.Ref.Ds)
		dy.Add(dy, tmp)

		tmp.Mul(d.Ref.M, dx)
		ke.Mul(dx.T(), tmp)
		tmp.Mul(d.Ref.M, dy)
		kpart.Mul(dy.T(), tmp)
		ke.Add(ke, kpart)
		ke.Scale(d.Det[e]*coeff(d.Grid.Region[e]), ke)

		scatter(a, d.Space.ElemDofs[e], ke)
	}
	return a
}

// Mass assembles the global mass (overlap) matrix Σ_e det_e * M.
func Mass(d *mesh.Discretization) *sparse.DOK {
	np := d.Ref.Np
	a := sparse.NewDOK(d.Space.NDof, d.Space.NDof)
	me := mat.NewDense(np, np, nil)

	for e := 0; e < d.Grid.K(); e++ {
		me.Scale(d.Det[e], d.Ref.M)
		scatter(a, d.Space.ElemDofs[e], me)
	}
	return a
}

// WeightedMass assembles Σ_e det_e * I^T diag(w ∘ v_q) I, the discrete
// operator for ∫ v(x) u φ with v the nodal field plus a per-region constant
// offset, evaluated at the cubature points.
func WeightedMass(d *mesh.Discretization, nodal mesh.Field, offset func(region int) float64) *sparse.DOK {
	np := d.Ref.Np
	cub := d.Ref.Cub
	nq := len(cub.W)
	a := sparse.NewDOK(d.Space.NDof, d.Space.NDof)

	local := make([]float64, np)
	vq := make([]float64, nq)
	we := mat.NewDense(np, np, nil)

	for e := 0; e < d.Grid.K(); e++ {
		nodal.Gather(d.Space.ElemDofs[e], local)
		off := offset(d.Grid.Region[e])
		for q := 0; q < nq; q++ {
			v := off
			for n := 0; n < np; n++ {
				v += cub.Interp.At(q, n) * local[n]
			}
			vq[q] = v
		}

		for i := 0; i < np; i++ {
			for j := i; j < np; j++ {
				var sum float64
				for q := 0; q < nq; q++ {
					sum += cub.W[q] * vq[q] * cub.Interp.At(q, i) * cub.Interp.At(q, j)
				}
				sum *= d.Det[e]
				we.Set(i, j, sum)
				we.Set(j, i, sum)
			}
		}
		scatter(a, d.Space.ElemDofs[e], we)
	}
	return a
}

// Integrate computes the discrete integral of a field over the domain using
// the element cubature rule.
func Integrate(d *mesh.Discretization, f mesh.Field) float64 {
	np := d.Ref.Np
	cub := d.Ref.Cub
	local := make([]float64, np)

	var total float64
	for e := 0; e < d.Grid.K(); e++ {
		f.Gather(d.Space.ElemDofs[e], local)
		for q := range cub.W {
			var v float64
			for n := 0; n < np; n++ {
				v += cub.Interp.At(q, n) * local[n]
			}
			total += d.Det[e] * cub.W[q] * v
		}
	}
	return total
}

// scatter adds an element matrix into the global DOK.
func scatter(a *sparse.DOK, dofs []int, ke *mat.Dense) {
	for i, gi := range dofs {
		for j, gj := range dofs {
			v := ke.At(i, j)
			if v != 0 {
				a.Set(gi, gj, a.At(gi, gj)+v)
			}
		}
	}
}

// ReduceSym extracts the free-dof submatrix of a symmetric global operator
// into dense symmetric form for the eigensolver.
func ReduceSym(a *sparse.DOK, free []int, fullToFree []int) *mat.SymDense {
	n := len(free)
	s := mat.NewSymDense(n, nil)
	a.DoNonZero(func(i, j int, v float64) {
		fi, fj := fullToFree[i], fullToFree[j]
		if fi < 0 || fj < 0 || fj < fi {
			return
		}
		s.SetSym(fi, fj, v)
	})
	return s
}

// ReduceCSR extracts the free-dof submatrix of a global operator in
// compressed sparse row form for iterative solves.
func ReduceCSR(a *sparse.DOK, free []int, fullToFree []int) *sparse.CSR {
	n := len(free)
	r := sparse.NewDOK(n, n)
	a.DoNonZero(func(i, j int, v float64) {
		fi, fj := fullToFree[i], fullToFree[j]
		if fi < 0 || fj < 0 {
			return
		}
		r.Set(fi, fj, v)
	})
	return r.ToCSR()
}

// MulVec computes dst = A*x for a global operator in DOK form.
func MulVec(a *sparse.DOK, x, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	a.DoNonZero(func(i, j int, v float64) {
		dst[i] += v * x[j]
	})
}

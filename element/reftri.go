package element

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// RefTri holds the operators of a Lagrange triangle of polynomial order N on
// the reference element {r,s >= -1, r+s <= 0}. The struct is immutable after
// construction and shared read-only by the assembly routines.
type RefTri struct {
	N  int // polynomial order
	Np int // number of nodes, (N+1)(N+2)/2

	// Node coordinates in reference space.
	R, S []float64

	// Modal/nodal transformation and mass matrix in the nodal basis:
	// M = Vinv^T Vinv, exact for the orthonormal modal basis.
	V, Vinv *mat.Dense
	M       *mat.Dense

	// Nodal differentiation matrices in reference coordinates.
	Dr, Ds *mat.Dense

	// Cubature rule for integrating products with non-polynomial or
	// interpolated coefficients.
	Cub Cubature
}

// Cubature is a quadrature rule on the reference triangle together with the
// interpolation matrix from element nodes to the cubature points.
type Cubature struct {
	R, S, W []float64
	Interp  *mat.Dense // [Nq x Np]
}

// NewRefTri constructs the reference triangle operators for order n.
// Supported orders are 1 through 3; higher orders would need non-equispaced
// node sets to keep the Vandermonde matrix well conditioned.
func NewRefTri(n int) (*RefTri, error) {
	if n < 1 || n > 3 {
		return nil, fmt.Errorf("element: unsupported polynomial order %d (want 1..3)", n)
	}

	rt := &RefTri{
		N:  n,
		Np: (n + 1) * (n + 2) / 2,
	}
	rt.R, rt.S = EquiNodes2D(n)

	rt.V = Vandermonde2D(n, rt.R, rt.S)
	rt.Vinv = mat.NewDense(rt.Np, rt.Np, nil)
	if err := rt.Vinv.Inverse(rt.V); err != nil {
		return nil, fmt.Errorf("element: Vandermonde matrix is singular for order %d: %w", n, err)
	}

	rt.M = mat.NewDense(rt.Np, rt.Np, nil)
	rt.M.Mul(rt.Vinv.T(), rt.Vinv)

	vr, vs := GradVandermonde2D(n, rt.R, rt.S)
	rt.Dr = mat.NewDense(rt.Np, rt.Np, nil)
	rt.Dr.Mul(vr, rt.Vinv)
	rt.Ds = mat.NewDense(rt.Np, rt.Np, nil)
	rt.Ds.Mul(vs, rt.Vinv)

	rt.Cub = newCubature(n, rt.Vinv)
	return rt, nil
}

// EquiNodes2D returns the equispaced Lagrange node set of order n on the
// reference triangle, ordered with increasing s-major, r-minor index.
func EquiNodes2D(n int) (r, s []float64) {
	np := (n + 1) * (n + 2) / 2
	r = make([]float64, 0, np)
	s = make([]float64, 0, np)
	for j := 0; j <= n; j++ {
		for i := 0; i <= n-j; i++ {
			r = append(r, -1+2*float64(i)/float64(n))
			s = append(s, -1+2*float64(j)/float64(n))
		}
	}
	return r, s
}

// newCubature builds a Duffy-transformed Gauss-Jacobi rule exact for
// polynomials of degree 2n+1 in each collapsed direction, which is enough
// for mass terms weighted by an order-n interpolated coefficient.
func newCubature(n int, vinv *mat.Dense) Cubature {
	nq := n + 1
	ga, wa := JacobiGQ(0, 0, nq)
	gb, wb := JacobiGQ(1, 0, nq)

	var c Cubature
	for j := range gb {
		for i := range ga {
			c.R = append(c.R, (1+ga[i])*(1-gb[j])/2-1)
			c.S = append(c.S, gb[j])
			c.W = append(c.W, wa[i]*wb[j]/2)
		}
	}

	vc := Vandermonde2D(n, c.R, c.S)
	np := (n + 1) * (n + 2) / 2
	c.Interp = mat.NewDense(len(c.R), np, nil)
	c.Interp.Mul(vc, vinv)
	return c
}

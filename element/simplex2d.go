package element

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RStoAB maps simplex coordinates (r,s) on the reference triangle
// {r,s >= -1, r+s <= 0} to the collapsed quadrilateral coordinates (a,b).
func RStoAB(r, s []float64) (a, b []float64) {
	np := len(r)
	a = make([]float64, np)
	b = make([]float64, np)
	for n := 0; n < np; n++ {
		if s[n] != 1 {
			a[n] = 2*(1+r[n])/(1-s[n]) - 1
		} else {
			a[n] = -1
		}
		b[n] = s[n]
	}
	return a, b
}

// Simplex2DP evaluates the orthonormal polynomial of order (i,j) on the
// reference triangle at the points (r,s).
func Simplex2DP(r, s []float64, i, j int) []float64 {
	a, b := RStoAB(r, s)
	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)

	p := make([]float64, len(r))
	sq2 := math.Sqrt2
	for n := range p {
		p[n] = sq2 * h1[n] * h2[n] * intPow(1-b[n], i)
	}
	return p
}

// GradSimplex2DP evaluates the (r,s) gradient of the orthonormal polynomial
// of order (id,jd) on the reference triangle at the points (r,s).
func GradSimplex2DP(r, s []float64, id, jd int) (dmodedr, dmodeds []float64) {
	a, b := RStoAB(r, s)
	fa := JacobiP(a, 0, 0, id)
	dfa := GradJacobiP(a, 0, 0, id)
	gb := JacobiP(b, float64(2*id+1), 0, jd)
	dgb := GradJacobiP(b, float64(2*id+1), 0, jd)

	np := len(r)
	dmodedr = make([]float64, np)
	dmodeds = make([]float64, np)
	norm := math.Pow(2, float64(id)+0.5)

	for n := 0; n < np; n++ {
		// r-derivative: d/dr = (2/(1-b)) d/da, with the (1-b)^id factor folded in.
		dr := dfa[n] * gb[n]
		if id > 0 {
			dr *= intPow(0.5*(1-b[n]), id-1)
		}

		// s-derivative: d/ds = ((1+a)/2)(2/(1-b)) d/da + d/db.
		ds := dfa[n] * gb[n] * 0.5 * (1 + a[n])
		if id > 0 {
			ds *= intPow(0.5*(1-b[n]), id-1)
		}
		tmp := dgb[n] * intPow(0.5*(1-b[n]), id)
		if id > 0 {
			tmp -= 0.5 * float64(id) * gb[n] * intPow(0.5*(1-b[n]), id-1)
		}
		ds += fa[n] * tmp

		dmodedr[n] = dr * norm
		dmodeds[n] = ds * norm
	}
	return dmodedr, dmodeds
}

// Vandermonde2D builds the generalized Vandermonde matrix relating modal and
// nodal representations on the reference triangle: V[n][m] = phi_m(r_n,s_n).
func Vandermonde2D(n int, r, s []float64) *mat.Dense {
	np := (n + 1) * (n + 2) / 2
	v := mat.NewDense(len(r), np, nil)

	sk := 0
	for i := 0; i <= n; i++ {
		for j := 0; j <= n-i; j++ {
			p := Simplex2DP(r, s, i, j)
			for row := range p {
				v.Set(row, sk, p[row])
			}
			sk++
		}
	}
	return v
}

// GradVandermonde2D builds the gradient Vandermonde matrices
// Vr[n][m] = d phi_m / dr (r_n,s_n) and likewise Vs for d/ds.
func GradVandermonde2D(n int, r, s []float64) (vr, vs *mat.Dense) {
	np := (n + 1) * (n + 2) / 2
	vr = mat.NewDense(len(r), np, nil)
	vs = mat.NewDense(len(r), np, nil)

	sk := 0
	for i := 0; i <= n; i++ {
		for j := 0; j <= n-i; j++ {
			dr, ds := GradSimplex2DP(r, s, i, j)
			for row := range dr {
				vr.Set(row, sk, dr[row])
				vs.Set(row, sk, ds[row])
			}
			sk++
		}
	}
	return vr, vs
}

// intPow computes x^n for non-negative integer n.
func intPow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}

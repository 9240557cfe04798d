// Package element provides the reference triangle used by the mesh and
// solver packages: orthonormal Jacobi/simplex polynomial bases, Vandermonde
// and differentiation matrices, the reference mass matrix, and a cubature
// rule for integrating non-polynomial coefficients.
package element

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiP evaluates the orthonormal Jacobi polynomial of type (alpha,beta)
// and order n at the points x. The polynomials are normalized so that
// ∫_{-1}^{1} P_m P_n (1-x)^alpha (1+x)^beta dx = δ_mn.
func JacobiP(x []float64, alpha, beta float64, n int) []float64 {
	np := len(x)

	gamma0 := math.Pow(2, alpha+beta+1) / (alpha + beta + 1) *
		math.Gamma(alpha+1) * math.Gamma(beta+1) / math.Gamma(alpha+beta+1)

	pPrev := make([]float64, np)
	for i := range pPrev {
		pPrev[i] = 1.0 / math.Sqrt(gamma0)
	}
	if n == 0 {
		return pPrev
	}

	gamma1 := (alpha + 1) * (beta + 1) / (alpha + beta + 3) * gamma0
	p := make([]float64, np)
	for i := range p {
		p[i] = ((alpha+beta+2)*x[i]/2 + (alpha-beta)/2) / math.Sqrt(gamma1)
	}
	if n == 1 {
		return p
	}

	// Three-term recurrence on the normalized polynomials.
	aold := 2.0 / (2.0 + alpha + beta) * math.Sqrt((alpha+1)*(beta+1)/(alpha+beta+3))
	for i := 1; i < n; i++ {
		h1 := 2*float64(i) + alpha + beta
		fi := float64(i)
		anew := 2.0 / (h1 + 2) * math.Sqrt((fi+1)*(fi+1+alpha+beta)*
			(fi+1+alpha)*(fi+1+beta)/(h1+1)/(h1+3))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2)

		pNext := make([]float64, np)
		for j := range pNext {
			pNext[j] = (-aold*pPrev[j] + (x[j]-bnew)*p[j]) / anew
		}
		pPrev, p = p, pNext
		aold = anew
	}
	return p
}

// GradJacobiP evaluates the derivative of the orthonormal Jacobi polynomial
// of type (alpha,beta) and order n at the points x, using
// d/dx P_n^(a,b) = sqrt(n(n+a+b+1)) P_{n-1}^(a+1,b+1).
func GradJacobiP(x []float64, alpha, beta float64, n int) []float64 {
	dp := make([]float64, len(x))
	if n == 0 {
		return dp
	}
	p := JacobiP(x, alpha+1, beta+1, n-1)
	scale := math.Sqrt(float64(n) * (float64(n) + alpha + beta + 1))
	for i := range dp {
		dp[i] = scale * p[i]
	}
	return dp
}

// JacobiGQ computes the N+1 point Gauss-Jacobi quadrature rule of type
// (alpha,beta) via the eigendecomposition of the symmetric tridiagonal
// recurrence matrix.
func JacobiGQ(alpha, beta float64, n int) (x, w []float64) {
	if n == 0 {
		return []float64{-(alpha - beta) / (alpha + beta + 2)}, []float64{2}
	}

	h1 := make([]float64, n+1)
	for i := range h1 {
		h1[i] = 2*float64(i) + alpha + beta
	}

	d0 := make([]float64, n+1)
	fac := beta*beta - alpha*alpha
	for i := range d0 {
		d0[i] = fac / (h1[i] * (h1[i] + 2))
	}
	if alpha+beta < 1e-15 {
		d0[0] = 0
	}

	d1 := make([]float64, n)
	for i := range d1 {
		ip1 := float64(i + 1)
		d1[i] = 2.0 / (h1[i] + 2) * math.Sqrt(
			ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(h1[i]+1)/(h1[i]+3))
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(newSymTriDiagonal(d0, d1), true); !ok {
		panic("element: Gauss-Jacobi recurrence eigendecomposition failed")
	}
	x = eig.Values(nil)

	vec := mat.NewDense(len(x), len(x), nil)
	eig.VectorsTo(vec)
	w = make([]float64, len(x))
	g0 := gamma0(alpha, beta)
	for i := range w {
		v := vec.At(0, i)
		w[i] = v * v * g0
	}
	return x, w
}

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1
	return math.Gamma(alpha+1) * math.Gamma(beta+1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func newSymTriDiagonal(d0, d1 []float64) *mat.SymDense {
	n := len(d0)
	tri := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		tri.SetSym(i, i, d0[i])
		if i < n-1 {
			tri.SetSym(i, i+1, d1[i])
		}
	}
	return tri
}

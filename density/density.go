// Package density converts eigenpairs and a Fermi level into an
// occupation-weighted charge-density field. All functions are pure:
// deterministic in their inputs, no hidden state.
package density

import (
	"math"

	"github.com/faldah/schroedinger-poisson/assemble"
	"github.com/faldah/schroedinger-poisson/mesh"
	"github.com/faldah/schroedinger-poisson/quantum"
)

// OccupationWeights maps each eigenvalue to an occupation in [0,1] via the
// Fermi-Dirac distribution at temperature kT [eV]. At kT = 0 it degenerates
// to the exact step: 1 for E <= fermi, 0 otherwise. Weights are monotone
// non-increasing for ascending energies.
func OccupationWeights(energies []float64, fermi, kT float64) []float64 {
	w := make([]float64, len(energies))
	for i, e := range energies {
		if kT <= 0 {
			if e <= fermi {
				w[i] = 1
			}
			continue
		}
		// Guard the exponential against overflow far from the Fermi level.
		x := (e - fermi) / kT
		switch {
		case x > 500:
			w[i] = 0
		case x < -500:
			w[i] = 1
		default:
			w[i] = 1 / (1 + math.Exp(x))
		}
	}
	return w
}

// ChargeDensity builds the density field Σ wᵢ·|ψᵢ|² over the function space.
// The field is rescaled so that its discrete integral equals totalCharge;
// pass totalCharge <= 0 to use Σ wᵢ, the occupied-state-equivalent charge.
func ChargeDensity(d *mesh.Discretization, pairs []quantum.Eigenpair, weights []float64, totalCharge float64) mesh.Field {
	rho := mesh.NewField(d.Space)

	var weightSum float64
	for i, p := range pairs {
		w := weights[i]
		if w == 0 {
			continue
		}
		weightSum += w
		for dof, v := range p.Psi.Values {
			rho.Values[dof] += w * v * v
		}
	}

	target := totalCharge
	if target <= 0 {
		target = weightSum
	}
	if weightSum == 0 {
		return rho // nothing occupied, density is identically zero
	}

	integral := assemble.Integrate(d, rho)
	if integral > 0 {
		scale := target / integral
		for dof := range rho.Values {
			rho.Values[dof] *= scale
		}
	}
	return rho
}

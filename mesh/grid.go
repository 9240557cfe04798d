// Package mesh builds the shared two-dimensional discretization: a structured
// triangulation of a layered rectangular device, the Lagrange function space
// over it, and the read-only Discretization handle passed to every solver
// stage.
package mesh

import "fmt"

// GeometryError reports degenerate or inconsistent geometry input. It is
// fatal: the caller is expected to fix the requested geometry, not retry.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string { return "mesh: bad geometry: " + e.Reason }

func geometryErrorf(format string, args ...interface{}) error {
	return &GeometryError{Reason: fmt.Sprintf(format, args...)}
}

// Layer describes one material slab of the device. Layers partition the
// domain along x; material properties are constant within a layer.
type Layer struct {
	X0, X1     float64 // extent along x [Å]
	BandOffset float64 // conduction band offset [eV]
	Mass       float64 // effective mass [units of m0]
	Epsilon    float64 // relative permittivity
}

// Grid is a structured triangulation of the rectangle [0,Lx] x [0,Ly] with
// Nx x Ny cells, each split into two triangles. It is created once and never
// mutated; both physics solvers reference the same element numbering.
type Grid struct {
	Lx, Ly float64
	Nx, Ny int

	VX, VY []float64 // vertex coordinates
	EToV   [][3]int  // element to vertex connectivity, counterclockwise
	Region []int     // per-element index into Layers
	Layers []Layer
}

// K returns the number of elements.
func (g *Grid) K() int { return len(g.EToV) }

// NewGrid builds the device triangulation. The layers must tile [0,Lx]
// contiguously; the grid is deterministic for identical inputs.
func NewGrid(lx, ly float64, nx, ny int, layers []Layer) (*Grid, error) {
	if lx <= 0 || ly <= 0 {
		return nil, geometryErrorf("domain extent %gx%g must be positive", lx, ly)
	}
	if nx < 1 || ny < 1 {
		return nil, geometryErrorf("resolution %dx%d must be at least 1x1", nx, ny)
	}
	if err := checkLayers(lx, layers); err != nil {
		return nil, err
	}

	g := &Grid{
		Lx: lx, Ly: ly,
		Nx: nx, Ny: ny,
		Layers: layers,
	}

	hx := lx / float64(nx)
	hy := ly / float64(ny)

	nv := (nx + 1) * (ny + 1)
	g.VX = make([]float64, nv)
	g.VY = make([]float64, nv)
	for iy := 0; iy <= ny; iy++ {
		for ix := 0; ix <= nx; ix++ {
			v := iy*(nx+1) + ix
			g.VX[v] = float64(ix) * hx
			g.VY[v] = float64(iy) * hy
		}
	}

	g.EToV = make([][3]int, 0, 2*nx*ny)
	g.Region = make([]int, 0, 2*nx*ny)
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			v00 := iy*(nx+1) + ix
			v10 := v00 + 1
			v01 := v00 + nx + 1
			v11 := v01 + 1

			for _, tri := range [][3]int{{v00, v10, v01}, {v10, v11, v01}} {
				cx := (g.VX[tri[0]] + g.VX[tri[1]] + g.VX[tri[2]]) / 3
				reg, err := layerAt(layers, cx)
				if err != nil {
					return nil, err
				}
				g.EToV = append(g.EToV, tri)
				g.Region = append(g.Region, reg)
			}
		}
	}
	return g, nil
}

func checkLayers(lx float64, layers []Layer) error {
	if len(layers) == 0 {
		return geometryErrorf("no layers given")
	}
	tol := 1e-9 * lx
	cursor := 0.0
	for i, l := range layers {
		if l.X1-l.X0 <= 0 {
			return geometryErrorf("layer %d has non-positive width [%g,%g]", i, l.X0, l.X1)
		}
		if absf(l.X0-cursor) > tol {
			return geometryErrorf("layer %d starts at %g, want %g (layers must tile the domain)", i, l.X0, cursor)
		}
		if l.Mass <= 0 {
			return geometryErrorf("layer %d has non-positive effective mass %g", i, l.Mass)
		}
		if l.Epsilon <= 0 {
			return geometryErrorf("layer %d has non-positive permittivity %g", i, l.Epsilon)
		}
		cursor = l.X1
	}
	if absf(cursor-lx) > tol {
		return geometryErrorf("layers end at %g, domain ends at %g", cursor, lx)
	}
	return nil
}

func layerAt(layers []Layer, x float64) (int, error) {
	for i, l := range layers {
		if x >= l.X0 && x <= l.X1 {
			return i, nil
		}
	}
	return 0, geometryErrorf("no layer covers x=%g", x)
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

package mesh

import (
	"math"

	"github.com/faldah/schroedinger-poisson/element"
)

// BoundaryTag classifies a degree of freedom by its location on the domain
// boundary. The left and right boundaries are the device contacts; corner
// dofs are tagged as contacts.
type BoundaryTag uint8

const (
	Interior BoundaryTag = iota
	Left
	Right
	Bottom
	Top
)

// FunctionSpace is the order-p continuous Lagrange space on a Grid. Degrees
// of freedom live on the refined lattice with spacing h/p, so that the local
// nodes of every element coincide with lattice points and continuity across
// element boundaries is automatic.
type FunctionSpace struct {
	Order int
	NDof  int

	// Lattice dimensions: W = Order*Nx+1 columns, H = Order*Ny+1 rows.
	W, H int

	X, Y     []float64     // dof coordinates
	ElemDofs [][]int       // [K][Np] local-to-global dof map
	Boundary []BoundaryTag // per-dof boundary classification
}

// Dof returns the global dof index at lattice position (ix, iy).
func (fs *FunctionSpace) Dof(ix, iy int) int { return iy*fs.W + ix }

// Partition splits the dofs into free and constrained sets for the given
// Dirichlet boundary tags. fullToFree maps a global dof to its index in the
// free set, or -1 for constrained dofs.
func (fs *FunctionSpace) Partition(dirichlet ...BoundaryTag) (free, constrained []int, fullToFree []int) {
	isDirichlet := make(map[BoundaryTag]bool, len(dirichlet))
	for _, tag := range dirichlet {
		isDirichlet[tag] = true
	}

	fullToFree = make([]int, fs.NDof)
	for i := 0; i < fs.NDof; i++ {
		if isDirichlet[fs.Boundary[i]] {
			fullToFree[i] = -1
			constrained = append(constrained, i)
		} else {
			fullToFree[i] = len(free)
			free = append(free, i)
		}
	}
	return free, constrained, fullToFree
}

// Discretization bundles the mesh, reference element, function space, and
// per-element affine metrics. It is built once by the mesh provider and
// passed read-only to every solver stage.
type Discretization struct {
	Grid  *Grid
	Ref   *element.RefTri
	Space *FunctionSpace

	// Affine metric terms, constant per straight-sided triangle:
	// d/dx = Rx*Dr + Sx*Ds, d/dy = Ry*Dr + Sy*Ds, with Jacobian determinant Det.
	Rx, Sx, Ry, Sy, Det []float64
}

// NewDiscretization builds the function space and geometric factors for the
// given polynomial order.
func NewDiscretization(g *Grid, order int) (*Discretization, error) {
	ref, err := element.NewRefTri(order)
	if err != nil {
		return nil, err
	}

	d := &Discretization{
		Grid: g,
		Ref:  ref,
	}
	if err := d.buildSpace(); err != nil {
		return nil, err
	}
	if err := d.buildMetrics(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Discretization) buildSpace() error {
	g := d.Grid
	p := d.Ref.N

	fs := &FunctionSpace{
		Order: p,
		W:     p*g.Nx + 1,
		H:     p*g.Ny + 1,
	}
	fs.NDof = fs.W * fs.H

	// The left and right lattice columns are the contacts, which every
	// solver constrains. Without at least one column between them the
	// Dirichlet partition leaves no free dofs to solve for.
	if fs.W < 3 {
		return geometryErrorf("dof lattice is %d columns wide, all on the contacts; increase cells or order", fs.W)
	}

	hfx := g.Lx / float64(p*g.Nx)
	hfy := g.Ly / float64(p*g.Ny)

	fs.X = make([]float64, fs.NDof)
	fs.Y = make([]float64, fs.NDof)
	fs.Boundary = make([]BoundaryTag, fs.NDof)
	for iy := 0; iy < fs.H; iy++ {
		for ix := 0; ix < fs.W; ix++ {
			dof := fs.Dof(ix, iy)
			fs.X[dof] = float64(ix) * hfx
			fs.Y[dof] = float64(iy) * hfy
			switch {
			case ix == 0:
				fs.Boundary[dof] = Left
			case ix == fs.W-1:
				fs.Boundary[dof] = Right
			case iy == 0:
				fs.Boundary[dof] = Bottom
			case iy == fs.H-1:
				fs.Boundary[dof] = Top
			}
		}
	}

	// Map each element's local nodes to lattice dofs via the affine map
	// from reference to physical coordinates. Local nodes of a structured
	// triangulation always land on lattice points; the rounding only
	// absorbs floating-point noise.
	fs.ElemDofs = make([][]int, g.K())
	for k := 0; k < g.K(); k++ {
		tri := g.EToV[k]
		x0, y0 := g.VX[tri[0]], g.VY[tri[0]]
		x1, y1 := g.VX[tri[1]], g.VY[tri[1]]
		x2, y2 := g.VX[tri[2]], g.VY[tri[2]]

		dofs := make([]int, d.Ref.Np)
		for n := 0; n < d.Ref.Np; n++ {
			r, s := d.Ref.R[n], d.Ref.S[n]
			x := -(r+s)/2*x0 + (1+r)/2*x1 + (1+s)/2*x2
			y := -(r+s)/2*y0 + (1+r)/2*y1 + (1+s)/2*y2

			ix := int(math.Round(x / hfx))
			iy := int(math.Round(y / hfy))
			if ix < 0 || ix >= fs.W || iy < 0 || iy >= fs.H {
				return geometryErrorf("element %d node %d maps outside the dof lattice", k, n)
			}
			dofs[n] = fs.Dof(ix, iy)
		}
		fs.ElemDofs[k] = dofs
	}

	d.Space = fs
	return nil
}

func (d *Discretization) buildMetrics() error {
	g := d.Grid
	k := g.K()
	d.Rx = make([]float64, k)
	d.Sx = make([]float64, k)
	d.Ry = make([]float64, k)
	d.Sy = make([]float64, k)
	d.Det = make([]float64, k)

	for e := 0; e < k; e++ {
		tri := g.EToV[e]
		xr := (g.VX[tri[1]] - g.VX[tri[0]]) / 2
		xs := (g.VX[tri[2]] - g.VX[tri[0]]) / 2
		yr := (g.VY[tri[1]] - g.VY[tri[0]]) / 2
		ys := (g.VY[tri[2]] - g.VY[tri[0]]) / 2

		det := xr*ys - xs*yr
		if det <= 0 {
			return geometryErrorf("element %d has non-positive Jacobian %g (zero-area or inverted)", e, det)
		}
		d.Rx[e] = ys / det
		d.Sx[e] = -yr / det
		d.Ry[e] = -xs / det
		d.Sy[e] = xr / det
		d.Det[e] = det
	}
	return nil
}

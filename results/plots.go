package results

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/faldah/schroedinger-poisson/driver"
	"github.com/faldah/schroedinger-poisson/mesh"
)

// PlotAll renders heatmaps of the potential and density and a mid-plane
// profile of the lowest wavefunctions as PNG files in dir.
func PlotAll(dir string, res *driver.Result, d *mesh.Discretization) error {
	if res.Iterations == 0 {
		return fmt.Errorf("results: no completed iteration to plot")
	}
	if err := heatmap(filepath.Join(dir, "potential.png"), "Electrostatic potential [eV]",
		res.Potential, d.Space); err != nil {
		return err
	}
	if err := heatmap(filepath.Join(dir, "density.png"), "Charge density",
		res.Density, d.Space); err != nil {
		return err
	}
	return waveProfiles(filepath.Join(dir, "wavefunctions.png"), res, d)
}

func heatmap(path, title string, f mesh.Field, fs *mesh.FunctionSpace) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x [Å]"
	p.Y.Label.Text = "y [Å]"

	hm := plotter.NewHeatMap(&latticeGrid{f: f, fs: fs}, palette.Heat(96, 1))
	p.Add(hm)

	if err := p.Save(6*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("results: saving %s: %w", path, err)
	}
	return nil
}

// waveProfiles plots psi along the horizontal mid-plane of the device for up
// to the four lowest states.
func waveProfiles(path string, res *driver.Result, d *mesh.Discretization) error {
	p := plot.New()
	p.Title.Text = "Wavefunctions at the domain mid-plane"
	p.X.Label.Text = "x [Å]"
	p.Y.Label.Text = "ψ"

	fs := d.Space
	midRow := fs.H / 2
	nplot := len(res.Pairs)
	if nplot > 4 {
		nplot = 4
	}
	for i := 0; i < nplot; i++ {
		pts := make(plotter.XYs, fs.W)
		for ix := 0; ix < fs.W; ix++ {
			dof := fs.Dof(ix, midRow)
			pts[ix].X = fs.X[dof]
			pts[ix].Y = res.Pairs[i].Psi.Values[dof]
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("results: %w", err)
		}
		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("ψ%d (E=%.4f eV)", i, res.Pairs[i].Energy), l)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("results: saving %s: %w", path, err)
	}
	return nil
}

// latticeGrid adapts a Field on the structured dof lattice to the
// plotter.GridXYZ interface.
type latticeGrid struct {
	f  mesh.Field
	fs *mesh.FunctionSpace
}

func (g *latticeGrid) Dims() (c, r int)   { return g.fs.W, g.fs.H }
func (g *latticeGrid) Z(c, r int) float64 { return g.f.Values[g.fs.Dof(c, r)] }
func (g *latticeGrid) X(c int) float64    { return g.fs.X[g.fs.Dof(c, 0)] }
func (g *latticeGrid) Y(r int) float64    { return g.fs.Y[g.fs.Dof(0, r)] }

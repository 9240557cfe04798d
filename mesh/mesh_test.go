package mesh

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func testLayers(lx float64) []Layer {
	third := lx / 3
	return []Layer{
		{X0: 0, X1: third, BandOffset: 0.23, Mass: 0.096, Epsilon: 12},
		{X0: third, X1: 2 * third, BandOffset: 0, Mass: 0.067, Epsilon: 12.9},
		{X0: 2 * third, X1: lx, BandOffset: 0.23, Mass: 0.096, Epsilon: 12},
	}
}

func uniformLayers(lx float64) []Layer {
	return []Layer{{X0: 0, X1: lx, Mass: 1, Epsilon: 1}}
}

func TestNewGridDeterministic(t *testing.T) {
	a, err := NewGrid(90, 60, 6, 4, testLayers(90))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewGrid(90, 60, 6, 4, testLayers(90))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different grids")
	}
	if a.K() != 2*6*4 {
		t.Errorf("K = %d, want %d", a.K(), 2*6*4)
	}
}

func TestNewGridGeometryErrors(t *testing.T) {
	cases := []struct {
		name  string
		build func() (*Grid, error)
	}{
		{"zero extent", func() (*Grid, error) {
			return NewGrid(0, 10, 2, 2, uniformLayers(0))
		}},
		{"zero cells", func() (*Grid, error) {
			return NewGrid(10, 10, 0, 2, uniformLayers(10))
		}},
		{"no layers", func() (*Grid, error) {
			return NewGrid(10, 10, 2, 2, nil)
		}},
		{"zero-width layer", func() (*Grid, error) {
			return NewGrid(10, 10, 2, 2, []Layer{
				{X0: 0, X1: 0, Mass: 1, Epsilon: 1},
				{X0: 0, X1: 10, Mass: 1, Epsilon: 1},
			})
		}},
		{"gap between layers", func() (*Grid, error) {
			return NewGrid(10, 10, 2, 2, []Layer{
				{X0: 0, X1: 4, Mass: 1, Epsilon: 1},
				{X0: 5, X1: 10, Mass: 1, Epsilon: 1},
			})
		}},
		{"layers short of the domain", func() (*Grid, error) {
			return NewGrid(10, 10, 2, 2, []Layer{{X0: 0, X1: 8, Mass: 1, Epsilon: 1}})
		}},
		{"non-positive mass", func() (*Grid, error) {
			return NewGrid(10, 10, 2, 2, []Layer{{X0: 0, X1: 10, Mass: 0, Epsilon: 1}})
		}},
		{"non-positive permittivity", func() (*Grid, error) {
			return NewGrid(10, 10, 2, 2, []Layer{{X0: 0, X1: 10, Mass: 1, Epsilon: -1}})
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.build()
			var ge *GeometryError
			if !errors.As(err, &ge) {
				t.Errorf("got %v, want a GeometryError", err)
			}
		})
	}
}

func TestGridRegions(t *testing.T) {
	g, err := NewGrid(90, 90, 9, 3, testLayers(90))
	if err != nil {
		t.Fatal(err)
	}
	counts := make([]int, 3)
	for _, r := range g.Region {
		counts[r]++
	}
	// Each layer covers a third of the 9-cell width.
	for i, c := range counts {
		if c != 2*3*3 {
			t.Errorf("layer %d has %d elements, want %d", i, c, 2*3*3)
		}
	}
}

// TestContactsNeedInteriorColumn: a single order-1 cell puts every dof on
// the contacts, leaving nothing for the Dirichlet partition to solve for.
// The discretization must reject it instead of handing the solvers an empty
// free set.
func TestContactsNeedInteriorColumn(t *testing.T) {
	g, err := NewGrid(10, 10, 1, 1, uniformLayers(10))
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewDiscretization(g, 1)
	var ge *GeometryError
	if !errors.As(err, &ge) {
		t.Fatalf("order 1 on one cell: got %v, want a GeometryError", err)
	}

	// Order 2 adds a dof column between the contacts and must work.
	d, err := NewDiscretization(g, 2)
	if err != nil {
		t.Fatalf("order 2 on one cell: %v", err)
	}
	free, _, _ := d.Space.Partition(Left, Right)
	if len(free) == 0 {
		t.Error("order 2 on one cell has no free dofs")
	}
}

func TestFunctionSpaceDofCounts(t *testing.T) {
	g, err := NewGrid(60, 40, 6, 4, uniformLayers(60))
	if err != nil {
		t.Fatal(err)
	}
	for order := 1; order <= 3; order++ {
		d, err := NewDiscretization(g, order)
		if err != nil {
			t.Fatalf("order %d: %v", order, err)
		}
		want := (order*6 + 1) * (order*4 + 1)
		if d.Space.NDof != want {
			t.Errorf("order %d: NDof = %d, want %d", order, d.Space.NDof, want)
		}

		// Continuity: every dof must be referenced by some element.
		seen := make([]bool, d.Space.NDof)
		for _, dofs := range d.Space.ElemDofs {
			if len(dofs) != d.Ref.Np {
				t.Fatalf("order %d: element has %d dofs, want %d", order, len(dofs), d.Ref.Np)
			}
			for _, dof := range dofs {
				if dof < 0 || dof >= d.Space.NDof {
					t.Fatalf("order %d: dof %d out of range", order, dof)
				}
				seen[dof] = true
			}
		}
		for dof, ok := range seen {
			if !ok {
				t.Errorf("order %d: dof %d not referenced by any element", order, dof)
			}
		}
	}
}

func TestElemDofCoordinatesAgree(t *testing.T) {
	g, err := NewGrid(50, 50, 5, 5, uniformLayers(50))
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDiscretization(g, 2)
	if err != nil {
		t.Fatal(err)
	}
	fs := d.Space
	for k, dofs := range fs.ElemDofs {
		tri := g.EToV[k]
		for n, dof := range dofs {
			r, s := d.Ref.R[n], d.Ref.S[n]
			x := -(r+s)/2*g.VX[tri[0]] + (1+r)/2*g.VX[tri[1]] + (1+s)/2*g.VX[tri[2]]
			y := -(r+s)/2*g.VY[tri[0]] + (1+r)/2*g.VY[tri[1]] + (1+s)/2*g.VY[tri[2]]
			if math.Abs(x-fs.X[dof]) > 1e-9 || math.Abs(y-fs.Y[dof]) > 1e-9 {
				t.Fatalf("element %d node %d: dof coordinates (%g,%g), want (%g,%g)",
					k, n, fs.X[dof], fs.Y[dof], x, y)
			}
		}
	}
}

func TestBoundaryTagsAndPartition(t *testing.T) {
	g, err := NewGrid(40, 30, 4, 3, uniformLayers(40))
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDiscretization(g, 1)
	if err != nil {
		t.Fatal(err)
	}
	fs := d.Space

	counts := map[BoundaryTag]int{}
	for _, tag := range fs.Boundary {
		counts[tag]++
	}
	// Contacts take the full left/right edges including corners.
	if counts[Left] != fs.H || counts[Right] != fs.H {
		t.Errorf("contact dof counts %d/%d, want %d each", counts[Left], counts[Right], fs.H)
	}
	if counts[Bottom] != fs.W-2 || counts[Top] != fs.W-2 {
		t.Errorf("top/bottom dof counts %d/%d, want %d each", counts[Bottom], counts[Top], fs.W-2)
	}

	free, constrained, fullToFree := fs.Partition(Left, Right)
	if len(free)+len(constrained) != fs.NDof {
		t.Fatalf("partition sizes %d+%d != %d", len(free), len(constrained), fs.NDof)
	}
	for _, dof := range free {
		if fs.Boundary[dof] == Left || fs.Boundary[dof] == Right {
			t.Errorf("contact dof %d in the free set", dof)
		}
		if fullToFree[dof] < 0 {
			t.Errorf("free dof %d maps to -1", dof)
		}
	}
	for _, dof := range constrained {
		if fullToFree[dof] != -1 {
			t.Errorf("constrained dof %d maps to %d, want -1", dof, fullToFree[dof])
		}
	}
}

func TestMetrics(t *testing.T) {
	g, err := NewGrid(30, 20, 3, 2, uniformLayers(30))
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDiscretization(g, 1)
	if err != nil {
		t.Fatal(err)
	}

	// The reference triangle has area 2, so element areas are 2*Det and
	// must sum to the domain area.
	var area float64
	for e := 0; e < g.K(); e++ {
		if d.Det[e] <= 0 {
			t.Fatalf("element %d has non-positive Jacobian", e)
		}
		area += 2 * d.Det[e]
	}
	if math.Abs(area-30*20) > 1e-9 {
		t.Errorf("total area = %g, want %g", area, 30.0*20)
	}
}

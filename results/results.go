// Package results persists solver output: delimited-text tables of
// eigenvalues and fields, and optional PNG plots.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/faldah/schroedinger-poisson/driver"
	"github.com/faldah/schroedinger-poisson/mesh"
)

// Write persists the run result to dir: eigenvalues.csv with one row per
// state and fields.csv with one row per dof carrying coordinates, potential,
// density, and the wavefunctions.
func Write(dir string, res *driver.Result, d *mesh.Discretization) error {
	if res.Iterations == 0 {
		return fmt.Errorf("results: no completed iteration to write")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("results: creating %s: %w", dir, err)
	}
	if err := writeEigenvalues(filepath.Join(dir, "eigenvalues.csv"), res); err != nil {
		return err
	}
	return writeFields(filepath.Join(dir, "fields.csv"), res, d)
}

func writeEigenvalues(path string, res *driver.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("results: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"index", "energy_eV", "occupation", "bound"}); err != nil {
		return fmt.Errorf("results: %w", err)
	}
	for i, p := range res.Pairs {
		rec := []string{
			strconv.Itoa(i),
			formatF(p.Energy),
			formatF(res.Weights[i]),
			strconv.FormatBool(p.Bound),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("results: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeFields(path string, res *driver.Result, d *mesh.Discretization) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("results: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"x", "y", "potential_eV", "density"}
	for i := range res.Pairs {
		header = append(header, fmt.Sprintf("psi%d", i))
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("results: %w", err)
	}

	fs := d.Space
	rec := make([]string, 0, len(header))
	for dof := 0; dof < fs.NDof; dof++ {
		rec = rec[:0]
		rec = append(rec, formatF(fs.X[dof]), formatF(fs.Y[dof]),
			formatF(res.Potential.Values[dof]), formatF(res.Density.Values[dof]))
		for _, p := range res.Pairs {
			rec = append(rec, formatF(p.Psi.Values[dof]))
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("results: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func formatF(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// Command spsolve runs the self-consistent Schrödinger-Poisson solver for a
// layered quantum-well device. It takes the Fermi level [eV] as its single
// positional argument:
//
//	spsolve 0.0
//
// The exit code is 0 on CONVERGED or MAX_ITER_REACHED (a usable best-effort
// result) and non-zero on FAILED.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/faldah/schroedinger-poisson/config"
	"github.com/faldah/schroedinger-poisson/driver"
	"github.com/faldah/schroedinger-poisson/results"
)

var (
	flagConfig  string
	flagCells   int
	flagOrder   int
	flagMaxIter int
	flagTol     float64
	flagKT      float64
	flagStates  int
	flagMixing  float64
	flagOut     string
	flagPlots   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:          "spsolve <fermi-level-eV>",
	Short:        "Self-consistent Schrödinger-Poisson solver for a 2D quantum-well device",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagConfig, "config", "", "TOML configuration file")
	f.IntVar(&flagCells, "nel", 0, "mesh cells per side (overrides config)")
	f.IntVar(&flagOrder, "order", 0, "Lagrange polynomial order 1..3 (overrides config)")
	f.IntVar(&flagMaxIter, "max-iter", 0, "iteration cap (overrides config)")
	f.Float64Var(&flagTol, "tol", 0, "convergence tolerance (overrides config)")
	f.Float64Var(&flagKT, "kt", 0, "temperature kT in eV (overrides config)")
	f.IntVar(&flagStates, "states", 0, "number of eigenstates to solve for (overrides config)")
	f.Float64Var(&flagMixing, "mixing", 0, "potential under-relaxation factor (overrides config)")
	f.StringVar(&flagOut, "out", "", "output directory (overrides config)")
	f.BoolVar(&flagPlots, "plots", false, "render PNG plots of the final fields")
	f.BoolVar(&flagVerbose, "verbose", false, "debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	fermi, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("fermi level %q is not a number: %w", args[0], err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Default()
	if flagConfig != "" {
		if cfg, err = config.Load(flagConfig); err != nil {
			return err
		}
	}
	applyOverrides(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"fermi_eV": fermi,
		"cells":    cfg.Mesh.Cells,
		"order":    cfg.Mesh.Order,
		"domain_A": cfg.DomainSize(),
	}).Info("building discretization")

	disc, err := cfg.Discretize()
	if err != nil {
		return err
	}

	drv, err := driver.New(disc, cfg.DriverConfig(fermi), log)
	if err != nil {
		return err
	}

	res, err := drv.Run()
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"state":      res.State.String(),
		"iterations": res.Iterations,
		"residual":   res.FinalResidual(),
	}).Info("run finished")

	if err := results.Write(cfg.Output.Dir, res, disc); err != nil {
		return err
	}
	log.WithField("dir", cfg.Output.Dir).Info("results written")

	if cfg.Output.Plots || flagPlots {
		if err := results.PlotAll(cfg.Output.Dir, res, disc); err != nil {
			return err
		}
		log.WithField("dir", cfg.Output.Dir).Info("plots rendered")
	}
	return nil
}

// applyOverrides copies values from flags the user actually set over the
// config file values.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("nel") {
		cfg.Mesh.Cells = flagCells
	}
	if set("order") {
		cfg.Mesh.Order = flagOrder
	}
	if set("max-iter") {
		cfg.Solver.MaxIterations = flagMaxIter
	}
	if set("tol") {
		cfg.Solver.Tolerance = flagTol
	}
	if set("kt") {
		cfg.Solver.Temperature = flagKT
	}
	if set("states") {
		cfg.Solver.NumStates = flagStates
	}
	if set("mixing") {
		cfg.Solver.Mixing = flagMixing
	}
	if set("out") {
		cfg.Output.Dir = flagOut
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

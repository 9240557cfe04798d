// Package driver orchestrates the self-consistent fixed-point loop coupling
// the quantum eigenvalue solver to the electrostatic field solver. The loop
// state and the current potential are owned by the driver and passed
// explicitly into each stage; nothing is ambient.
package driver

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/faldah/schroedinger-poisson/density"
	"github.com/faldah/schroedinger-poisson/mesh"
	"github.com/faldah/schroedinger-poisson/poisson"
	"github.com/faldah/schroedinger-poisson/quantum"
)

// State is the lifecycle state of a solver run.
type State int

const (
	StateInit State = iota
	StateIterating
	StateConverged
	StateMaxIterReached
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateIterating:
		return "ITERATING"
	case StateConverged:
		return "CONVERGED"
	case StateMaxIterReached:
		return "MAX_ITER_REACHED"
	case StateFailed:
		return "FAILED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StageError wraps a component failure with the iteration index and stage
// name, so failures are diagnosable without masking them as convergence.
type StageError struct {
	Iteration int
	Stage     string
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("iteration %d: %s stage: %v", e.Iteration, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Config holds the loop parameters. All values are validated by New.
type Config struct {
	FermiLevel    float64 // reference energy for occupation [eV]
	Temperature   float64 // kT [eV]; 0 selects the zero-temperature step
	Tolerance     float64 // relative residual for convergence
	MaxIterations int     // iteration cap; MAX_ITER_REACHED is non-fatal
	NumStates     int     // eigenpairs solved per iteration
	Mixing        float64 // under-relaxation factor in (0,1]
	TotalCharge   float64 // density normalization target; <=0 uses Σ weights
	Coupling      float64 // Poisson source coupling; <=0 uses the default
	ContactLeft   float64 // contact potential at x=0 [eV]
	ContactRight  float64 // contact potential at x=Lx [eV]
}

func (c Config) validate() error {
	if c.Tolerance <= 0 {
		return fmt.Errorf("driver: tolerance %g must be positive", c.Tolerance)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("driver: max iterations %d must be at least 1", c.MaxIterations)
	}
	if c.NumStates < 1 {
		return fmt.Errorf("driver: number of states %d must be at least 1", c.NumStates)
	}
	if c.Mixing <= 0 || c.Mixing > 1 {
		return fmt.Errorf("driver: mixing factor %g must be in (0,1]", c.Mixing)
	}
	if c.Temperature < 0 {
		return fmt.Errorf("driver: temperature %g must be non-negative", c.Temperature)
	}
	return nil
}

// Result carries the terminal state and the last completed iteration's
// fields. On MAX_ITER_REACHED it is the best-effort result.
type Result struct {
	State      State
	Iterations int
	Residuals  []float64 // one relative residual per completed iteration
	Pairs      []quantum.Eigenpair
	Weights    []float64
	Potential  mesh.Field
	Density    mesh.Field
}

// FinalResidual returns the residual of the last completed iteration, or
// +Inf if no iteration completed.
func (r *Result) FinalResidual() float64 {
	if len(r.Residuals) == 0 {
		return math.Inf(1)
	}
	return r.Residuals[len(r.Residuals)-1]
}

// Driver runs the fixed-point loop over a shared, read-only discretization.
type Driver struct {
	disc *mesh.Discretization
	cfg  Config
	q    *quantum.Solver
	p    *poisson.Solver
	log  logrus.FieldLogger
}

// New validates the configuration and builds the stage solvers. A nil logger
// selects the logrus standard logger.
func New(d *mesh.Discretization, cfg Config, log logrus.FieldLogger) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Driver{
		disc: d,
		cfg:  cfg,
		q:    quantum.NewSolver(d, cfg.NumStates),
		p:    poisson.NewSolver(d, cfg.Coupling, cfg.ContactLeft, cfg.ContactRight),
		log:  log,
	}, nil
}

// Run executes the loop starting from the zero potential.
func (dr *Driver) Run() (*Result, error) {
	return dr.RunFrom(mesh.NewField(dr.disc.Space))
}

// RunFrom executes the loop from the given initial potential. The loop is
// strictly sequential: quantum → density → field, once per iteration.
func (dr *Driver) RunFrom(initial mesh.Field) (*Result, error) {
	res := &Result{State: StateIterating, Potential: initial.Copy()}

	for it := 1; it <= dr.cfg.MaxIterations; it++ {
		pairs, err := dr.q.Solve(res.Potential)
		if err != nil {
			return dr.fail(res, it, "quantum", err)
		}

		energies := make([]float64, len(pairs))
		for i, p := range pairs {
			energies[i] = p.Energy
		}
		weights := density.OccupationWeights(energies, dr.cfg.FermiLevel, dr.cfg.Temperature)
		rho := density.ChargeDensity(dr.disc, pairs, weights, dr.cfg.TotalCharge)

		newPot, err := dr.p.Solve(rho)
		if err != nil {
			return dr.fail(res, it, "field", err)
		}

		// Under-relaxed update and relative residual between successive
		// potentials.
		old := res.Potential
		mixed := old.Copy()
		for i := range mixed.Values {
			mixed.Values[i] += dr.cfg.Mixing * (newPot.Values[i] - old.Values[i])
		}
		residual := floats.Distance(mixed.Values, old.Values, 2) /
			math.Max(floats.Norm(old.Values, 2), 1)

		res.Iterations = it
		res.Residuals = append(res.Residuals, residual)
		res.Pairs = pairs
		res.Weights = weights
		res.Density = rho
		res.Potential = mixed

		occupied := 0
		for _, w := range weights {
			if w > 0 {
				occupied++
			}
		}
		dr.log.WithFields(logrus.Fields{
			"iteration": it,
			"residual":  residual,
			"E0":        energies[0],
			"occupied":  occupied,
		}).Info("self-consistent iteration complete")

		if math.IsNaN(residual) || math.IsInf(residual, 0) {
			return dr.fail(res, it, "residual", fmt.Errorf("potential update is not finite"))
		}
		if residual < dr.cfg.Tolerance {
			res.State = StateConverged
			return res, nil
		}
	}

	res.State = StateMaxIterReached
	dr.log.WithField("residual", res.FinalResidual()).
		Warn("iteration cap reached before convergence; reporting best-effort result")
	return res, nil
}

func (dr *Driver) fail(res *Result, it int, stage string, err error) (*Result, error) {
	res.State = StateFailed
	wrapped := &StageError{Iteration: it, Stage: stage, Err: err}
	dr.log.WithFields(logrus.Fields{"iteration": it, "stage": stage}).
		WithError(err).Error("self-consistent loop aborted")
	return res, wrapped
}

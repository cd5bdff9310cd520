package nested

import (
	"fmt"

	"github.com/urbanwind/nestcfd/config"
	"github.com/urbanwind/nestcfd/geometry"
	"github.com/urbanwind/nestcfd/simulation"
)

// State tracks the driver's lifecycle.
type State int

const (
	Constructed State = iota
	Initialized
	Iterating
	Converged
	MaxIterationsReached
)

// Result is what a nested solve hands back to callers. Non-convergence is
// a valid terminal outcome, never an error.
type Result struct {
	Converged  bool
	Iterations int
	Residual   float64

	// Per-resolution snapshots for independent inspection, plus the
	// presentation-time merge.
	Coarse *simulation.FlowFieldSnapshot
	Fine   *simulation.FlowFieldSnapshot
	Merged *Merged
}

// Solver drives a one-way nested solve: boundary and initial values are
// interpolated from the converged coarse snapshot, the refined grid is
// iterated with those boundaries re-imposed every step, and results are
// merged back onto the coarse index range for reporting.
type Solver struct {
	Region Region

	// Settings for the fine iteration, seeded from the coarse snapshot's
	// settings. Callers may adjust (typically MaxIterations) before Solve.
	Settings simulation.Settings

	coarse     *simulation.FlowFieldSnapshot
	free       config.Freestream
	fineDomain geometry.Domain
	fine       *simulation.Solver
	state      State
}

// NewSolver validates the region against the coarse domain and derives
// the refined grid. The coarse snapshot is read-only from here on.
func NewSolver(coarse *simulation.FlowFieldSnapshot, region Region,
	free config.Freestream) (*Solver, error) {
	fineDomain, err := region.FineGrid(coarse.Domain)
	if err != nil {
		return nil, err
	}
	return &Solver{
		Region:     region,
		Settings:   coarse.Settings,
		coarse:     coarse,
		free:       free,
		fineDomain: fineDomain,
		state:      Constructed,
	}, nil
}

// FineDomain returns the derived refined grid.
func (n *Solver) FineDomain() geometry.Domain { return n.fineDomain }

// Fine returns the fine solver, nil before Solve.
func (n *Solver) Fine() *simulation.Solver { return n.fine }

// State returns the driver's lifecycle state.
func (n *Solver) State() State { return n.state }

// Solve runs the full nested sequence: interpolator and bridge
// construction, obstacle re-projection, fine-field initialization, then
// the custom iteration loop. It always returns a Result; whether the fine
// solve converged is reported in Result.Converged.
func (n *Solver) Solve(verbose bool) *Result {
	if n.state != Constructed {
		panic("nested solve already run")
	}
	if verbose {
		fmt.Printf("Nested grid configuration:\n")
		fmt.Printf("  Coarse grid: %s\n", n.coarse.Domain)
		fmt.Printf("  Fine grid:   %s\n", n.fineDomain)
		fmt.Printf("  Refinement:  %dx over x=[%.0f, %.0f], y=[%.0f, %.0f]\n",
			n.Region.Refinement, n.Region.XMin, n.Region.XMax,
			n.Region.YMin, n.Region.YMax)
	}

	itp := NewInterpolators(n.coarse, n.free)
	bridge := BuildBridge(itp, n.Region, n.fineDomain.Nx, n.fineDomain.Ny)

	n.fine = simulation.NewSolver(n.fineDomain, n.coarse.Fluid, n.coarse.BC, n.Settings)
	projected := ProjectObstacles(n.coarse.Obstacles, n.Region)
	for _, o := range projected {
		n.fine.AddObstacle(o)
	}
	// One mask rebuild for the whole batch.
	n.fine.RebuildMasks()
	if verbose {
		fmt.Printf("  Obstacles in fine region: %d (solid cells: %d)\n",
			len(projected), n.fine.Solid.Count())
	}

	fixedTurb := InitializeFine(n.fine, itp, n.Region, n.free)
	if fixedTurb {
		bridge.ApplyTurbulence(n.fine.Turb)
	}
	n.state = Initialized

	result := n.iterate(bridge, fixedTurb, verbose)
	result.Coarse = n.coarse
	result.Fine = n.fine.Snapshot()
	result.Merged = Compose(n.coarse, result.Fine, n.Region)
	return result
}

// iterate runs the nested SIMPLE loop. Unlike a standalone solve, the
// interpolated boundary values and solid no-slip are re-imposed after the
// field correction and before the turbulence step, every iteration; the
// turbulence model runs with fixed boundaries so its open-boundary policy
// does not overwrite the nested Dirichlet values set at initialization.
func (n *Solver) iterate(bridge *Bridge, fixedTurb bool, verbose bool) *Result {
	var (
		s   = n.fine
		res float64
	)
	n.state = Iterating
	for iter := 0; iter < n.Settings.MaxIterations; iter++ {
		dt := s.AdvanceMomentum()
		s.AdvancePressure()
		s.CorrectFields()

		bridge.Apply(s)
		bridge.ApplyPressure(s)
		s.EnforceNoSlip()

		s.AdvanceTurbulence(dt, fixedTurb)
		res = s.Residual()

		if verbose && iter%n.Settings.PrintInterval == 0 {
			fmt.Printf("Fine iter %d: res=%.2e\n", iter, res)
		}
		if res < n.Settings.Tolerance {
			if verbose {
				fmt.Printf("Fine grid converged at iteration %d\n", iter)
			}
			n.state = Converged
			return &Result{Converged: true, Iterations: iter + 1, Residual: res}
		}
	}
	if verbose {
		fmt.Printf("Fine grid: max iterations (%d) reached\n", n.Settings.MaxIterations)
	}
	n.state = MaxIterationsReached
	return &Result{Converged: false, Iterations: n.Settings.MaxIterations, Residual: res}
}

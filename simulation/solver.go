package simulation

import (
	"fmt"
	"math"

	"github.com/urbanwind/nestcfd/geometry"
	"gonum.org/v1/gonum/mat"
)

// Solver is a SIMPLE-class iterative solver for steady incompressible
// turbulent flow on a uniform structured grid. Each outer iteration runs an
// explicit momentum step, a pressure-correction solve, field correction,
// boundary re-imposition and one turbulence transport step.
type Solver struct {
	Domain   geometry.Domain
	Fluid    FluidProperties
	BC       BoundaryConditions
	Settings Settings

	// ny x nx field matrices, row j is the y index.
	U, V, P *mat.Dense

	Obstacles []geometry.Obstacle
	Solid     *Mask
	Porous    *Mask
	Drag      *mat.Dense // volumetric drag coefficient field [1/m]

	Turb *SSTModel

	pressure     *pressureSystem
	pPrime       *mat.Dense
	uPrev, vPrev *mat.Dense
	dt           float64
}

// SolveResult reports how a solve loop ended. Non-convergence is a valid
// outcome, not an error.
type SolveResult struct {
	Converged  bool
	Iterations int
	Residual   float64
}

func NewSolver(domain geometry.Domain, fluid FluidProperties,
	bc BoundaryConditions, settings Settings) *Solver {
	var (
		ny, nx = domain.Ny, domain.Nx
	)
	s := &Solver{
		Domain:   domain,
		Fluid:    fluid,
		BC:       bc,
		Settings: settings,
		U:        mat.NewDense(ny, nx, nil),
		V:        mat.NewDense(ny, nx, nil),
		P:        mat.NewDense(ny, nx, nil),
		Solid:    NewMask(ny, nx),
		Porous:   NewMask(ny, nx),
		Drag:     mat.NewDense(ny, nx, nil),
		pPrime:   mat.NewDense(ny, nx, nil),
		uPrev:    mat.NewDense(ny, nx, nil),
		vPrev:    mat.NewDense(ny, nx, nil),
	}
	uIn, vIn := bc.InletComponents()
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			s.U.Set(j, i, uIn)
			s.V.Set(j, i, vIn)
		}
	}
	s.Turb = NewSSTModel(domain, fluid, bc, settings.UseWallFunctions)
	s.RebuildMasks()
	return s
}

// AddObstacle appends an obstacle without updating the occupancy masks.
// Call RebuildMasks once after the whole batch has been appended.
func (s *Solver) AddObstacle(o geometry.Obstacle) {
	s.Obstacles = append(s.Obstacles, o)
}

// RebuildMasks rasterizes the obstacle list into the solid and porous
// occupancy masks and the porous drag field, then refreshes everything
// derived from them (wall distances, the pressure operator).
func (s *Solver) RebuildMasks() {
	var (
		ny, nx = s.Domain.Ny, s.Domain.Nx
	)
	s.Solid = NewMask(ny, nx)
	s.Porous = NewMask(ny, nx)
	s.Drag.Zero()
	for j := 0; j < ny; j++ {
		y := s.Domain.NodeY(j)
		for i := 0; i < nx; i++ {
			x := s.Domain.NodeX(i)
			for _, o := range s.Obstacles {
				if !o.Contains(x, y) {
					continue
				}
				if o.IsSolid() {
					s.Solid.Set(j, i, true)
					s.U.Set(j, i, 0)
					s.V.Set(j, i, 0)
				} else if p, ok := o.(geometry.Porous); ok {
					s.Porous.Set(j, i, true)
					// Denser vegetation (lower porosity) drags harder.
					s.Drag.Set(j, i, s.Drag.At(j, i)+
						p.DragCoefficient()*(1-p.Porosity()))
				}
			}
		}
	}
	if s.Turb != nil {
		s.Turb.SetMasks(s.Solid, s.Porous)
	}
	s.pressure = newPressureSystem(s.Domain, s.Solid)
}

// ApplyBoundaryConditions imposes the standalone open-domain treatment:
// uniform inlet on the west edge, zero-gradient outflow east, slip walls
// south and north.
func (s *Solver) ApplyBoundaryConditions() {
	var (
		ny, nx   = s.Domain.Ny, s.Domain.Nx
		uIn, vIn = s.BC.InletComponents()
	)
	for j := 0; j < ny; j++ {
		s.U.Set(j, 0, uIn)
		s.V.Set(j, 0, vIn)
		s.U.Set(j, nx-1, s.U.At(j, nx-2))
		s.V.Set(j, nx-1, s.V.At(j, nx-2))
	}
	for i := 0; i < nx; i++ {
		s.U.Set(0, i, s.U.At(1, i))
		s.V.Set(0, i, 0)
		s.U.Set(ny-1, i, s.U.At(ny-2, i))
		s.V.Set(ny-1, i, 0)
	}
}

// EnforceNoSlip zeroes velocity inside every solid cell.
func (s *Solver) EnforceNoSlip() {
	for j := 0; j < s.Domain.Ny; j++ {
		for i := 0; i < s.Domain.Nx; i++ {
			if s.Solid.At(j, i) {
				s.U.Set(j, i, 0)
				s.V.Set(j, i, 0)
			}
		}
	}
}

// AdvanceTurbulence runs one turbulence transport step. When
// fixedBoundaries is set the model's default open-boundary copy is
// suppressed so externally imposed border values survive the step.
func (s *Solver) AdvanceTurbulence(dt float64, fixedBoundaries bool) {
	if s.Turb == nil {
		return
	}
	s.Turb.Advance(dt, s.U, s.V, fixedBoundaries)
}

// Residual is the mean momentum change of the last iteration normalized by
// the inlet speed.
func (s *Solver) Residual() float64 {
	var (
		ny, nx = s.Domain.Ny, s.Domain.Nx
		sum    float64
		n      int
	)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if s.Solid.At(j, i) {
				continue
			}
			sum += math.Abs(s.U.At(j, i)-s.uPrev.At(j, i)) +
				math.Abs(s.V.At(j, i)-s.vPrev.At(j, i))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	scale := math.Max(s.BC.InletVelocity, 1e-10)
	return sum / (2 * float64(n) * scale)
}

// Solve runs the standard (non-nested) iteration loop to convergence or the
// iteration budget.
func (s *Solver) Solve(verbose bool) SolveResult {
	if verbose {
		fmt.Printf("CFD solve on %s\n", s.Domain)
		fmt.Printf("Wind %.1f m/s from %.0f deg, Ti=%.1f%%\n",
			s.BC.InletVelocity, s.BC.InletDirection, s.BC.TurbulenceIntensity*100)
		fmt.Printf("Obstacles: %d (solid cells: %d, porous cells: %d)\n",
			len(s.Obstacles), s.Solid.Count(), s.Porous.Count())
	}
	var res float64
	for iter := 0; iter < s.Settings.MaxIterations; iter++ {
		dt := s.AdvanceMomentum()
		s.AdvancePressure()
		s.CorrectFields()
		s.ApplyBoundaryConditions()
		s.EnforceNoSlip()
		s.AdvanceTurbulence(dt, false)
		res = s.Residual()
		if verbose && iter%s.Settings.PrintInterval == 0 {
			fmt.Printf("Iter %d: res=%.2e%s\n", iter, res, s.Turb.diagnostics())
		}
		if res < s.Settings.Tolerance {
			if verbose {
				fmt.Printf("Converged at iteration %d, res=%.2e\n", iter, res)
			}
			return SolveResult{Converged: true, Iterations: iter + 1, Residual: res}
		}
	}
	if verbose {
		fmt.Printf("Max iterations (%d) reached, res=%.2e\n",
			s.Settings.MaxIterations, res)
	}
	return SolveResult{Converged: false, Iterations: s.Settings.MaxIterations, Residual: res}
}

// VelocityMagnitude computes |V| on the current fields.
func (s *Solver) VelocityMagnitude() *mat.Dense {
	return velocityMagnitude(s.U, s.V)
}

// Snapshot captures the current fields as an immutable record. All arrays
// are deep copies; later iterations of this solver do not show through.
func (s *Solver) Snapshot() *FlowFieldSnapshot {
	snap := &FlowFieldSnapshot{
		Domain:    s.Domain,
		U:         cloneDense(s.U),
		V:         cloneDense(s.V),
		P:         cloneDense(s.P),
		Solid:     s.Solid.Clone(),
		Obstacles: append([]geometry.Obstacle(nil), s.Obstacles...),
		Fluid:     s.Fluid,
		BC:        s.BC,
		Settings:  s.Settings,
	}
	if s.Turb != nil {
		k, omega := s.Turb.Fields()
		snap.K = cloneDense(k)
		snap.Omega = cloneDense(omega)
	}
	return snap
}

package nested

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urbanwind/nestcfd/config"
	"github.com/urbanwind/nestcfd/geometry"
	"github.com/urbanwind/nestcfd/simulation"
)

func coarseSnapshot(t *testing.T, obstacles ...geometry.Obstacle) *simulation.FlowFieldSnapshot {
	t.Helper()
	d, err := geometry.NewDomain(40, 40, 20, 20)
	assert.NoError(t, err)
	bc := simulation.BoundaryConditions{InletVelocity: 3, InletDirection: 270,
		TurbulenceIntensity: 0.1}
	fluid := simulation.FluidProperties{Density: 1.225, Viscosity: 1.81e-5}
	s := simulation.NewSolver(d, fluid, bc, simulation.DefaultSettings())
	for _, o := range obstacles {
		s.AddObstacle(o)
	}
	s.RebuildMasks()
	return s.Snapshot()
}

func TestNewSolverRejectsBadRegion(t *testing.T) {
	snap := coarseSnapshot(t)
	_, err := NewSolver(snap, Region{XMin: 10, XMax: 50, YMin: 10, YMax: 30,
		Refinement: 4}, config.DefaultFreestream())
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = NewSolver(snap, Region{XMin: 10, XMax: 30, YMin: 10, YMax: 30,
		Refinement: 1}, config.DefaultFreestream())
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNestedSolveUniformFlow(t *testing.T) {
	snap := coarseSnapshot(t)
	region := Region{XMin: 10, XMax: 30, YMin: 10, YMax: 30, Refinement: 4}
	ns, err := NewSolver(snap, region, config.DefaultFreestream())
	assert.NoError(t, err)
	assert.Equal(t, Constructed, ns.State())
	assert.Equal(t, 40, ns.FineDomain().Nx)
	assert.Equal(t, 40, ns.FineDomain().Ny)

	result := ns.Solve(false)
	assert.Equal(t, Converged, ns.State())

	// uniform inflow with no obstacles is already steady at any resolution
	assert.True(t, result.Converged)
	assert.Equal(t, 1, result.Iterations)

	fine := result.Fine
	assert.NotNil(t, fine)
	for j := 0; j < fine.Domain.Ny; j++ {
		for i := 0; i < fine.Domain.Nx; i++ {
			assert.InDelta(t, 3.0, fine.U.At(j, i), 1e-9)
			assert.InDelta(t, 0.0, fine.V.At(j, i), 1e-9)
		}
	}
	assert.Same(t, snap, result.Coarse)
	assert.NotNil(t, result.Merged)

	// running the same driver twice is a programming error
	assert.Panics(t, func() { ns.Solve(false) })
}

func TestNestedSolveHitsIterationBudget(t *testing.T) {
	snap := coarseSnapshot(t, geometry.NewBuilding(16, 16, 24, 24, "block"))
	region := Region{XMin: 10, XMax: 30, YMin: 10, YMax: 30, Refinement: 4}
	ns, err := NewSolver(snap, region, config.DefaultFreestream())
	assert.NoError(t, err)

	ns.Settings.MaxIterations = 1
	ns.Settings.Tolerance = 1e-14
	result := ns.Solve(false)

	// budget exhaustion is a result, not an error
	assert.False(t, result.Converged)
	assert.Equal(t, 1, result.Iterations)
	assert.Greater(t, result.Residual, 0.0)
	assert.Equal(t, MaxIterationsReached, ns.State())

	// the building was re-projected onto the fine grid
	assert.Greater(t, ns.Fine().Solid.Count(), 0)
	// the coarse snapshot stayed untouched
	assert.InDelta(t, 3.0, snap.U.At(2, 2), 1e-12)
}

func TestNestedSolveTransfersTurbulence(t *testing.T) {
	snap := coarseSnapshot(t)
	region := Region{XMin: 10, XMax: 30, YMin: 10, YMax: 30, Refinement: 2}
	ns, err := NewSolver(snap, region, config.DefaultFreestream())
	assert.NoError(t, err)
	ns.Settings.MaxIterations = 2

	result := ns.Solve(false)
	assert.NotNil(t, result.Fine.K)
	assert.NotNil(t, result.Fine.Omega)
	for j := 0; j < result.Fine.Domain.Ny; j++ {
		for i := 0; i < result.Fine.Domain.Nx; i++ {
			assert.GreaterOrEqual(t, result.Fine.K.At(j, i), 1e-10)
			assert.Greater(t, result.Fine.Omega.At(j, i), 0.0)
		}
	}
}

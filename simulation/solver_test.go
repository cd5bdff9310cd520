package simulation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urbanwind/nestcfd/geometry"
)

func testDomain(t *testing.T, w, h float64, nx, ny int) geometry.Domain {
	t.Helper()
	d, err := geometry.NewDomain(w, h, nx, ny)
	assert.NoError(t, err)
	return d
}

func air() FluidProperties {
	return FluidProperties{Density: 1.225, Viscosity: 1.81e-5}
}

func TestInletComponents(t *testing.T) {
	// Meteorological convention: direction is where the wind blows FROM.
	{
		u, v := BoundaryConditions{InletVelocity: 5, InletDirection: 270}.InletComponents()
		assert.InDelta(t, 5, u, 1e-12)
		assert.InDelta(t, 0, v, 1e-12)
	}
	{
		u, v := BoundaryConditions{InletVelocity: 5, InletDirection: 180}.InletComponents()
		assert.InDelta(t, 0, u, 1e-12)
		assert.InDelta(t, 5, v, 1e-12)
	}
	{
		u, v := BoundaryConditions{InletVelocity: 5, InletDirection: 225}.InletComponents()
		assert.InDelta(t, 5/math.Sqrt2, u, 1e-12)
		assert.InDelta(t, 5/math.Sqrt2, v, 1e-12)
	}
}

func TestNewSolverInitializesUniformFlow(t *testing.T) {
	d := testDomain(t, 40, 30, 20, 15)
	bc := BoundaryConditions{InletVelocity: 3, InletDirection: 270, TurbulenceIntensity: 0.1}
	s := NewSolver(d, air(), bc, DefaultSettings())
	for j := 0; j < d.Ny; j++ {
		for i := 0; i < d.Nx; i++ {
			assert.Equal(t, 3.0, s.U.At(j, i))
			assert.Equal(t, 0.0, s.V.At(j, i))
			assert.Equal(t, 0.0, s.P.At(j, i))
		}
	}
	assert.NotNil(t, s.Turb)
	assert.Greater(t, s.Turb.K.At(5, 5), 0.0)
	assert.Greater(t, s.Turb.Omega.At(5, 5), 0.0)
}

func TestRebuildMasks(t *testing.T) {
	d := testDomain(t, 40, 30, 20, 15)
	bc := BoundaryConditions{InletVelocity: 3, InletDirection: 270, TurbulenceIntensity: 0.1}
	s := NewSolver(d, air(), bc, DefaultSettings())

	s.AddObstacle(geometry.NewBuilding(14, 10, 24, 20, "block"))
	s.AddObstacle(geometry.NewTree(32, 6, 3, 0.5, 0.8, "oak"))
	// masks are stale until rebuilt
	assert.Equal(t, 0, s.Solid.Count())
	s.RebuildMasks()

	assert.Greater(t, s.Solid.Count(), 0)
	assert.Greater(t, s.Porous.Count(), 0)

	solidChecked := false
	for j := 0; j < d.Ny; j++ {
		for i := 0; i < d.Nx; i++ {
			if s.Solid.At(j, i) {
				solidChecked = true
				assert.Equal(t, 0.0, s.U.At(j, i))
				assert.Equal(t, 0.0, s.V.At(j, i))
				assert.Equal(t, 0.0, s.Turb.WallDist.At(j, i))
			}
			if s.Porous.At(j, i) {
				// drag = Cd * (1 - porosity)
				assert.InDelta(t, 0.8*0.5, s.Drag.At(j, i), 1e-12)
			}
		}
	}
	assert.True(t, solidChecked)
}

func TestSolveUniformFlowConvergesImmediately(t *testing.T) {
	d := testDomain(t, 40, 30, 20, 15)
	bc := BoundaryConditions{InletVelocity: 3, InletDirection: 270, TurbulenceIntensity: 0.1}
	s := NewSolver(d, air(), bc, DefaultSettings())

	res := s.Solve(false)
	assert.True(t, res.Converged)
	assert.Equal(t, 1, res.Iterations)
	assert.Less(t, res.Residual, 1e-10)

	// an unobstructed uniform inflow is already the steady solution
	for j := 0; j < d.Ny; j++ {
		for i := 0; i < d.Nx; i++ {
			assert.InDelta(t, 3.0, s.U.At(j, i), 1e-10)
			assert.InDelta(t, 0.0, s.V.At(j, i), 1e-10)
		}
	}
}

func TestSolveAroundBuilding(t *testing.T) {
	d := testDomain(t, 60, 40, 30, 20)
	bc := BoundaryConditions{InletVelocity: 4, InletDirection: 270, TurbulenceIntensity: 0.12}
	settings := DefaultSettings()
	settings.MaxIterations = 40
	settings.Tolerance = 1e-12 // force the full budget
	s := NewSolver(d, air(), bc, settings)
	s.AddObstacle(geometry.NewBuilding(24, 14, 36, 26, "block"))
	s.RebuildMasks()

	res := s.Solve(false)
	assert.False(t, res.Converged)
	assert.Equal(t, 40, res.Iterations)

	// fields stay finite and no-slip holds
	for j := 0; j < d.Ny; j++ {
		for i := 0; i < d.Nx; i++ {
			assert.False(t, math.IsNaN(s.U.At(j, i)), "NaN u at %d,%d", j, i)
			assert.False(t, math.IsNaN(s.V.At(j, i)), "NaN v at %d,%d", j, i)
			assert.False(t, math.IsNaN(s.P.At(j, i)), "NaN p at %d,%d", j, i)
			if s.Solid.At(j, i) {
				assert.Equal(t, 0.0, s.U.At(j, i))
				assert.Equal(t, 0.0, s.V.At(j, i))
			}
		}
	}
	// the building leaves a footprint: flow is no longer uniform
	assert.Greater(t, res.Residual, 0.0)
}

func TestPorousDragSlowsFlow(t *testing.T) {
	d := testDomain(t, 60, 40, 30, 20)
	bc := BoundaryConditions{InletVelocity: 4, InletDirection: 270, TurbulenceIntensity: 0.1}
	s := NewSolver(d, air(), bc, DefaultSettings())
	s.AddObstacle(geometry.NewPorousZone(
		[][2]float64{{20, 10}, {40, 10}, {40, 30}, {20, 30}},
		0.3, 12, 1.0, "forest", "stand"))
	s.RebuildMasks()
	assert.Greater(t, s.Porous.Count(), 0)
	assert.Equal(t, 0, s.Solid.Count())

	s.AdvanceMomentum()
	slowed := false
	for j := 0; j < d.Ny; j++ {
		for i := 0; i < d.Nx; i++ {
			if s.Porous.At(j, i) && s.U.At(j, i) < 4.0 {
				slowed = true
			}
		}
	}
	assert.True(t, slowed, "drag sink should reduce u inside the porous zone")
}

func TestResidualNormalization(t *testing.T) {
	d := testDomain(t, 40, 30, 20, 15)
	bc := BoundaryConditions{InletVelocity: 3, InletDirection: 270}
	s := NewSolver(d, air(), bc, DefaultSettings())
	// uPrev holds the inlet field; shift u by a uniform 0.6
	for j := 0; j < d.Ny; j++ {
		for i := 0; i < d.Nx; i++ {
			s.uPrev.Set(j, i, s.U.At(j, i))
			s.vPrev.Set(j, i, s.V.At(j, i))
			s.U.Set(j, i, s.U.At(j, i)+0.6)
		}
	}
	// mean |du|+|dv| over 2*n*Uinf = 0.6 / (2*3)
	assert.InDelta(t, 0.1, s.Residual(), 1e-12)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	d := testDomain(t, 40, 30, 20, 15)
	bc := BoundaryConditions{InletVelocity: 3, InletDirection: 270, TurbulenceIntensity: 0.1}
	s := NewSolver(d, air(), bc, DefaultSettings())
	s.AddObstacle(geometry.NewBuilding(14, 10, 24, 20, "block"))
	s.RebuildMasks()

	snap := s.Snapshot()
	assert.NotNil(t, snap.K)
	assert.NotNil(t, snap.Omega)
	assert.Nil(t, snap.Epsilon)
	assert.Len(t, snap.Obstacles, 1)

	before := snap.U.At(5, 5)
	s.U.Set(5, 5, -99)
	s.Turb.K.Set(5, 5, -99)
	s.Solid.Set(5, 5, true)
	assert.Equal(t, before, snap.U.At(5, 5))
	assert.NotEqual(t, -99.0, snap.K.At(5, 5))
	assert.False(t, snap.Solid.At(5, 5))
}

func TestVelocityMagnitude(t *testing.T) {
	d := testDomain(t, 40, 30, 20, 15)
	bc := BoundaryConditions{InletVelocity: 5, InletDirection: 225}
	s := NewSolver(d, air(), bc, DefaultSettings())
	vel := s.VelocityMagnitude()
	assert.InDelta(t, 5.0, vel.At(7, 7), 1e-12)
}

package simulation

import (
	"math"

	"github.com/urbanwind/nestcfd/geometry"
	"gonum.org/v1/gonum/mat"
)

// Mask is a boolean cell-occupancy grid with the same (ny, nx) layout as the
// field matrices.
type Mask struct {
	Ny, Nx int
	data   []bool
}

func NewMask(ny, nx int) *Mask {
	return &Mask{Ny: ny, Nx: nx, data: make([]bool, ny*nx)}
}

func (m *Mask) At(j, i int) bool     { return m.data[j*m.Nx+i] }
func (m *Mask) Set(j, i int, v bool) { m.data[j*m.Nx+i] = v }

func (m *Mask) Count() (n int) {
	for _, v := range m.data {
		if v {
			n++
		}
	}
	return
}

func (m *Mask) Clone() *Mask {
	c := NewMask(m.Ny, m.Nx)
	copy(c.data, m.data)
	return c
}

// FluidProperties of the working fluid (air, unless noted).
type FluidProperties struct {
	Density   float64 // [kg/m3]
	Viscosity float64 // dynamic [Pa s]
}

// Kinematic returns the kinematic viscosity.
func (f FluidProperties) Kinematic() float64 { return f.Viscosity / f.Density }

// BoundaryConditions describe the approach flow for a standalone solve.
type BoundaryConditions struct {
	InletVelocity       float64 // [m/s]
	InletDirection      float64 // meteorological degrees, wind FROM; 270 = westerly
	TurbulenceIntensity float64
}

// InletComponents resolves the inlet wind vector. Direction follows the
// meteorological convention (clockwise from north, wind blowing from), so
// 270 degrees yields flow in +x.
func (bc BoundaryConditions) InletComponents() (u, v float64) {
	rad := (270 - bc.InletDirection) * math.Pi / 180
	return bc.InletVelocity * math.Cos(rad), bc.InletVelocity * math.Sin(rad)
}

// Settings control the iterative solve.
type Settings struct {
	MaxIterations      int
	Tolerance          float64
	PressureIterations int
	PrintInterval      int
	UseWallFunctions   bool
}

func DefaultSettings() Settings {
	return Settings{
		MaxIterations:      400,
		Tolerance:          1e-4,
		PressureIterations: 60,
		PrintInterval:      50,
		UseWallFunctions:   true,
	}
}

// FlowFieldSnapshot is the immutable record of one converged (or budget
// exhausted) solve. The nested layer reads it and never writes back.
type FlowFieldSnapshot struct {
	Domain geometry.Domain
	U, V   *mat.Dense
	P      *mat.Dense

	// Turbulence scalars; nil when the solve carried no turbulence model.
	// Epsilon is nil for the k-omega family.
	K, Omega, Epsilon *mat.Dense

	Solid     *Mask
	Obstacles []geometry.Obstacle

	Fluid    FluidProperties
	BC       BoundaryConditions
	Settings Settings
}

// VelocityMagnitude computes |V| from the snapshot fields.
func (s *FlowFieldSnapshot) VelocityMagnitude() *mat.Dense {
	return velocityMagnitude(s.U, s.V)
}

func velocityMagnitude(u, v *mat.Dense) *mat.Dense {
	ny, nx := u.Dims()
	out := mat.NewDense(ny, nx, nil)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			out.Set(j, i, math.Hypot(u.At(j, i), v.At(j, i)))
		}
	}
	return out
}

func cloneDense(m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	out := &mat.Dense{}
	out.CloneFrom(m)
	return out
}

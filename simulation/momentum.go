package simulation

import "math"

const (
	cflNumber     = 0.3
	pressureRelax = 0.3
)

// AdvanceMomentum performs one explicit momentum step (upwind convection,
// central diffusion with eddy viscosity, porous drag sink) and returns the
// pseudo time step used, derived from the CFL condition.
func (s *Solver) AdvanceMomentum() (dt float64) {
	var (
		ny, nx = s.Domain.Ny, s.Domain.Nx
		dx, dy = s.Domain.Dx(), s.Domain.Dy()
		nu     = s.Fluid.Kinematic()
	)
	s.uPrev.Copy(s.U)
	s.vPrev.Copy(s.V)

	maxSpeed := math.Max(s.BC.InletVelocity, 1e-6)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			sp := math.Hypot(s.U.At(j, i), s.V.At(j, i))
			if sp > maxSpeed {
				maxSpeed = sp
			}
		}
	}
	dt = cflNumber * math.Min(dx, dy) / maxSpeed
	s.dt = dt

	uNew := cloneDense(s.U)
	vNew := cloneDense(s.V)
	for j := 1; j < ny-1; j++ {
		for i := 1; i < nx-1; i++ {
			if s.Solid.At(j, i) {
				continue
			}
			u := s.U.At(j, i)
			v := s.V.At(j, i)

			// Upwind first derivatives.
			var dudx, dudy, dvdx, dvdy float64
			if u > 0 {
				dudx = (u - s.U.At(j, i-1)) / dx
				dvdx = (v - s.V.At(j, i-1)) / dx
			} else {
				dudx = (s.U.At(j, i+1) - u) / dx
				dvdx = (s.V.At(j, i+1) - v) / dx
			}
			if v > 0 {
				dudy = (u - s.U.At(j-1, i)) / dy
				dvdy = (v - s.V.At(j-1, i)) / dy
			} else {
				dudy = (s.U.At(j+1, i) - u) / dy
				dvdy = (s.V.At(j+1, i) - v) / dy
			}

			nuEff := nu
			if s.Turb != nil {
				nuEff += s.Turb.NuT.At(j, i)
			}
			lapU := (s.U.At(j, i+1)-2*u+s.U.At(j, i-1))/(dx*dx) +
				(s.U.At(j+1, i)-2*u+s.U.At(j-1, i))/(dy*dy)
			lapV := (s.V.At(j, i+1)-2*v+s.V.At(j, i-1))/(dx*dx) +
				(s.V.At(j+1, i)-2*v+s.V.At(j-1, i))/(dy*dy)

			du := -u*dudx - v*dudy + nuEff*lapU
			dv := -u*dvdx - v*dvdy + nuEff*lapV

			if s.Porous.At(j, i) {
				speed := math.Hypot(u, v)
				drag := s.Drag.At(j, i)
				du -= drag * speed * u
				dv -= drag * speed * v
			}

			uNew.Set(j, i, u+dt*du)
			vNew.Set(j, i, v+dt*dv)
		}
	}
	s.U.Copy(uNew)
	s.V.Copy(vNew)
	return dt
}

// CorrectFields applies the SIMPLE corrections: velocity from the
// pressure-correction gradient, pressure under-relaxed by the correction.
func (s *Solver) CorrectFields() {
	var (
		ny, nx = s.Domain.Ny, s.Domain.Nx
		dx, dy = s.Domain.Dx(), s.Domain.Dy()
		rho    = s.Fluid.Density
	)
	for j := 1; j < ny-1; j++ {
		for i := 1; i < nx-1; i++ {
			if s.Solid.At(j, i) {
				continue
			}
			dpdx := (s.pPrime.At(j, i+1) - s.pPrime.At(j, i-1)) / (2 * dx)
			dpdy := (s.pPrime.At(j+1, i) - s.pPrime.At(j-1, i)) / (2 * dy)
			s.U.Set(j, i, s.U.At(j, i)-s.dt/rho*dpdx)
			s.V.Set(j, i, s.V.At(j, i)-s.dt/rho*dpdy)
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			s.P.Set(j, i, s.P.At(j, i)+pressureRelax*s.pPrime.At(j, i))
		}
	}
}

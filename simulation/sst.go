package simulation

import (
	"fmt"
	"math"

	"github.com/urbanwind/nestcfd/geometry"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SSTConstants are the standard Menter SST closure coefficients plus the
// wall-minimum values assigned to in-solid cells.
type SSTConstants struct {
	BetaStar float64
	A1       float64
	SigmaK1  float64
	SigmaK2  float64
	SigmaW1  float64
	SigmaW2  float64
	Beta1    float64
	Beta2    float64
	Gamma1   float64
	Gamma2   float64
	Kappa    float64

	KMin     float64
	OmegaMin float64
}

func DefaultSSTConstants() SSTConstants {
	const (
		betaStar     = 0.09
		sqrtBetaStar = 0.3
		sigmaW1      = 0.5
		sigmaW2      = 0.856
		kappa        = 0.41
		beta1        = 0.075
		beta2        = 0.0828
	)
	return SSTConstants{
		BetaStar: betaStar,
		A1:       0.31,
		SigmaK1:  0.85,
		SigmaK2:  1.0,
		SigmaW1:  sigmaW1,
		SigmaW2:  sigmaW2,
		Beta1:    beta1,
		Beta2:    beta2,
		Gamma1:   beta1/betaStar - sigmaW1*kappa*kappa/sqrtBetaStar,
		Gamma2:   beta2/betaStar - sigmaW2*kappa*kappa/sqrtBetaStar,
		Kappa:    kappa,
		KMin:     1e-10,
		OmegaMin: 1.0,
	}
}

// SSTModel is the k-omega SST turbulence closure on the solver's grid.
type SSTModel struct {
	Domain geometry.Domain
	Const  SSTConstants

	K, Omega *mat.Dense
	NuT      *mat.Dense
	F1, F2   *mat.Dense
	WallDist *mat.Dense

	solid, porous    *Mask
	nu               float64
	useWallFunctions bool

	inletK, inletOmega float64
}

func NewSSTModel(domain geometry.Domain, fluid FluidProperties,
	bc BoundaryConditions, useWallFunctions bool) *SSTModel {
	var (
		ny, nx = domain.Ny, domain.Nx
	)
	m := &SSTModel{
		Domain:           domain,
		Const:            DefaultSSTConstants(),
		K:                mat.NewDense(ny, nx, nil),
		Omega:            mat.NewDense(ny, nx, nil),
		NuT:              mat.NewDense(ny, nx, nil),
		F1:               mat.NewDense(ny, nx, nil),
		F2:               mat.NewDense(ny, nx, nil),
		WallDist:         mat.NewDense(ny, nx, nil),
		solid:            NewMask(ny, nx),
		porous:           NewMask(ny, nx),
		nu:               fluid.Kinematic(),
		useWallFunctions: useWallFunctions,
	}
	// Inlet turbulence from intensity and a mixing length tied to the
	// domain height.
	uRef := math.Max(bc.InletVelocity, 1e-6)
	m.inletK = math.Max(1.5*math.Pow(uRef*bc.TurbulenceIntensity, 2), m.Const.KMin)
	ell := 0.07 * domain.Height
	m.inletOmega = math.Sqrt(m.inletK) / (math.Pow(m.Const.BetaStar, 0.25) * ell)
	m.InitializeInlet()
	m.computeWallDistance()
	return m
}

// InitializeInlet resets k and omega everywhere to the inlet freestream
// values. Used for standalone solves and as the fallback when a nested
// solve has no coarse turbulence data to interpolate.
func (m *SSTModel) InitializeInlet() {
	for j := 0; j < m.Domain.Ny; j++ {
		for i := 0; i < m.Domain.Nx; i++ {
			if m.solid.At(j, i) {
				m.K.Set(j, i, m.Const.KMin)
				m.Omega.Set(j, i, m.Const.OmegaMin)
				m.NuT.Set(j, i, 0)
				continue
			}
			m.K.Set(j, i, m.inletK)
			m.Omega.Set(j, i, m.inletOmega)
			m.NuT.Set(j, i, m.inletK/m.inletOmega)
		}
	}
}

// SetMasks installs the occupancy masks and recomputes wall distances.
func (m *SSTModel) SetMasks(solid, porous *Mask) {
	m.solid = solid
	m.porous = porous
	m.computeWallDistance()
	for j := 0; j < m.Domain.Ny; j++ {
		for i := 0; i < m.Domain.Nx; i++ {
			if solid.At(j, i) {
				m.K.Set(j, i, m.Const.KMin)
				m.Omega.Set(j, i, m.Const.OmegaMin)
				m.NuT.Set(j, i, 0)
			}
		}
	}
}

// computeWallDistance runs a two-pass chamfer sweep, giving the distance in
// meters from each cell to the nearest solid cell.
func (m *SSTModel) computeWallDistance() {
	var (
		ny, nx = m.Domain.Ny, m.Domain.Nx
		dx, dy = m.Domain.Dx(), m.Domain.Dy()
		far    = m.Domain.Width + m.Domain.Height
		diag   = math.Hypot(dx, dy)
	)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if m.solid.At(j, i) {
				m.WallDist.Set(j, i, 0)
			} else {
				m.WallDist.Set(j, i, far)
			}
		}
	}
	relax := func(j, i, jn, in int, step float64) {
		if jn < 0 || jn >= ny || in < 0 || in >= nx {
			return
		}
		if d := m.WallDist.At(jn, in) + step; d < m.WallDist.At(j, i) {
			m.WallDist.Set(j, i, d)
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			relax(j, i, j, i-1, dx)
			relax(j, i, j-1, i, dy)
			relax(j, i, j-1, i-1, diag)
			relax(j, i, j-1, i+1, diag)
		}
	}
	for j := ny - 1; j >= 0; j-- {
		for i := nx - 1; i >= 0; i-- {
			relax(j, i, j, i+1, dx)
			relax(j, i, j+1, i, dy)
			relax(j, i, j+1, i+1, diag)
			relax(j, i, j+1, i-1, diag)
		}
	}
}

// Fields returns the turbulence scalar arrays (k, omega).
func (m *SSTModel) Fields() (k, omega *mat.Dense) { return m.K, m.Omega }

// TurbulentViscosity returns the eddy viscosity array.
func (m *SSTModel) TurbulentViscosity() *mat.Dense { return m.NuT }

func blend(f1, one, two float64) float64 { return f1*one + (1-f1)*two }

// Advance integrates the k and omega transport equations one step. When
// fixedBoundaries is set, the default zero-gradient copy onto the border
// cells is skipped so that externally imposed (nested) Dirichlet values
// survive.
func (m *SSTModel) Advance(dt float64, u, v *mat.Dense, fixedBoundaries bool) {
	var (
		ny, nx = m.Domain.Ny, m.Domain.Nx
		dx, dy = m.Domain.Dx(), m.Domain.Dy()
		c      = m.Const
	)
	kNew := cloneDense(m.K)
	omegaNew := cloneDense(m.Omega)
	for j := 1; j < ny-1; j++ {
		for i := 1; i < nx-1; i++ {
			if m.solid.At(j, i) {
				continue
			}
			k := m.K.At(j, i)
			omega := math.Max(m.Omega.At(j, i), 1e-10)
			nuT := m.NuT.At(j, i)
			f1 := m.F1.At(j, i)

			dudx := (u.At(j, i+1) - u.At(j, i-1)) / (2 * dx)
			dudy := (u.At(j+1, i) - u.At(j-1, i)) / (2 * dy)
			dvdx := (v.At(j, i+1) - v.At(j, i-1)) / (2 * dx)
			dvdy := (v.At(j+1, i) - v.At(j-1, i)) / (2 * dy)
			s2 := 2*(dudx*dudx+dvdy*dvdy) + (dudy+dvdx)*(dudy+dvdx)

			// Production with the standard SST limiter.
			prodK := math.Min(nuT*s2, 10*c.BetaStar*k*omega)

			sigmaK := blend(f1, c.SigmaK1, c.SigmaK2)
			sigmaW := blend(f1, c.SigmaW1, c.SigmaW2)
			lapK := (m.K.At(j, i+1)-2*k+m.K.At(j, i-1))/(dx*dx) +
				(m.K.At(j+1, i)-2*k+m.K.At(j-1, i))/(dy*dy)
			lapW := (m.Omega.At(j, i+1)-2*omega+m.Omega.At(j, i-1))/(dx*dx) +
				(m.Omega.At(j+1, i)-2*omega+m.Omega.At(j-1, i))/(dy*dy)

			dkdx := (m.K.At(j, i+1) - m.K.At(j, i-1)) / (2 * dx)
			dkdy := (m.K.At(j+1, i) - m.K.At(j-1, i)) / (2 * dy)
			dwdx := (m.Omega.At(j, i+1) - m.Omega.At(j, i-1)) / (2 * dx)
			dwdy := (m.Omega.At(j+1, i) - m.Omega.At(j-1, i)) / (2 * dy)
			crossDiff := 2 * (1 - f1) * c.SigmaW2 / omega * (dkdx*dwdx + dkdy*dwdy)

			gamma := blend(f1, c.Gamma1, c.Gamma2)
			beta := blend(f1, c.Beta1, c.Beta2)

			dk := prodK - c.BetaStar*k*omega + (m.nu+sigmaK*nuT)*lapK
			dw := gamma*s2 - beta*omega*omega + (m.nu+sigmaW*nuT)*lapW + crossDiff

			kNew.Set(j, i, math.Max(k+dt*dk, c.KMin))
			omegaNew.Set(j, i, math.Max(omega+dt*dw, c.OmegaMin))
		}
	}
	m.K.Copy(kNew)
	m.Omega.Copy(omegaNew)

	if !fixedBoundaries {
		// Zero-gradient open boundaries.
		for j := 0; j < ny; j++ {
			m.K.Set(j, nx-1, m.K.At(j, nx-2))
			m.Omega.Set(j, nx-1, m.Omega.At(j, nx-2))
		}
		for i := 0; i < nx; i++ {
			m.K.Set(0, i, m.K.At(1, i))
			m.Omega.Set(0, i, m.Omega.At(1, i))
			m.K.Set(ny-1, i, m.K.At(ny-2, i))
			m.Omega.Set(ny-1, i, m.Omega.At(ny-2, i))
		}
	}

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if m.solid.At(j, i) {
				m.K.Set(j, i, m.Const.KMin)
				m.Omega.Set(j, i, m.Const.OmegaMin)
			}
		}
	}
	m.RefreshDerived(u, v)
}

// RefreshDerived recomputes the blending functions and eddy viscosity from
// the current k, omega and velocity state.
func (m *SSTModel) RefreshDerived(u, v *mat.Dense) {
	var (
		ny, nx = m.Domain.Ny, m.Domain.Nx
		dx, dy = m.Domain.Dx(), m.Domain.Dy()
		c      = m.Const
	)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if m.solid.At(j, i) {
				m.F1.Set(j, i, 1)
				m.F2.Set(j, i, 1)
				m.NuT.Set(j, i, 0)
				continue
			}
			k := math.Max(m.K.At(j, i), c.KMin)
			omega := math.Max(m.Omega.At(j, i), 1e-10)
			d := math.Max(m.WallDist.At(j, i), 1e-6)

			if m.useWallFunctions && m.WallDist.At(j, i) <= math.Hypot(dx, dy) {
				// Menter near-wall omega, keeps the first off-wall cell
				// from under-dissipating.
				omega = math.Max(omega, 6*m.nu/(c.Beta1*d*d))
				m.Omega.Set(j, i, omega)
			}

			arg2 := math.Max(2*math.Sqrt(k)/(c.BetaStar*omega*d),
				500*m.nu/(d*d*omega))
			f2 := math.Tanh(arg2 * arg2)

			// Cross-diffusion term for F1 from one-sided safe gradients.
			var dkdx, dkdy, dwdx, dwdy float64
			if i > 0 && i < nx-1 {
				dkdx = (m.K.At(j, i+1) - m.K.At(j, i-1)) / (2 * dx)
				dwdx = (m.Omega.At(j, i+1) - m.Omega.At(j, i-1)) / (2 * dx)
			}
			if j > 0 && j < ny-1 {
				dkdy = (m.K.At(j+1, i) - m.K.At(j-1, i)) / (2 * dy)
				dwdy = (m.Omega.At(j+1, i) - m.Omega.At(j-1, i)) / (2 * dy)
			}
			cdkw := math.Max(2*c.SigmaW2/omega*(dkdx*dwdx+dkdy*dwdy), 1e-10)
			arg1 := math.Min(
				math.Max(math.Sqrt(k)/(c.BetaStar*omega*d), 500*m.nu/(d*d*omega)),
				4*c.SigmaW2*k/(cdkw*d*d))
			f1 := math.Tanh(arg1 * arg1 * arg1 * arg1)

			var s float64
			if i > 0 && i < nx-1 && j > 0 && j < ny-1 {
				dudx := (u.At(j, i+1) - u.At(j, i-1)) / (2 * dx)
				dudy := (u.At(j+1, i) - u.At(j-1, i)) / (2 * dy)
				dvdx := (v.At(j, i+1) - v.At(j, i-1)) / (2 * dx)
				dvdy := (v.At(j+1, i) - v.At(j-1, i)) / (2 * dy)
				s = math.Sqrt(2*(dudx*dudx+dvdy*dvdy) + (dudy+dvdx)*(dudy+dvdx))
			}

			m.F1.Set(j, i, f1)
			m.F2.Set(j, i, f2)
			m.NuT.Set(j, i, c.A1*k/math.Max(c.A1*omega, s*f2))
		}
	}
}

// diagnostics renders the turbulence fragment of a progress line.
func (m *SSTModel) diagnostics() string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf(", nu_t_max=%.2e, k_mean=%.2e, omega_mean=%.2e, F2=%.3f",
		mat.Max(m.NuT),
		stat.Mean(m.K.RawMatrix().Data, nil),
		stat.Mean(m.Omega.RawMatrix().Data, nil),
		stat.Mean(m.F2.RawMatrix().Data, nil))
}

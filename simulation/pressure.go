package simulation

import (
	"math"

	"github.com/james-bowman/sparse"
	"github.com/urbanwind/nestcfd/geometry"
)

// pressureSystem holds the discrete pressure-correction Poisson operator.
// The 5-point Laplacian only couples fluid cells (solid neighbors and the
// domain border act as zero-gradient walls), solid cells carry identity
// rows, and a small diagonal shift removes the pure-Neumann null space so
// the system stays positive definite for conjugate gradients. The operator
// depends on geometry only, so it is assembled once per mask rebuild.
type pressureSystem struct {
	n   int
	nx  int
	A   *sparse.CSR
	rhs []float64
	x   []float64
	r   []float64
	d   []float64
	ad  []float64
}

func newPressureSystem(dom geometry.Domain, solid *Mask) *pressureSystem {
	var (
		ny, nx = dom.Ny, dom.Nx
		n      = ny * nx
		ax     = 1 / (dom.Dx() * dom.Dx())
		ay     = 1 / (dom.Dy() * dom.Dy())
		shift  = 1e-8 * (ax + ay)
	)
	dok := sparse.NewDOK(n, n)
	idx := func(j, i int) int { return j*nx + i }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			c := idx(j, i)
			if solid.At(j, i) {
				dok.Set(c, c, 1)
				continue
			}
			diag := shift
			couple := func(jn, in int, coeff float64) {
				if jn < 0 || jn >= ny || in < 0 || in >= nx || solid.At(jn, in) {
					return
				}
				diag += coeff
				dok.Set(c, idx(jn, in), -coeff)
			}
			couple(j, i-1, ax)
			couple(j, i+1, ax)
			couple(j-1, i, ay)
			couple(j+1, i, ay)
			if diag == shift {
				// Fully enclosed cell, decouple it.
				diag = 1
			}
			dok.Set(c, c, diag)
		}
	}
	return &pressureSystem{
		n:   n,
		nx:  nx,
		A:   dok.ToCSR(),
		rhs: make([]float64, n),
		x:   make([]float64, n),
		r:   make([]float64, n),
		d:   make([]float64, n),
		ad:  make([]float64, n),
	}
}

func (ps *pressureSystem) matVec(x, y []float64) {
	for i := range y {
		y[i] = 0
	}
	ps.A.DoNonZero(func(i, j int, v float64) {
		y[i] += v * x[j]
	})
}

// solveCG runs plain conjugate gradients, warm-started from the previous
// correction.
func (ps *pressureSystem) solveCG(maxIters int, tol float64) {
	ps.matVec(ps.x, ps.r)
	for i := range ps.r {
		ps.r[i] = ps.rhs[i] - ps.r[i]
		ps.d[i] = ps.r[i]
	}
	var rDotR float64
	for _, v := range ps.r {
		rDotR += v * v
	}
	threshold := tol * tol * rDotR
	for iter := 0; iter < maxIters && rDotR > threshold && rDotR > 0; iter++ {
		ps.matVec(ps.d, ps.ad)
		var dDotAd float64
		for i, v := range ps.d {
			dDotAd += v * ps.ad[i]
		}
		if dDotAd <= 0 {
			break
		}
		alpha := rDotR / dDotAd
		for i := range ps.x {
			ps.x[i] += alpha * ps.d[i]
			ps.r[i] -= alpha * ps.ad[i]
		}
		rDotROld := rDotR
		rDotR = 0
		for _, v := range ps.r {
			rDotR += v * v
		}
		beta := rDotR / rDotROld
		for i := range ps.d {
			ps.d[i] = ps.r[i] + beta*ps.d[i]
		}
	}
}

// AdvancePressure solves the pressure-correction equation for the current
// intermediate velocity field.
func (s *Solver) AdvancePressure() {
	if s.dt == 0 || s.pressure == nil {
		return
	}
	var (
		ny, nx = s.Domain.Ny, s.Domain.Nx
		dx, dy = s.Domain.Dx(), s.Domain.Dy()
		scale  = s.Fluid.Density / s.dt
		ps     = s.pressure
	)
	for i := range ps.rhs {
		ps.rhs[i] = 0
	}
	for j := 1; j < ny-1; j++ {
		for i := 1; i < nx-1; i++ {
			if s.Solid.At(j, i) {
				continue
			}
			div := (s.U.At(j, i+1)-s.U.At(j, i-1))/(2*dx) +
				(s.V.At(j+1, i)-s.V.At(j-1, i))/(2*dy)
			ps.rhs[j*nx+i] = -scale * div
		}
	}
	ps.solveCG(s.Settings.PressureIterations, 1e-6)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v := ps.x[j*nx+i]
			if math.IsNaN(v) {
				v = 0
			}
			s.pPrime.Set(j, i, v)
		}
	}
}

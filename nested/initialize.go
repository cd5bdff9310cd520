package nested

import (
	"math"

	"github.com/urbanwind/nestcfd/config"
	"github.com/urbanwind/nestcfd/simulation"
	"gonum.org/v1/gonum/mat"
)

const (
	smoothingPasses = 3
	smoothingAlpha  = 0.2
)

// InitializeFine seeds the freshly constructed fine solver's fields from
// the coarse interpolants before the first iteration:
//
//   - u, v: interpolated at every node, then smoothed to strip the coarse
//     grid's discretization artifacts.
//   - p: interpolated only inside a border band; the interior starts at
//     zero. Transferring the coarse pressure field's interior would seed a
//     checkerboard pattern the pressure correction then has to unlearn.
//   - k, omega: interpolated over the full field from the
//     freestream-substituted interpolants, clamped to physical floors, with
//     solid cells reset to the model's wall minimums. When the coarse
//     snapshot has no turbulence data the model's own inlet initialization
//     is used instead.
//
// Returns whether turbulence data was transferred (and therefore whether
// the fine turbulence model must run with fixed boundaries).
func InitializeFine(s *simulation.Solver, itp *Interpolators, region Region,
	free config.Freestream) (turbulenceTransferred bool) {
	var (
		ny, nx = s.Domain.Ny, s.Domain.Nx
		xs     = linspace(region.XMin, region.XMax, nx)
		ys     = linspace(region.YMin, region.YMax, ny)
	)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			s.U.Set(j, i, itp.U.At(xs[i], ys[j]))
			s.V.Set(j, i, itp.V.At(xs[i], ys[j]))
		}
	}

	band := borderBand(nx, ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if j < band || j >= ny-band || i < band || i >= nx-band {
				s.P.Set(j, i, itp.P.At(xs[i], ys[j]))
			} else {
				s.P.Set(j, i, 0)
			}
		}
	}

	for pass := 0; pass < smoothingPasses; pass++ {
		smoothField(s.U, s.Solid, smoothingAlpha)
		smoothField(s.V, s.Solid, smoothingAlpha)
	}

	if itp.K != nil && s.Turb != nil {
		m := s.Turb
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				if s.Solid.At(j, i) {
					m.K.Set(j, i, m.Const.KMin)
					m.Omega.Set(j, i, m.Const.OmegaMin)
					continue
				}
				m.K.Set(j, i, math.Max(itp.K.At(xs[i], ys[j]), free.KFloor))
				m.Omega.Set(j, i, math.Max(itp.Omega.At(xs[i], ys[j]), free.OmegaFloor))
			}
		}
		turbulenceTransferred = true
	} else if s.Turb != nil {
		s.Turb.InitializeInlet()
	}
	if s.Turb != nil {
		s.Turb.RefreshDerived(s.U, s.V)
	}
	return turbulenceTransferred
}

// borderBand is the width in cells of the pressure seeding band.
func borderBand(nx, ny int) int {
	band := 10
	if nx/6 < band {
		band = nx / 6
	}
	if ny/6 < band {
		band = ny / 6
	}
	return band
}

// smoothField applies one pass of neighbor-average relaxation restricted to
// non-solid cells: new = (1-alpha)*old + alpha*mean(fluid 4-neighbors).
func smoothField(f *mat.Dense, solid *simulation.Mask, alpha float64) {
	ny, nx := f.Dims()
	orig := &mat.Dense{}
	orig.CloneFrom(f)
	for j := 1; j < ny-1; j++ {
		for i := 1; i < nx-1; i++ {
			if solid.At(j, i) {
				continue
			}
			var sum float64
			var n int
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				jn, in := j+d[0], i+d[1]
				if solid.At(jn, in) {
					continue
				}
				sum += orig.At(jn, in)
				n++
			}
			if n > 0 {
				f.Set(j, i, (1-alpha)*orig.At(j, i)+alpha*sum/float64(n))
			}
		}
	}
}

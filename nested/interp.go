package nested

import (
	"math"
	"sort"

	"github.com/urbanwind/nestcfd/config"
	"github.com/urbanwind/nestcfd/simulation"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// GridInterpolant samples one coarse field at arbitrary physical
// coordinates using piecewise-bilinear interpolation over the coarse node
// lattice. Points marginally outside the extent are edge-clamped, matching
// the coarse solve's zero-gradient borders. Sampling never mutates state.
type GridInterpolant struct {
	width, height float64
	nx, ny        int
	f             *mat.Dense
}

func newGridInterpolant(width, height float64, f *mat.Dense) *GridInterpolant {
	ny, nx := f.Dims()
	own := &mat.Dense{}
	own.CloneFrom(f)
	return &GridInterpolant{width: width, height: height, nx: nx, ny: ny, f: own}
}

// At returns the bilinearly interpolated value at (x, y).
func (g *GridInterpolant) At(x, y float64) float64 {
	tx := x / g.width * float64(g.nx-1)
	ty := y / g.height * float64(g.ny-1)
	tx = math.Min(math.Max(tx, 0), float64(g.nx-1))
	ty = math.Min(math.Max(ty, 0), float64(g.ny-1))

	i0 := int(tx)
	j0 := int(ty)
	if i0 > g.nx-2 {
		i0 = g.nx - 2
	}
	if j0 > g.ny-2 {
		j0 = g.ny - 2
	}
	fx := tx - float64(i0)
	fy := ty - float64(j0)

	v00 := g.f.At(j0, i0)
	v01 := g.f.At(j0, i0+1)
	v10 := g.f.At(j0+1, i0)
	v11 := g.f.At(j0+1, i0+1)
	return v00*(1-fx)*(1-fy) + v01*fx*(1-fy) + v10*(1-fx)*fy + v11*fx*fy
}

// Interpolators bundle the per-field interpolation functions built from one
// converged coarse snapshot. K and Omega are nil when the coarse solve
// carried no turbulence data.
type Interpolators struct {
	U, V, P  *GridInterpolant
	K, Omega *GridInterpolant

	// The freestream estimates substituted into solid cells before the
	// turbulence interpolants were built.
	KFreestream     float64
	OmegaFreestream float64
}

// NewInterpolators builds the interpolation functions from a coarse
// snapshot. Solid-cell turbulence entries are replaced with a freestream
// estimate first: the median of non-solid values above the configured
// physical threshold, or the fallback constant when no such values exist.
// Near-wall cells report near-zero k and huge gradients; left in place they
// would smear spurious low-turbulence holes into the fine grid's boundary.
func NewInterpolators(snap *simulation.FlowFieldSnapshot, free config.Freestream) *Interpolators {
	var (
		w, h = snap.Domain.Width, snap.Domain.Height
	)
	itp := &Interpolators{
		U: newGridInterpolant(w, h, snap.U),
		V: newGridInterpolant(w, h, snap.V),
		P: newGridInterpolant(w, h, snap.P),
	}
	if snap.K != nil && snap.Omega != nil {
		kSub, kFree := substituteFreestream(snap.K, snap.Solid,
			free.KThreshold, free.KFallback)
		omegaSub, omegaFree := substituteFreestream(snap.Omega, snap.Solid,
			free.OmegaThreshold, free.OmegaFallback)
		itp.K = newGridInterpolant(w, h, kSub)
		itp.Omega = newGridInterpolant(w, h, omegaSub)
		itp.KFreestream = kFree
		itp.OmegaFreestream = omegaFree
	}
	return itp
}

// substituteFreestream returns a copy of f with every solid-cell entry
// replaced by the freestream estimate, plus the estimate itself.
func substituteFreestream(f *mat.Dense, solid *simulation.Mask,
	threshold, fallback float64) (*mat.Dense, float64) {
	ny, nx := f.Dims()
	var valid []float64
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if solid.At(j, i) {
				continue
			}
			if v := f.At(j, i); v > threshold {
				valid = append(valid, v)
			}
		}
	}
	value := fallback
	if len(valid) > 0 {
		sort.Float64s(valid)
		value = stat.Quantile(0.5, stat.Empirical, valid, nil)
	}
	out := &mat.Dense{}
	out.CloneFrom(f)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if solid.At(j, i) {
				out.Set(j, i, value)
			}
		}
	}
	return out, value
}

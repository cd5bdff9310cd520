package nested

import (
	"github.com/urbanwind/nestcfd/simulation"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// Edge identifies one border of the nested region.
type Edge int

const (
	West Edge = iota
	East
	South
	North
	numEdges
)

func (e Edge) String() string {
	return [...]string{"west", "east", "south", "north"}[e]
}

// Profile holds the interpolated per-node boundary values along one edge,
// sampled at the fine grid's node spacing. Never mutated after creation.
type Profile struct {
	U, V, P  []float64
	K, Omega []float64
}

// Bridge carries one Profile per edge and re-imposes them onto a fine
// solver's border cells every iteration. Velocity and pressure are forced
// each step; turbulence profiles are applied once at initialization and
// preserved through the solver's fixed-boundaries mode instead.
type Bridge struct {
	profiles [numEdges]*Profile
}

// BuildBridge samples the coarse interpolants along the region's four
// edges at the fine grid's node coordinates.
func BuildBridge(itp *Interpolators, region Region, fineNx, fineNy int) *Bridge {
	b := &Bridge{}
	xs := linspace(region.XMin, region.XMax, fineNx)
	ys := linspace(region.YMin, region.YMax, fineNy)

	sampleEdge := func(px, py []float64) *Profile {
		n := len(px)
		p := &Profile{
			U: make([]float64, n),
			V: make([]float64, n),
			P: make([]float64, n),
		}
		if itp.K != nil {
			p.K = make([]float64, n)
			p.Omega = make([]float64, n)
		}
		for i := 0; i < n; i++ {
			p.U[i] = itp.U.At(px[i], py[i])
			p.V[i] = itp.V.At(px[i], py[i])
			p.P[i] = itp.P.At(px[i], py[i])
			if p.K != nil {
				p.K[i] = itp.K.At(px[i], py[i])
				p.Omega[i] = itp.Omega.At(px[i], py[i])
			}
		}
		return p
	}

	b.profiles[West] = sampleEdge(constants(region.XMin, fineNy), ys)
	b.profiles[East] = sampleEdge(constants(region.XMax, fineNy), ys)
	b.profiles[South] = sampleEdge(xs, constants(region.YMin, fineNx))
	b.profiles[North] = sampleEdge(xs, constants(region.YMax, fineNx))
	return b
}

// Profile returns the stored profile for an edge, or nil.
func (b *Bridge) Profile(e Edge) *Profile { return b.profiles[e] }

// Apply overwrites the solver's border-cell velocities with the stored
// profiles, resampling when the profile length differs from the edge
// length.
func (b *Bridge) Apply(s *simulation.Solver) {
	ny, nx := s.Domain.Ny, s.Domain.Nx
	if p := b.profiles[West]; p != nil {
		setColumn(s.U, 0, fit(p.U, ny))
		setColumn(s.V, 0, fit(p.V, ny))
	}
	if p := b.profiles[East]; p != nil {
		setColumn(s.U, nx-1, fit(p.U, ny))
		setColumn(s.V, nx-1, fit(p.V, ny))
	}
	if p := b.profiles[South]; p != nil {
		setRow(s.U, 0, fit(p.U, nx))
		setRow(s.V, 0, fit(p.V, nx))
	}
	if p := b.profiles[North]; p != nil {
		setRow(s.U, ny-1, fit(p.U, nx))
		setRow(s.V, ny-1, fit(p.V, nx))
	}
}

// ApplyPressure overwrites border pressure where profile data exists and
// falls back to a zero-gradient copy of the adjacent interior elsewhere.
// Forcing a Dirichlet pressure on an edge meant to act as outflow is
// unphysical, hence the hybrid.
func (b *Bridge) ApplyPressure(s *simulation.Solver) {
	ny, nx := s.Domain.Ny, s.Domain.Nx
	if p := b.profiles[West]; p != nil && p.P != nil {
		setColumn(s.P, 0, fit(p.P, ny))
	} else {
		copyColumn(s.P, 0, 1)
	}
	if p := b.profiles[East]; p != nil && p.P != nil {
		setColumn(s.P, nx-1, fit(p.P, ny))
	} else {
		copyColumn(s.P, nx-1, nx-2)
	}
	if p := b.profiles[South]; p != nil && p.P != nil {
		setRow(s.P, 0, fit(p.P, nx))
	} else {
		copyRow(s.P, 0, 1)
	}
	if p := b.profiles[North]; p != nil && p.P != nil {
		setRow(s.P, ny-1, fit(p.P, nx))
	} else {
		copyRow(s.P, ny-1, ny-2)
	}
}

// ApplyTurbulence imposes the interpolated k and omega profiles on the
// turbulence model's border cells. Called once during initialization; the
// values are preserved afterwards by the model's fixed-boundaries mode.
func (b *Bridge) ApplyTurbulence(m *simulation.SSTModel) {
	if m == nil {
		return
	}
	ny, nx := m.Domain.Ny, m.Domain.Nx
	if p := b.profiles[West]; p != nil && p.K != nil {
		setColumn(m.K, 0, fit(p.K, ny))
		setColumn(m.Omega, 0, fit(p.Omega, ny))
	}
	if p := b.profiles[East]; p != nil && p.K != nil {
		setColumn(m.K, nx-1, fit(p.K, ny))
		setColumn(m.Omega, nx-1, fit(p.Omega, ny))
	}
	if p := b.profiles[South]; p != nil && p.K != nil {
		setRow(m.K, 0, fit(p.K, nx))
		setRow(m.Omega, 0, fit(p.Omega, nx))
	}
	if p := b.profiles[North]; p != nil && p.K != nil {
		setRow(m.K, ny-1, fit(p.K, nx))
		setRow(m.Omega, ny-1, fit(p.Omega, nx))
	}
}

// fit resamples vals to n points by linear interpolation over normalized
// edge position. Truncation would shift every boundary node; resampling
// keeps the profile geometrically aligned when region bounds don't land
// exactly on coarse cell boundaries.
func fit(vals []float64, n int) []float64 {
	if len(vals) == n {
		return vals
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(linspace(0, 1, len(vals)), vals); err != nil {
		panic(err)
	}
	out := make([]float64, n)
	for i, x := range linspace(0, 1, n) {
		out[i] = pl.Predict(x)
	}
	return out
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func constants(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func setColumn(m *mat.Dense, col int, vals []float64) {
	for j, v := range vals {
		m.Set(j, col, v)
	}
}

func setRow(m *mat.Dense, row int, vals []float64) {
	for i, v := range vals {
		m.Set(row, i, v)
	}
}

func copyColumn(m *mat.Dense, dst, src int) {
	r, _ := m.Dims()
	for j := 0; j < r; j++ {
		m.Set(j, dst, m.At(j, src))
	}
}

func copyRow(m *mat.Dense, dst, src int) {
	_, c := m.Dims()
	for i := 0; i < c; i++ {
		m.Set(dst, i, m.At(src, i))
	}
}

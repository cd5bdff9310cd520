package nested

import (
	"math"

	"github.com/urbanwind/nestcfd/simulation"
	"gonum.org/v1/gonum/mat"
)

// Merged is the combined coarse+fine field set on the coarse grid's index
// range: coarse fields everywhere, with the region's index block replaced
// by the downsampled fine solution. Presentation only, it never feeds back
// into a solve.
type Merged struct {
	U, V, P *mat.Dense
	Vel     *mat.Dense

	// The coarse index block that was replaced.
	IMin, IMax, JMin, JMax int
}

// Compose merges a solved fine snapshot back onto the coarse grid.
func Compose(coarse, fine *simulation.FlowFieldSnapshot, region Region) *Merged {
	var (
		dx = coarse.Domain.Dx()
		dy = coarse.Domain.Dy()
	)
	m := &Merged{
		U:    cloneDense(coarse.U),
		V:    cloneDense(coarse.V),
		P:    cloneDense(coarse.P),
		IMin: int(region.XMin / dx),
		IMax: int(region.XMax / dx),
		JMin: int(region.YMin / dy),
		JMax: int(region.YMax / dy),
	}
	rows := m.JMax - m.JMin
	cols := m.IMax - m.IMin

	insert := func(dst *mat.Dense, src *mat.Dense) {
		block := resampleLinear(src, rows, cols)
		for j := 0; j < rows; j++ {
			for i := 0; i < cols; i++ {
				dst.Set(m.JMin+j, m.IMin+i, block.At(j, i))
			}
		}
	}
	insert(m.U, fine.U)
	insert(m.V, fine.V)
	insert(m.P, fine.P)

	ny, nx := m.U.Dims()
	m.Vel = mat.NewDense(ny, nx, nil)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.Vel.Set(j, i, math.Hypot(m.U.At(j, i), m.V.At(j, i)))
		}
	}
	return m
}

// resampleLinear resamples src to (rows, cols) by bilinear interpolation in
// index space, mapping the output lattice onto the input's node range.
func resampleLinear(src *mat.Dense, rows, cols int) *mat.Dense {
	srcRows, srcCols := src.Dims()
	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < rows; j++ {
		ty := indexCoord(j, rows, srcRows)
		j0 := int(ty)
		if j0 > srcRows-2 {
			j0 = srcRows - 2
		}
		fy := ty - float64(j0)
		for i := 0; i < cols; i++ {
			tx := indexCoord(i, cols, srcCols)
			i0 := int(tx)
			if i0 > srcCols-2 {
				i0 = srcCols - 2
			}
			fx := tx - float64(i0)
			v := src.At(j0, i0)*(1-fx)*(1-fy) +
				src.At(j0, i0+1)*fx*(1-fy) +
				src.At(j0+1, i0)*(1-fx)*fy +
				src.At(j0+1, i0+1)*fx*fy
			out.Set(j, i, v)
		}
	}
	return out
}

// indexCoord maps output index o of nOut samples onto the input's
// [0, nIn-1] node range.
func indexCoord(o, nOut, nIn int) float64 {
	if nOut == 1 {
		return 0
	}
	return float64(o) * float64(nIn-1) / float64(nOut-1)
}

func cloneDense(m *mat.Dense) *mat.Dense {
	out := &mat.Dense{}
	out.CloneFrom(m)
	return out
}

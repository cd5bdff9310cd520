package geometry

import "fmt"

// Domain describes a uniform structured 2D grid covering a rectangular
// region of terrain. Width and Height are physical extents in meters,
// Nx and Ny the cell counts. A Domain is immutable once constructed.
type Domain struct {
	Width, Height float64
	Nx, Ny        int
}

func NewDomain(width, height float64, nx, ny int) (Domain, error) {
	if width <= 0 || height <= 0 {
		return Domain{}, fmt.Errorf("domain extent must be positive, have %gx%g", width, height)
	}
	if nx < 3 || ny < 3 {
		return Domain{}, fmt.Errorf("domain needs at least 3x3 cells, have %dx%d", nx, ny)
	}
	return Domain{Width: width, Height: height, Nx: nx, Ny: ny}, nil
}

// Dx is the cell size in x.
func (d Domain) Dx() float64 { return d.Width / float64(d.Nx) }

// Dy is the cell size in y.
func (d Domain) Dy() float64 { return d.Height / float64(d.Ny) }

// NodeX returns the x coordinate of grid node i, with nodes spanning
// [0, Width] inclusive on both ends.
func (d Domain) NodeX(i int) float64 {
	return d.Width * float64(i) / float64(d.Nx-1)
}

// NodeY returns the y coordinate of grid node j, spanning [0, Height].
func (d Domain) NodeY(j int) float64 {
	return d.Height * float64(j) / float64(d.Ny-1)
}

func (d Domain) String() string {
	return fmt.Sprintf("%g m x %g m, %d x %d cells, dx=%.3f m, dy=%.3f m",
		d.Width, d.Height, d.Nx, d.Ny, d.Dx(), d.Dy())
}

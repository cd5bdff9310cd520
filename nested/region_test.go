package nested

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urbanwind/nestcfd/geometry"
)

func coarseDomain(t *testing.T) geometry.Domain {
	t.Helper()
	d, err := geometry.NewDomain(100, 60, 50, 30)
	assert.NoError(t, err)
	return d
}

func TestRegionValidate(t *testing.T) {
	d := coarseDomain(t)

	assert.NoError(t, Region{XMin: 20, XMax: 60, YMin: 10, YMax: 40, Refinement: 4}.Validate(d))

	var cfgErr *ConfigurationError
	// refinement below 2 is refused, never clamped
	err := Region{XMin: 20, XMax: 60, YMin: 10, YMax: 40, Refinement: 1}.Validate(d)
	assert.Error(t, err)
	assert.ErrorAs(t, err, &cfgErr)

	// degenerate extent
	err = Region{XMin: 60, XMax: 20, YMin: 10, YMax: 40, Refinement: 4}.Validate(d)
	assert.ErrorAs(t, err, &cfgErr)

	// outside the coarse domain
	err = Region{XMin: 20, XMax: 120, YMin: 10, YMax: 40, Refinement: 4}.Validate(d)
	assert.ErrorAs(t, err, &cfgErr)
	err = Region{XMin: -5, XMax: 60, YMin: 10, YMax: 40, Refinement: 4}.Validate(d)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFineGridCellCounts(t *testing.T) {
	d := coarseDomain(t) // dx = dy = 2 m

	r := Region{XMin: 20, XMax: 60, YMin: 10, YMax: 40, Refinement: 4}
	fine, err := r.FineGrid(d)
	assert.NoError(t, err)
	// fine dx = 2/4 = 0.5 m over a 40x30 m region
	assert.Equal(t, 80, fine.Nx)
	assert.Equal(t, 60, fine.Ny)
	assert.InDelta(t, 0.5, fine.Dx(), 1e-12)
	assert.Equal(t, 40.0, fine.Width)
	assert.Equal(t, 30.0, fine.Height)

	// doubling the refinement doubles the cell counts
	r.Refinement = 8
	fine2, err := r.FineGrid(d)
	assert.NoError(t, err)
	assert.Equal(t, 2*fine.Nx, fine2.Nx)
	assert.Equal(t, 2*fine.Ny, fine2.Ny)
}

func TestFineGridRejectsBadRegion(t *testing.T) {
	d := coarseDomain(t)
	_, err := Region{XMin: 20, XMax: 60, YMin: 10, YMax: 40, Refinement: 0}.FineGrid(d)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

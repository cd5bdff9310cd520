// Package nested implements one-way nested-grid coupling: a refined
// sub-domain is solved with boundary and initial conditions interpolated
// from a converged coarse-grid solution. The coarse solution is never
// written back to.
package nested

import (
	"fmt"

	"github.com/urbanwind/nestcfd/geometry"
)

// ConfigurationError marks a nested-solve setup the solver refuses to run:
// a region outside the coarse domain or a refinement factor below 2. It is
// never silently clamped.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "nested configuration: " + e.Reason
}

// Region is the refined sub-domain in the coarse grid's coordinates. It
// must lie strictly inside the coarse extent.
type Region struct {
	XMin, XMax float64
	YMin, YMax float64
	Refinement int
}

func (r Region) Width() float64  { return r.XMax - r.XMin }
func (r Region) Height() float64 { return r.YMax - r.YMin }

// Validate checks the region against the coarse domain.
func (r Region) Validate(coarse geometry.Domain) error {
	if r.Refinement < 2 {
		return &ConfigurationError{
			Reason: fmt.Sprintf("refinement factor must be >= 2, have %d", r.Refinement)}
	}
	if r.XMin >= r.XMax || r.YMin >= r.YMax {
		return &ConfigurationError{
			Reason: fmt.Sprintf("degenerate region x=[%g, %g], y=[%g, %g]",
				r.XMin, r.XMax, r.YMin, r.YMax)}
	}
	if r.XMin < 0 || r.XMax > coarse.Width || r.YMin < 0 || r.YMax > coarse.Height {
		return &ConfigurationError{
			Reason: fmt.Sprintf("region x=[%g, %g], y=[%g, %g] outside coarse domain %gx%g",
				r.XMin, r.XMax, r.YMin, r.YMax, coarse.Width, coarse.Height)}
	}
	return nil
}

// FineGrid derives the refined grid for this region: fine cell size is the
// coarse cell size divided by the refinement factor, counts follow from the
// region extent.
func (r Region) FineGrid(coarse geometry.Domain) (geometry.Domain, error) {
	if err := r.Validate(coarse); err != nil {
		return geometry.Domain{}, err
	}
	fineDx := coarse.Dx() / float64(r.Refinement)
	fineDy := coarse.Dy() / float64(r.Refinement)
	nx := int(r.Width() / fineDx)
	ny := int(r.Height() / fineDy)
	return geometry.NewDomain(r.Width(), r.Height(), nx, ny)
}

package config

// Freestream holds the thresholds and fallback constants used when
// substituting in-solid turbulence values with a far-field estimate before
// coarse-to-fine interpolation, plus the physical floors applied after
// interpolation. The numbers are empirical and carried unchanged from the
// validated coarse-grid runs; they are not derived quantities.
type Freestream struct {
	// Values at or below the threshold are treated as wall-contaminated
	// and excluded from the median estimate.
	KThreshold     float64
	OmegaThreshold float64

	// Fallbacks when no valid samples remain.
	KFallback     float64
	OmegaFallback float64

	// Floors applied to interpolated fields on the fine grid.
	KFloor     float64
	OmegaFloor float64
}

func DefaultFreestream() Freestream {
	return Freestream{
		KThreshold:     1e-6,
		OmegaThreshold: 1.0,
		KFallback:      0.01,
		OmegaFallback:  100.0,
		KFloor:         1e-6,
		OmegaFloor:     0.1,
	}
}
